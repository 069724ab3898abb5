package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readlater/internal/database/articles"
	"github.com/mrlokans/readlater/internal/database/tags"
	"github.com/mrlokans/readlater/internal/entities"
)

type TagsController struct {
	store     TagStore
	articles  ArticleStore
	taskQueue TaskQueue
}

func NewTagsController(store TagStore, articleStore ArticleStore, taskQueue TaskQueue) *TagsController {
	return &TagsController{store: store, articles: articleStore, taskQueue: taskQueue}
}

// GetAllTags handles GET /api/tags
func (tc *TagsController) GetAllTags(c *gin.Context) {
	list, err := tc.store.ListTags(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list tags")
		return
	}
	if list == nil {
		list = []entities.Tag{}
	}
	c.JSON(http.StatusOK, list)
}

// CreateTag handles POST /api/tags
// Returns the existing tag when one with the same trimmed name exists.
func (tc *TagsController) CreateTag(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	tag, err := tc.store.GetOrCreateTag(c.Request.Context(), req.Name)
	if errors.Is(err, tags.ErrEmptyTagName) {
		respondBadRequest(c, "name is required")
		return
	}
	if err != nil {
		respondInternalError(c, err, "create tag")
		return
	}

	respondCreated(c, tag)
}

// DeleteTag handles DELETE /api/tags/:id
// Removes the tag from every article as well.
func (tc *TagsController) DeleteTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := tc.store.DeleteTag(c.Request.Context(), id)
	if errors.Is(err, tags.ErrTagNotFound) {
		respondNotFound(c, "tag")
		return
	}
	if err != nil {
		respondInternalError(c, err, "delete tag")
		return
	}

	respondSuccess(c, "tag deleted")
}

// GetArticleTags handles GET /api/articles/:id/tags
func (tc *TagsController) GetArticleTags(c *gin.Context) {
	articleID, ok := tc.requireArticle(c)
	if !ok {
		return
	}
	tc.respondArticleTags(c, articleID)
}

// SetArticleTags handles PUT /api/articles/:id/tags
// Replaces the article's tags with exactly the given tag IDs.
func (tc *TagsController) SetArticleTags(c *gin.Context) {
	articleID, ok := tc.requireArticle(c)
	if !ok {
		return
	}

	var req struct {
		TagIDs []string `json:"tag_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.TagIDs == nil {
		respondBadRequest(c, "tag_ids is required")
		return
	}

	ctx := c.Request.Context()
	for _, tagID := range req.TagIDs {
		if _, err := tc.store.GetTagByID(ctx, tagID); err != nil {
			if errors.Is(err, tags.ErrTagNotFound) {
				respondBadRequest(c, "unknown tag: "+tagID)
				return
			}
			respondInternalError(c, err, "get tag")
			return
		}
	}

	if err := tc.store.SetTagsForArticle(ctx, articleID, req.TagIDs); err != nil {
		respondInternalError(c, err, "set article tags")
		return
	}
	tc.respondArticleTags(c, articleID)
}

// AddArticleTags handles POST /api/articles/:id/tags
// Creates any missing tags by name and links them to the article.
func (tc *TagsController) AddArticleTags(c *gin.Context) {
	articleID, ok := tc.requireArticle(c)
	if !ok {
		return
	}

	var req struct {
		Names []string `json:"names" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "names is required")
		return
	}

	if _, err := tc.store.AddTagsToArticle(c.Request.Context(), articleID, req.Names); err != nil {
		respondInternalError(c, err, "add article tags")
		return
	}
	tc.respondArticleTags(c, articleID)
}

// CleanupOrphanTags handles POST /api/tags/cleanup
// Runs in the background when the task queue is available.
func (tc *TagsController) CleanupOrphanTags(c *gin.Context) {
	if tc.taskQueue != nil {
		taskID, err := tc.taskQueue.EnqueueTagCleanup(c.Request.Context())
		if err != nil {
			respondInternalError(c, err, "enqueue tag cleanup")
			return
		}
		respondAccepted(c, "tag cleanup enqueued", gin.H{"task_id": taskID})
		return
	}

	deleted, err := tc.store.DeleteOrphanTags(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "cleanup orphan tags")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (tc *TagsController) requireArticle(c *gin.Context) (string, bool) {
	articleID, ok := parseIDParam(c, "id")
	if !ok {
		return "", false
	}
	if _, err := tc.articles.GetArticleByID(c.Request.Context(), articleID); err != nil {
		if errors.Is(err, articles.ErrArticleNotFound) {
			respondNotFound(c, "article")
			return "", false
		}
		respondInternalError(c, err, "get article")
		return "", false
	}
	return articleID, true
}

func (tc *TagsController) respondArticleTags(c *gin.Context, articleID string) {
	list, err := tc.store.GetTagsForArticle(c.Request.Context(), articleID)
	if err != nil {
		respondInternalError(c, err, "get article tags")
		return
	}
	if list == nil {
		list = []entities.Tag{}
	}
	c.JSON(http.StatusOK, list)
}
