package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readlater/internal/assets"
	"github.com/mrlokans/readlater/internal/database/articles"
	"github.com/mrlokans/readlater/internal/entities"
)

// AssetServePrefix is where cached images are served from.
const AssetServePrefix = "/api/assets/"

const excerptRunes = 280

// ArticleSummary is the list representation of an article, without content.
type ArticleSummary struct {
	ID          string               `json:"id"`
	URL         string               `json:"url"`
	Title       string               `json:"title"`
	Excerpt     string               `json:"excerpt"`
	ParseStatus entities.ParseStatus `json:"parse_status"`
	IsArchived  bool                 `json:"is_archived"`
	IsRead      bool                 `json:"is_read"`
	SavedAt     time.Time            `json:"saved_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Tags        []entities.Tag       `json:"tags"`
}

// ArticlePatchRequest is the body of PATCH /api/articles/:id.
type ArticlePatchRequest struct {
	Title      *string `json:"title"`
	IsRead     *bool   `json:"is_read"`
	IsArchived *bool   `json:"is_archived"`
}

type ArticlesController struct {
	articles ArticleStore
	tags     TagStore
}

func NewArticlesController(articleStore ArticleStore, tagStore TagStore) *ArticlesController {
	return &ArticlesController{articles: articleStore, tags: tagStore}
}

// ListArticles handles GET /api/articles
// Archived articles are hidden unless include_archived=true.
func (ac *ArticlesController) ListArticles(c *gin.Context) {
	includeArchived, _ := strconv.ParseBool(c.Query("include_archived"))

	list, err := ac.articles.ListArticles(c.Request.Context(), includeArchived)
	if err != nil {
		respondInternalError(c, err, "list articles")
		return
	}

	summaries, err := ac.summarize(c, list)
	if err != nil {
		respondInternalError(c, err, "load article tags")
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetArticle handles GET /api/articles/:id
func (ac *ArticlesController) GetArticle(c *gin.Context) {
	article, ok := ac.loadArticle(c)
	if !ok {
		return
	}

	tags, err := ac.tags.GetTagsForArticle(c.Request.Context(), article.ID)
	if err != nil {
		respondInternalError(c, err, "get article tags")
		return
	}
	article.Tags = tags

	html, err := assets.RewriteForServing(article.ContentHTML, AssetServePrefix)
	if err != nil {
		respondInternalError(c, err, "rewrite article content")
		return
	}
	article.ContentHTML = html

	c.JSON(http.StatusOK, article)
}

// GetContent handles GET /api/articles/:id/content
// Serves the readable HTML with cached images pointing at the asset endpoint.
func (ac *ArticlesController) GetContent(c *gin.Context) {
	article, ok := ac.loadArticle(c)
	if !ok {
		return
	}

	html, err := assets.RewriteForServing(article.ContentHTML, AssetServePrefix)
	if err != nil {
		respondInternalError(c, err, "rewrite article content")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// UpdateArticle handles PATCH /api/articles/:id
func (ac *ArticlesController) UpdateArticle(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ArticlePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Title == nil && req.IsRead == nil && req.IsArchived == nil {
		respondBadRequest(c, "nothing to update")
		return
	}

	article, err := ac.articles.UpdateArticle(c.Request.Context(), id, articles.ArticlePatch{
		Title:      req.Title,
		IsRead:     req.IsRead,
		IsArchived: req.IsArchived,
	})
	if errors.Is(err, articles.ErrArticleNotFound) {
		respondNotFound(c, "article")
		return
	}
	if err != nil {
		respondInternalError(c, err, "update article")
		return
	}

	c.JSON(http.StatusOK, article)
}

func (ac *ArticlesController) loadArticle(c *gin.Context) (*entities.Article, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	article, err := ac.articles.GetArticleByID(c.Request.Context(), id)
	if errors.Is(err, articles.ErrArticleNotFound) {
		respondNotFound(c, "article")
		return nil, false
	}
	if err != nil {
		respondInternalError(c, err, "get article")
		return nil, false
	}
	return article, true
}

func (ac *ArticlesController) summarize(c *gin.Context, list []entities.Article) ([]ArticleSummary, error) {
	ids := make([]string, len(list))
	for i, article := range list {
		ids[i] = article.ID
	}
	tagsByArticle, err := ac.tags.ListArticleTagsForArticles(c.Request.Context(), ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]ArticleSummary, len(list))
	for i, article := range list {
		tags := tagsByArticle[article.ID]
		if tags == nil {
			tags = []entities.Tag{}
		}
		summaries[i] = ArticleSummary{
			ID:          article.ID,
			URL:         article.URL,
			Title:       article.Title,
			Excerpt:     excerpt(article.ContentText),
			ParseStatus: article.ParseStatus,
			IsArchived:  article.IsArchived,
			IsRead:      article.IsRead,
			SavedAt:     article.SavedAt,
			UpdatedAt:   article.UpdatedAt,
			Tags:        tags,
		}
	}
	return summaries, nil
}

func excerpt(text string) string {
	if utf8.RuneCountInString(text) <= excerptRunes {
		return text
	}
	return string([]rune(text)[:excerptRunes]) + "…"
}
