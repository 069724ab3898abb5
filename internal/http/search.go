package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readlater/internal/entities"
	"github.com/mrlokans/readlater/internal/search"
)

const maxSearchLimit = 200

// SearchResponse lists matching articles in rank order.
type SearchResponse struct {
	Query   string           `json:"query"`
	Results []ArticleSummary `json:"results"`
}

type SearchController struct {
	articles     *ArticlesController
	store        ArticleStore
	defaultLimit int
}

func NewSearchController(articleStore ArticleStore, tagStore TagStore, defaultLimit int) *SearchController {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	return &SearchController{
		articles:     NewArticlesController(articleStore, tagStore),
		store:        articleStore,
		defaultLimit: defaultLimit,
	}
}

// Search handles GET /api/search?q=&limit=
// The index is rebuilt from all articles, archived included, on every query.
func (sc *SearchController) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	limit, ok := parseLimit(c, "limit", sc.defaultLimit, maxSearchLimit)
	if !ok {
		return
	}

	response := SearchResponse{Query: query, Results: []ArticleSummary{}}
	if query == "" {
		c.JSON(http.StatusOK, response)
		return
	}

	list, err := sc.store.ListArticles(c.Request.Context(), true)
	if err != nil {
		respondInternalError(c, err, "list articles")
		return
	}

	docs := make([]search.Document, len(list))
	byID := make(map[string]entities.Article, len(list))
	for i, article := range list {
		docs[i] = search.Document{ID: article.ID, Text: article.ContentText}
		byID[article.ID] = article
	}

	ids := search.Build(docs).Search(query, limit)
	matched := make([]entities.Article, 0, len(ids))
	for _, id := range ids {
		matched = append(matched, byID[id])
	}

	summaries, err := sc.articles.summarize(c, matched)
	if err != nil {
		respondInternalError(c, err, "load article tags")
		return
	}
	response.Results = summaries
	c.JSON(http.StatusOK, response)
}
