package manga

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"mangareader/internal/catalog"
	"mangareader/internal/httpx"
	"mangareader/pkg/models"
)

const (
	DefaultSearchLimit  = 20
	DefaultChapterLimit = 100
)

// Catalog is the read-only upstream the handler proxies. *catalog.Client
// satisfies it.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) ([]models.Work, error)
	Details(ctx context.Context, workID string) (*models.Work, error)
	Chapters(ctx context.Context, workID string, limit int) ([]models.Chapter, error)
	Pages(ctx context.Context, chapterID string) ([]models.Page, error)
}

type Handler struct {
	Catalog Catalog
}

func NewHandler(c Catalog) *Handler {
	return &Handler{Catalog: c}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/manga/search", h.search)
	rg.GET("/manga/:work_id", h.details)
	rg.GET("/manga/:work_id/chapters", h.chapters)
	rg.GET("/chapter/:chapter_id/pages", h.pages)
}

func (h *Handler) search(c *gin.Context) {
	q, ok := httpx.RequireQuery(c, "query")
	if !ok {
		return
	}
	limit, err := httpx.IntQuery(c, "limit", DefaultSearchLimit)
	if err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	works, err := h.Catalog.Search(httpx.Detach(c), q["query"], limit)
	if err != nil {
		catalogFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"manga": works})
}

func (h *Handler) details(c *gin.Context) {
	id, ok := httpx.Param(c, "work_id")
	if !ok {
		return
	}

	w, err := h.Catalog.Details(httpx.Detach(c), id)
	if err != nil {
		catalogFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) chapters(c *gin.Context) {
	id, ok := httpx.Param(c, "work_id")
	if !ok {
		return
	}
	limit, err := httpx.IntQuery(c, "limit", DefaultChapterLimit)
	if err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	chapters, err := h.Catalog.Chapters(httpx.Detach(c), id, limit)
	if err != nil {
		catalogFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chapters": chapters})
}

func (h *Handler) pages(c *gin.Context) {
	id, ok := httpx.Param(c, "chapter_id")
	if !ok {
		return
	}

	pages, err := h.Catalog.Pages(httpx.Detach(c), id)
	if err != nil {
		catalogFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": pages})
}

func catalogFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		httpx.Fail(c, http.StatusNotFound, "manga not found", err)
	case errors.Is(err, catalog.ErrMalformedResponse):
		httpx.Fail(c, http.StatusInternalServerError, "unexpected catalog response", err)
	default:
		httpx.Fail(c, http.StatusInternalServerError, "catalog unavailable", err)
	}
}
