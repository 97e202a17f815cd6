package bookmarks

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mangareader/internal/httpx"
	"mangareader/internal/sync"
	"mangareader/pkg/models"
)

const msgAdded = "Bookmark added"

type Handler struct {
	Repo Repository
	Hub  sync.Publisher
}

func NewHandler(repo Repository, hub sync.Publisher) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookmarks/add", h.add)
	rg.GET("/bookmarks/:user_id", h.list)
}

func (h *Handler) add(c *gin.Context) {
	q, ok := httpx.RequireQuery(c, "user_id", "manga_id", "chapter_id", "page_number", "title")
	if !ok || !httpx.RequireNonEmpty(c, q, "user_id", "manga_id", "chapter_id", "page_number") {
		return
	}
	page, err := httpx.IntQuery(c, "page_number", 0)
	if err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	if page < 0 {
		httpx.BadRequest(c, "page_number must be >= 0")
		return
	}

	b, err := h.Repo.Add(httpx.Detach(c), models.Bookmark{
		UserID:     q["user_id"],
		MangaID:    q["manga_id"],
		ChapterID:  q["chapter_id"],
		PageNumber: page,
		Title:      q["title"],
	})
	if err != nil {
		httpx.StoreFailure(c, "add bookmark failed", err)
		return
	}

	sync.Publish(h.Hub, sync.Event{
		Type:       sync.EventBookmarkAdd,
		UserID:     b.UserID,
		MangaID:    b.MangaID,
		ChapterID:  b.ChapterID,
		PageNumber: &b.PageNumber,
		Title:      b.Title,
		At:         b.Timestamp,
	})
	c.JSON(http.StatusOK, gin.H{"message": msgAdded})
}

func (h *Handler) list(c *gin.Context) {
	userID, ok := httpx.Param(c, "user_id")
	if !ok {
		return
	}

	items, err := h.Repo.ListByUser(httpx.Detach(c), userID)
	if err != nil {
		httpx.StoreFailure(c, "list bookmarks failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": items})
}
