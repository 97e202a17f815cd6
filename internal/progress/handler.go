package progress

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mangareader/internal/httpx"
	"mangareader/internal/sync"
)

const (
	msgUpdated    = "Progress updated"
	msgNoProgress = "No progress found"
)

type Handler struct {
	Tracker *Tracker
	Hub     sync.Publisher
}

func NewHandler(tracker *Tracker, hub sync.Publisher) *Handler {
	return &Handler{Tracker: tracker, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/progress/update", h.update)
	rg.GET("/progress/:user_id/:manga_id", h.latest)
}

func (h *Handler) update(c *gin.Context) {
	q, ok := httpx.RequireQuery(c, "user_id", "manga_id", "chapter_id", "page_number")
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

	p, err := h.Tracker.Update(httpx.Detach(c), q["user_id"], q["manga_id"], q["chapter_id"], page)
	if err != nil {
		httpx.StoreFailure(c, "update progress failed", err)
		return
	}

	sync.Publish(h.Hub, sync.Event{
		Type:       sync.EventProgressUpdate,
		UserID:     p.UserID,
		MangaID:    p.MangaID,
		ChapterID:  p.ChapterID,
		PageNumber: &p.PageNumber,
		At:         p.Timestamp,
	})
	c.JSON(http.StatusOK, gin.H{"message": msgUpdated})
}

func (h *Handler) latest(c *gin.Context) {
	userID, ok := httpx.Param(c, "user_id")
	if !ok {
		return
	}
	mangaID, ok := httpx.Param(c, "manga_id")
	if !ok {
		return
	}

	p, err := h.Tracker.Latest(httpx.Detach(c), userID, mangaID)
	if err != nil {
		httpx.StoreFailure(c, "get progress failed", err)
		return
	}
	if p == nil {
		c.JSON(http.StatusOK, gin.H{"message": msgNoProgress})
		return
	}
	c.JSON(http.StatusOK, p)
}
