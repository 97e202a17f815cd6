package library

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mangareader/internal/httpx"
	"mangareader/internal/sync"
)

const (
	msgAdded        = "Added to library"
	msgAlreadyAdded = "Already in library"
	msgUpdated      = "Library updated"
	msgRemoved      = "Removed from library"
)

type Handler struct {
	Repo Repository
	Hub  sync.Publisher
}

func NewHandler(repo Repository, hub sync.Publisher) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/library/add", h.add)
	rg.POST("/library/update", h.update)
	rg.GET("/library/:user_id", h.list)
	rg.DELETE("/library/:user_id/:manga_id", h.remove)
}

func (h *Handler) add(c *gin.Context) {
	q, ok := httpx.RequireQuery(c, "user_id", "manga_id", "title", "cover_art")
	if !ok || !httpx.RequireNonEmpty(c, q, "user_id", "manga_id") {
		return
	}

	entry := NewEntry(q["user_id"], q["manga_id"], q["title"], q["cover_art"])
	added, err := h.Repo.Add(httpx.Detach(c), entry)
	if err != nil {
		httpx.StoreFailure(c, "add to library failed", err)
		return
	}
	if !added {
		c.JSON(http.StatusOK, gin.H{"message": msgAlreadyAdded})
		return
	}

	sync.Publish(h.Hub, sync.Event{
		Type:    sync.EventLibraryAdd,
		UserID:  entry.UserID,
		MangaID: entry.MangaID,
		Title:   entry.Title,
		Status:  entry.Status,
	})
	c.JSON(http.StatusOK, gin.H{"message": msgAdded})
}

func (h *Handler) list(c *gin.Context) {
	userID, ok := httpx.Param(c, "user_id")
	if !ok {
		return
	}

	entries, err := h.Repo.ListByUser(httpx.Detach(c), userID)
	if err != nil {
		httpx.StoreFailure(c, "list library failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"library": entries})
}

func (h *Handler) update(c *gin.Context) {
	q, ok := httpx.RequireQuery(c, "user_id", "manga_id")
	if !ok || !httpx.RequireNonEmpty(c, q, "user_id", "manga_id") {
		return
	}

	var patch Patch
	if s, ok := c.GetQuery("status"); ok {
		status := normalizeStatus(s)
		if !ValidStatus(status) {
			httpx.BadRequest(c, "status must be one of: reading, completed, on_hold, dropped")
			return
		}
		patch.Status = &status
	}
	if s, ok := c.GetQuery("favorite"); ok {
		fav, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			httpx.BadRequest(c, "favorite must be true or false")
			return
		}
		patch.Favorite = &fav
	}
	if patch.Empty() {
		httpx.BadRequest(c, "status or favorite required")
		return
	}

	found, err := h.Repo.Update(httpx.Detach(c), q["user_id"], q["manga_id"], patch)
	if err != nil {
		httpx.StoreFailure(c, "update library failed", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not in library"})
		return
	}

	ev := sync.Event{Type: sync.EventLibraryUpdate, UserID: q["user_id"], MangaID: q["manga_id"], Favorite: patch.Favorite}
	if patch.Status != nil {
		ev.Status = *patch.Status
	}
	sync.Publish(h.Hub, ev)
	c.JSON(http.StatusOK, gin.H{"message": msgUpdated})
}

func (h *Handler) remove(c *gin.Context) {
	userID, ok := httpx.Param(c, "user_id")
	if !ok {
		return
	}
	mangaID, ok := httpx.Param(c, "manga_id")
	if !ok {
		return
	}

	removed, err := h.Repo.Delete(httpx.Detach(c), userID, mangaID)
	if err != nil {
		httpx.StoreFailure(c, "remove from library failed", err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "not in library"})
		return
	}

	sync.Publish(h.Hub, sync.Event{Type: sync.EventLibraryRemove, UserID: userID, MangaID: mangaID})
	c.JSON(http.StatusOK, gin.H{"message": msgRemoved})
}

func normalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "on hold", "on-hold", "onhold":
		return "on_hold"
	}
	return s
}
