// Package server assembles the HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mangareader/internal/bookmarks"
	"mangareader/internal/library"
	"mangareader/internal/manga"
	"mangareader/internal/progress"
	"mangareader/internal/sync"
	"mangareader/pkg/utils"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the shared components the routes are built on. Hub may be nil.
type Deps struct {
	HTTP      utils.HTTPConfig
	Catalog   manga.Catalog
	Library   library.Repository
	Tracker   *progress.Tracker
	Bookmarks bookmarks.Repository
	Store     Pinger
	Hub       *sync.Hub
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), CORS(d.HTTP.CORSOrigins))
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	var hub sync.Publisher
	if d.Hub != nil {
		hub = d.Hub
		router.GET("/ws", sync.WSHandler(d.Hub))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) { ready(c, d) })

	api := router.Group(d.HTTP.BasePath)
	api.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Manga Reader API"})
	})

	manga.NewHandler(d.Catalog).RegisterRoutes(api)
	library.NewHandler(d.Library, hub).RegisterRoutes(api)
	progress.NewHandler(d.Tracker, hub).RegisterRoutes(api)
	bookmarks.NewHandler(d.Bookmarks, hub).RegisterRoutes(api)

	return router
}

func ready(c *gin.Context, d Deps) {
	body := gin.H{}
	if d.Hub != nil {
		stats := d.Hub.Stats()
		body["tcp_clients"] = stats.TCPClients
		body["ws_clients"] = stats.WSClients
		body["udp_clients"] = stats.UDPClients
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := d.Store.Ping(ctx); err != nil {
		body["status"] = "not_ready"
		body["store_error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	body["status"] = "ready"
	body["store"] = "ok"
	c.JSON(http.StatusOK, body)
}
