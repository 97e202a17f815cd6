package sync

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mangareader/internal/log"
)

// WSHandler upgrades the request and keeps the socket registered until the
// client goes away. Origins are checked by the CORS layer, not here.
func WSHandler(hub *Hub) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Debug("ws upgrade failed", zap.Error(err))
			return
		}

		hub.AddWS(ws)
		log.Info("ws client connected", zap.String("remote", c.ClientIP()))

		hub.mu.Lock()
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"welcome","transport":"websocket"}`+"\n"))
		hub.mu.Unlock()

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.RemoveWS(ws)
		log.Info("ws client disconnected", zap.String("remote", c.ClientIP()))
	}
}
