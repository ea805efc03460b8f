// Package server hosts the sync backend over HTTP: a websocket endpoint
// speaking the protocol package's frames, backed by any gateway
// implementation (the dev setup uses gateway/memory, a deployment can hand
// in gateway/redisgw).
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/healthybites/healthybites/gateway"
	"github.com/healthybites/healthybites/utils/log"
)

type SyncServer struct {
	backend  gateway.Gateway
	upgrader websocket.Upgrader
}

func New(backend gateway.Gateway) *SyncServer {
	return &SyncServer{
		backend: backend,
		upgrader: websocket.Upgrader{
			// Browsers are not a supported client; the app dials directly.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the gin engine: the websocket endpoint plus a health route.
func (s *SyncServer) Router() *gin.Engine {
	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())

	router.GET("/ws", s.handleSocket)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return router
}

func (s *SyncServer) handleSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Log.WithError(err).Error("websocket upgrade failed")
		return
	}

	sess := newSocketSession(conn, s.backend)
	defer sess.close()

	log.Log.WithField("remote", conn.RemoteAddr().String()).Info("client connected")
	sess.readLoop()
	log.Log.WithField("remote", conn.RemoteAddr().String()).Info("client disconnected")
}
