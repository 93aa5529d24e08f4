package handlers

import (
	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/padel-arena/padel-arena-backend/internal/websocket"
)

// LiveHandler 이벤트 라이브 피드 WebSocket
type LiveHandler struct {
	hub      *websocket.Hub
	upgrader *gorillaws.Upgrader
}

func NewLiveHandler(hub *websocket.Hub, upgrader *gorillaws.Upgrader) *LiveHandler {
	return &LiveHandler{
		hub:      hub,
		upgrader: upgrader,
	}
}

// HandleLive 연결을 업그레이드하고 eventId 피드에 구독 (관람은 인증 불필요)
func (h *LiveHandler) HandleLive(c *gin.Context) {
	websocket.ServeWs(h.hub, h.upgrader, c.Writer, c.Request, c.Param("eventId"))
}
