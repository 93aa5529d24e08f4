package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Hub 이벤트별 라이브 피드 구독자 관리 및 브로드캐스트
type Hub struct {
	// 이벤트별 구독자 (eventID -> clients)
	rooms map[string]map[*Client]struct{}
	mu    sync.RWMutex

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger *zap.Logger
}

// Message 라이브 피드 메시지
type Message struct {
	EventID string      `json:"eventId"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NewHub Hub 생성
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run ctx가 끝날 때까지 Hub 실행
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.closeAll()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.eventID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[client.eventID] = room
	}
	room[client] = struct{}{}

	h.logger.Debug("Live feed client registered",
		zap.String("eventId", client.eventID),
		zap.Int("roomSize", len(room)))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.eventID]
	if !ok {
		return
	}
	if _, exists := room[client]; !exists {
		return
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.rooms, client.eventID)
	}

	h.logger.Debug("Live feed client unregistered",
		zap.String("eventId", client.eventID),
		zap.Int("roomSize", len(room)))
}

func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[message.EventID] {
		select {
		case client.send <- message:
		default:
			// 느린 클라이언트는 끊는다
			h.logger.Warn("Live feed client too slow, dropping",
				zap.String("eventId", message.EventID))
			go h.Unregister(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for eventID, room := range h.rooms {
		for client := range room {
			close(client.send)
		}
		delete(h.rooms, eventID)
	}
}

// Register 구독자 등록. Hub가 멈췄으면 false.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister 구독자 해제
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish 이벤트 구독자 전체에게 전송. 버퍼가 가득 차면 버린다.
func (h *Hub) Publish(eventID, msgType string, payload interface{}) {
	select {
	case h.broadcast <- &Message{EventID: eventID, Type: msgType, Payload: payload}:
	case <-h.done:
	default:
		h.logger.Warn("Live feed broadcast buffer full",
			zap.String("eventId", eventID),
			zap.String("type", msgType))
	}
}

// ClientCount 이벤트 구독자 수
func (h *Hub) ClientCount(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}
