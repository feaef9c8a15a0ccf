package chat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
	"vaultvibe/internal/models"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// Event is the wire format pushed to conversation subscribers.
type Event struct {
	Type    string          `json:"type"` // "message" or "message_deleted"
	Message *models.Message `json:"message"`
}

type redisEnvelope struct {
	ConversationID string `json:"conversation_id"`
	Payload        []byte `json:"payload"`
	SenderNode     string `json:"sender_node"`
}

// Hub fans conversation events out to websocket subscribers, bridging
// instances over a redis channel per conversation.
type Hub struct {
	logger      *slog.Logger
	redisClient *redis.Client
	nodeID      string

	rooms  map[string]*room
	roomMu sync.RWMutex
}

type room struct {
	hub            *Hub
	conversationID string
	ctx            context.Context
	cancel         context.CancelFunc

	clients  map[*websocket.Conn]string
	clientMu sync.RWMutex
}

func NewHub(redisClient *redis.Client, logger *slog.Logger) *Hub {
	return &Hub{
		logger:      logger,
		redisClient: redisClient,
		nodeID:      randomID(),
		rooms:       make(map[string]*room),
	}
}

// Join adds a websocket subscriber to a conversation's room, creating
// the room (and its redis subscription) on first use.
func (h *Hub) Join(conversationID string, conn *websocket.Conn) {
	h.roomMu.Lock()
	r, exists := h.rooms[conversationID]
	if !exists {
		ctx, cancel := context.WithCancel(context.Background())
		r = &room{
			hub:            h,
			conversationID: conversationID,
			ctx:            ctx,
			cancel:         cancel,
			clients:        make(map[*websocket.Conn]string),
		}
		h.rooms[conversationID] = r
		if h.redisClient != nil {
			go r.subscribeToRedis()
		}
		h.logger.Info("Created chat room", "conversation_id", conversationID)
	}
	// Registering under roomMu keeps removeRoom from reaping the room
	// between the lookup and the client add.
	r.clientMu.Lock()
	r.clients[conn] = randomID()
	r.clientMu.Unlock()
	h.roomMu.Unlock()

	go r.listen(conn)
}

// Broadcast pushes an event to local subscribers and across redis.
func (h *Hub) Broadcast(conversationID string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to marshal chat event", "error", err)
		return
	}

	h.roomMu.RLock()
	r := h.rooms[conversationID]
	h.roomMu.RUnlock()
	if r != nil {
		r.broadcastLocal(data, nil)
	}

	if h.redisClient == nil {
		return
	}
	envelope, err := json.Marshal(redisEnvelope{
		ConversationID: conversationID,
		Payload:        data,
		SenderNode:     h.nodeID,
	})
	if err != nil {
		return
	}
	channel := "conversation:" + conversationID
	if err := h.redisClient.Publish(context.Background(), channel, envelope).Err(); err != nil {
		h.logger.Error("Failed to publish chat event", "conversation_id", conversationID, "error", err)
	}
}

func (r *room) listen(conn *websocket.Conn) {
	defer r.removeClient(conn)

	// Subscribers are read-only; messages arrive over the REST API.
	// Reading keeps the connection alive and detects closure.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				r.hub.logger.Error("WebSocket error", "conversation_id", r.conversationID, "error", err)
			}
			return
		}
	}
}

func (r *room) broadcastLocal(data []byte, sender *websocket.Conn) {
	r.clientMu.RLock()
	defer r.clientMu.RUnlock()

	for c := range r.clients {
		if c == sender {
			continue
		}
		_ = c.SetWriteDeadline(time.Now().Add(time.Second * 5))
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			go r.removeClient(c)
		}
	}
}

func (r *room) removeClient(c *websocket.Conn) {
	r.clientMu.Lock()
	delete(r.clients, c)
	empty := len(r.clients) == 0
	r.clientMu.Unlock()
	_ = c.Close()

	if empty {
		r.hub.removeRoom(r.conversationID)
	}
}

// removeRoom reaps a room once it has no clients. The emptiness
// re-check and the cancel both happen under roomMu, so a subscriber
// joining concurrently either keeps the room alive with its redis
// subscription intact or lands in a fresh room.
func (h *Hub) removeRoom(conversationID string) {
	h.roomMu.Lock()
	defer h.roomMu.Unlock()

	if r, exists := h.rooms[conversationID]; exists {
		r.clientMu.RLock()
		empty := len(r.clients) == 0
		r.clientMu.RUnlock()
		if empty {
			r.cancel()
			delete(h.rooms, conversationID)
			h.logger.Info("Removed empty chat room", "conversation_id", conversationID)
		}
	}
}

func (r *room) subscribeToRedis() {
	channel := "conversation:" + r.conversationID
	pubsub := r.hub.redisClient.Subscribe(r.ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg := <-ch:
			var envelope redisEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				r.hub.logger.Error("Failed to unmarshal chat envelope", "error", err)
				continue
			}
			// Events published by this node already went out locally.
			if envelope.SenderNode != r.hub.nodeID {
				r.broadcastLocal(envelope.Payload, nil)
			}
		case <-r.ctx.Done():
			return
		}
	}
}

func randomID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
