package chat

import (
	"errors"
	"log/slog"
	"net/http"
	"vaultvibe/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	hub    *Hub
	logger *slog.Logger
}

func NewHandler(db *gorm.DB, hub *Hub, logger *slog.Logger) *Handler {
	return &Handler{db: db, hub: hub, logger: logger}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type CreateConversationRequest struct {
	ParticipantIDs []string `json:"participant_ids" binding:"required"`
	IsGroup        bool     `json:"is_group"`
	Name           string   `json:"name"`
	TeamID         *string  `json:"team_id"`
}

func (h *Handler) CreateConversation(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var req CreateConversationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}

	conv, err := CreateConversation(h.db, userID, req.ParticipantIDs, req.IsGroup, req.Name, req.TeamID)
	if err != nil {
		h.logger.Error("Failed to create conversation", "user_id", userID, "error", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, conv)
}

type conversationView struct {
	models.Conversation
	UnreadCount int `json:"unread_count"`
}

func (h *Handler) ListConversations(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var parts []models.ConversationParticipant
	if err := h.db.Where("user_id = ?", userID).Find(&parts).Error; err != nil {
		h.logger.Error("Failed to list participations", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	views := []conversationView{}
	for _, p := range parts {
		var conv models.Conversation
		if err := h.db.Where("id = ?", p.ConversationID).First(&conv).Error; err != nil {
			continue
		}
		views = append(views, conversationView{Conversation: conv, UnreadCount: p.UnreadCount})
	}
	ctx.JSON(http.StatusOK, gin.H{"conversations": views})
}

func (h *Handler) ListMessages(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	convID := ctx.Param("id")

	ok, err := isParticipant(h.db, convID, userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if !ok {
		ctx.JSON(http.StatusForbidden, gin.H{"message": ErrNotParticipant.Error()})
		return
	}

	var messages []models.Message
	err = h.db.Where("conversation_id = ?", convID).Order("created_at ASC").Find(&messages).Error
	if err != nil {
		h.logger.Error("Failed to list messages", "conversation_id", convID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"messages": messages})
}

type SendMessageRequest struct {
	Text        string `json:"text" binding:"required"`
	Attachments string `json:"attachments"`
}

func (h *Handler) SendMessage(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	convID := ctx.Param("id")

	var req SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}

	msg, err := SendMessage(h.db, convID, userID, req.Text, req.Attachments)
	if err != nil {
		if errors.Is(err, ErrNotParticipant) {
			ctx.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
			return
		}
		h.logger.Error("Failed to send message", "conversation_id", convID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	h.hub.Broadcast(convID, Event{Type: "message", Message: msg})
	ctx.JSON(http.StatusOK, msg)
}

func (h *Handler) DeleteMessage(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	messageID := ctx.Param("messageId")

	msg, err := SoftDeleteMessage(h.db, messageID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrMessageNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		case errors.Is(err, ErrNotSender):
			ctx.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
		default:
			h.logger.Error("Failed to delete message", "message_id", messageID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}

	h.hub.Broadcast(msg.ConversationID, Event{Type: "message_deleted", Message: msg})
	ctx.JSON(http.StatusOK, msg)
}

func (h *Handler) MarkRead(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	convID := ctx.Param("id")

	if err := MarkRead(h.db, convID, userID); err != nil {
		if errors.Is(err, ErrNotParticipant) {
			ctx.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"read": true})
}

func (h *Handler) Leave(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	convID := ctx.Param("id")

	if err := LeaveConversation(h.db, convID, userID); err != nil {
		switch {
		case errors.Is(err, ErrConversationNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		case errors.Is(err, ErrNotParticipant):
			ctx.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
		default:
			h.logger.Error("Failed to leave conversation", "conversation_id", convID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"left": true})
}

// Subscribe upgrades to a websocket and streams conversation events.
func (h *Handler) Subscribe(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	convID := ctx.Param("id")

	ok, err := isParticipant(h.db, convID, userID)
	if err != nil || !ok {
		ctx.JSON(http.StatusForbidden, gin.H{"message": ErrNotParticipant.Error()})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "conversation_id", convID, "error", err)
		return
	}
	h.hub.Join(convID, conn)
}
