package chat

import (
	"errors"
	"fmt"
	"time"
	"vaultvibe/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotParticipant       = errors.New("not a participant of this conversation")
	ErrNotSender            = errors.New("only the sender can delete a message")
)

// CreateConversation starts a direct or group conversation. The creator
// is always a participant; duplicate participant ids collapse. A direct
// conversation between the same two users is reused instead of
// duplicated.
func CreateConversation(db *gorm.DB, creatorID string, participantIDs []string, isGroup bool, name string, teamID *string) (*models.Conversation, error) {
	seen := map[string]bool{creatorID: true}
	participants := []string{creatorID}
	for _, id := range participantIDs {
		if !seen[id] {
			seen[id] = true
			participants = append(participants, id)
		}
	}
	if !isGroup && len(participants) != 2 {
		return nil, fmt.Errorf("direct conversation needs exactly two participants")
	}

	if !isGroup {
		if existing, err := findDirect(db, participants[0], participants[1]); err != nil {
			return nil, err
		} else if existing != nil {
			return existing, nil
		}
	}

	conv := models.Conversation{
		ID:      uuid.NewString(),
		TeamID:  teamID,
		Name:    name,
		IsGroup: isGroup,
	}
	if err := db.Create(&conv).Error; err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	for _, id := range participants {
		p := models.ConversationParticipant{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			UserID:         id,
		}
		if err := db.Create(&p).Error; err != nil {
			return nil, fmt.Errorf("add participant: %w", err)
		}
	}
	return &conv, nil
}

func findDirect(db *gorm.DB, a, b string) (*models.Conversation, error) {
	var convIDs []string
	err := db.Model(&models.ConversationParticipant{}).Where("user_id = ?", a).
		Pluck("conversation_id", &convIDs).Error
	if err != nil {
		return nil, fmt.Errorf("load conversations: %w", err)
	}
	for _, id := range convIDs {
		var conv models.Conversation
		if err := db.Where("id = ? AND is_group = ?", id, false).First(&conv).Error; err != nil {
			continue
		}
		var count int64
		db.Model(&models.ConversationParticipant{}).
			Where("conversation_id = ? AND user_id = ?", id, b).Count(&count)
		if count > 0 {
			return &conv, nil
		}
	}
	return nil, nil
}

// SendMessage persists a message and bumps unread counts for every
// other participant.
func SendMessage(db *gorm.DB, conversationID, senderID, text, attachments string) (*models.Message, error) {
	if ok, err := isParticipant(db, conversationID, senderID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotParticipant
	}

	msg := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		Attachments:    attachments,
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	err := db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id <> ?", conversationID, senderID).
		Update("unread_count", gorm.Expr("unread_count + 1")).Error
	if err != nil {
		return nil, fmt.Errorf("bump unread counts: %w", err)
	}
	err = db.Model(&models.Conversation{}).Where("id = ?", conversationID).
		Update("updated_at", time.Now()).Error
	if err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}
	return &msg, nil
}

// SoftDeleteMessage keeps the row but clears the text and stamps
// DeletedAt. Only the sender may delete.
func SoftDeleteMessage(db *gorm.DB, messageID, userID string) (*models.Message, error) {
	var msg models.Message
	err := db.Where("id = ?", messageID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}
	if msg.SenderID != userID {
		return nil, ErrNotSender
	}

	now := time.Now()
	err = db.Model(&msg).Updates(map[string]any{"text": "", "deleted_at": now}).Error
	if err != nil {
		return nil, fmt.Errorf("delete message: %w", err)
	}
	msg.Text = ""
	msg.DeletedAt = &now
	return &msg, nil
}

// MarkRead zeroes the caller's unread count for a conversation.
func MarkRead(db *gorm.DB, conversationID, userID string) error {
	res := db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("unread_count", 0)
	if res.Error != nil {
		return fmt.Errorf("mark read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotParticipant
	}
	return nil
}

// LeaveConversation removes the caller from a conversation. A direct
// conversation is deleted outright with all its messages when either
// participant leaves; a group conversation survives until its last
// participant leaves, at which point it and its messages are removed.
func LeaveConversation(db *gorm.DB, conversationID, userID string) error {
	var conv models.Conversation
	err := db.Where("id = ?", conversationID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrConversationNotFound
	}
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}

	res := db.Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Delete(&models.ConversationParticipant{})
	if res.Error != nil {
		return fmt.Errorf("remove participant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotParticipant
	}

	var remaining int64
	err = db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ?", conversationID).Count(&remaining).Error
	if err != nil {
		return fmt.Errorf("count participants: %w", err)
	}

	if !conv.IsGroup || remaining == 0 {
		return deleteConversation(db, conversationID)
	}
	return nil
}

func deleteConversation(db *gorm.DB, conversationID string) error {
	if err := db.Where("conversation_id = ?", conversationID).Delete(&models.Message{}).Error; err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if err := db.Where("conversation_id = ?", conversationID).Delete(&models.ConversationParticipant{}).Error; err != nil {
		return fmt.Errorf("delete participants: %w", err)
	}
	if err := db.Where("id = ?", conversationID).Delete(&models.Conversation{}).Error; err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func isParticipant(db *gorm.DB, conversationID, userID string) (bool, error) {
	var count int64
	err := db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return count > 0, nil
}
