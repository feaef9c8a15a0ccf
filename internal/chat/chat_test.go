package chat

import (
	"path/filepath"
	"testing"
	"vaultvibe/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func TestCreateConversationDeduplicatesDirect(t *testing.T) {
	db := setupTestDB(t)
	a, b := uuid.NewString(), uuid.NewString()

	first, err := CreateConversation(db, a, []string{b}, false, "", nil)
	require.NoError(t, err)

	// Same pair again, from either side, reuses the conversation.
	second, err := CreateConversation(db, b, []string{a}, false, "", nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	assert.EqualValues(t, 1, countRows(t, db, &models.Conversation{}, "is_group = ?", false))
}

func TestSendMessageBumpsUnreadForOthersOnly(t *testing.T) {
	db := setupTestDB(t)
	a, b, c := uuid.NewString(), uuid.NewString(), uuid.NewString()

	conv, err := CreateConversation(db, a, []string{b, c}, true, "group", nil)
	require.NoError(t, err)

	_, err = SendMessage(db, conv.ID, a, "hello", "")
	require.NoError(t, err)
	_, err = SendMessage(db, conv.ID, a, "world", "")
	require.NoError(t, err)

	var mine, theirs models.ConversationParticipant
	require.NoError(t, db.Where("conversation_id = ? AND user_id = ?", conv.ID, a).First(&mine).Error)
	require.NoError(t, db.Where("conversation_id = ? AND user_id = ?", conv.ID, b).First(&theirs).Error)
	assert.Equal(t, 0, mine.UnreadCount)
	assert.Equal(t, 2, theirs.UnreadCount)

	require.NoError(t, MarkRead(db, conv.ID, b))
	require.NoError(t, db.Where("conversation_id = ? AND user_id = ?", conv.ID, b).First(&theirs).Error)
	assert.Equal(t, 0, theirs.UnreadCount)
}

func TestSendMessageRequiresParticipation(t *testing.T) {
	db := setupTestDB(t)
	a, b := uuid.NewString(), uuid.NewString()

	conv, err := CreateConversation(db, a, []string{b}, false, "", nil)
	require.NoError(t, err)

	_, err = SendMessage(db, conv.ID, uuid.NewString(), "intruder", "")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestSoftDeleteKeepsRowClearsText(t *testing.T) {
	db := setupTestDB(t)
	a, b := uuid.NewString(), uuid.NewString()

	conv, err := CreateConversation(db, a, []string{b}, false, "", nil)
	require.NoError(t, err)
	msg, err := SendMessage(db, conv.ID, a, "secret", "")
	require.NoError(t, err)

	_, err = SoftDeleteMessage(db, msg.ID, b)
	assert.ErrorIs(t, err, ErrNotSender)

	deleted, err := SoftDeleteMessage(db, msg.ID, a)
	require.NoError(t, err)
	assert.Empty(t, deleted.Text)
	assert.NotNil(t, deleted.DeletedAt)

	var stored models.Message
	require.NoError(t, db.Where("id = ?", msg.ID).First(&stored).Error)
	assert.Empty(t, stored.Text)
	assert.NotNil(t, stored.DeletedAt)
}

func TestLeaveDirectConversationDeletesItOutright(t *testing.T) {
	db := setupTestDB(t)
	a, b := uuid.NewString(), uuid.NewString()

	conv, err := CreateConversation(db, a, []string{b}, false, "", nil)
	require.NoError(t, err)
	_, err = SendMessage(db, conv.ID, b, "hi", "")
	require.NoError(t, err)

	// Either participant leaving kills the conversation and the other
	// participant's history with it.
	require.NoError(t, LeaveConversation(db, conv.ID, a))

	assert.Zero(t, countRows(t, db, &models.Conversation{}, "id = ?", conv.ID))
	assert.Zero(t, countRows(t, db, &models.Message{}, "conversation_id = ?", conv.ID))
	assert.Zero(t, countRows(t, db, &models.ConversationParticipant{}, "conversation_id = ?", conv.ID))
}

func TestGroupConversationSurvivesUntilLastLeaves(t *testing.T) {
	db := setupTestDB(t)
	a, b, c := uuid.NewString(), uuid.NewString(), uuid.NewString()

	conv, err := CreateConversation(db, a, []string{b, c}, true, "group", nil)
	require.NoError(t, err)
	_, err = SendMessage(db, conv.ID, a, "hello all", "")
	require.NoError(t, err)

	require.NoError(t, LeaveConversation(db, conv.ID, a))
	assert.EqualValues(t, 1, countRows(t, db, &models.Conversation{}, "id = ?", conv.ID))

	require.NoError(t, LeaveConversation(db, conv.ID, b))
	assert.EqualValues(t, 1, countRows(t, db, &models.Conversation{}, "id = ?", conv.ID))

	require.NoError(t, LeaveConversation(db, conv.ID, c))
	assert.Zero(t, countRows(t, db, &models.Conversation{}, "id = ?", conv.ID))
	assert.Zero(t, countRows(t, db, &models.Message{}, "conversation_id = ?", conv.ID))
}

func TestLeaveUnknownConversation(t *testing.T) {
	db := setupTestDB(t)

	err := LeaveConversation(db, uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
