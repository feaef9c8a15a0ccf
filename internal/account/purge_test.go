package account

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

func count(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func strPtr(s string) *string { return &s }

func TestPurgeRemovesAllOwnedData(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()

	// Three items, one tag joined to the first item, two projects, one
	// enabled personal board share.
	require.NoError(t, db.Create(&models.User{ID: userID, Email: "a@example.com", Password: "x"}).Error)
	require.NoError(t, db.Create(&models.Profile{ID: uuid.NewString(), UserID: userID, Username: "alice"}).Error)

	itemIDs := make([]string, 3)
	for i := range itemIDs {
		itemIDs[i] = uuid.NewString()
		require.NoError(t, db.Create(&models.Item{
			ID: itemIDs[i], UserID: userID, Type: models.ItemTypeCode, Title: "snippet",
		}).Error)
	}
	tagID := uuid.NewString()
	require.NoError(t, db.Create(&models.Tag{ID: tagID, UserID: &userID, Name: "go"}).Error)
	require.NoError(t, db.Create(&models.ItemTag{ID: uuid.NewString(), ItemID: itemIDs[0], TagID: tagID}).Error)

	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&models.Project{
			ID: uuid.NewString(), UserID: userID, Name: "proj", Status: models.ProjectStatusActive,
		}).Error)
	}
	require.NoError(t, db.Create(&models.BoardShare{
		ID: uuid.NewString(), UserID: userID, Token: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Enabled: true,
	}).Error)

	require.NoError(t, PurgeAccountData(db, userID))

	assert.Zero(t, count(t, db, &models.Item{}, "user_id = ?", userID))
	assert.Zero(t, count(t, db, &models.Tag{}, "user_id = ?", userID))
	assert.Zero(t, count(t, db, &models.ItemTag{}, "item_id IN ?", itemIDs))
	assert.Zero(t, count(t, db, &models.Project{}, "user_id = ?", userID))
	assert.Zero(t, count(t, db, &models.BoardShare{}, "user_id = ?", userID))
	assert.Zero(t, count(t, db, &models.Profile{}, "user_id = ?", userID))
	assert.Zero(t, count(t, db, &models.User{}, "id = ?", userID))
}

func TestPurgeLeavesNoDanglingItemTags(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()

	itemID := uuid.NewString()
	tagID := uuid.NewString()
	require.NoError(t, db.Create(&models.Item{ID: itemID, UserID: userID, Type: models.ItemTypePrompt, Title: "p"}).Error)
	require.NoError(t, db.Create(&models.Tag{ID: tagID, UserID: &userID, Name: "ai"}).Error)
	require.NoError(t, db.Create(&models.ItemTag{ID: uuid.NewString(), ItemID: itemID, TagID: tagID}).Error)

	require.NoError(t, PurgeAccountData(db, userID))

	// No join row may reference an item that no longer exists.
	var joins []models.ItemTag
	require.NoError(t, db.Find(&joins).Error)
	for _, j := range joins {
		var n int64
		db.Model(&models.Item{}).Where("id = ?", j.ItemID).Count(&n)
		assert.NotZero(t, n, "item tag %s references deleted item %s", j.ID, j.ItemID)
	}
}

func TestPurgeDeletesPublicSharesWithLogs(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()

	shareID := uuid.NewString()
	require.NoError(t, db.Create(&models.PublicShare{
		ID: shareID, ItemID: uuid.NewString(), CreatedBy: userID, Token: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	}).Error)
	require.NoError(t, db.Create(&models.AccessLog{ID: uuid.NewString(), ShareID: shareID}).Error)
	require.NoError(t, db.Create(&models.AccessLog{ID: uuid.NewString(), ShareID: shareID}).Error)

	require.NoError(t, PurgeAccountData(db, userID))

	assert.Zero(t, count(t, db, &models.PublicShare{}, "created_by = ?", userID))
	assert.Zero(t, count(t, db, &models.AccessLog{}, "share_id = ?", shareID))
}

func TestPurgeRemovesConversationsForRemainingParticipants(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()
	otherID := uuid.NewString()

	convID := uuid.NewString()
	require.NoError(t, db.Create(&models.Conversation{ID: convID, IsGroup: true, Name: "general"}).Error)
	require.NoError(t, db.Create(&models.ConversationParticipant{ID: uuid.NewString(), ConversationID: convID, UserID: userID}).Error)
	require.NoError(t, db.Create(&models.ConversationParticipant{ID: uuid.NewString(), ConversationID: convID, UserID: otherID}).Error)
	require.NoError(t, db.Create(&models.Message{ID: uuid.NewString(), ConversationID: convID, SenderID: otherID, Text: "hi"}).Error)

	require.NoError(t, PurgeAccountData(db, userID))

	// The whole conversation goes, including the other participant's
	// view of it and messages they sent.
	assert.Zero(t, count(t, db, &models.Conversation{}, "id = ?", convID))
	assert.Zero(t, count(t, db, &models.Message{}, "conversation_id = ?", convID))
	assert.Zero(t, count(t, db, &models.ConversationParticipant{}, "conversation_id = ?", convID))
}

func TestPurgeCascadesOwnedTeams(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()
	memberID := uuid.NewString()

	teamID := uuid.NewString()
	require.NoError(t, db.Create(&models.Team{ID: teamID, Name: "crew", CreatedBy: userID}).Error)
	require.NoError(t, db.Create(&models.TeamMember{ID: uuid.NewString(), TeamID: teamID, UserID: userID, Role: models.RoleAdmin}).Error)
	require.NoError(t, db.Create(&models.TeamMember{ID: uuid.NewString(), TeamID: teamID, UserID: memberID, Role: models.RoleMember}).Error)
	require.NoError(t, db.Create(&models.TeamInvite{ID: uuid.NewString(), TeamID: teamID, Email: "c@example.com", InvitedBy: userID, Token: "cccccccccccccccccccccccccccccccc"}).Error)
	require.NoError(t, db.Create(&models.Project{ID: uuid.NewString(), UserID: memberID, TeamID: &teamID, Name: "tp"}).Error)
	require.NoError(t, db.Create(&models.Item{ID: uuid.NewString(), UserID: memberID, TeamID: &teamID, Type: models.ItemTypeCode, Title: "ti"}).Error)

	require.NoError(t, PurgeAccountData(db, userID))

	assert.Zero(t, count(t, db, &models.Team{}, "id = ?", teamID))
	assert.Zero(t, count(t, db, &models.TeamMember{}, "team_id = ?", teamID))
	assert.Zero(t, count(t, db, &models.TeamInvite{}, "team_id = ?", teamID))
	assert.Zero(t, count(t, db, &models.Project{}, "team_id = ?", teamID))
	assert.Zero(t, count(t, db, &models.Item{}, "team_id = ?", teamID))
}

func TestPurgeIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()

	require.NoError(t, db.Create(&models.Item{ID: uuid.NewString(), UserID: userID, Type: models.ItemTypeCode, Title: "x"}).Error)

	require.NoError(t, PurgeAccountData(db, userID))
	require.NoError(t, PurgeAccountData(db, userID))
}

func TestPurgeLeavesOtherUsersAlone(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()
	otherID := uuid.NewString()

	require.NoError(t, db.Create(&models.Item{ID: uuid.NewString(), UserID: userID, Type: models.ItemTypeCode, Title: "mine"}).Error)
	require.NoError(t, db.Create(&models.Item{ID: uuid.NewString(), UserID: otherID, Type: models.ItemTypeCode, Title: "theirs"}).Error)
	require.NoError(t, db.Create(&models.Tag{ID: uuid.NewString(), UserID: strPtr(otherID), Name: "keep"}).Error)

	require.NoError(t, PurgeAccountData(db, userID))

	assert.EqualValues(t, 1, count(t, db, &models.Item{}, "user_id = ?", otherID))
	assert.EqualValues(t, 1, count(t, db, &models.Tag{}, "user_id = ?", otherID))
}
