package teams

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"vaultvibe/internal/models"

	"github.com/gin-gonic/gin"
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

func TestDeleteTeamCascade(t *testing.T) {
	db := setupTestDB(t)
	ownerID := uuid.NewString()
	teamID := uuid.NewString()
	otherTeamID := uuid.NewString()

	require.NoError(t, db.Create(&models.Team{ID: teamID, Name: "crew", CreatedBy: ownerID}).Error)
	require.NoError(t, db.Create(&models.Team{ID: otherTeamID, Name: "other", CreatedBy: ownerID}).Error)

	require.NoError(t, db.Create(&models.TeamMember{ID: uuid.NewString(), TeamID: teamID, UserID: ownerID, Role: models.RoleAdmin}).Error)
	require.NoError(t, db.Create(&models.TeamInvite{ID: uuid.NewString(), TeamID: teamID, Email: "x@example.com", InvitedBy: ownerID, Token: "dddddddddddddddddddddddddddddddd"}).Error)
	require.NoError(t, db.Create(&models.Project{ID: uuid.NewString(), UserID: ownerID, TeamID: &teamID, Name: "p"}).Error)
	require.NoError(t, db.Create(&models.Item{ID: uuid.NewString(), UserID: ownerID, TeamID: &teamID, Type: models.ItemTypeCode, Title: "i"}).Error)

	require.NoError(t, db.Create(&models.TeamMember{ID: uuid.NewString(), TeamID: otherTeamID, UserID: ownerID, Role: models.RoleAdmin}).Error)
	require.NoError(t, db.Create(&models.Item{ID: uuid.NewString(), UserID: ownerID, TeamID: &otherTeamID, Type: models.ItemTypeCode, Title: "keep"}).Error)

	require.NoError(t, DeleteTeamCascade(db, teamID))

	for _, check := range []struct {
		model any
		q     string
	}{
		{&models.Team{}, "id = ?"},
		{&models.TeamMember{}, "team_id = ?"},
		{&models.TeamInvite{}, "team_id = ?"},
		{&models.Project{}, "team_id = ?"},
		{&models.Item{}, "team_id = ?"},
	} {
		var n int64
		require.NoError(t, db.Model(check.model).Where(check.q, teamID).Count(&n).Error)
		assert.Zero(t, n, "expected no rows for %T", check.model)
	}

	// The other team is untouched.
	var n int64
	require.NoError(t, db.Model(&models.Item{}).Where("team_id = ?", otherTeamID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestAcceptInviteNotifiesInviter(t *testing.T) {
	db := setupTestDB(t)
	inviterID := uuid.NewString()
	inviteeID := uuid.NewString()
	teamID := uuid.NewString()

	require.NoError(t, db.Create(&models.Team{ID: teamID, Name: "crew", CreatedBy: inviterID}).Error)
	require.NoError(t, db.Create(&models.TeamMember{
		ID: uuid.NewString(), TeamID: teamID, UserID: inviterID, Role: models.RoleAdmin,
	}).Error)
	require.NoError(t, db.Create(&models.Profile{
		ID: uuid.NewString(), UserID: inviteeID, Username: "newbie",
	}).Error)
	token := "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	require.NoError(t, db.Create(&models.TeamInvite{
		ID: uuid.NewString(), TeamID: teamID, Email: "newbie@example.com",
		Role: models.RoleMember, InvitedBy: inviterID, Token: token,
	}).Error)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Set("current_user", inviteeID)
	ctx.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"token":"`+token+`"}`))

	handler := NewHandler(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler.AcceptInvite(ctx)
	require.Equal(t, http.StatusOK, w.Code)

	var member models.TeamMember
	require.NoError(t, db.Where("team_id = ? AND user_id = ?", teamID, inviteeID).First(&member).Error)
	assert.Equal(t, models.RoleMember, member.Role)

	var notification models.Notification
	require.NoError(t, db.Where("user_id = ?", inviterID).First(&notification).Error)
	assert.Equal(t, "invite_accepted", notification.Type)
	assert.Contains(t, notification.Body, "newbie")
	assert.Contains(t, notification.Body, "crew")

	// The invite is consumed.
	var n int64
	db.Model(&models.TeamInvite{}).Where("token = ?", token).Count(&n)
	assert.Zero(t, n)
}
