package dashboard

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
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

func seedItem(t *testing.T, db *gorm.DB, userID string, teamID *string, title string, createdAt time.Time) {
	t.Helper()
	err := db.Create(&models.Item{
		ID:        uuid.NewString(),
		UserID:    userID,
		TeamID:    teamID,
		Type:      models.ItemTypeCode,
		Title:     title,
		CreatedAt: createdAt,
	}).Error
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
}

func TestRecentItemsCapAndOrder(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)

	for i := 0; i < 20; i++ {
		seedItem(t, db, userID, nil, fmt.Sprintf("item-%d", i), base.Add(time.Duration(i)*time.Minute))
	}

	recent, err := RecentItems(db, Scope{UserID: userID}, 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)

	assert.Equal(t, "item-19", recent[0].Title)
	for i := 1; i < len(recent); i++ {
		assert.True(t, recent[i].CreatedAt.Before(recent[i-1].CreatedAt),
			"recent items must be newest first")
	}
}

func TestRecentItemsDefaultLimit(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 8; i++ {
		seedItem(t, db, userID, nil, fmt.Sprintf("i%d", i), base.Add(time.Duration(i)*time.Second))
	}

	recent, err := RecentItems(db, Scope{UserID: userID}, 0)
	require.NoError(t, err)
	assert.Len(t, recent, DefaultRecentLimit)
}

func TestRecentItemsPersonalTeamMergesLegacy(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()
	teamID := uuid.NewString()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)

	require.NoError(t, db.Create(&models.Team{ID: teamID, Name: "me", CreatedBy: userID, IsPersonal: true}).Error)
	seedItem(t, db, userID, &teamID, "team item", base.Add(2*time.Minute))
	seedItem(t, db, userID, nil, "legacy old", base)
	seedItem(t, db, userID, nil, "legacy new", base.Add(5*time.Minute))

	recent, err := RecentItems(db, Scope{UserID: userID, TeamID: &teamID}, 5)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "legacy new", recent[0].Title)
	assert.Equal(t, "team item", recent[1].Title)
	assert.Equal(t, "legacy old", recent[2].Title)
}

func TestRecentItemsRegularTeamSkipsLegacy(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()
	teamID := uuid.NewString()

	require.NoError(t, db.Create(&models.Team{ID: teamID, Name: "crew", CreatedBy: userID}).Error)
	seedItem(t, db, userID, &teamID, "team item", time.Now())
	seedItem(t, db, userID, nil, "personal item", time.Now())

	recent, err := RecentItems(db, Scope{UserID: userID, TeamID: &teamID}, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "team item", recent[0].Title)
}

func TestChartData7DaysBuckets(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.Local)

	// Three items today, two items three days ago, one out of range.
	for i := 0; i < 3; i++ {
		seedItem(t, db, userID, nil, "today", now.Add(-time.Duration(i)*time.Hour))
	}
	for i := 0; i < 2; i++ {
		seedItem(t, db, userID, nil, "earlier", now.AddDate(0, 0, -3))
	}
	seedItem(t, db, userID, nil, "too old", now.AddDate(0, 0, -10))

	require.NoError(t, db.Create(&models.Project{
		ID: uuid.NewString(), UserID: userID, Name: "p", CreatedAt: now.AddDate(0, 0, -1),
	}).Error)

	buckets, err := ChartData(db, Scope{UserID: userID}, Period7Days, now)
	require.NoError(t, err)
	require.Len(t, buckets, 7)

	// Oldest bucket first, distinct weekday names.
	seen := map[string]bool{}
	itemSum, projectSum := 0, 0
	for _, b := range buckets {
		assert.False(t, seen[b.Name], "duplicate bucket name %q", b.Name)
		seen[b.Name] = true
		itemSum += b.Items
		projectSum += b.Projects
	}
	assert.Equal(t, 5, itemSum)
	assert.Equal(t, 1, projectSum)
	assert.Equal(t, now.Format("Mon"), buckets[6].Name)
	assert.Equal(t, 3, buckets[6].Items)
	assert.Equal(t, 2, buckets[3].Items)
}

func TestChartData30DaysLabels(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.Local)

	seedItem(t, db, userID, nil, "today", now)

	buckets, err := ChartData(db, Scope{UserID: userID}, Period30Days, now)
	require.NoError(t, err)
	require.Len(t, buckets, 30)
	assert.Equal(t, fmt.Sprintf("%s %d", now.Format("Mon"), now.Day()), buckets[29].Name)
	assert.Equal(t, 1, buckets[29].Items)
}

func TestChartDataMonthBuckets(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.Local)

	seedItem(t, db, userID, nil, "this month", now.AddDate(0, 0, -2))
	seedItem(t, db, userID, nil, "last month", now.AddDate(0, -1, 0))

	buckets, err := ChartData(db, Scope{UserID: userID}, Period3Months, now)
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	assert.Equal(t, "Jan", buckets[0].Name)
	assert.Equal(t, "Feb", buckets[1].Name)
	assert.Equal(t, "Mar", buckets[2].Name)
	assert.Equal(t, 1, buckets[1].Items)
	assert.Equal(t, 1, buckets[2].Items)

	year, err := ChartData(db, Scope{UserID: userID}, Period1Year, now)
	require.NoError(t, err)
	assert.Len(t, year, 12)
}

func TestChartDataScopeExcludesTeamItems(t *testing.T) {
	db := setupTestDB(t)
	userID := uuid.NewString()
	teamID := uuid.NewString()
	now := time.Now()

	require.NoError(t, db.Create(&models.Team{ID: teamID, Name: "crew", CreatedBy: userID}).Error)
	seedItem(t, db, userID, nil, "personal", now)
	seedItem(t, db, userID, &teamID, "team", now)

	buckets, err := ChartData(db, Scope{UserID: userID}, Period7Days, now)
	require.NoError(t, err)

	sum := 0
	for _, b := range buckets {
		sum += b.Items
	}
	assert.Equal(t, 1, sum)
}

func TestChartDataUnknownPeriod(t *testing.T) {
	db := setupTestDB(t)

	_, err := ChartData(db, Scope{UserID: uuid.NewString()}, "90days", time.Now())
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestChartHandlerRejectsUnknownPeriod(t *testing.T) {
	db := setupTestDB(t)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Set("current_user", uuid.NewString())
	ctx.Request = httptest.NewRequest(http.MethodGet, "/?period=90days", nil)

	handler := NewHandler(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler.Chart(ctx)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
