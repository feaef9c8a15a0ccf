package dashboard

import (
	"errors"
	"fmt"
	"sort"
	"time"
	"vaultvibe/internal/models"

	"gorm.io/gorm"
)

// ErrUnknownPeriod is returned when a chart period is not one of the
// supported values.
var ErrUnknownPeriod = errors.New("unknown time period")

// Scope selects personal data (TeamID nil: the caller's items with no
// team) or a team's data. A personal team additionally surfaces the
// owner's legacy no-team records.
type Scope struct {
	UserID string
	TeamID *string
}

// Supported chart periods.
const (
	Period7Days   = "7days"
	Period30Days  = "30days"
	Period3Months = "3months"
	Period6Months = "6months"
	Period1Year   = "1year"
)

// RecentItem is the minimal dashboard projection; content fields are
// deliberately excluded to keep the payload small.
type RecentItem struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
}

// ChartBucket is one time bucket of the activity chart.
type ChartBucket struct {
	Name     string `json:"name"`
	Items    int    `json:"items"`
	Projects int    `json:"projects"`
}

const DefaultRecentLimit = 5

// RecentItems returns the most recently created items in scope, newest
// first, capped at limit.
func RecentItems(db *gorm.DB, scope Scope, limit int) ([]RecentItem, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	items, err := scopedItems(db, scope)
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}

	recent := make([]RecentItem, 0, len(items))
	for _, it := range items {
		recent = append(recent, RecentItem{
			ID:        it.ID,
			CreatedAt: it.CreatedAt,
			Title:     it.Title,
			Type:      it.Type,
		})
	}
	return recent, nil
}

// ChartData buckets item and project creation into a fixed number of
// calendar buckets for the period, oldest bucket first. Bucket
// membership compares calendar fields of the creation time, not
// elapsed-time windows, so day and month boundaries follow the local
// calendar.
func ChartData(db *gorm.DB, scope Scope, period string, now time.Time) ([]ChartBucket, error) {
	days, bucketCount, byMonth, err := periodSpec(period)
	if err != nil {
		return nil, err
	}
	start := now.AddDate(0, 0, -days)

	items, err := scopedItems(db, scope)
	if err != nil {
		return nil, err
	}
	projects, err := scopedProjects(db, scope)
	if err != nil {
		return nil, err
	}

	var itemTimes, projectTimes []time.Time
	for _, it := range items {
		if !it.CreatedAt.Before(start) {
			itemTimes = append(itemTimes, it.CreatedAt)
		}
	}
	for _, p := range projects {
		if !p.CreatedAt.Before(start) {
			projectTimes = append(projectTimes, p.CreatedAt)
		}
	}

	buckets := make([]ChartBucket, 0, bucketCount)
	if byMonth {
		base := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		for i := bucketCount - 1; i >= 0; i-- {
			m := base.AddDate(0, -i, 0)
			buckets = append(buckets, ChartBucket{
				Name:     m.Format("Jan"),
				Items:    countInMonth(itemTimes, m),
				Projects: countInMonth(projectTimes, m),
			})
		}
		return buckets, nil
	}

	for i := bucketCount - 1; i >= 0; i-- {
		d := now.AddDate(0, 0, -i)
		name := d.Format("Mon")
		if period != Period7Days {
			name = fmt.Sprintf("%s %d", d.Format("Mon"), d.Day())
		}
		buckets = append(buckets, ChartBucket{
			Name:     name,
			Items:    countOnDay(itemTimes, d),
			Projects: countOnDay(projectTimes, d),
		})
	}
	return buckets, nil
}

func periodSpec(period string) (days, buckets int, byMonth bool, err error) {
	switch period {
	case Period7Days:
		return 7, 7, false, nil
	case Period30Days:
		return 30, 30, false, nil
	case Period3Months:
		return 90, 3, true, nil
	case Period6Months:
		return 180, 6, true, nil
	case Period1Year:
		return 365, 12, true, nil
	default:
		return 0, 0, false, fmt.Errorf("%w %q", ErrUnknownPeriod, period)
	}
}

func countOnDay(times []time.Time, day time.Time) int {
	n := 0
	for _, t := range times {
		y1, m1, d1 := t.Date()
		y2, m2, d2 := day.Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			n++
		}
	}
	return n
}

func countInMonth(times []time.Time, month time.Time) int {
	n := 0
	for _, t := range times {
		if t.Year() == month.Year() && t.Month() == month.Month() {
			n++
		}
	}
	return n
}

// scopedItems loads every item the scope can see. Personal teams also
// pull in the owner's legacy items that predate team scoping.
func scopedItems(db *gorm.DB, scope Scope) ([]models.Item, error) {
	var items []models.Item
	if scope.TeamID == nil {
		err := db.Where("user_id = ? AND team_id IS NULL", scope.UserID).Find(&items).Error
		if err != nil {
			return nil, fmt.Errorf("load personal items: %w", err)
		}
		return items, nil
	}

	if err := db.Where("team_id = ?", *scope.TeamID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load team items: %w", err)
	}

	personal, err := isPersonalTeam(db, *scope.TeamID)
	if err != nil {
		return nil, err
	}
	if personal {
		var legacy []models.Item
		err := db.Where("user_id = ? AND team_id IS NULL", scope.UserID).Find(&legacy).Error
		if err != nil {
			return nil, fmt.Errorf("load legacy items: %w", err)
		}
		items = append(items, legacy...)
	}
	return items, nil
}

func scopedProjects(db *gorm.DB, scope Scope) ([]models.Project, error) {
	var projects []models.Project
	if scope.TeamID == nil {
		err := db.Where("user_id = ? AND team_id IS NULL", scope.UserID).Find(&projects).Error
		if err != nil {
			return nil, fmt.Errorf("load personal projects: %w", err)
		}
		return projects, nil
	}

	if err := db.Where("team_id = ?", *scope.TeamID).Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("load team projects: %w", err)
	}

	personal, err := isPersonalTeam(db, *scope.TeamID)
	if err != nil {
		return nil, err
	}
	if personal {
		var legacy []models.Project
		err := db.Where("user_id = ? AND team_id IS NULL", scope.UserID).Find(&legacy).Error
		if err != nil {
			return nil, fmt.Errorf("load legacy projects: %w", err)
		}
		projects = append(projects, legacy...)
	}
	return projects, nil
}

func isPersonalTeam(db *gorm.DB, teamID string) (bool, error) {
	var team models.Team
	if err := db.Where("id = ?", teamID).First(&team).Error; err != nil {
		return false, fmt.Errorf("load team: %w", err)
	}
	return team.IsPersonal, nil
}
