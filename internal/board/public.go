package board

import (
	"errors"
	"fmt"
	"time"
	"vaultvibe/internal/models"

	"gorm.io/gorm"
)

// ShareConfig is the anonymous-viewer projection of a BoardShare.
type ShareConfig struct {
	Scope     string     `json:"scope"` // "team" or "personal"
	BoardName string     `json:"board_name"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// PublicBoard is what an anonymous viewer sees through a share token.
type PublicBoard struct {
	ShareConfig ShareConfig      `json:"share_config"`
	Projects    []models.Project `json:"projects"`
}

// ResolvePublicBoard resolves a share token to its visible projects.
// Missing, disabled and expired tokens all resolve to nil — the
// resolver never reveals whether a token ever existed.
func ResolvePublicBoard(db *gorm.DB, token string, now time.Time) (*PublicBoard, error) {
	share, err := liveShare(db, token, now)
	if err != nil || share == nil {
		return nil, err
	}

	projects, err := visibleProjects(db, share)
	if err != nil {
		return nil, err
	}

	cfg := ShareConfig{Scope: "personal", ExpiresAt: share.ExpiresAt}
	if share.TeamID != nil {
		cfg.Scope = "team"
		var team models.Team
		if err := db.Where("id = ?", *share.TeamID).First(&team).Error; err == nil {
			cfg.BoardName = team.Name
		}
	} else {
		var profile models.Profile
		if err := db.Where("user_id = ?", share.UserID).First(&profile).Error; err == nil {
			cfg.BoardName = profile.Username
		}
	}

	return &PublicBoard{ShareConfig: cfg, Projects: projects}, nil
}

// PublicBoardUpdates resolves a share token to the updates of its
// visible projects. Dead tokens yield an empty slice.
func PublicBoardUpdates(db *gorm.DB, token string, now time.Time) ([]models.ProjectUpdate, error) {
	share, err := liveShare(db, token, now)
	if err != nil || share == nil {
		return []models.ProjectUpdate{}, err
	}

	if share.TeamID != nil {
		var updates []models.ProjectUpdate
		err := db.Where("team_id = ?", *share.TeamID).
			Order("created_at DESC").Find(&updates).Error
		if err != nil {
			return nil, fmt.Errorf("load team updates: %w", err)
		}
		return updates, nil
	}

	// Personal scope: an update is visible only when it belongs to a
	// currently-visible project, not merely because the owner wrote it.
	projects, err := visibleProjects(db, share)
	if err != nil {
		return nil, err
	}
	visible := make(map[string]bool, len(projects))
	for _, p := range projects {
		visible[p.ID] = true
	}

	var authored []models.ProjectUpdate
	err = db.Where("author_id = ?", share.UserID).
		Order("created_at DESC").Find(&authored).Error
	if err != nil {
		return nil, fmt.Errorf("load authored updates: %w", err)
	}

	updates := make([]models.ProjectUpdate, 0, len(authored))
	for _, u := range authored {
		if visible[u.ProjectID] {
			updates = append(updates, u)
		}
	}
	return updates, nil
}

// liveShare looks a share up by token and applies the derived state:
// enabled and not past its expiry. Expiry is computed here at read
// time, never transitioned in storage.
func liveShare(db *gorm.DB, token string, now time.Time) (*models.BoardShare, error) {
	var share models.BoardShare
	err := db.Where("token = ?", token).First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load board share: %w", err)
	}
	if !share.Enabled {
		return nil, nil
	}
	if share.ExpiresAt != nil && !share.ExpiresAt.After(now) {
		return nil, nil
	}
	return &share, nil
}

// visibleProjects applies the scope rules: team shares expose the
// team's projects, personal shares expose only the owner's projects
// that have no team. Archived projects are never visible.
func visibleProjects(db *gorm.DB, share *models.BoardShare) ([]models.Project, error) {
	if share.TeamID != nil {
		var projects []models.Project
		err := db.Where("team_id = ? AND is_archived = ?", *share.TeamID, false).
			Order("created_at DESC").Find(&projects).Error
		if err != nil {
			return nil, fmt.Errorf("load team projects: %w", err)
		}
		return projects, nil
	}

	var owned []models.Project
	err := db.Where("user_id = ?", share.UserID).
		Order("created_at DESC").Find(&owned).Error
	if err != nil {
		return nil, fmt.Errorf("load personal projects: %w", err)
	}

	// Team projects never leak through a personal share, even when the
	// share owner also owns them.
	projects := make([]models.Project, 0, len(owned))
	for _, p := range owned {
		if p.TeamID == nil && !p.IsArchived {
			projects = append(projects, p)
		}
	}
	return projects, nil
}
