package board

import (
	"errors"
	"fmt"
	"time"
	"vaultvibe/internal/models"
	"vaultvibe/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrShareNotFound = errors.New("board share not found")
	ErrNotAllowed    = errors.New("not allowed to manage this board share")
)

// GetShare returns the share for the given scope, or nil when the
// scope has none. A nil teamID addresses the caller's personal board.
func GetShare(db *gorm.DB, userID string, teamID *string) (*models.BoardShare, error) {
	// Team scope is keyed by team alone; the personal scope is the
	// caller's share with no team.
	var share models.BoardShare
	var err error
	if teamID != nil {
		err = db.Where("team_id = ?", *teamID).First(&share).Error
	} else {
		err = db.Where("user_id = ? AND team_id IS NULL", userID).First(&share).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load board share: %w", err)
	}
	return &share, nil
}

// CreateShare creates the share for a scope, or re-enables and updates
// expiry on the existing one. Each scope holds at most one share and
// the token is generated exactly once, at first creation.
func CreateShare(db *gorm.DB, userID string, teamID *string, expiresAt *time.Time) (*models.BoardShare, error) {
	if teamID != nil {
		if err := requireEditor(db, *teamID, userID); err != nil {
			return nil, err
		}
	}

	existing, err := GetShare(db, userID, teamID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		patch := map[string]any{"enabled": true, "expires_at": expiresAt}
		if err := db.Model(existing).Updates(patch).Error; err != nil {
			return nil, fmt.Errorf("update board share: %w", err)
		}
		existing.Enabled = true
		existing.ExpiresAt = expiresAt
		return existing, nil
	}

	token, err := utils.ShareToken()
	if err != nil {
		return nil, fmt.Errorf("generate share token: %w", err)
	}
	share := models.BoardShare{
		ID:        uuid.NewString(),
		UserID:    userID,
		TeamID:    teamID,
		Token:     token,
		Enabled:   true,
		ExpiresAt: expiresAt,
	}
	if err := db.Create(&share).Error; err != nil {
		return nil, fmt.Errorf("create board share: %w", err)
	}
	return &share, nil
}

// UpdateShare patches enabled and/or expiry on an existing share.
// clearExpiry removes the expiry entirely; it wins over expiresAt.
func UpdateShare(db *gorm.DB, userID, shareID string, enabled *bool, expiresAt *time.Time, clearExpiry bool) (*models.BoardShare, error) {
	var share models.BoardShare
	err := db.Where("id = ?", shareID).First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load board share: %w", err)
	}

	if share.TeamID != nil {
		if err := requireEditor(db, *share.TeamID, userID); err != nil {
			return nil, err
		}
	} else if share.UserID != userID {
		return nil, ErrShareNotFound
	}

	patch := map[string]any{}
	if enabled != nil {
		patch["enabled"] = *enabled
		share.Enabled = *enabled
	}
	if clearExpiry {
		patch["expires_at"] = nil
		share.ExpiresAt = nil
	} else if expiresAt != nil {
		patch["expires_at"] = *expiresAt
		share.ExpiresAt = expiresAt
	}
	if len(patch) > 0 {
		if err := db.Model(&share).Updates(patch).Error; err != nil {
			return nil, fmt.Errorf("update board share: %w", err)
		}
	}
	return &share, nil
}

// requireEditor checks that the user belongs to the team with a role
// other than viewer.
func requireEditor(db *gorm.DB, teamID, userID string) error {
	var member models.TeamMember
	err := db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotAllowed
	}
	if err != nil {
		return fmt.Errorf("load team membership: %w", err)
	}
	if member.Role == models.RoleViewer {
		return ErrNotAllowed
	}
	return nil
}
