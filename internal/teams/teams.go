package teams

import (
	"fmt"
	"vaultvibe/internal/models"

	"gorm.io/gorm"
)

// DeleteTeamCascade removes a team with its members, invites, projects
// and items, children before the team itself. Same ordering as the
// team step of the account purge.
func DeleteTeamCascade(db *gorm.DB, teamID string) error {
	if err := db.Where("team_id = ?", teamID).Delete(&models.TeamMember{}).Error; err != nil {
		return fmt.Errorf("delete team members: %w", err)
	}
	if err := db.Where("team_id = ?", teamID).Delete(&models.TeamInvite{}).Error; err != nil {
		return fmt.Errorf("delete team invites: %w", err)
	}
	if err := db.Where("team_id = ?", teamID).Delete(&models.Project{}).Error; err != nil {
		return fmt.Errorf("delete team projects: %w", err)
	}
	if err := db.Where("team_id = ?", teamID).Delete(&models.Item{}).Error; err != nil {
		return fmt.Errorf("delete team items: %w", err)
	}
	if err := db.Where("id = ?", teamID).Delete(&models.Team{}).Error; err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return nil
}
