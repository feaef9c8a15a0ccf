package account

import (
	"fmt"
	"vaultvibe/internal/models"

	"gorm.io/gorm"
)

// PurgeAccountData irreversibly removes every record the user owns or
// participates in. The step order matters: join rows and dependent
// records are removed before the records they reference, and later
// steps reuse id sets computed earlier. There is no transaction across
// the cascade; the first failing step aborts the remainder and leaves
// completed steps in place.
func PurgeAccountData(db *gorm.DB, userID string) error {
	// Steps 1-3: items and their tag joins. Joins go first so no
	// ItemTag ever references a deleted item.
	var itemIDs []string
	if err := db.Model(&models.Item{}).Where("user_id = ?", userID).Pluck("id", &itemIDs).Error; err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	if len(itemIDs) > 0 {
		if err := db.Where("item_id IN ?", itemIDs).Delete(&models.ItemTag{}).Error; err != nil {
			return fmt.Errorf("delete item tags: %w", err)
		}
		if err := db.Where("id IN ?", itemIDs).Delete(&models.Item{}).Error; err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
	}

	// Step 4: tags.
	if err := db.Where("user_id = ?", userID).Delete(&models.Tag{}).Error; err != nil {
		return fmt.Errorf("delete tags: %w", err)
	}

	// Steps 5-6: projects and updates authored by the user.
	if err := db.Where("user_id = ?", userID).Delete(&models.Project{}).Error; err != nil {
		return fmt.Errorf("delete projects: %w", err)
	}
	if err := db.Where("author_id = ?", userID).Delete(&models.ProjectUpdate{}).Error; err != nil {
		return fmt.Errorf("delete project updates: %w", err)
	}

	// Steps 7-8: notifications and board shares.
	if err := db.Where("user_id = ?", userID).Delete(&models.Notification{}).Error; err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	if err := db.Where("user_id = ?", userID).Delete(&models.BoardShare{}).Error; err != nil {
		return fmt.Errorf("delete board shares: %w", err)
	}

	// Step 9: public shares, access logs first so none outlives its share.
	var shareIDs []string
	if err := db.Model(&models.PublicShare{}).Where("created_by = ?", userID).Pluck("id", &shareIDs).Error; err != nil {
		return fmt.Errorf("load public shares: %w", err)
	}
	if len(shareIDs) > 0 {
		if err := db.Where("share_id IN ?", shareIDs).Delete(&models.AccessLog{}).Error; err != nil {
			return fmt.Errorf("delete access logs: %w", err)
		}
		if err := db.Where("id IN ?", shareIDs).Delete(&models.PublicShare{}).Error; err != nil {
			return fmt.Errorf("delete public shares: %w", err)
		}
	}

	// Step 10: referrals in both directions.
	if err := db.Where("referrer_user_id = ?", userID).Delete(&models.Referral{}).Error; err != nil {
		return fmt.Errorf("delete referrals (referrer): %w", err)
	}
	if err := db.Where("referred_user_id = ?", userID).Delete(&models.Referral{}).Error; err != nil {
		return fmt.Errorf("delete referrals (referred): %w", err)
	}

	// Step 11: messages the user sent anywhere. sender_id is not
	// indexed, so this scans the messages table.
	if err := db.Where("sender_id = ?", userID).Delete(&models.Message{}).Error; err != nil {
		return fmt.Errorf("delete sent messages: %w", err)
	}

	// Step 12: conversations the user participates in are removed
	// entirely, messages first. Remaining participants lose the
	// conversation too.
	var convIDs []string
	if err := db.Model(&models.ConversationParticipant{}).Where("user_id = ?", userID).
		Pluck("conversation_id", &convIDs).Error; err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}
	if len(convIDs) > 0 {
		if err := db.Where("conversation_id IN ?", convIDs).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("delete conversation messages: %w", err)
		}
		if err := db.Where("conversation_id IN ?", convIDs).Delete(&models.ConversationParticipant{}).Error; err != nil {
			return fmt.Errorf("delete conversation participants: %w", err)
		}
		if err := db.Where("id IN ?", convIDs).Delete(&models.Conversation{}).Error; err != nil {
			return fmt.Errorf("delete conversations: %w", err)
		}
	}

	// Steps 13-14: memberships and invites the user issued.
	if err := db.Where("user_id = ?", userID).Delete(&models.TeamMember{}).Error; err != nil {
		return fmt.Errorf("delete team memberships: %w", err)
	}
	if err := db.Where("invited_by = ?", userID).Delete(&models.TeamInvite{}).Error; err != nil {
		return fmt.Errorf("delete team invites: %w", err)
	}

	// Step 15: teams the user created, with their members, invites,
	// projects and items, then the teams themselves.
	var teamIDs []string
	if err := db.Model(&models.Team{}).Where("created_by = ?", userID).Pluck("id", &teamIDs).Error; err != nil {
		return fmt.Errorf("load owned teams: %w", err)
	}
	if len(teamIDs) > 0 {
		if err := db.Where("team_id IN ?", teamIDs).Delete(&models.TeamMember{}).Error; err != nil {
			return fmt.Errorf("delete owned team members: %w", err)
		}
		if err := db.Where("team_id IN ?", teamIDs).Delete(&models.TeamInvite{}).Error; err != nil {
			return fmt.Errorf("delete owned team invites: %w", err)
		}
		if err := db.Where("team_id IN ?", teamIDs).Delete(&models.Project{}).Error; err != nil {
			return fmt.Errorf("delete owned team projects: %w", err)
		}
		if err := db.Where("team_id IN ?", teamIDs).Delete(&models.Item{}).Error; err != nil {
			return fmt.Errorf("delete owned team items: %w", err)
		}
		if err := db.Where("id IN ?", teamIDs).Delete(&models.Team{}).Error; err != nil {
			return fmt.Errorf("delete owned teams: %w", err)
		}
	}

	// Step 16: the profile, then the auth record itself.
	if err := db.Where("user_id = ?", userID).Delete(&models.Profile{}).Error; err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if err := db.Where("id = ?", userID).Delete(&models.User{}).Error; err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return nil
}
