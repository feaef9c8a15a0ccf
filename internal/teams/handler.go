package teams

import (
	"errors"
	"log/slog"
	"net/http"
	"vaultvibe/internal/models"
	"vaultvibe/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

type CreateTeamRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create makes a regular team with the caller as admin. Personal teams
// are only created at registration.
func (h *Handler) Create(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var req CreateTeamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}

	team := models.Team{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CreatedBy: userID,
	}
	if err := h.db.Create(&team).Error; err != nil {
		h.logger.Error("Failed to create team", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	member := models.TeamMember{
		ID:     uuid.NewString(),
		TeamID: team.ID,
		UserID: userID,
		Role:   models.RoleAdmin,
	}
	if err := h.db.Create(&member).Error; err != nil {
		h.logger.Error("Failed to create team membership", "team_id", team.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, team)
}

func (h *Handler) List(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var teamIDs []string
	err := h.db.Model(&models.TeamMember{}).Where("user_id = ?", userID).
		Pluck("team_id", &teamIDs).Error
	if err != nil {
		h.logger.Error("Failed to list memberships", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	teams := []models.Team{}
	if len(teamIDs) > 0 {
		if err := h.db.Where("id IN ?", teamIDs).Find(&teams).Error; err != nil {
			h.logger.Error("Failed to list teams", "user_id", userID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"teams": teams})
}

func (h *Handler) Members(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	teamID := ctx.Param("id")

	if h.roleOf(teamID, userID) == "" {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Not a team member"})
		return
	}
	var members []models.TeamMember
	if err := h.db.Where("team_id = ?", teamID).Find(&members).Error; err != nil {
		h.logger.Error("Failed to list members", "team_id", teamID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"members": members})
}

type InviteRequest struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role"`
}

// Invite issues a tokenized invite and notifies the invitee when they
// already have an account.
func (h *Handler) Invite(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	teamID := ctx.Param("id")

	if h.roleOf(teamID, userID) != models.RoleAdmin {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Only admins can invite"})
		return
	}

	var req InviteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}
	if req.Role != models.RoleMember && req.Role != models.RoleViewer && req.Role != models.RoleAdmin {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid role"})
		return
	}

	token, err := utils.ShareToken()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	invite := models.TeamInvite{
		ID:        uuid.NewString(),
		TeamID:    teamID,
		Email:     req.Email,
		Role:      req.Role,
		InvitedBy: userID,
		Token:     token,
	}
	if err := h.db.Create(&invite).Error; err != nil {
		h.logger.Error("Failed to create invite", "team_id", teamID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	var invitee models.User
	if err := h.db.Where("email = ?", req.Email).First(&invitee).Error; err == nil {
		var team models.Team
		_ = h.db.Where("id = ?", teamID).First(&team).Error
		notification := models.Notification{
			ID:     uuid.NewString(),
			UserID: invitee.ID,
			Type:   "team_invite",
			Title:  "Team invitation",
			Body:   "You have been invited to join " + team.Name,
		}
		if err := h.db.Create(&notification).Error; err != nil {
			h.logger.Error("Failed to create invite notification", "team_id", teamID, "error", err)
		}
	}

	ctx.JSON(http.StatusOK, invite)
}

type AcceptInviteRequest struct {
	Token string `json:"token" binding:"required"`
}

// AcceptInvite turns an invite into a membership and consumes the
// invite row.
func (h *Handler) AcceptInvite(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var req AcceptInviteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}

	var invite models.TeamInvite
	err := h.db.Where("token = ?", req.Token).First(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Invite not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	if h.roleOf(invite.TeamID, userID) == "" {
		member := models.TeamMember{
			ID:     uuid.NewString(),
			TeamID: invite.TeamID,
			UserID: userID,
			Role:   invite.Role,
		}
		if err := h.db.Create(&member).Error; err != nil {
			h.logger.Error("Failed to create membership", "team_id", invite.TeamID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		joined := "A new member"
		var profile models.Profile
		if err := h.db.Where("user_id = ?", userID).First(&profile).Error; err == nil {
			joined = profile.Username
		}
		var team models.Team
		_ = h.db.Where("id = ?", invite.TeamID).First(&team).Error
		notification := models.Notification{
			ID:     uuid.NewString(),
			UserID: invite.InvitedBy,
			Type:   "invite_accepted",
			Title:  "Invite accepted",
			Body:   joined + " joined " + team.Name,
		}
		if err := h.db.Create(&notification).Error; err != nil {
			h.logger.Error("Failed to create accept notification", "team_id", invite.TeamID, "error", err)
		}
	}
	if err := h.db.Delete(&invite).Error; err != nil {
		h.logger.Error("Failed to consume invite", "invite_id", invite.ID, "error", err)
	}
	ctx.JSON(http.StatusOK, gin.H{"team_id": invite.TeamID})
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *Handler) ChangeRole(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	teamID := ctx.Param("id")
	targetID := ctx.Param("userId")

	if h.roleOf(teamID, userID) != models.RoleAdmin {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Only admins can change roles"})
		return
	}

	var req ChangeRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleMember && req.Role != models.RoleViewer {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid role"})
		return
	}

	res := h.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, targetID).
		Update("role", req.Role)
	if res.Error != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if res.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Member not found"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"updated": true})
}

func (h *Handler) RemoveMember(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	teamID := ctx.Param("id")
	targetID := ctx.Param("userId")

	// Members may remove themselves; anyone else needs admin.
	if targetID != userID && h.roleOf(teamID, userID) != models.RoleAdmin {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Only admins can remove members"})
		return
	}

	res := h.db.Where("team_id = ? AND user_id = ?", teamID, targetID).Delete(&models.TeamMember{})
	if res.Error != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if res.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Member not found"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"removed": true})
}

// Delete cascades the team away. Admin only; personal teams can only
// go through the account purge.
func (h *Handler) Delete(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	teamID := ctx.Param("id")

	var team models.Team
	err := h.db.Where("id = ?", teamID).First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Team not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if team.IsPersonal {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Cannot delete a personal team"})
		return
	}
	if h.roleOf(teamID, userID) != models.RoleAdmin {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Only admins can delete a team"})
		return
	}

	if err := DeleteTeamCascade(h.db, teamID); err != nil {
		h.logger.Error("Team cascade failed", "team_id", teamID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) roleOf(teamID, userID string) string {
	var member models.TeamMember
	err := h.db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error
	if err != nil {
		return ""
	}
	return member.Role
}
