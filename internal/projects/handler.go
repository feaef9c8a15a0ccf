package projects

import (
	"errors"
	"log/slog"
	"net/http"
	"vaultvibe/internal/models"

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

func validStatus(s string) bool {
	switch s {
	case models.ProjectStatusPlanning, models.ProjectStatusActive,
		models.ProjectStatusOnHold, models.ProjectStatusCompleted:
		return true
	}
	return false
}

func validPriority(p string) bool {
	return p == models.PriorityLow || p == models.PriorityMedium || p == models.PriorityHigh
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

type CreateProjectRequest struct {
	TeamID   *string `json:"team_id"`
	Name     string  `json:"name" binding:"required"`
	Status   string  `json:"status"`
	Priority string  `json:"priority"`
	Progress int     `json:"progress"`
	Color    string  `json:"color"`
	Notes    string  `json:"notes"`
}

func (h *Handler) Create(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var req CreateProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}
	if req.Status == "" {
		req.Status = models.ProjectStatusPlanning
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !validStatus(req.Status) || !validPriority(req.Priority) {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status or priority"})
		return
	}
	if req.TeamID != nil && !h.isEditor(*req.TeamID, userID) {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Not allowed to write to this team"})
		return
	}

	project := models.Project{
		ID:       uuid.NewString(),
		UserID:   userID,
		TeamID:   req.TeamID,
		Name:     req.Name,
		Status:   req.Status,
		Priority: req.Priority,
		Progress: clampProgress(req.Progress),
		Color:    req.Color,
		Notes:    req.Notes,
	}
	if err := h.db.Create(&project).Error; err != nil {
		h.logger.Error("Failed to create project", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, project)
}

func (h *Handler) List(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var projects []models.Project
	q := h.db.Order("created_at DESC")
	if teamID, ok := ctx.GetQuery("team_id"); ok && teamID != "" {
		if !h.isMember(teamID, userID) {
			ctx.JSON(http.StatusForbidden, gin.H{"message": "Not a team member"})
			return
		}
		q = q.Where("team_id = ?", teamID)
	} else {
		q = q.Where("user_id = ? AND team_id IS NULL", userID)
	}
	if archived, ok := ctx.GetQuery("archived"); !ok || archived != "true" {
		q = q.Where("is_archived = ?", false)
	}
	if err := q.Find(&projects).Error; err != nil {
		h.logger.Error("Failed to list projects", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"projects": projects})
}

type UpdateProjectRequest struct {
	Name       *string `json:"name"`
	Status     *string `json:"status"`
	Priority   *string `json:"priority"`
	Progress   *int    `json:"progress"`
	Color      *string `json:"color"`
	Notes      *string `json:"notes"`
	IsArchived *bool   `json:"is_archived"`
}

func (h *Handler) Update(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	project, ok := h.accessibleProject(ctx, userID, ctx.Param("id"), true)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}

	patch := map[string]any{}
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.Status != nil {
		if !validStatus(*req.Status) {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
			return
		}
		patch["status"] = *req.Status
	}
	if req.Priority != nil {
		if !validPriority(*req.Priority) {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid priority"})
			return
		}
		patch["priority"] = *req.Priority
	}
	if req.Progress != nil {
		patch["progress"] = clampProgress(*req.Progress)
	}
	if req.Color != nil {
		patch["color"] = *req.Color
	}
	if req.Notes != nil {
		patch["notes"] = *req.Notes
	}
	if req.IsArchived != nil {
		patch["is_archived"] = *req.IsArchived
	}
	if len(patch) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Nothing to update"})
		return
	}
	if err := h.db.Model(&project).Updates(patch).Error; err != nil {
		h.logger.Error("Failed to update project", "project_id", project.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, project)
}

// Delete removes a project and its updates, updates first.
func (h *Handler) Delete(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	project, ok := h.accessibleProject(ctx, userID, ctx.Param("id"), true)
	if !ok {
		return
	}
	if err := h.db.Where("project_id = ?", project.ID).Delete(&models.ProjectUpdate{}).Error; err != nil {
		h.logger.Error("Failed to delete project updates", "project_id", project.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if err := h.db.Delete(&project).Error; err != nil {
		h.logger.Error("Failed to delete project", "project_id", project.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}

type CreateUpdateRequest struct {
	Type    string `json:"type"`
	Summary string `json:"summary" binding:"required"`
}

// CreateUpdate appends an activity entry to a live project. The entry
// inherits the project's team scope.
func (h *Handler) CreateUpdate(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	project, ok := h.accessibleProject(ctx, userID, ctx.Param("id"), true)
	if !ok {
		return
	}
	var req CreateUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}
	if req.Type == "" {
		req.Type = models.UpdateTypeComment
	}

	update := models.ProjectUpdate{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		TeamID:    project.TeamID,
		AuthorID:  userID,
		Type:      req.Type,
		Summary:   req.Summary,
	}
	if err := h.db.Create(&update).Error; err != nil {
		h.logger.Error("Failed to create project update", "project_id", project.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, update)
}

func (h *Handler) ListUpdates(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	project, ok := h.accessibleProject(ctx, userID, ctx.Param("id"), false)
	if !ok {
		return
	}
	var updates []models.ProjectUpdate
	err := h.db.Where("project_id = ?", project.ID).Order("created_at DESC").Find(&updates).Error
	if err != nil {
		h.logger.Error("Failed to list project updates", "project_id", project.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"updates": updates})
}

func (h *Handler) DeleteUpdate(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	updateID := ctx.Param("updateId")

	var update models.ProjectUpdate
	err := h.db.Where("id = ?", updateID).First(&update).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Update not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if update.AuthorID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Not your update"})
		return
	}
	if err := h.db.Delete(&update).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}

// accessibleProject loads a project and enforces ownership: the owner
// for personal projects, team membership for team projects. Writes to
// team projects additionally require an editor role. Replies on
// failure.
func (h *Handler) accessibleProject(ctx *gin.Context, userID, projectID string, write bool) (models.Project, bool) {
	var project models.Project
	err := h.db.Where("id = ?", projectID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		return project, false
	}
	if err != nil {
		h.logger.Error("Failed to load project", "project_id", projectID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return project, false
	}
	if project.TeamID != nil {
		if !h.isMember(*project.TeamID, userID) {
			ctx.JSON(http.StatusForbidden, gin.H{"message": "Not a team member"})
			return project, false
		}
		if write && !h.isEditor(*project.TeamID, userID) {
			ctx.JSON(http.StatusForbidden, gin.H{"message": "Not allowed to write to this team"})
			return project, false
		}
	} else if project.UserID != userID {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		return project, false
	}
	return project, true
}

func (h *Handler) isMember(teamID, userID string) bool {
	var count int64
	h.db.Model(&models.TeamMember{}).Where("team_id = ? AND user_id = ?", teamID, userID).Count(&count)
	return count > 0
}

func (h *Handler) isEditor(teamID, userID string) bool {
	var count int64
	h.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ? AND role <> ?", teamID, userID, models.RoleViewer).
		Count(&count)
	return count > 0
}
