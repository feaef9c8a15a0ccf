package items

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

func validItemType(t string) bool {
	return t == models.ItemTypeCode || t == models.ItemTypePrompt || t == models.ItemTypeFile
}

type CreateItemRequest struct {
	TeamID   *string  `json:"team_id"`
	Type     string   `json:"type" binding:"required"`
	Title    string   `json:"title" binding:"required"`
	Content  string   `json:"content"`
	Language string   `json:"language"`
	FileURL  string   `json:"file_url"`
	FileName string   `json:"file_name"`
	FileSize int64    `json:"file_size"`
	TagIDs   []string `json:"tag_ids"`
}

func (h *Handler) Create(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var req CreateItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}
	if !validItemType(req.Type) {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid item type"})
		return
	}
	if req.TeamID != nil {
		if !h.isEditor(*req.TeamID, userID) {
			ctx.JSON(http.StatusForbidden, gin.H{"message": "Not allowed to write to this team"})
			return
		}
	}

	item := models.Item{
		ID:       uuid.NewString(),
		UserID:   userID,
		TeamID:   req.TeamID,
		Type:     req.Type,
		Title:    req.Title,
		Content:  req.Content,
		Language: req.Language,
		FileURL:  req.FileURL,
		FileName: req.FileName,
		FileSize: req.FileSize,
	}
	if err := h.db.Create(&item).Error; err != nil {
		h.logger.Error("Failed to create item", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	for _, tagID := range req.TagIDs {
		if err := h.attachTag(item.ID, tagID); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "Tag not found"})
			return
		}
	}
	ctx.JSON(http.StatusOK, item)
}

func (h *Handler) List(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var items []models.Item
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
	if t, ok := ctx.GetQuery("type"); ok && t != "" {
		q = q.Where("type = ?", t)
	}
	if fav, ok := ctx.GetQuery("favorites"); ok && fav == "true" {
		q = q.Where("is_favorite = ?", true)
	}
	if err := q.Find(&items).Error; err != nil {
		h.logger.Error("Failed to list items", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Get(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	item, ok := h.accessibleItem(ctx, userID, ctx.Param("id"), false)
	if !ok {
		return
	}

	var joins []models.ItemTag
	if err := h.db.Where("item_id = ?", item.ID).Find(&joins).Error; err != nil {
		h.logger.Error("Failed to load item tags", "item_id", item.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	tags := []models.Tag{}
	if len(joins) > 0 {
		tagIDs := make([]string, 0, len(joins))
		for _, j := range joins {
			tagIDs = append(tagIDs, j.TagID)
		}
		if err := h.db.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
			h.logger.Error("Failed to load tags", "item_id", item.ID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"item": item, "tags": tags})
}

type UpdateItemRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Language *string `json:"language"`
	FileURL  *string `json:"file_url"`
	FileName *string `json:"file_name"`
}

func (h *Handler) Update(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	item, ok := h.accessibleItem(ctx, userID, ctx.Param("id"), true)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}

	patch := map[string]any{}
	if req.Title != nil {
		patch["title"] = *req.Title
	}
	if req.Content != nil {
		patch["content"] = *req.Content
	}
	if req.Language != nil {
		patch["language"] = *req.Language
	}
	if req.FileURL != nil {
		patch["file_url"] = *req.FileURL
	}
	if req.FileName != nil {
		patch["file_name"] = *req.FileName
	}
	if len(patch) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Nothing to update"})
		return
	}
	if err := h.db.Model(&item).Updates(patch).Error; err != nil {
		h.logger.Error("Failed to update item", "item_id", item.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// ToggleFavorite flips the favorite flag on an item.
func (h *Handler) ToggleFavorite(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	item, ok := h.accessibleItem(ctx, userID, ctx.Param("id"), true)
	if !ok {
		return
	}
	if err := h.db.Model(&item).Update("is_favorite", !item.IsFavorite).Error; err != nil {
		h.logger.Error("Failed to toggle favorite", "item_id", item.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	item.IsFavorite = !item.IsFavorite
	ctx.JSON(http.StatusOK, item)
}

// Delete removes an item and its tag joins, joins first.
func (h *Handler) Delete(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	item, ok := h.accessibleItem(ctx, userID, ctx.Param("id"), true)
	if !ok {
		return
	}
	if err := h.db.Where("item_id = ?", item.ID).Delete(&models.ItemTag{}).Error; err != nil {
		h.logger.Error("Failed to delete item tags", "item_id", item.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if err := h.db.Delete(&item).Error; err != nil {
		h.logger.Error("Failed to delete item", "item_id", item.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}

type CreateTagRequest struct {
	TeamID *string `json:"team_id"`
	Name   string  `json:"name" binding:"required"`
	Color  string  `json:"color"`
}

func (h *Handler) CreateTag(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var req CreateTagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}

	// A tag belongs to exactly one of a user or a team.
	tag := models.Tag{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Color: req.Color,
	}
	if req.TeamID != nil {
		if !h.isEditor(*req.TeamID, userID) {
			ctx.JSON(http.StatusForbidden, gin.H{"message": "Not allowed to write to this team"})
			return
		}
		tag.TeamID = req.TeamID
	} else {
		tag.UserID = &userID
	}
	if err := h.db.Create(&tag).Error; err != nil {
		h.logger.Error("Failed to create tag", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, tag)
}

func (h *Handler) ListTags(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var tags []models.Tag
	q := h.db.Order("name ASC")
	if teamID, ok := ctx.GetQuery("team_id"); ok && teamID != "" {
		if !h.isMember(teamID, userID) {
			ctx.JSON(http.StatusForbidden, gin.H{"message": "Not a team member"})
			return
		}
		q = q.Where("team_id = ?", teamID)
	} else {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Find(&tags).Error; err != nil {
		h.logger.Error("Failed to list tags", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tags": tags})
}

// DeleteTag removes a tag and every join referencing it.
func (h *Handler) DeleteTag(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	tagID := ctx.Param("id")

	var tag models.Tag
	err := h.db.Where("id = ?", tagID).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Tag not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if tag.UserID != nil && *tag.UserID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Not your tag"})
		return
	}
	if tag.TeamID != nil && !h.isEditor(*tag.TeamID, userID) {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Not allowed to write to this team"})
		return
	}

	if err := h.db.Where("tag_id = ?", tag.ID).Delete(&models.ItemTag{}).Error; err != nil {
		h.logger.Error("Failed to delete tag joins", "tag_id", tag.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if err := h.db.Delete(&tag).Error; err != nil {
		h.logger.Error("Failed to delete tag", "tag_id", tag.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}

type TagItemRequest struct {
	TagID string `json:"tag_id" binding:"required"`
}

func (h *Handler) TagItem(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	item, ok := h.accessibleItem(ctx, userID, ctx.Param("id"), true)
	if !ok {
		return
	}
	var req TagItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}
	if err := h.attachTag(item.ID, req.TagID); err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Tag not found"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tagged": true})
}

func (h *Handler) UntagItem(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	item, ok := h.accessibleItem(ctx, userID, ctx.Param("id"), true)
	if !ok {
		return
	}
	res := h.db.Where("item_id = ? AND tag_id = ?", item.ID, ctx.Param("tagId")).Delete(&models.ItemTag{})
	if res.Error != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"untagged": res.RowsAffected > 0})
}

// attachTag creates the join once both ids resolve; duplicates are
// skipped.
func (h *Handler) attachTag(itemID, tagID string) error {
	var tag models.Tag
	if err := h.db.Where("id = ?", tagID).First(&tag).Error; err != nil {
		return err
	}
	var existing models.ItemTag
	err := h.db.Where("item_id = ? AND tag_id = ?", itemID, tagID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return h.db.Create(&models.ItemTag{
		ID:     uuid.NewString(),
		ItemID: itemID,
		TagID:  tagID,
	}).Error
}

// accessibleItem loads an item and enforces ownership: the owner for
// personal items, team membership for team items. Writes to team items
// additionally require an editor role. Replies on failure.
func (h *Handler) accessibleItem(ctx *gin.Context, userID, itemID string, write bool) (models.Item, bool) {
	var item models.Item
	err := h.db.Where("id = ?", itemID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Item not found"})
		return item, false
	}
	if err != nil {
		h.logger.Error("Failed to load item", "item_id", itemID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return item, false
	}
	if item.TeamID != nil {
		if !h.isMember(*item.TeamID, userID) {
			ctx.JSON(http.StatusForbidden, gin.H{"message": "Not a team member"})
			return item, false
		}
		if write && !h.isEditor(*item.TeamID, userID) {
			ctx.JSON(http.StatusForbidden, gin.H{"message": "Not allowed to write to this team"})
			return item, false
		}
	} else if item.UserID != userID {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Item not found"})
		return item, false
	}
	return item, true
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
