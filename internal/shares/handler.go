package shares

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
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

type CreateShareRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

// Create issues a public token for one of the caller's items.
func (h *Handler) Create(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var req CreateShareRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}

	var item models.Item
	err := h.db.Where("id = ? AND user_id = ?", req.ItemID, userID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Item not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	token, err := utils.ShareToken()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	share := models.PublicShare{
		ID:        uuid.NewString(),
		ItemID:    item.ID,
		CreatedBy: userID,
		Token:     token,
	}
	if err := h.db.Create(&share).Error; err != nil {
		h.logger.Error("Failed to create public share", "item_id", item.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, share)
}

func (h *Handler) List(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var sharesList []models.PublicShare
	err := h.db.Where("created_by = ?", userID).Order("created_at DESC").Find(&sharesList).Error
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"shares": sharesList})
}

// Revoke deletes a share, access logs first so none outlives it.
func (h *Handler) Revoke(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	shareID := ctx.Param("id")

	var share models.PublicShare
	err := h.db.Where("id = ? AND created_by = ?", shareID, userID).First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Share not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	if err := h.db.Where("share_id = ?", share.ID).Delete(&models.AccessLog{}).Error; err != nil {
		h.logger.Error("Failed to delete access logs", "share_id", share.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if err := h.db.Delete(&share).Error; err != nil {
		h.logger.Error("Failed to delete share", "share_id", share.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"revoked": true})
}

func (h *Handler) AccessLogs(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	shareID := ctx.Param("id")

	var share models.PublicShare
	err := h.db.Where("id = ? AND created_by = ?", shareID, userID).First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Share not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	var logs []models.AccessLog
	err = h.db.Where("share_id = ?", share.ID).Order("accessed_at DESC").Find(&logs).Error
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"logs": logs})
}

// Fetch resolves a public token anonymously. The access is logged
// before the item is returned.
func (h *Handler) Fetch(ctx *gin.Context) {
	token := ctx.Param("token")

	var share models.PublicShare
	err := h.db.Where("token = ?", token).First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Share not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	logEntry := models.AccessLog{
		ID:         uuid.NewString(),
		ShareID:    share.ID,
		UserAgent:  ctx.Request.UserAgent(),
		IPAddress:  ctx.ClientIP(),
		AccessedAt: time.Now(),
	}
	if err := h.db.Create(&logEntry).Error; err != nil {
		h.logger.Error("Failed to log access", "share_id", share.ID, "error", err)
	}

	var item models.Item
	if err := h.db.Where("id = ?", share.ItemID).First(&item).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Item not found"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"item": item})
}
