package notify

import (
	"log/slog"
	"net/http"
	"vaultvibe/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

func (h *Handler) List(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var notifications []models.Notification
	q := h.db.Where("user_id = ?", userID).Order("created_at DESC")
	if unread, ok := ctx.GetQuery("unread"); ok && unread == "true" {
		q = q.Where("read = ?", false)
	}
	if err := q.Find(&notifications).Error; err != nil {
		h.logger.Error("Failed to list notifications", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (h *Handler) MarkRead(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	res := h.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", ctx.Param("id"), userID).
		Update("read", true)
	if res.Error != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if res.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Notification not found"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"read": true})
}

func (h *Handler) MarkAllRead(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		h.logger.Error("Failed to mark notifications read", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"read": true})
}

// Referrals lists users the caller referred.
func (h *Handler) Referrals(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var referrals []models.Referral
	err := h.db.Where("referrer_user_id = ?", userID).Order("created_at DESC").Find(&referrals).Error
	if err != nil {
		h.logger.Error("Failed to list referrals", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"referrals": referrals})
}
