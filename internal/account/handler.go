package account

import (
	"log/slog"
	"net/http"

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

// DeleteAccount purges all data for the authenticated user.
func (h *Handler) DeleteAccount(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	if err := PurgeAccountData(h.db, userID); err != nil {
		h.logger.Error("Account purge failed", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	h.logger.Info("Account purged", "user_id", userID)
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}
