package board

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

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

func (h *Handler) GetShare(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	teamID := optionalQuery(ctx, "team_id")

	share, err := GetShare(h.db, userID, teamID)
	if err != nil {
		h.logger.Error("Failed to load board share", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if share == nil {
		ctx.JSON(http.StatusOK, gin.H{"share": nil})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"share": share})
}

type CreateShareRequest struct {
	TeamID    *string    `json:"team_id"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (h *Handler) CreateShare(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var req CreateShareRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}

	share, err := CreateShare(h.db, userID, req.TeamID, req.ExpiresAt)
	if err != nil {
		if errors.Is(err, ErrNotAllowed) {
			ctx.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
			return
		}
		h.logger.Error("Failed to create board share", "user_id", userID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"share": share})
}

type UpdateShareRequest struct {
	Enabled     *bool      `json:"enabled"`
	ExpiresAt   *time.Time `json:"expires_at"`
	ClearExpiry bool       `json:"clear_expiry"`
}

func (h *Handler) UpdateShare(ctx *gin.Context) {
	userID := ctx.GetString("current_user")
	shareID := ctx.Param("id")

	var req UpdateShareRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}

	share, err := UpdateShare(h.db, userID, shareID, req.Enabled, req.ExpiresAt, req.ClearExpiry)
	if err != nil {
		switch {
		case errors.Is(err, ErrShareNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		case errors.Is(err, ErrNotAllowed):
			ctx.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
		default:
			h.logger.Error("Failed to update board share", "user_id", userID, "share_id", shareID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"share": share})
}

func (h *Handler) PublicBoard(ctx *gin.Context) {
	token := ctx.Param("token")

	boardView, err := ResolvePublicBoard(h.db, token, time.Now())
	if err != nil {
		h.logger.Error("Failed to resolve public board", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if boardView == nil {
		// Dead tokens look identical to tokens that never existed.
		ctx.JSON(http.StatusOK, gin.H{"board": nil})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"board": boardView})
}

func (h *Handler) PublicBoardUpdates(ctx *gin.Context) {
	token := ctx.Param("token")

	updates, err := PublicBoardUpdates(h.db, token, time.Now())
	if err != nil {
		h.logger.Error("Failed to resolve public board updates", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"updates": updates})
}

func optionalQuery(ctx *gin.Context, key string) *string {
	if v, ok := ctx.GetQuery(key); ok && v != "" {
		return &v
	}
	return nil
}
