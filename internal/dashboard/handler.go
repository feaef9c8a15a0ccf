package dashboard

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
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

func (h *Handler) Recent(ctx *gin.Context) {
	scope := scopeFromCtx(ctx)

	limit := DefaultRecentLimit
	if raw, ok := ctx.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid limit"})
			return
		}
		limit = n
	}

	items, err := RecentItems(h.db, scope, limit)
	if err != nil {
		h.logger.Error("Failed to load recent items", "user_id", scope.UserID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Chart(ctx *gin.Context) {
	scope := scopeFromCtx(ctx)
	period := ctx.DefaultQuery("period", Period7Days)

	buckets, err := ChartData(h.db, scope, period, time.Now())
	if errors.Is(err, ErrUnknownPeriod) {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid period"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to build chart", "user_id", scope.UserID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": buckets})
}

func scopeFromCtx(ctx *gin.Context) Scope {
	scope := Scope{UserID: ctx.GetString("current_user")}
	if v, ok := ctx.GetQuery("team_id"); ok && v != "" {
		scope.TeamID = &v
	}
	return scope
}
