package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
	"vaultvibe/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	jwtKey []byte
	logger *slog.Logger
}

type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

func NewHandler(db *gorm.DB, jwtKey []byte, logger *slog.Logger) *Handler {
	return &Handler{
		db:     db,
		jwtKey: jwtKey,
		logger: logger,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	Username     string `json:"username" binding:"required"`
	FullName     string `json:"full_name"`
	ReferralCode string `json:"referral_code"`
}

func (h *Handler) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(
			http.StatusBadRequest,
			gin.H{"message": "Missing Request"},
		)
		return
	}

	var user models.User
	err := h.db.Where("email = ?", req.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(
				http.StatusBadRequest,
				gin.H{"message": "User not found"},
			)
		} else {
			ctx.JSON(
				http.StatusInternalServerError,
				gin.H{"message": "Internal server error"},
			)
		}
		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password))
	if err != nil {
		ctx.JSON(
			http.StatusBadRequest,
			gin.H{"message": "Incorrect password"},
		)
		return
	}

	token, err := createToken(user.ID, h.jwtKey)
	if err != nil {
		h.logger.Error("Failed to create token", "error", err)
		ctx.JSON(
			http.StatusInternalServerError,
			gin.H{"message": "Server error"},
		)
		return
	}
	ctx.JSON(
		http.StatusOK,
		gin.H{"token": token},
	)
}

func (h *Handler) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(
			http.StatusBadRequest,
			gin.H{"message": "Missing Request"},
		)
		return
	}

	var checkUser models.User
	err := h.db.Where("email = ?", req.Email).First(&checkUser).Error
	if err == nil {
		ctx.JSON(
			http.StatusBadRequest,
			gin.H{"message": "User already exists"},
		)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("Failed to hash password", "error", err)
		ctx.JSON(
			http.StatusInternalServerError,
			gin.H{"message": "Server error"},
		)
		return
	}

	newUser := models.User{
		ID:       uuid.NewString(),
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := h.db.Create(&newUser).Error; err != nil {
		h.logger.Error("Failed to save user", "error", err)
		ctx.JSON(
			http.StatusInternalServerError,
			gin.H{"message": "Server error"},
		)
		return
	}

	if err := h.provisionAccount(newUser, req); err != nil {
		h.logger.Error("Failed to provision account", "user_id", newUser.ID, "error", err)
		ctx.JSON(
			http.StatusInternalServerError,
			gin.H{"message": "Server error"},
		)
		return
	}

	token, err := createToken(newUser.ID, h.jwtKey)
	if err != nil {
		h.logger.Error("Failed to generate access token", "error", err)
		ctx.JSON(
			http.StatusInternalServerError,
			gin.H{"message": "Server error"},
		)
		return
	}
	ctx.JSON(
		http.StatusOK,
		gin.H{"token": token},
	)
}

// provisionAccount creates the profile, the user's personal team with
// its admin membership, and records a referral when a valid referral
// code (the referrer's username) was supplied.
func (h *Handler) provisionAccount(user models.User, req RegisterRequest) error {
	profile := models.Profile{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		Username: req.Username,
		FullName: req.FullName,
	}
	if err := h.db.Create(&profile).Error; err != nil {
		return err
	}

	team := models.Team{
		ID:         uuid.NewString(),
		Name:       req.Username,
		CreatedBy:  user.ID,
		IsPersonal: true,
	}
	if err := h.db.Create(&team).Error; err != nil {
		return err
	}
	member := models.TeamMember{
		ID:     uuid.NewString(),
		TeamID: team.ID,
		UserID: user.ID,
		Role:   models.RoleAdmin,
	}
	if err := h.db.Create(&member).Error; err != nil {
		return err
	}

	// Unknown referral codes are ignored, registration still succeeds.
	if req.ReferralCode != "" {
		var referrer models.Profile
		err := h.db.Where("username = ?", req.ReferralCode).First(&referrer).Error
		if err == nil && referrer.UserID != user.ID {
			referral := models.Referral{
				ID:             uuid.NewString(),
				ReferrerUserID: referrer.UserID,
				ReferredUserID: user.ID,
			}
			if err := h.db.Create(&referral).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Handler) Me(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var profile models.Profile
	err := h.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Profile not found"})
		return
	}
	ctx.JSON(http.StatusOK, profile)
}

type UpdateProfileRequest struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

func (h *Handler) UpdateProfile(ctx *gin.Context) {
	userID := ctx.GetString("current_user")

	var req UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}

	patch := map[string]any{}
	if req.FullName != nil {
		patch["full_name"] = *req.FullName
	}
	if req.AvatarURL != nil {
		patch["avatar_url"] = *req.AvatarURL
	}
	if len(patch) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Nothing to update"})
		return
	}

	res := h.db.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(patch)
	if res.Error != nil {
		h.logger.Error("Failed to update profile", "user_id", userID, "error", res.Error)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if res.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "Profile not found"})
		return
	}

	var profile models.Profile
	if err := h.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	ctx.JSON(http.StatusOK, profile)
}

func createToken(id string, secretKey []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24 * 7)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}
