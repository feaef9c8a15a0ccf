package auth

import (
	"net/http"
	"strings"
	"vaultvibe/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func MiddleWare(jwtKey []byte, DB *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := ctx.GetHeader("Authorization")
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")
		if tokenString == "" {
			ctx.JSON(http.StatusUnauthorized, gin.H{
				"message": "Authorization token is missing",
			})
			ctx.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(
			tokenString,
			claims,
			func(t *jwt.Token) (interface{}, error) {
				return jwtKey, nil
			},
		)
		if err != nil || !token.Valid {
			ctx.JSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid Authorization Token",
			})
			ctx.Abort()
			return
		}

		var user models.User
		err = DB.Where("id = ?", claims.ID).First(&user).Error
		if err != nil {
			ctx.JSON(
				http.StatusUnauthorized, gin.H{
					"message": "Invalid Authorization Token",
				})
			ctx.Abort()
			return
		}

		ctx.Set("current_user", user.ID)
		ctx.Next()
	}
}
