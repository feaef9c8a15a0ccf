package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"vaultvibe/internal/account"
	"vaultvibe/internal/auth"
	"vaultvibe/internal/board"
	"vaultvibe/internal/chat"
	"vaultvibe/internal/dashboard"
	"vaultvibe/internal/database"
	"vaultvibe/internal/items"
	"vaultvibe/internal/notify"
	"vaultvibe/internal/projects"
	"vaultvibe/internal/shares"
	"vaultvibe/internal/teams"
	"vaultvibe/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	logFile, err := os.OpenFile("app.error_logger", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalln("Failed to open error_logger file")
	}
	defer func(logFile *os.File) {
		err := logFile.Close()
		if err != nil {
			log.Fatalln("Failed to close error_logger file")
		}
	}(logFile)

	logger := slog.New(slog.NewTextHandler(logFile, nil))

	db := database.NewDatabaseManager()
	err = db.Connect()
	if err != nil {
		logger.Error(fmt.Sprintf("error connecting to database: %v", err.Error()))
		return
	}

	defer func(db *database.Manager) {
		err := db.Close()
		if err != nil {
			logger.Error(fmt.Sprintf("error closing database: %v", err.Error()))
			log.Fatal(fmt.Sprintf("error closing database: %v", err.Error()))
			return
		}
	}(db)

	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey == "" {
		logger.Error("No JWT_KEY found in environment")
		return
	}

	redisClient, err := utils.NewRedisClient()
	if err != nil {
		// Chat still works on a single instance without redis.
		logger.Warn("Redis unavailable, chat fan-out is local only", "error", err)
		redisClient = nil
	}

	r := gin.Default()

	var allowedOrigins []string
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		allowedOrigins = strings.Split(raw, ",")
	}
	r.Use(auth.CORSMiddleware(allowedOrigins))

	authHandler := auth.NewHandler(db.DB, []byte(jwtKey), logger)
	accountHandler := account.NewHandler(db.DB, logger)
	boardHandler := board.NewHandler(db.DB, logger)
	dashboardHandler := dashboard.NewHandler(db.DB, logger)
	itemsHandler := items.NewHandler(db.DB, logger)
	projectsHandler := projects.NewHandler(db.DB, logger)
	teamsHandler := teams.NewHandler(db.DB, logger)
	notifyHandler := notify.NewHandler(db.DB, logger)
	sharesHandler := shares.NewHandler(db.DB, logger)
	hub := chat.NewHub(redisClient, logger)
	chatHandler := chat.NewHandler(db.DB, hub, logger)

	r.POST("/login", authHandler.Login)
	r.POST("/register", authHandler.Register)
	r.GET("/health", func(context *gin.Context) {
		context.JSON(http.StatusOK, gin.H{})
	})

	// Anonymous share resolution. Dead tokens degrade silently.
	r.GET("/public/board/:token", boardHandler.PublicBoard)
	r.GET("/public/board/:token/updates", boardHandler.PublicBoardUpdates)
	r.GET("/public/item/:token", sharesHandler.Fetch)

	protected := r.Group("/protected")
	protected.Use(auth.MiddleWare([]byte(jwtKey), db.DB))

	protected.GET("/me", authHandler.Me)
	protected.PATCH("/me", authHandler.UpdateProfile)
	protected.DELETE("/account", accountHandler.DeleteAccount)

	protected.GET("/items", itemsHandler.List)
	protected.POST("/items", itemsHandler.Create)
	protected.GET("/items/:id", itemsHandler.Get)
	protected.PATCH("/items/:id", itemsHandler.Update)
	protected.DELETE("/items/:id", itemsHandler.Delete)
	protected.POST("/items/:id/favorite", itemsHandler.ToggleFavorite)
	protected.POST("/items/:id/tags", itemsHandler.TagItem)
	protected.DELETE("/items/:id/tags/:tagId", itemsHandler.UntagItem)
	protected.GET("/tags", itemsHandler.ListTags)
	protected.POST("/tags", itemsHandler.CreateTag)
	protected.DELETE("/tags/:id", itemsHandler.DeleteTag)

	protected.GET("/projects", projectsHandler.List)
	protected.POST("/projects", projectsHandler.Create)
	protected.PATCH("/projects/:id", projectsHandler.Update)
	protected.DELETE("/projects/:id", projectsHandler.Delete)
	protected.GET("/projects/:id/updates", projectsHandler.ListUpdates)
	protected.POST("/projects/:id/updates", projectsHandler.CreateUpdate)
	protected.DELETE("/projects/:id/updates/:updateId", projectsHandler.DeleteUpdate)

	protected.GET("/teams", teamsHandler.List)
	protected.POST("/teams", teamsHandler.Create)
	protected.GET("/teams/:id/members", teamsHandler.Members)
	protected.POST("/teams/:id/invites", teamsHandler.Invite)
	protected.POST("/invites/accept", teamsHandler.AcceptInvite)
	protected.PATCH("/teams/:id/members/:userId", teamsHandler.ChangeRole)
	protected.DELETE("/teams/:id/members/:userId", teamsHandler.RemoveMember)
	protected.DELETE("/teams/:id", teamsHandler.Delete)

	protected.GET("/board-share", boardHandler.GetShare)
	protected.POST("/board-share", boardHandler.CreateShare)
	protected.PATCH("/board-share/:id", boardHandler.UpdateShare)

	protected.GET("/dashboard/recent", dashboardHandler.Recent)
	protected.GET("/dashboard/chart", dashboardHandler.Chart)

	protected.GET("/conversations", chatHandler.ListConversations)
	protected.POST("/conversations", chatHandler.CreateConversation)
	protected.GET("/conversations/:id/messages", chatHandler.ListMessages)
	protected.POST("/conversations/:id/messages", chatHandler.SendMessage)
	protected.DELETE("/messages/:messageId", chatHandler.DeleteMessage)
	protected.POST("/conversations/:id/read", chatHandler.MarkRead)
	protected.POST("/conversations/:id/leave", chatHandler.Leave)
	protected.GET("/conversations/:id/ws", chatHandler.Subscribe)

	protected.GET("/notifications", notifyHandler.List)
	protected.PATCH("/notifications/:id", notifyHandler.MarkRead)
	protected.POST("/notifications/read-all", notifyHandler.MarkAllRead)
	protected.GET("/referrals", notifyHandler.Referrals)

	protected.GET("/shares", sharesHandler.List)
	protected.POST("/shares", sharesHandler.Create)
	protected.DELETE("/shares/:id", sharesHandler.Revoke)
	protected.GET("/shares/:id/logs", sharesHandler.AccessLogs)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8081"
	}
	err = r.Run(addr)
	if err != nil {
		logger.Error(fmt.Sprintf("error starting server: %v", err.Error()))
		log.Fatal(fmt.Sprintf("error starting server: %v", err.Error()))
	}
}
