package app

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "venuebook/docs"
	"venuebook/internal/config"
	"venuebook/internal/database"
	"venuebook/internal/handlers"
	"venuebook/internal/middleware"
	"venuebook/internal/provider"
	"venuebook/internal/repositories"
	"venuebook/internal/routes"
	"venuebook/internal/services"
	"venuebook/internal/session"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	if err := database.RunMigrations(cfg.Database.DSN); err != nil {
		log.Fatal("Migration failed: ", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DB connection failed: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("DB close failed: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	emailVerifRepo := repositories.NewEmailVerificationRepository(db)
	otpRepo := repositories.NewOTPRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)

	// === Provider ===
	var prov provider.Client
	switch cfg.Provider.Mode {
	case "http":
		prov = provider.NewHTTPClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Timeout)
	default:
		log.Printf("[app] provider mode %q, using in-process credential store", cfg.Provider.Mode)
		prov = provider.NewLocal(userRepo, cfg.Provider.JWTSecret)
	}

	// === Services ===
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	alertService := services.NewAlertService(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	verifService := services.NewVerificationService(
		emailVerifRepo, otpRepo, resetRepo, alertService,
		services.VerificationConfig{
			CodeTTL:        cfg.Verification.CodeTTL,
			ResetTokenTTL:  cfg.Verification.ResetTokenTTL,
			ResendCooldown: cfg.Verification.ResendCooldown,
			AlertAttempts:  cfg.Verification.AlertAttempts,
		},
	)

	sessionStore := session.NewStore()
	authService := services.NewAuthService(userRepo, verifService, prov, emailService, sessionStore)
	sessionService := services.NewSessionService(userRepo, prov, sessionStore)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(authService, sessionService)
	verifyHandler := handlers.NewVerifyHandler(authService)
	resetHandler := handlers.NewResetHandler(authService)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limiter := middleware.NewRateLimiter(30, 10) // 30 req/min per IP on auth endpoints
	routes.SetupRoutes(router, authHandler, verifyHandler, resetHandler, prov, userRepo, limiter)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Server failed: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Refresh-Token")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
