package main

import (
	"context"
	"io"
	"log"
	"os"

	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/gitea"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           Mission Forge API
// @version         1.0
// @description     Educational platform API: star systems of ordered missions, each backed by a Gitea repository.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := getenv("DB_HOST", "localhost")
	dbPort := getenv("DB_PORT", "5432")
	dbUser := getenv("DB_USER", "postgres")
	dbPassword := getenv("DB_PASSWORD", "postgres")
	dbName := getenv("DB_NAME", "postgres")
	dbSslMode := getenv("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub and tee the server log into it
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.SetOutput(io.MultiWriter(os.Stderr, wsHub.LogWriter()))

	// Gitea client for repository provisioning
	giteaClient := gitea.NewClient(gitea.Config{
		BaseURL:       getenv("GITEA_BASE_URL", "http://localhost:3000/api/v1"),
		AdminUsername: getenv("GITEA_ADMIN_USERNAME", "gitea_admin"),
		AdminPassword: os.Getenv("GITEA_ADMIN_PASSWORD"),
		Templates: map[string]gitea.TemplateRepo{
			"javascript": {Owner: getenv("GITEA_ADMIN_USERNAME", "gitea_admin"), Repo: getenv("GITEA_TEMPLATE_JAVASCRIPT", "template-javascript")},
			"python":     {Owner: getenv("GITEA_ADMIN_USERNAME", "gitea_admin"), Repo: getenv("GITEA_TEMPLATE_PYTHON", "template-python")},
			"java":       {Owner: getenv("GITEA_ADMIN_USERNAME", "gitea_admin"), Repo: getenv("GITEA_TEMPLATE_JAVA", "template-java")},
		},
	})

	verificationSecret := os.Getenv("MISSION_VERIFICATION_SECRET")
	if verificationSecret == "" {
		log.Println("WARNING: MISSION_VERIFICATION_SECRET is not set, verification callbacks will be rejected")
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	cadetRepo := repository.NewCadetRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	starSystemRepo := repository.NewStarSystemRepository(db)
	missionRepo := repository.NewMissionRepository(db)
	cadetMissionRepo := repository.NewCadetMissionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo)
	sequencer := service.NewOrderSequencer(missionRepo)
	roleService := service.NewRoleService(roleRepo, cadetRepo, auditService, txManager)
	cadetService := service.NewCadetService(cadetRepo, roleRepo, cadetMissionRepo, starSystemRepo, giteaClient, auditService, txManager)
	authService := service.NewAuthService(cadetRepo, cadetService)
	starSystemService := service.NewStarSystemService(starSystemRepo, missionRepo, cadetMissionRepo, giteaClient, auditService, txManager)
	missionService := service.NewMissionService(missionRepo, starSystemRepo, cadetMissionRepo, sequencer, giteaClient, auditService, txManager)

	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Fatalf("Failed to seed roles and permissions: %v", err)
	}

	// Initialize Handlers
	authenticator := middleware.NewAuthenticator(cadetRepo)
	authHandler := handler.NewAuthHandler(authService, cadetService, authenticator)
	cadetHandler := handler.NewCadetHandler(cadetService, authenticator)
	roleHandler := handler.NewRoleHandler(roleService, authenticator)
	starSystemHandler := handler.NewStarSystemHandler(starSystemService, authenticator)
	missionHandler := handler.NewMissionHandler(missionService, authenticator)
	verificationHandler := handler.NewVerificationHandler(missionService, verificationSecret)
	auditHandler := handler.NewAuditHandler(auditService, authenticator)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Verification-Secret"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket log stream for admins
	router.GET("/ws/logs", authenticator.Authenticate(), func(c *gin.Context) {
		websocket.ServeWs(wsHub, c)
	})

	// Register API Routes
	api := router.Group("/api")
	authHandler.RegisterRoutes(api)
	cadetHandler.RegisterRoutes(api)
	roleHandler.RegisterRoutes(api)
	starSystemHandler.RegisterRoutes(api)
	missionHandler.RegisterRoutes(api)
	verificationHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)

	port := getenv("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
