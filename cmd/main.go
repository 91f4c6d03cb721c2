package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"pbxadmin/internal/caching"
	"pbxadmin/internal/handlers"
	"pbxadmin/internal/middleware"
	"pbxadmin/internal/repositories"
	"pbxadmin/internal/services"
	"pbxadmin/pkg/database"
)

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration, used to archive uploaded import files
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin" // Default for development
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin" // Default for development
	}
	minioUseSSL := os.Getenv("MINIO_USE_SSL") == "true"
	importBucket := os.Getenv("MINIO_IMPORT_BUCKET")
	if importBucket == "" {
		importBucket = "csv-imports"
	}

	// Secure cookies everywhere except local development
	secureCookies := os.Getenv("APP_ENV") == "production"

	minioSvc, err := services.NewMinioService(minioEndpoint, minioAccessKey, minioSecretKey, minioUseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO service: %v", err)
	}
	if err := minioSvc.EnsureBucketExists(context.Background(), importBucket); err != nil {
		// Archiving is best-effort; a missing bucket only costs the trail
		log.Printf("WARN: failed to ensure import bucket %s exists: %v", importBucket, err)
	}

	// Create repositories
	companyRepo := repositories.NewCompanyRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	accountRepo := repositories.NewAccountRepo(pool)
	auditLogRepo := repositories.NewAuditLogRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	companySvc := services.NewCompanyService(companyRepo, auditLogRepo, cacheSvc)
	userSvc := services.NewUserService(userRepo, auditLogRepo, cacheSvc)
	importSvc := services.NewImportService(userRepo, auditLogRepo, cacheSvc, minioSvc, importBucket)
	accountSvc := services.NewAccountService(accountRepo)

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(accountSvc, cacheSvc, secureCookies)
	companyHandlers := handlers.NewCompanyHandlers(companySvc)
	userHandlers := handlers.NewUserHandlers(userSvc)
	importHandlers := handlers.NewImportHandlers(importSvc)
	accountHandlers := handlers.NewAccountHandlers(accountSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	guard := middleware.NewSessionGuard()

	e := echo.New()
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())

	// Public endpoints
	e.POST("/api/login", authHandlers.Login)
	e.POST("/api/logout", authHandlers.Logout)
	e.GET("/api/logout", authHandlers.Logout)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	// Dashboard endpoints behind the session guard
	dashboard := e.Group("/dashboard", guard.RequireSession())

	dashboard.GET("/companies", companyHandlers.List, guard.RequireAdmin())
	dashboard.POST("/companies", companyHandlers.Create, guard.RequireAdmin())
	dashboard.PUT("/companies/:companyId", companyHandlers.Rename, guard.RequireAdmin())
	dashboard.DELETE("/companies/:companyId", companyHandlers.Delete, guard.RequireAdmin())
	dashboard.GET("/companies/:companyId/audit", companyHandlers.AuditTrail, guard.RequireAdmin())

	dashboard.GET("/companies/:companyId/users", userHandlers.List)
	dashboard.POST("/companies/:companyId/users", userHandlers.Create)
	dashboard.PUT("/companies/:companyId/users/:userId", userHandlers.Update)
	dashboard.POST("/companies/:companyId/users/:userId/approve", userHandlers.Approve, guard.RequireAdmin())
	dashboard.POST("/companies/:companyId/users/:userId/reject", userHandlers.Reject, guard.RequireAdmin())
	dashboard.POST("/companies/:companyId/users/:userId/delete", userHandlers.SoftDelete)
	dashboard.POST("/companies/:companyId/users/:userId/restore", userHandlers.Restore)
	dashboard.DELETE("/companies/:companyId/users/:userId", userHandlers.HardDelete, guard.RequireAdmin())

	dashboard.POST("/companies/:companyId/users/import", importHandlers.Import, guard.RequireAdmin())

	dashboard.GET("/companies/:companyId/users/:userId/editor", accountHandlers.Get)
	dashboard.POST("/companies/:companyId/users/:userId/editor", accountHandlers.Create)
	dashboard.DELETE("/companies/:companyId/users/:userId/editor", accountHandlers.Delete)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Fatal(e.Start(":" + port))
}
