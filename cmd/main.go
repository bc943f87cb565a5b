package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/zadic42/Role-based-Auth/internal/config"
	"github.com/zadic42/Role-based-Auth/internal/handler"
	"github.com/zadic42/Role-based-Auth/internal/handler/middleware"
	"github.com/zadic42/Role-based-Auth/internal/repository/migrations"
	"github.com/zadic42/Role-based-Auth/internal/repository/postgres"
	"github.com/zadic42/Role-based-Auth/internal/service"
	"github.com/zadic42/Role-based-Auth/pkg/blacklist"
	"github.com/zadic42/Role-based-Auth/pkg/email"
	"github.com/zadic42/Role-based-Auth/pkg/jwt"
	"github.com/zadic42/Role-based-Auth/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()
	log.Println("✓ Database connection established")

	// Apply schema migrations
	if err := runMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// Initialize Redis client
	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}()
	log.Println("✓ Redis connection established")

	// Initialize validator
	validate := validator.NewValidator()

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	errorLogRepo := postgres.NewErrorLogRepository(db)

	// Initialize JWT token service
	tokenService, err := jwt.NewTokenService(
		[]byte(cfg.JWT.Secret),
		cfg.JWT.Issuer,
		cfg.JWT.SessionExpiry,
		cfg.JWT.MFASessionExpiry,
		cfg.JWT.AdminExpiry,
	)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	// Initialize email sender
	var sender email.Sender
	if cfg.Email.Enabled {
		sender, err = email.NewResendSender(&email.Config{
			APIKey:    cfg.Email.APIKey,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize email sender: %v", err)
			log.Println("MFA codes will not be delivered")
			sender = nil
		} else {
			log.Printf("✓ Email sender initialized (Resend) - from %s", cfg.Email.FromEmail)
		}
	} else {
		log.Println("ℹ Email delivery disabled (set EMAIL_ENABLED=true to enable)")
	}

	// Initialize services
	tempTokenBlacklist := blacklist.NewTempTokenBlacklist(redisClient)
	auditRecorder := service.NewAuditRecorder(auditRepo)
	errorLogRecorder := service.NewErrorLogRecorder(errorLogRepo)
	mfaService := service.NewMFAService(userRepo, sender, cfg.MFA.MaxCodeAttempts)
	lockoutTracker := service.NewLockoutTracker(userRepo, cfg.Auth.MaxFailedLogins, cfg.Auth.LockDuration)
	authService := service.NewAuthService(userRepo, auditRecorder, mfaService, lockoutTracker, tokenService, tempTokenBlacklist, cfg)
	accountService := service.NewAccountService(userRepo, auditRecorder, mfaService, cfg)
	userService := service.NewUserService(userRepo)
	stateStore := service.NewRedisStateStore(redisClient)
	oauthService := service.NewOAuthService(userRepo, auditRecorder, mfaService, tokenService, stateStore, cfg)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, validate)
	accountHandler := handler.NewAccountHandler(accountService, validate)
	oauthHandler := handler.NewOAuthHandler(oauthService, cfg.Server.FrontendURL)
	userHandler := handler.NewUserHandler(userService, validate)
	auditHandler := handler.NewAuditHandler(auditRecorder)
	errorLogHandler := handler.NewErrorLogHandler(errorLogRecorder)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Role-based Auth v1.0",
		ErrorHandler: handler.NewAppErrorHandler(errorLogRecorder),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	// Setup global middlewares
	app.Use(middleware.RecoveryMiddleware(errorLogRecorder))
	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.CORSMiddleware(cfg.Server.FrontendURL))

	// Setup authorization middlewares
	requireAuth := middleware.RequireAuth(tokenService, userRepo)
	requireAdmin := middleware.RequireAdmin()

	// Setup routes
	handler.SetupRoutes(
		app,
		authHandler,
		accountHandler,
		oauthHandler,
		userHandler,
		auditHandler,
		errorLogHandler,
		healthHandler,
		requireAuth,
		requireAdmin,
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Printf("🚀 Server starting on http://localhost%s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		if err := app.Listen(addr); err != nil {
			log.Printf("❌ Server failed to start: %v", err)
			stop()
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Println("⏳ Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✓ Server stopped")
}

// initDB initializes PostgreSQL database connection with retry logic
func initDB(cfg *config.Config) (*sqlx.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sqlx.DB
	var err error

	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}

		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Error closing database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations applies the embedded goose migrations.
func runMigrations(db *sqlx.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return goose.UpContext(ctx, db.DB, ".")
}

// initRedis initializes Redis client and verifies connection
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Printf("Error closing Redis after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
