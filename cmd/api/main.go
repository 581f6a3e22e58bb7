package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "dealflow/api/swagger" // swagger docs
	"dealflow/internal/audit"
	"dealflow/internal/authz"
	"dealflow/internal/config"
	"dealflow/internal/database"
	"dealflow/internal/handler"
	"dealflow/internal/logger"
	"dealflow/internal/middleware"
	"dealflow/internal/model"
	"dealflow/internal/observability/metrics"
	"dealflow/internal/observability/tracing"
	"dealflow/internal/repository"
	"dealflow/internal/repository/memory"
	"dealflow/internal/service"
	"dealflow/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// @title           Dealflow API
// @version         1.0
// @description     Submission and approval workflow for sales promotion deal requests.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	configPath := os.Getenv("DEALFLOW_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, cfg.App.LogLevel)
	log.Info("starting dealflow api",
		slog.String("environment", cfg.App.Env),
		slog.String("storage", cfg.Storage.Driver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName, cfg.App.Env)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos, err := openStorage(cfg, log)
	if err != nil {
		log.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	created, err := database.SeedRoster(ctx, repos.users, database.DefaultRoster, 0)
	if err != nil {
		log.Error("failed to seed roster", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("roster ready", slog.Int("created", created))

	var rdb *redis.Client
	var durable session.Store
	if cfg.Redis.Enabled {
		rdb, err = session.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			log.Error("failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("connected to redis")
		if cfg.Auth.PersistentSessions {
			durable = session.NewRedisStore(rdb)
		}
	}
	sessions := session.NewManager(session.NewMemoryStore(), durable, cfg.Auth.SessionTTL, log)

	enforcer, err := authz.NewEnforcer(authz.Options{AllowRedecide: cfg.Lifecycle.AllowRedecide})
	if err != nil {
		log.Error("failed to initialize authorization", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Repository -> Service -> Handler
	auditLog := audit.NewLogger(log)
	authService := service.NewAuthService(repos.users, repos.knownUsers, sessions, service.AuthConfig{
		JWTSecret:  []byte(cfg.Auth.JWTSecret),
		TokenTTL:   cfg.Auth.TokenTTL,
		LoginDelay: cfg.Auth.LoginDelay,
	}, auditLog, log)
	dealService := service.NewDealRequestService(repos.requests, repos.txManager, enforcer, auditLog, log)
	exportService := service.NewExportService(repos.users, repos.requests, enforcer, auditLog)
	reviewService := service.NewReviewService(repos.knownUsers, repos.requests, enforcer)
	statisticsService := service.NewStatisticsService(repos.users, repos.requests, enforcer)
	catalogService := service.NewCatalogService(model.DefaultCatalog, enforcer)

	cookies := middleware.CookieMode{Secure: cfg.App.Env == "release"}
	handlers := handler.Handlers{
		Auth:       handler.NewAuthHandler(authService, cookies, log),
		Requests:   handler.NewDealRequestHandler(dealService, exportService, log),
		Review:     handler.NewReviewHandler(reviewService, log),
		Catalog:    handler.NewCatalogHandler(catalogService, log),
		Statistics: handler.NewStatisticsHandler(statisticsService, log),
	}

	if cfg.App.Env == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID())
	if cfg.Metrics.Enabled {
		router.Use(metrics.Middleware())
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "storage": cfg.Storage.Driver, "persistent_sessions": sessions.Persistent()})
	})

	handlers.Register(router.Group(""), handler.Guard{
		Session:  middleware.RequireSession(authService),
		Enforcer: enforcer,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      otelhttp.NewHandler(router, "dealflow-http"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("server listening", slog.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	repos.close()
	log.Info("server stopped")
}

type storage struct {
	users      repository.UserRepository
	knownUsers repository.KnownUserRepository
	requests   repository.DealRequestRepository
	txManager  repository.TransactionManager
	close      func()
}

// openStorage selects the storage engine named by storage.driver.
func openStorage(cfg config.Config, log *slog.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		store := memory.NewStore()
		return &storage{
			users:      memory.NewUserRepository(store),
			knownUsers: memory.NewKnownUserRepository(store),
			requests:   memory.NewDealRequestRepository(store),
			txManager:  memory.NewTransactionManager(store),
			close:      func() {},
		}, nil
	case "postgres":
		db, err := database.NewConnection(cfg.Postgres.DSN, cfg.App.LogLevel == "debug", log)
		if err != nil {
			return nil, err
		}
		log.Info("connected to PostgreSQL")
		return &storage{
			users:      repository.NewUserRepository(db),
			knownUsers: repository.NewKnownUserRepository(db),
			requests:   repository.NewDealRequestRepository(db),
			txManager:  repository.NewTransactionManager(db, log),
			close: func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
