package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/chaan32/StudyPing/cmd/api/router/v1"
	"github.com/chaan32/StudyPing/internal/config"
	"github.com/chaan32/StudyPing/internal/infrastructure/auth"
	cacheAdapter "github.com/chaan32/StudyPing/internal/infrastructure/cache/adapter"
	"github.com/chaan32/StudyPing/internal/infrastructure/database"
	"github.com/chaan32/StudyPing/internal/infrastructure/logging"
	pubsubAdapter "github.com/chaan32/StudyPing/internal/infrastructure/pubsub/adapter"
	queueAdapter "github.com/chaan32/StudyPing/internal/infrastructure/queue/adapter"
	"github.com/chaan32/StudyPing/internal/infrastructure/realtime"
	"github.com/chaan32/StudyPing/internal/pkg/chat/application/task"
	"github.com/chaan32/StudyPing/internal/pkg/chat/application/usecase"
	repoAdapter "github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/adapter"
	httpHandler "github.com/chaan32/StudyPing/internal/pkg/chat/presentation/http"
	memberAdapter "github.com/chaan32/StudyPing/internal/repository/adapter"
)

func main() {
	// Load .env file
	dotenvErr := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	if dotenvErr != nil {
		logger.Warn("continuing without .env", zap.Error(dotenvErr))
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	secret, err := auth.ParseSecret(cfg.JWTSecretKey)
	if err != nil {
		return err
	}
	validator, err := auth.NewJWTValidator(secret, 30*time.Second)
	if err != nil {
		return err
	}

	// Connect to the database on startup
	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := database.Connect(startCtx, cfg.DatabaseURL, database.WithMaxConns(int32(cfg.DBMaxConns))) // clamped by config
	if err != nil {
		return err
	}
	defer pool.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(startCtx, pool); err != nil {
			return err
		}
		logger.Info("schema applied")
	}

	redisClient, err := cacheAdapter.NewRedisClient(startCtx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()
	cache := cacheAdapter.NewRedisCache(redisClient, "studyping:")

	chatRepo := repoAdapter.NewPgChatRepository(pool)
	members := memberAdapter.NewCachedMemberRepository(
		memberAdapter.NewPgMemberRepository(pool), cache, cfg.MemberCacheTTL, logger)

	// Every instance both publishes to and listens on the shared channel;
	// local sessions are only ever reached through it.
	bus := pubsubAdapter.NewRedisPubSub(redisClient, logger)
	defer func() { _ = bus.Close() }()

	router := realtime.NewRouter()
	defer router.Close()

	deliver := usecase.NewDeliverMessageUseCase(router, logger.Named("deliver"))
	if err := bus.Subscribe(ctx, cfg.FanoutChannel, deliver.Handle); err != nil {
		return err
	}

	queueClient, err := queueAdapter.NewAsynqClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer func() { _ = queueClient.Close() }()

	deps := httpHandler.Dependencies{
		Repo:      chatRepo,
		Members:   members,
		Validator: validator,
		Publisher: bus,
		Queue:     queueClient,
		Router:    router,
		Config:    cfg,
		Log:       logger,
	}

	worker, err := queueAdapter.NewAsynqServer(cfg.RedisURL, cfg.Queue, logger)
	if err != nil {
		return err
	}
	task.RegisterSendMessageTask(worker, httpHandler.NewPublishUseCase(deps), logger.Named("task"))
	workerDone := make(chan error, 1)
	go func() { workerDone <- worker.Run(ctx) }()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		hctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		status := http.StatusOK
		checks := gin.H{"db": "OK", "redis": "OK"}
		if err := pool.Ping(hctx); err != nil {
			status, checks["db"] = http.StatusServiceUnavailable, err.Error()
		}
		if err := cache.Ping(hctx); err != nil {
			status, checks["redis"] = http.StatusServiceUnavailable, err.Error()
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks, "sessions": router.Len()})
	})
	v1.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	stop()
	if err := <-workerDone; err != nil {
		logger.Warn("queue worker", zap.Error(err))
	}
	return nil
}
