package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/padel-arena/padel-arena-backend/internal/api"
	"github.com/padel-arena/padel-arena-backend/internal/api/handlers"
	"github.com/padel-arena/padel-arena-backend/internal/config"
	"github.com/padel-arena/padel-arena-backend/internal/jobs"
	"github.com/padel-arena/padel-arena-backend/internal/repository"
	"github.com/padel-arena/padel-arena-backend/internal/service"
	"github.com/padel-arena/padel-arena-backend/internal/websocket"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
	"github.com/padel-arena/padel-arena-backend/pkg/distributed"
	jwtutil "github.com/padel-arena/padel-arena-backend/pkg/jwt"
	"github.com/padel-arena/padel-arena-backend/pkg/logger"
	"github.com/padel-arena/padel-arena-backend/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
)

const (
	notificationQueueName    = "padel-participants"
	notificationQueueMaxSize = 10000
	notificationMaxRetries   = 5
	liveRelayChannel         = "padel:live"
)

func main() {
	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 로거 초기화
	if err := logger.Init(cfg.LogLevel, cfg.Env); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting Padel Arena Backend",
		"port", cfg.Port,
		"env", cfg.Env,
	)
	if cfg.UsesDefaultJWTSecret() {
		logger.Warn("JWT_SECRET is not set, using the development default")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 데이터베이스 연결
	db, err := database.Connect(cfg.DatabaseURL, cfg.DBDebug)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := repository.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	logger.Info("Database connection established")

	// WebSocket Hub
	hub := websocket.NewHub(logger.Named("hub"))
	go hub.Run(ctx)

	// Redis 기능 (REDIS_URL이 없으면 단일 인스턴스 모드)
	var (
		redisClient *redis.Client
		locks       *distributed.LockManager
		queue       *distributed.NotificationQueue
		relay       *distributed.LiveRelay
	)
	memoryLimiter := ratelimit.NewMemoryLimiter(cfg.ResultRateLimit, time.Minute)
	go memoryLimiter.Run(ctx, time.Minute)
	var limiter ratelimit.Limiter = memoryLimiter
	var fallback ratelimit.Limiter

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL", "error", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis not reachable at startup, continuing", "error", err)
		}
		cancel()

		locks = distributed.NewLockManager(redisClient, "padel")
		queue = distributed.NewNotificationQueue(redisClient, notificationQueueName, notificationQueueMaxSize)
		relay = distributed.NewLiveRelay(redisClient, liveRelayChannel, logger.Named("relay"))
		go func() {
			err := relay.Run(ctx, func(u distributed.LiveUpdate) {
				hub.Publish(u.EventID, u.Type, u.Payload)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Live relay stopped", "error", err)
			}
		}()

		limiter = ratelimit.NewRedisLimiter(redisClient, "ratelimit:padel", cfg.ResultRateLimit, time.Minute)
		fallback = memoryLimiter
		logger.Info("Redis features enabled", "addr", opts.Addr)
	}

	// 알림: 라이브 피드 + (Redis가 있으면) 참가자 알림 큐
	notifiers := service.MultiNotifier{service.NewHubNotifier(hub, relay)}
	if queue != nil {
		notifiers = append(notifiers, service.NewQueueNotifier(queue, notificationMaxRetries))
	}

	// Service 초기화
	authz := service.NewAuthorizer(repository.NewDirectoryRepository(db))
	generation := service.NewGenerationService(db, authz, locks, cfg.GenerationLockTTL, notifiers, logger.Named("generation"))
	results := service.NewResultService(db, authz, notifiers, cfg.UndoWindow, cfg.UndoScanLimit, logger.Named("results"))
	standings := service.NewStandingsService(db)
	integrity := service.NewIntegrityService(db, authz, logger.Named("integrity"))
	inbox := service.NewInboxService(db, authz)

	// 정합성 점검 / 알림 큐 복구 / 알림함 전달 스케줄러
	var (
		jobQueue   jobs.NotificationQueue
		queueStats handlers.QueueStatter
	)
	if queue != nil {
		jobQueue = queue
		queueStats = queue
	}
	scheduler := jobs.NewScheduler(integrity, jobQueue, inbox, cfg.IntegrityCron, logger.Named("jobs"))
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", "error", err)
	}

	tokens := jwtutil.NewManager(cfg.JWTSecret)
	router := api.SetupRouter(api.Deps{
		Config:          cfg,
		DB:              db,
		Redis:           redisClient,
		Queue:           queueStats,
		JWT:             tokens,
		Hub:             hub,
		Limiter:         limiter,
		FallbackLimiter: fallback,
		Generation:      generation,
		Results:         results,
		Standings:       standings,
		Integrity:       integrity,
		Inbox:           inbox,
		Logger:          logger.Named("api"),
	})

	// 서버 설정
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 서버 시작 (고루틴)
	go func() {
		logger.Info("Server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown 대기
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 10초 타임아웃으로 종료
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	stop()

	logger.Info("Server exited")
}
