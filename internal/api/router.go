package api

import (
	"github.com/gin-gonic/gin"
	"github.com/padel-arena/padel-arena-backend/internal/api/handlers"
	"github.com/padel-arena/padel-arena-backend/internal/api/middleware"
	"github.com/padel-arena/padel-arena-backend/internal/config"
	"github.com/padel-arena/padel-arena-backend/internal/service"
	"github.com/padel-arena/padel-arena-backend/internal/websocket"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
	jwtutil "github.com/padel-arena/padel-arena-backend/pkg/jwt"
	"github.com/padel-arena/padel-arena-backend/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps 라우터가 사용하는 의존성 (main에서 조립)
type Deps struct {
	Config *config.Config
	DB     *database.DB
	Redis  *redis.Client         // nil 허용
	Queue  handlers.QueueStatter // nil 허용
	JWT    *jwtutil.Manager
	Hub    *websocket.Hub

	// 결과 입력 등 쓰기 요청 제한. Fallback은 Limiter 오류 시 사용.
	Limiter         ratelimit.Limiter
	FallbackLimiter ratelimit.Limiter

	Generation *service.GenerationService
	Results    *service.ResultService
	Standings  *service.StandingsService
	Integrity  *service.IntegrityService
	Inbox      *service.InboxService

	Logger *zap.Logger
}

// SetupRouter API 라우터 설정
func SetupRouter(deps Deps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(deps.Logger.Named("http")))
	router.Use(middleware.CORS(deps.Config.CORSAllowedOrigins))

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis, deps.Queue)
	padelHandler := handlers.NewPadelHandler(
		deps.Generation,
		deps.Results,
		deps.Standings,
		deps.Integrity,
		deps.Inbox,
		deps.Logger.Named("handlers"),
	)
	liveHandler := handlers.NewLiveHandler(deps.Hub, websocket.NewUpgrader(deps.Config.CORSAllowedOrigins))

	requireAuth := middleware.Auth(deps.JWT)
	limitWrites := middleware.RateLimit(middleware.RateLimitConfig{
		Limiter:  deps.Limiter,
		KeyFunc:  middleware.UserKeyFunc,
		Fallback: deps.FallbackLimiter,
		Logger:   deps.Logger.Named("ratelimit"),
	})

	// Health check
	router.GET("/health", healthHandler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1/padel")
	{
		events := v1.Group("/events/:eventId")
		{
			events.POST("/matches/generate", requireAuth, limitWrites, padelHandler.Generate)
			events.GET("/standings", padelHandler.Standings)
			events.GET("/matches", padelHandler.ListMatches)
			events.GET("/integrity", requireAuth, padelHandler.Integrity)
			events.GET("/pairings/:pairingId/notifications", requireAuth, padelHandler.Notifications)
		}

		matches := v1.Group("/matches/:id")
		matches.Use(requireAuth, limitWrites)
		{
			matches.POST("/result", padelHandler.SubmitResult)
			matches.POST("/undo", padelHandler.Undo)
		}

		// 라이브 피드 (관람자용, 인증 없음)
		v1.GET("/live/:eventId", liveHandler.HandleLive)
	}

	return router
}
