package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
	"github.com/padel-arena/padel-arena-backend/pkg/distributed"
	"github.com/redis/go-redis/v9"
)

// QueueStatter 알림 큐 적체 상태
type QueueStatter interface {
	Stats(ctx context.Context) (*distributed.QueueStats, error)
}

type HealthHandler struct {
	db    *database.DB
	redis *redis.Client // nil이면 점검 생략
	queue QueueStatter  // nil이면 큐 상태 생략
}

func NewHealthHandler(db *database.DB, redisClient *redis.Client, queue QueueStatter) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, queue: queue}
}

// HealthCheck DB와 Redis 연결 상태, 알림 큐 적체
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok"}
	healthy := true

	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}
	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
	}

	body := gin.H{
		"ok":      healthy,
		"service": "padel-arena-backend",
		"checks":  checks,
	}
	// 큐 상태는 참고용이라 실패해도 healthy에 영향 없음
	if h.queue != nil {
		if stats, err := h.queue.Stats(ctx); err != nil {
			checks["notificationQueue"] = err.Error()
		} else {
			checks["notificationQueue"] = "ok"
			body["notificationQueue"] = stats
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, body)
}
