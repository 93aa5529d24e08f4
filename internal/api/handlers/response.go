package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/padel-arena/padel-arena-backend/internal/service"
	"go.uber.org/zap"
)

// respondError ReasonError를 {ok:false,error:CODE} 응답으로 변환
func respondError(c *gin.Context, log *zap.Logger, err error) {
	r := service.AsReason(err)
	if r.Status >= http.StatusInternalServerError {
		log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
	}
	c.JSON(r.Status, gin.H{
		"ok":    false,
		"error": r.Code,
	})
}

func respondOK(c *gin.Context, body gin.H) {
	body["ok"] = true
	c.JSON(http.StatusOK, body)
}

// optionalQuery 비어 있으면 nil
func optionalQuery(c *gin.Context, key string) *string {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	return &v
}
