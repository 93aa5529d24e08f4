package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	jwtutil "github.com/padel-arena/padel-arena-backend/pkg/jwt"
)

// UserIDKey 인증된 사용자 ID를 담는 gin context 키
const UserIDKey = "userID"

// Auth JWT 인증 미들웨어 (검증만 수행)
func Auth(verifier *jwtutil.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// "Bearer <token>" 형식 파싱
		parts := strings.Fields(c.GetHeader("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthenticated(c)
			return
		}

		claims, err := verifier.Verify(parts[1])
		if err != nil {
			unauthenticated(c)
			return
		}

		c.Set(UserIDKey, claims.User())
		c.Next()
	}
}

// UserID 인증 미들웨어가 저장한 사용자 ID
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func unauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"ok":    false,
		"error": "UNAUTHENTICATED",
	})
}
