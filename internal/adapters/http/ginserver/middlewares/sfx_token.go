package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/sfxbridge/internal/domain"
)

// TokenHeader carries the ingest credential on datapoint requests.
const TokenHeader = "X-SF-Token"

// SFXToken rejects requests whose X-SF-Token differs from want.
// An empty want accepts every request.
func SFXToken(want string) gin.HandlerFunc {
	want = strings.TrimSpace(want)
	if want == "" {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		got := strings.TrimSpace(c.GetHeader(TokenHeader))
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthorized.Error()})
			return
		}
		c.Next()
	}
}
