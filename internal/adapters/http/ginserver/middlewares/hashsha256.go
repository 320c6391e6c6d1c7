package middlewares

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/sfxbridge/internal/misc"
)

// HashHeader carries the hex SHA-256 of body+key.
const HashHeader = "HashSHA256"

type bodyBufferWriter struct {
	gin.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *bodyBufferWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *bodyBufferWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *bodyBufferWriter) WriteHeader(code int) {
	w.status = code
}

func (w *bodyBufferWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// verifyBody checks the request signature when one is present and restores the body.
func verifyBody(c *gin.Context, key string) bool {
	got := strings.TrimSpace(c.GetHeader(HashHeader))
	if got == "" {
		return true
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
		return false
	}
	if err := c.Request.Body.Close(); err != nil {
		_ = c.Error(err)
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) > 0 && !misc.VerifySHA256(body, key, got) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid hash"})
		return false
	}
	return true
}

// HashSHA256 verifies signed request bodies and signs every response body.
// An empty key disables both.
func HashSHA256(key string) gin.HandlerFunc {
	key = strings.TrimSpace(key)
	if key == "" {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		bw := &bodyBufferWriter{ResponseWriter: c.Writer}
		c.Writer = bw

		if verifyBody(c, key) {
			c.Next()
		}

		c.Writer = bw.ResponseWriter
		if bw.body.Len() > 0 {
			c.Header(HashHeader, misc.SumSHA256(bw.body.Bytes(), key))
		}
		c.Writer.WriteHeader(bw.Status())
		if _, err := c.Writer.Write(bw.body.Bytes()); err != nil {
			_ = c.Error(err)
		}
	}
}
