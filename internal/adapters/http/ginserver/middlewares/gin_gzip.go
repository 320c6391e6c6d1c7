package middlewares

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/sfxbridge/internal/misc"
)

var (
	gzReaders sync.Pool
	gzWriters = misc.NewPool(
		func() *gzip.Writer { return gzip.NewWriter(io.Discard) },
		func(zw *gzip.Writer) { zw.Reset(io.Discard) },
	)
)

type gzipReadCloser struct {
	gz  *gzip.Reader
	raw io.Closer
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.gz.Read(p)
}

func (g *gzipReadCloser) Close() error {
	err := g.gz.Close()
	gzReaders.Put(g.gz)
	if g.raw != nil {
		if cerr := g.raw.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func acquireReader(r io.Reader) (*gzip.Reader, error) {
	if gr, ok := gzReaders.Get().(*gzip.Reader); ok {
		if err := gr.Reset(r); err != nil {
			gzReaders.Put(gr)
			return nil, err
		}
		return gr, nil
	}
	return gzip.NewReader(r)
}

// GzipRequest transparently inflates gzip-encoded request bodies.
func GzipRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if enc := strings.ToLower(c.GetHeader("Content-Encoding")); strings.Contains(enc, "gzip") {
			gr, err := acquireReader(c.Request.Body)
			if err != nil {
				c.AbortWithStatus(http.StatusBadRequest)
				return
			}
			c.Request.Body = &gzipReadCloser{gz: gr, raw: c.Request.Body}
			c.Request.Header.Del("Content-Encoding")
			c.Request.Header.Del("Content-Length")
			c.Request.ContentLength = -1
		}
		c.Next()
	}
}

func compressible(ct string) bool {
	for _, prefix := range []string{"application/json", "text/html", "text/plain"} {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

type gzipResponseWriter struct {
	gin.ResponseWriter
	gzw     *gzip.Writer
	decided bool
}

func (w *gzipResponseWriter) decide() {
	if w.decided {
		return
	}
	w.decided = true
	if w.Header().Get("Content-Encoding") != "" {
		return
	}
	if !compressible(w.Header().Get("Content-Type")) {
		return
	}
	if status := w.Status(); status == http.StatusNoContent || status < http.StatusOK {
		return
	}
	w.Header().Del("Content-Length")
	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Add("Vary", "Accept-Encoding")
	gz := gzWriters.Get()
	gz.Reset(w.ResponseWriter)
	w.gzw = gz
}

func (w *gzipResponseWriter) Write(p []byte) (int, error) {
	w.decide()
	if w.gzw != nil {
		return w.gzw.Write(p)
	}
	return w.ResponseWriter.Write(p)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *gzipResponseWriter) Close() error {
	if w.gzw == nil {
		return nil
	}
	err := w.gzw.Close()
	gzWriters.Put(w.gzw)
	w.gzw = nil
	return err
}

// GzipResponse compresses JSON, HTML and text responses for clients that accept gzip.
func GzipResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(strings.ToLower(c.GetHeader("Accept-Encoding")), "gzip") {
			c.Next()
			return
		}
		grw := &gzipResponseWriter{ResponseWriter: c.Writer}
		c.Writer = grw
		c.Next()
		if err := grw.Close(); err != nil {
			_ = c.Error(err)
		}
		c.Writer = grw.ResponseWriter
	}
}
