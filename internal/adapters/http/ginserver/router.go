package ginserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter mounts the ingest routes. Middlewares run in the given order
// ahead of every route; token applies to the datapoint route only.
func NewRouter(h *Handler, token gin.HandlerFunc, middlewares ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	if h.metrics != nil {
		r.Use(h.metrics.Middleware())
	}
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.RedirectTrailingSlash = false
	r.RemoveExtraSlash = true

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.String(http.StatusMethodNotAllowed, "method not allowed")
	})

	r.GET("/", h.Index)
	r.GET("/ping", h.Ping)
	r.GET("/value/:kind/:metric", h.Value)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	if token != nil {
		r.POST("/v2/datapoint", token, h.Datapoint)
	} else {
		r.POST("/v2/datapoint", h.Datapoint)
	}
	return r
}
