package gateway

import (
	"github.com/gin-gonic/gin"
)

// NewRouter wires the API routes and middleware onto a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(), cors())

	r.GET("/", h.Root)
	r.GET("/ready", h.Ready)
	r.POST("/query", h.Query)
	return r
}
