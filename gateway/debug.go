package gateway

import (
	"net/http/pprof"

	"github.com/gin-gonic/gin"
)

// RegisterDebug mounts the pprof handlers.
func RegisterDebug(r *gin.Engine) {
	g := r.Group("/debug/pprof")
	g.GET("/", gin.WrapF(pprof.Index))
	g.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	g.GET("/profile", gin.WrapF(pprof.Profile))
	g.GET("/symbol", gin.WrapF(pprof.Symbol))
	g.GET("/trace", gin.WrapF(pprof.Trace))
	g.GET("/:name", gin.WrapF(pprof.Index))
}
