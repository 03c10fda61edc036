package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig selects which browser origins may call the API.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig opens the read and close endpoints to every origin
// and exposes the trace headers. Nothing relies on cookies, so
// credentials stay off.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Cache-Control", "X-Requested-With", "X-Trace-ID", "X-Span-ID"},
		ExposeHeaders: []string{"X-Trace-ID", "X-Span-ID"},
		MaxAge:        12 * time.Hour,
	}
}

// CORS builds the gin-contrib/cors handler. An empty origin list, or one
// containing "*", allows any origin.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	if len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowOrigins
	}
	return cors.New(c)
}
