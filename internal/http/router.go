package http

import (
	"net/http"

	"accounts_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter assembles the gin engine: recovery, request logging, security
// headers, CORS, health endpoint, then every module's routes. The recovery
// handler is the catch-all boundary; a panic surfaces as the uniform 500
// envelope with no internal detail.
func NewRouter(app *App) *gin.Engine {
	engine := gin.New()

	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		app.Logger.Error("panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		httpkit.Error(c, http.StatusInternalServerError, "Internal Server Error")
		c.Abort()
	}))
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))

	engine.GET("/api/health", func(c *gin.Context) {
		if app.Health != nil {
			if err := app.Health.Ping(c.Request.Context()); err != nil {
				httpkit.Error(c, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		httpkit.OK(c, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	ctx := &RouterContext{
		Public:    api,
		Protected: api.Group("", httpkit.AuthRequired(app.Config)),
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
	}

	return engine
}

func corsConfig(cfg RouterConfig) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", httpkit.RequestIDHeader}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.AllowCredentials = cfg.GetCORSAllowCreds()

	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
	}

	return corsCfg
}
