package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mailpilot/internal/handler"
	"mailpilot/pkg/mq"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	processHandler *handler.ProcessHandler,
	pushHandler *handler.PushHandler,
	rulesHandler *handler.RulesHandler,
	correctionsHandler *handler.CorrectionsHandler,
	statsHandler *handler.StatsHandler,
	pushJWTSecret string,
	db *pgxpool.Pool,
	publisher *mq.Publisher,
) *Router {
	r := gin.Default()
	r.Use(TraceMiddleware())
	r.Use(MetricsMiddleware())

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Batch triggers
	r.POST("/process", processHandler.Process)
	r.POST("/cleanup", processHandler.Cleanup)

	// Push webhook, authenticated when a secret is configured
	push := r.Group("/")
	if pushJWTSecret != "" {
		push.Use(PushAuthMiddleware(pushJWTSecret))
	}
	push.POST("/notifications/push", pushHandler.HandlePush)

	// Rules
	r.GET("/rules", rulesHandler.List)
	r.POST("/rules", rulesHandler.Add)
	r.DELETE("/rules/:id", rulesHandler.Delete)
	r.GET("/rules/suggestions", rulesHandler.Suggestions)

	// Corrections
	r.POST("/corrections/category", correctionsHandler.CorrectCategory)
	r.POST("/corrections/urgency", correctionsHandler.CorrectUrgency)

	// Dashboard feeds
	r.GET("/stats", statsHandler.Stats)
	r.GET("/logs", statsHandler.Logs)

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
