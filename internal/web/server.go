// internal/web/server.go
package web

import (
    "context"
    "net/http"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/sirupsen/logrus"
    "piwatch/internal/config"
    "piwatch/internal/events"
    "piwatch/internal/metrics"
    "piwatch/internal/monitoring"
    "piwatch/internal/store"
)

type Server struct {
    config      *config.Config
    store       store.Store
    engine      *monitoring.Engine
    broadcaster *events.Broadcaster
    metrics     *metrics.Collector
    router      *gin.Engine
    server      *http.Server
}

func NewServer(cfg *config.Config, st store.Store, engine *monitoring.Engine, broadcaster *events.Broadcaster, metricsCollector *metrics.Collector) *Server {
    if cfg.Logging.Level != "debug" {
        gin.SetMode(gin.ReleaseMode)
    }

    router := gin.New()
    router.Use(gin.Logger())
    router.Use(gin.Recovery())
    router.Use(corsMiddleware())

    server := &Server{
        config:      cfg,
        store:       st,
        engine:      engine,
        broadcaster: broadcaster,
        metrics:     metricsCollector,
        router:      router,
    }

    server.setupRoutes()
    return server
}

func (s *Server) Start(ctx context.Context) error {
    s.server = &http.Server{
        Addr:         s.config.Server.Port,
        Handler:      s.router,
        ReadTimeout:  s.config.Server.ReadTimeout,
        WriteTimeout: s.config.Server.WriteTimeout,
    }

    logrus.WithField("port", s.config.Server.Port).Info("Starting web server")

    // Start metrics update routine
    go s.updateMetricsRoutine(ctx)

    // Start server in goroutine
    go func() {
        if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            logrus.WithError(err).Fatal("Failed to start server")
        }
    }()

    return nil
}

func (s *Server) Stop(ctx context.Context) error {
    if s.server != nil {
        return s.server.Shutdown(ctx)
    }
    return nil
}

func (s *Server) setupRoutes() {
    // API routes
    api := s.router.Group("/api")
    {
        api.GET("/devices", s.getDevices)
        api.GET("/devices/:id", s.getDevice)
        api.POST("/devices", s.createDevice)
        api.PUT("/devices/:id", s.updateDevice)
        api.DELETE("/devices/:id", s.deleteDevice)

        api.GET("/devices/:id/metrics", s.getDeviceMetrics)
        api.GET("/devices/:id/cron", s.getDeviceCron)
        api.POST("/devices/:id/reboot", s.rebootDevice)

        api.GET("/alerts", s.getAlerts)
        api.POST("/alerts/:id/resolve", s.resolveAlert)

        api.GET("/settings", s.getSettings)
        api.PUT("/settings", s.updateSettings)

        api.GET("/discover", s.discoverDevices)

        api.GET("/stream", s.handleSSE)
        api.GET("/health", s.healthCheck)
    }

    // WebSocket endpoint
    s.router.GET("/ws", s.handleWebSocket)

    // Prometheus metrics
    if s.config.Prometheus.Enabled {
        s.router.GET(s.config.Prometheus.MetricsPath, gin.WrapH(promhttp.Handler()))
    }
}

func (s *Server) healthCheck(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{
        "status":    "healthy",
        "timestamp": time.Now(),
        "version":   config.Version,
    })
}

// updateMetricsRoutine keeps gauges that describe the system itself fresh.
func (s *Server) updateMetricsRoutine(ctx context.Context) {
    ticker := time.NewTicker(30 * time.Second)
    defer ticker.Stop()

    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            if err := s.metrics.UpdateSystemMetrics(ctx); err != nil {
                logrus.WithError(err).Error("Failed to update system metrics")
            }
            s.metrics.RecordSubscribers(s.broadcaster.Count())
        }
    }
}

func corsMiddleware() gin.HandlerFunc {
    return func(c *gin.Context) {
        c.Header("Access-Control-Allow-Origin", "*")
        c.Header("Access-Control-Allow-Credentials", "true")
        c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
        c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

        if c.Request.Method == "OPTIONS" {
            c.AbortWithStatus(204)
            return
        }

        c.Next()
    }
}
