package main

import (
    "context"
    "flag"
    "fmt"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/sirupsen/logrus"
    "piwatch/internal/config"
    "piwatch/internal/events"
    "piwatch/internal/metrics"
    "piwatch/internal/monitoring"
    "piwatch/internal/store"
    "piwatch/internal/web"
)

func main() {
    configFile := flag.String("config", "", "Configuration file path (optional)")
    version := flag.Bool("version", false, "Show version information")
    flag.Parse()

    if *version {
        fmt.Printf("piwatch v%s\n", config.Version)
        os.Exit(0)
    }

    // Load configuration
    cfg, err := config.Load(*configFile)
    if err != nil {
        logrus.Fatalf("Failed to load config: %v", err)
    }

    // Setup logging
    setupLogging(cfg.Logging)

    logrus.WithFields(logrus.Fields{
        "config_file": *configFile,
        "port":        cfg.Server.Port,
        "workers":     cfg.Agent.Workers,
    }).Info("Starting piwatch")

    // Initialize database
    st, err := store.NewBoltStore(cfg.Database.Path)
    if err != nil {
        logrus.Fatalf("Failed to initialize database: %v", err)
    }
    defer st.Close()

    // Initialize shared services
    broadcaster := events.NewBroadcaster()
    metricsCollector := metrics.NewCollector(st)

    // Initialize monitoring engine
    engine := monitoring.NewEngine(cfg, st, broadcaster, metricsCollector)

    // Initialize web server
    webServer := web.NewServer(cfg, st, engine, broadcaster, metricsCollector)

    // Start services
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    if err := engine.Start(); err != nil {
        logrus.Fatalf("Failed to start monitoring engine: %v", err)
    }

    if err := webServer.Start(ctx); err != nil {
        logrus.Fatalf("Failed to start web server: %v", err)
    }

    // Wait for shutdown signal
    sigChan := make(chan os.Signal, 1)
    signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

    sig := <-sigChan
    logrus.WithField("signal", sig).Info("Received shutdown signal")

    // Graceful shutdown
    engine.Stop()

    shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer shutdownCancel()
    if err := webServer.Stop(shutdownCtx); err != nil {
        logrus.WithError(err).Warn("Web server shutdown was not clean")
    }

    cancel()
    logrus.Info("Shutdown complete")
}

func setupLogging(cfg config.LoggingConfig) {
    level, err := logrus.ParseLevel(cfg.Level)
    if err != nil {
        level = logrus.InfoLevel
    }
    logrus.SetLevel(level)

    if cfg.Format == "json" {
        logrus.SetFormatter(&logrus.JSONFormatter{})
    } else {
        logrus.SetFormatter(&logrus.TextFormatter{
            FullTimestamp: true,
        })
    }
}
