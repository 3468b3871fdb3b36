package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"loanapproval/config"
	lhttp "loanapproval/http"
	"loanapproval/loan"
	"loanapproval/logger"
	"loanapproval/metrics"
	"loanapproval/ml"
)

func main() {
	configPath := flag.StringP("config", "c", "", "path to config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer log.Sync()

	// 2. Load model before binding the port
	modelPath := config.ResolvePath(cfg.Model.Path)
	model, err := ml.LoadModel(modelPath)
	if err != nil {
		log.Fatal("failed to load model", zap.String("path", modelPath), zap.Error(err))
	}
	log.Info("model loaded successfully", zap.String("path", modelPath), zap.Ints("classes", model.Classes()))

	// 3. Wire services
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
	}

	service := loan.NewService(model, log, loan.WithMetrics(m))
	templates := lhttp.NewTemplates(os.DirFS(config.ResolvePath(cfg.Templates.Dir)), cfg.Templates.Home)
	handler := lhttp.NewHandler(service, templates, log.Named("http"))

	serverConfig := lhttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
	}
	if cfg.Metrics.Enabled {
		serverConfig.MetricsPath = cfg.Metrics.Path
	}

	// 4. Start HTTP server
	server := lhttp.NewServer(serverConfig, handler, log.Named("http"), m)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	if err := server.Stop(); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("exiting")
}
