package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jacuzzi_controller/internal/config"
	"jacuzzi_controller/internal/handlers"
	"jacuzzi_controller/internal/logger"
	"jacuzzi_controller/internal/repository"
	"jacuzzi_controller/internal/repository/db"
	"jacuzzi_controller/internal/server"
	"jacuzzi_controller/internal/service"
)

const shutdownGrace = 10 * time.Second

func main() {
	// load config.yml + env first; it carries the log level
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.LogLevel)

	// open the audit log DB
	auditDB, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := auditDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(auditDB, &cfg.Golioth)
	services := service.NewService(repos, cfg, log)
	apiHandler := handlers.NewHandler(services, cfg, log)

	// start HTTP server
	srv := &server.Server{}
	go func() {
		log.Infow("starting server", "port", cfg.Port)
		if err := srv.Run(cfg.Port, apiHandler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	waitForShutdown(srv, log)
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
