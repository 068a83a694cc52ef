package main

import (
	"fmt"
	"os"

	"github.com/nurpe/fleetops-idle/internal/auth"
	"github.com/nurpe/fleetops-idle/internal/config"
	"github.com/nurpe/fleetops-idle/internal/db"
	"github.com/nurpe/fleetops-idle/internal/excel"
	httphandler "github.com/nurpe/fleetops-idle/internal/http"
	"github.com/nurpe/fleetops-idle/internal/http/middleware"
	"github.com/nurpe/fleetops-idle/internal/logger"
	"github.com/nurpe/fleetops-idle/internal/pdf"
	"github.com/nurpe/fleetops-idle/internal/repository"
	"github.com/nurpe/fleetops-idle/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	eventRepo := repository.NewIdleEventRepository(database)
	intervalRepo := repository.NewIntervalRepository(database)
	vehicleRepo := repository.NewVehicleRepository(database)

	excelGenerator := excel.NewGenerator()
	pdfGenerator := pdf.NewGenerator()

	ingestService := service.NewIngestService(eventRepo, vehicleRepo, cfg, log)
	reportService := service.NewReportService(eventRepo, intervalRepo, vehicleRepo, excelGenerator, pdfGenerator, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(ingestService, reportService, cfg.Ingest.MaxUploadBytes, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting idle service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
