package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/joseph-ayodele/scandocx/internal/async"
	"github.com/joseph-ayodele/scandocx/internal/common"
	"github.com/joseph-ayodele/scandocx/internal/export"
	"github.com/joseph-ayodele/scandocx/internal/ingest"
	"github.com/joseph-ayodele/scandocx/internal/intake"
	"github.com/joseph-ayodele/scandocx/internal/mathpass"
	"github.com/joseph-ayodele/scandocx/internal/ocr"
	"github.com/joseph-ayodele/scandocx/internal/pipeline"
	"github.com/joseph-ayodele/scandocx/internal/render"
	repo "github.com/joseph-ayodele/scandocx/internal/repository"
	svc "github.com/joseph-ayodele/scandocx/internal/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Job store
	storeCfg := repo.Config{
		URI:         cfg.Store.URI,
		Database:    cfg.Store.Database,
		JobsTTL:     cfg.Store.JobsTTL,
		DialTimeout: cfg.Store.DialTimeout,
	}
	client, err := repo.Open(ctx, storeCfg, logger)
	if err != nil {
		logger.Error("failed to open job store", "error", err)
		os.Exit(1)
	}
	defer repo.Close(client, logger)

	if err := repo.HealthCheck(ctx, client, 5*time.Second, logger); err != nil {
		logger.Error("job store health check failed", "error", err)
		os.Exit(1)
	}
	if err := repo.EnsureIndexes(ctx, client, cfg.Store.Database); err != nil {
		logger.Error("failed to ensure job store indexes", "error", err)
		os.Exit(1)
	}
	store := repo.NewMongoJobStore(client, cfg.Store.Database, cfg.Store.JobsTTL, logger)

	// Pipeline collaborators
	in := intake.NewIntake(intake.Config{
		MaxSizeBytes: cfg.Intake.MaxSizeBytes,
		SkipMagic:    cfg.Intake.SkipMagic,
	}, logger)
	raster := intake.NewPopplerRasterizer(intake.RasterConfig{
		Pdftoppm: cfg.Raster.Pdftoppm,
		DPI:      cfg.Raster.DPI,
		Format:   cfg.Raster.Format,
		MaxPages: cfg.Raster.MaxPages,
	}, logger)

	engine, err := ocr.NewTesseractEngine(cfg.OCR.Language, cfg.OCR.TessdataDir)
	if err != nil {
		logger.Error("failed to initialize OCR engine", "error", err)
		os.Exit(1)
	}
	normalizer := ocr.Normalizer{MinConfidence: cfg.OCR.MinConfidence}
	classifier := mathpass.NewClassifier(mathpass.Config{})

	renderCfg := render.Config{
		Title:          cfg.Render.Title,
		FontName:       cfg.Render.FontName,
		FontSizePt:     cfg.Render.FontSizePt,
		MathFontName:   cfg.Render.MathFontName,
		MathFontSizePt: cfg.Render.MathFontSizePt,
	}

	orch := pipeline.NewOrchestrator(store, in, raster, engine, normalizer, classifier, renderCfg, cfg.Intake.DataDir, logger)

	queue := async.NewPipelineQueue(orch, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.QueueSize),
		async.WithJobTimeout(cfg.Queue.JobTimeout),
	)

	if cfg.Watch.Dir != "" {
		watcher := ingest.NewWatcher(ingest.Config{Dir: cfg.Watch.Dir, InitialScan: true}, orch, queue, logger)
		if err := watcher.Start(ctx); err != nil {
			logger.Error("failed to start drop-directory watcher", "error", err)
			os.Exit(1)
		}
	}

	exportSvc := export.NewService(store, logger)

	e := echo.New()
	e.HideBanner = true
	service := svc.NewService(orch, queue, exportSvc, logger)
	service.Register(e)

	logger.Info("scandocx listening", "addr", cfg.Server.HTTPAddr)
	go func() {
		if err := e.Start(cfg.Server.HTTPAddr); err != nil {
			logger.Error("http serve stopped", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	queue.Shutdown(shutdownCtx)
}
