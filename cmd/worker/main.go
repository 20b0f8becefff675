package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kthimi/invoicer/internal/application/pipeline"
	"github.com/kthimi/invoicer/internal/infrastructure/artifact"
	"github.com/kthimi/invoicer/internal/infrastructure/config"
	"github.com/kthimi/invoicer/internal/infrastructure/logger"
	"github.com/kthimi/invoicer/internal/infrastructure/mail"
	"github.com/kthimi/invoicer/internal/infrastructure/persistence"
	"github.com/kthimi/invoicer/internal/infrastructure/printer"
	"github.com/kthimi/invoicer/internal/infrastructure/render"
	"github.com/kthimi/invoicer/internal/interfaces/ops"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("starting invoice worker",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	queue := persistence.NewGormJobQueue(db.DB, log)
	reader := persistence.NewGormInvoiceReader(db.DB)
	contacts := persistence.NewGormContactDirectory(db.DB)

	// Pipeline components
	encryptor := artifact.NewEncryptor(cfg.Artifact.Password, cfg.Artifact.QRDir, log)

	engine, err := render.NewTemplateEngine(cfg.Render.TemplatePath)
	if err != nil {
		log.Fatal("Failed to load invoice template", zap.Error(err))
	}
	pdfRenderer, err := render.NewWkhtmltopdfRenderer(cfg.Render.WkhtmltopdfPath, cfg.Render.Timeout, log)
	if err != nil {
		log.Fatal("Failed to resolve wkhtmltopdf", zap.Error(err))
	}
	documents := render.NewDocumentService(engine, pdfRenderer, cfg.Render.OutputDir)

	sender := mail.NewSMTPSender(cfg.SMTP, log)
	notifier := mail.NewNotifier(sender, contacts, cfg.Mail, log)

	printerCache, err := printer.NewAddressCache(cfg.Printer, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to create printer cache", zap.Error(err))
	}
	defer printerCache.Close()
	discoverer := printer.NewDiscoverer(printerCache, cfg.Printer, log)
	dispatcher := printer.NewDispatcher(cfg.Printer.ProbeTimeout, log)

	metrics := pipeline.NewMetrics(nil)
	processor := pipeline.NewProcessor(
		queue, reader, encryptor, documents, notifier,
		discoverer, dispatcher,
		pipeline.ProcessorConfig{
			PollInterval:  cfg.Queue.PollInterval,
			Workers:       cfg.Queue.Workers,
			StaleTimeout:  cfg.Queue.StaleTimeout,
			SweepInterval: cfg.Queue.SweepInterval,
			PrintCopies:   cfg.Printer.Copies,
		},
		log, metrics,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := processor.Start(ctx); err != nil {
		log.Fatal("Failed to start pipeline", zap.Error(err))
	}

	var opsServer *ops.Server
	if cfg.Ops.Enabled {
		opsServer = ops.NewServer(cfg.Ops.Addr, db, queue, log)
		opsServer.Start()
	}

	// Block until shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if opsServer != nil {
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("ops server shutdown failed", zap.Error(err))
		}
	}
	if err := processor.Stop(shutdownCtx); err != nil {
		log.Error("pipeline shutdown timed out, in-flight claims will be released by the stale sweep", zap.Error(err))
	}

	log.Info("invoice worker stopped")
}
