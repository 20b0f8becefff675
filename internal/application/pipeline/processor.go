package pipeline

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kthimi/invoicer/internal/domain/invoice"
	"github.com/kthimi/invoicer/internal/infrastructure/artifact"
	"github.com/kthimi/invoicer/internal/infrastructure/mail"
	"github.com/kthimi/invoicer/internal/infrastructure/render"
)

// ArtifactEncryptor produces the encrypted verification artifact for a
// snapshot.
type ArtifactEncryptor interface {
	Encrypt(snap *invoice.Snapshot) (*artifact.Artifact, error)
}

// DocumentRenderer produces the PDF and archive for a snapshot.
type DocumentRenderer interface {
	Render(ctx context.Context, snap *invoice.Snapshot, qrImagePath string) (*render.Document, error)
}

// Notifier delivers the invoice notification. Failure here fails the job.
type Notifier interface {
	Notify(ctx context.Context, supplierID string, msg *mail.Message) error
}

// PrinterDiscoverer locates the unit's network printer.
type PrinterDiscoverer interface {
	Discover(ctx context.Context, routingKey string) (string, error)
}

// PrinterDispatcher sends a document to a discovered printer.
type PrinterDispatcher interface {
	Dispatch(ctx context.Context, addr, path string, copies int) error
}

// ProcessorConfig holds the claim loop settings.
type ProcessorConfig struct {
	PollInterval  time.Duration
	Workers       int // pool size; also the claim batch size
	StaleTimeout  time.Duration
	SweepInterval time.Duration
	PrintCopies   int
}

// Processor drives the invoice pipeline: it claims pending jobs, runs each
// through assemble, encrypt, render, notify and print, then finalizes or
// reverts the queue row.
type Processor struct {
	queue      invoice.JobQueue
	reader     invoice.InvoiceReader
	encryptor  ArtifactEncryptor
	documents  DocumentRenderer
	notifier   Notifier
	discoverer PrinterDiscoverer
	dispatcher PrinterDispatcher
	config     ProcessorConfig
	logger     *zap.Logger
	metrics    *Metrics

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProcessor creates a pipeline processor.
func NewProcessor(
	queue invoice.JobQueue,
	reader invoice.InvoiceReader,
	encryptor ArtifactEncryptor,
	documents DocumentRenderer,
	notifier Notifier,
	discoverer PrinterDiscoverer,
	dispatcher PrinterDispatcher,
	config ProcessorConfig,
	logger *zap.Logger,
	metrics *Metrics,
) *Processor {
	return &Processor{
		queue:      queue,
		reader:     reader,
		encryptor:  encryptor,
		documents:  documents,
		notifier:   notifier,
		discoverer: discoverer,
		dispatcher: dispatcher,
		config:     config,
		logger:     logger.Named("pipeline"),
		metrics:    metrics,
	}
}

// Start starts the claim loop and the stale-claim sweep.
func (p *Processor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.pollLoop(ctx)

	p.wg.Add(1)
	go p.sweepLoop(ctx)

	p.logger.Info("pipeline started",
		zap.Int("workers", p.config.Workers),
		zap.Duration("poll_interval", p.config.PollInterval),
		zap.Duration("stale_timeout", p.config.StaleTimeout),
	)
	return nil
}

// Stop cancels the loops and waits for in-flight jobs to finish, bounded
// by ctx.
func (p *Processor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("pipeline stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Processor) pollLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

func (p *Processor) sweepLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			released, err := p.queue.ReleaseStale(ctx, p.config.StaleTimeout)
			if err != nil {
				p.logger.Error("stale-claim sweep failed", zap.Error(err))
				continue
			}
			if released > 0 {
				p.metrics.StaleReleased.Add(float64(released))
				p.logger.Warn("released stale claims",
					zap.Int64("count", released),
					zap.Duration("older_than", p.config.StaleTimeout),
				)
			}
		}
	}
}

// ProcessBatch claims up to Workers jobs and processes them concurrently,
// one worker per job. It returns when the whole batch has settled.
func (p *Processor) ProcessBatch(ctx context.Context) {
	jobIDs, err := p.queue.Claim(ctx, p.config.Workers)
	if err != nil {
		p.logger.Error("failed to claim jobs", zap.Error(err))
		return
	}
	if len(jobIDs) == 0 {
		return
	}

	batchID := uuid.New().String()
	p.metrics.JobsClaimed.Add(float64(len(jobIDs)))
	p.logger.Info("claimed batch",
		zap.String("batch_id", batchID),
		zap.Int("jobs", len(jobIDs)),
	)

	var wg sync.WaitGroup
	for _, jobID := range jobIDs {
		wg.Add(1)
		go func(jobID int64) {
			defer wg.Done()
			p.processJob(ctx, batchID, jobID)
		}(jobID)
	}
	wg.Wait()
}

// processJob runs one claimed job through the pipeline. Email delivery is
// critical; printing is best-effort.
func (p *Processor) processJob(ctx context.Context, batchID string, jobID int64) {
	logger := p.logger.With(
		zap.String("batch_id", batchID),
		zap.Int64("job_id", jobID),
	)
	start := time.Now()

	snap, err := p.reader.Assemble(ctx, jobID)
	if err != nil {
		logger.Error("invoice assembly failed", zap.Error(err))
		p.revert(ctx, logger, jobID)
		return
	}

	art, err := p.encryptor.Encrypt(snap)
	if err != nil {
		logger.Error("artifact encryption failed", zap.Error(err))
		p.revert(ctx, logger, jobID)
		return
	}
	defer p.cleanup(logger, art.ImagePath)

	doc, err := p.documents.Render(ctx, snap, art.ImagePath)
	if err != nil {
		logger.Error("document rendering failed", zap.Error(err))
		p.revert(ctx, logger, jobID)
		return
	}
	defer p.cleanup(logger, doc.PDFPath)

	body, err := render.EmailBody(snap)
	if err != nil {
		logger.Error("email body rendering failed", zap.Error(err))
		p.revert(ctx, logger, jobID)
		return
	}

	// the PDF travels with the email; the zip stays behind as the
	// retained archive
	msg := &mail.Message{
		Subject:     render.EmailSubject(snap),
		HTMLBody:    body,
		Attachments: []string{doc.PDFPath},
	}
	if err := p.notifier.Notify(ctx, snap.Supplier.ID, msg); err != nil {
		logger.Error("notification failed", zap.Error(err))
		p.revert(ctx, logger, jobID)
		return
	}

	p.printBestEffort(ctx, logger, snap, doc)

	if err := p.queue.Finalize(ctx, jobID); err != nil {
		logger.Error("failed to finalize job", zap.Error(err))
		return
	}
	p.metrics.JobsFinalized.Inc()
	p.metrics.JobDuration.Observe(time.Since(start).Seconds())
	logger.Info("job completed",
		zap.String("invoice", snap.InvoiceNumberString()),
		zap.Duration("duration", time.Since(start)),
	)
}

// printBestEffort dispatches the PDF to the unit's printer. Failures are
// recorded but never fail the job.
func (p *Processor) printBestEffort(ctx context.Context, logger *zap.Logger, snap *invoice.Snapshot, doc *render.Document) {
	addr, err := p.discoverer.Discover(ctx, snap.UnitCode)
	if err != nil {
		p.metrics.PrintFailures.Inc()
		logger.Warn("printer discovery failed, skipping print",
			zap.String("unit", snap.UnitCode),
			zap.Error(err),
		)
		return
	}

	if err := p.dispatcher.Dispatch(ctx, addr, doc.PDFPath, p.config.PrintCopies); err != nil {
		p.metrics.PrintFailures.Inc()
		logger.Warn("printer dispatch failed",
			zap.String("addr", addr),
			zap.Error(err),
		)
		return
	}
	p.metrics.JobsPrinted.Inc()
}

// cleanup removes intermediate files once the archive holds them. It runs
// on the revert path too; a reclaimed job regenerates them.
func (p *Processor) cleanup(logger *zap.Logger, paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove intermediate file",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}
}

func (p *Processor) revert(ctx context.Context, logger *zap.Logger, jobID int64) {
	if err := p.queue.Revert(ctx, jobID); err != nil {
		logger.Error("failed to revert job", zap.Error(err))
		return
	}
	p.metrics.JobsReverted.Inc()
}
