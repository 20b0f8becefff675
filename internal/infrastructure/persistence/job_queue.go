package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/kthimi/invoicer/internal/domain/invoice"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// claimSQL selects claimable rows under row locks, skipping rows a
// concurrent claimer already holds, so two pollers can never win the same
// job. The subquery orders by id for a stable claim sequence.
const claimSQL = `
UPDATE kthimi_invoice_status
SET printed = 2, claimed_at = NOW()
WHERE id_fatura IN (
	SELECT id_fatura
	FROM kthimi_invoice_status
	WHERE printed = 0 AND status = 1
	ORDER BY id_fatura
	LIMIT ?
	FOR UPDATE SKIP LOCKED
)
RETURNING id_fatura`

const finalizeSQL = `
UPDATE kthimi_invoice_status
SET printed = 1, claimed_at = NULL
WHERE id_fatura = ? AND printed = 2`

const revertSQL = `
UPDATE kthimi_invoice_status
SET printed = 0, claimed_at = NULL
WHERE id_fatura = ? AND printed = 2`

const releaseStaleSQL = `
UPDATE kthimi_invoice_status
SET printed = 0, claimed_at = NULL
WHERE printed = 2 AND claimed_at < ?`

// GormJobQueue implements invoice.JobQueue over the shared status table.
type GormJobQueue struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormJobQueue creates a new GormJobQueue
func NewGormJobQueue(db *gorm.DB, logger *zap.Logger) *GormJobQueue {
	return &GormJobQueue{db: db, logger: logger.Named("jobqueue")}
}

// Claim atomically moves up to batchSize Pending jobs to Processing and
// returns their ids. Rows locked by a concurrent claim are skipped.
func (q *GormJobQueue) Claim(ctx context.Context, batchSize int) ([]int64, error) {
	if batchSize <= 0 {
		return nil, nil
	}

	var ids []int64
	if err := q.db.WithContext(ctx).Raw(claimSQL, batchSize).Scan(&ids).Error; err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}

	if len(ids) > 0 {
		q.logger.Info("claimed invoices",
			zap.Int("count", len(ids)),
			zap.Int64s("ids", ids),
		)
	}
	return ids, nil
}

// Finalize moves a Processing job to Printed. A job no longer in Processing
// is left untouched.
func (q *GormJobQueue) Finalize(ctx context.Context, jobID int64) error {
	res := q.db.WithContext(ctx).Exec(finalizeSQL, jobID)
	if res.Error != nil {
		return fmt.Errorf("finalize job %d: %w", jobID, res.Error)
	}
	if res.RowsAffected == 0 {
		q.logger.Warn("finalize skipped, job not in processing state", zap.Int64("job_id", jobID))
	}
	return nil
}

// Revert moves a Processing job back to Pending. A job no longer in
// Processing is left untouched.
func (q *GormJobQueue) Revert(ctx context.Context, jobID int64) error {
	res := q.db.WithContext(ctx).Exec(revertSQL, jobID)
	if res.Error != nil {
		return fmt.Errorf("revert job %d: %w", jobID, res.Error)
	}
	if res.RowsAffected == 0 {
		q.logger.Warn("revert skipped, job not in processing state", zap.Int64("job_id", jobID))
	}
	return nil
}

// ReleaseStale reverts jobs stuck in Processing longer than olderThan.
// A hard worker crash leaves claims behind; this sweep returns them to
// Pending so they become claimable again.
func (q *GormJobQueue) ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := q.db.WithContext(ctx).Exec(releaseStaleSQL, cutoff)
	if res.Error != nil {
		return 0, fmt.Errorf("release stale claims: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		q.logger.Warn("released stale claims",
			zap.Int64("count", res.RowsAffected),
			zap.Time("cutoff", cutoff),
		)
	}
	return res.RowsAffected, nil
}

// Depths counts jobs per state for the operational endpoint.
func (q *GormJobQueue) Depths(ctx context.Context) (invoice.QueueDepths, error) {
	var rows []struct {
		Printed int16
		Count   int64
	}
	err := q.db.WithContext(ctx).
		Model(&InvoiceStatusRow{}).
		Select("printed, COUNT(*) AS count").
		Where("status = ?", 1).
		Group("printed").
		Find(&rows).Error
	if err != nil {
		return invoice.QueueDepths{}, fmt.Errorf("count queue depths: %w", err)
	}

	var depths invoice.QueueDepths
	for _, row := range rows {
		switch invoice.JobState(row.Printed) {
		case invoice.StatePending:
			depths.Pending = row.Count
		case invoice.StatePrinted:
			depths.Printed = row.Count
		case invoice.StateProcessing:
			depths.Processing = row.Count
		}
	}
	return depths, nil
}

// Ensure GormJobQueue implements invoice.JobQueue
var _ invoice.JobQueue = (*GormJobQueue)(nil)
var _ invoice.QueueInspector = (*GormJobQueue)(nil)
