package invoice

import (
	"context"
	"time"
)

// JobState mirrors the printed column of the job-status table.
type JobState int16

const (
	StatePending    JobState = 0
	StatePrinted    JobState = 1
	StateProcessing JobState = 2
)

// JobQueue is the concurrency-critical work-queue contract. Claim must use
// row-level locking that skips rows locked by a concurrent claimer, so the
// id sets returned to concurrent callers are pairwise disjoint. Finalize and
// Revert only fire when the row is still Processing and are no-ops otherwise.
type JobQueue interface {
	// Claim atomically moves up to batchSize Pending jobs to Processing and
	// returns their ids.
	Claim(ctx context.Context, batchSize int) ([]int64, error)
	// Finalize moves a Processing job to Printed.
	Finalize(ctx context.Context, jobID int64) error
	// Revert moves a Processing job back to Pending.
	Revert(ctx context.Context, jobID int64) error
	// ReleaseStale reverts jobs stuck in Processing longer than olderThan,
	// covering claims orphaned by a hard crash. Returns the number released.
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// QueueDepths is a point-in-time count of jobs per state.
type QueueDepths struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Printed    int64 `json:"printed"`
}

// QueueInspector reports queue depths for operational visibility.
type QueueInspector interface {
	Depths(ctx context.Context) (QueueDepths, error)
}

// InvoiceReader loads the header and line rows for a claimed job.
// Assemble returns ErrHeaderNotFound when the header row is absent.
type InvoiceReader interface {
	Assemble(ctx context.Context, jobID int64) (*Snapshot, error)
}

// SupplierContacts is the resolved recipient routing for one counterparty.
type SupplierContacts struct {
	To []string
	Cc []string
}

// ContactDirectory resolves delivery addresses for a counterparty id.
// A missing or inactive record yields empty lists, not an error.
type ContactDirectory interface {
	ContactsFor(ctx context.Context, supplierID string) (SupplierContacts, error)
}
