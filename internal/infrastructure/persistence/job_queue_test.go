package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockJobQueue creates a GormJobQueue with a mocked SQL connection
func newMockJobQueue(t *testing.T) (*GormJobQueue, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormJobQueue(gormDB, zap.NewNop()), mock, mockDB
}

func TestGormJobQueue_Claim(t *testing.T) {
	t.Run("claims pending rows with skip-locked update and returns ids", func(t *testing.T) {
		queue, mock, mockDB := newMockJobQueue(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id_fatura"}).AddRow(101).AddRow(102).AddRow(107)

		mock.ExpectQuery(`UPDATE kthimi_invoice_status\s+SET printed = 2.*FOR UPDATE SKIP LOCKED.*RETURNING id_fatura`).
			WithArgs(5).
			WillReturnRows(rows)

		ids, err := queue.Claim(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, []int64{101, 102, 107}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty queue returns no ids", func(t *testing.T) {
		queue, mock, mockDB := newMockJobQueue(t)
		defer mockDB.Close()

		mock.ExpectQuery(`UPDATE kthimi_invoice_status`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"id_fatura"}))

		ids, err := queue.Claim(context.Background(), 5)

		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("non-positive batch size claims nothing", func(t *testing.T) {
		queue, mock, mockDB := newMockJobQueue(t)
		defer mockDB.Close()

		ids, err := queue.Claim(context.Background(), 0)

		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store failure surfaces as transient error", func(t *testing.T) {
		queue, mock, mockDB := newMockJobQueue(t)
		defer mockDB.Close()

		mock.ExpectQuery(`UPDATE kthimi_invoice_status`).
			WithArgs(5).
			WillReturnError(sql.ErrConnDone)

		ids, err := queue.Claim(context.Background(), 5)

		assert.Error(t, err)
		assert.Nil(t, ids)
	})
}

func TestGormJobQueue_Finalize(t *testing.T) {
	t.Run("marks processing job printed", func(t *testing.T) {
		queue, mock, mockDB := newMockJobQueue(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE kthimi_invoice_status\s+SET printed = 1.*WHERE id_fatura = \$1 AND printed = 2`).
			WithArgs(int64(101)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, queue.Finalize(context.Background(), 101))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no-op when job is not processing", func(t *testing.T) {
		queue, mock, mockDB := newMockJobQueue(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE kthimi_invoice_status\s+SET printed = 1`).
			WithArgs(int64(101)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, queue.Finalize(context.Background(), 101))
	})

	t.Run("propagates store errors", func(t *testing.T) {
		queue, mock, mockDB := newMockJobQueue(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE kthimi_invoice_status\s+SET printed = 1`).
			WithArgs(int64(101)).
			WillReturnError(sql.ErrConnDone)

		assert.Error(t, queue.Finalize(context.Background(), 101))
	})
}

func TestGormJobQueue_Revert(t *testing.T) {
	t.Run("returns processing job to pending", func(t *testing.T) {
		queue, mock, mockDB := newMockJobQueue(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE kthimi_invoice_status\s+SET printed = 0.*WHERE id_fatura = \$1 AND printed = 2`).
			WithArgs(int64(202)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, queue.Revert(context.Background(), 202))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no-op for a job that was never claimed", func(t *testing.T) {
		queue, mock, mockDB := newMockJobQueue(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE kthimi_invoice_status\s+SET printed = 0`).
			WithArgs(int64(202)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, queue.Revert(context.Background(), 202))
	})
}

func TestGormJobQueue_ReleaseStale(t *testing.T) {
	t.Run("releases claims older than cutoff", func(t *testing.T) {
		queue, mock, mockDB := newMockJobQueue(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE kthimi_invoice_status\s+SET printed = 0.*WHERE printed = 2 AND claimed_at < \$1`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 3))

		released, err := queue.ReleaseStale(context.Background(), 30*time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(3), released)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates store errors", func(t *testing.T) {
		queue, mock, mockDB := newMockJobQueue(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE kthimi_invoice_status`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnError(sql.ErrConnDone)

		_, err := queue.ReleaseStale(context.Background(), 30*time.Minute)
		assert.Error(t, err)
	})
}
