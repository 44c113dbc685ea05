package services

import (
	"context"
	"fmt"

	"github.com/curelink/records-portal/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// OrphanLedger keeps track of stored files whose document was never registered
type OrphanLedger interface {
	Record(ctx context.Context, orphans []models.OrphanedUpload) error
}

// PostgresOrphanLedger stores orphaned uploads in the orphaned_uploads table
type PostgresOrphanLedger struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewPostgresOrphanLedger creates a new ledger on db
func NewPostgresOrphanLedger(db *pgxpool.Pool, logger *zap.SugaredLogger) *PostgresOrphanLedger {
	return &PostgresOrphanLedger{db: db, logger: logger}
}

// EnsureSchema creates the ledger table if it does not exist
func (l *PostgresOrphanLedger) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS orphaned_uploads (
			id           UUID PRIMARY KEY,
			saga_id      UUID NOT NULL,
			content_hash TEXT NOT NULL,
			file_name    TEXT NOT NULL,
			reason       TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS orphaned_uploads_created_at_idx ON orphaned_uploads (created_at DESC);
	`
	if _, err := l.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create orphaned_uploads: %w", err)
	}
	return nil
}

// Record inserts all orphans in one batch
func (l *PostgresOrphanLedger) Record(ctx context.Context, orphans []models.OrphanedUpload) error {
	query := `
		INSERT INTO orphaned_uploads (id, saga_id, content_hash, file_name, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	if len(orphans) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, o := range orphans {
		batch.Queue(query, o.ID, o.SagaID, o.ContentHash, o.FileName, o.Reason, o.CreatedAt)
	}
	if err := l.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert orphaned uploads: %w", err)
	}

	l.logger.Warnw("Orphaned uploads recorded", "count", len(orphans), "saga_id", orphans[0].SagaID)
	return nil
}

// LogOrphanLedger writes orphaned uploads to the log when no database is configured
type LogOrphanLedger struct {
	logger *zap.SugaredLogger
}

// NewLogOrphanLedger creates a new log-only ledger
func NewLogOrphanLedger(logger *zap.SugaredLogger) *LogOrphanLedger {
	return &LogOrphanLedger{logger: logger}
}

// Record logs one line per orphan
func (l *LogOrphanLedger) Record(_ context.Context, orphans []models.OrphanedUpload) error {
	for _, o := range orphans {
		l.logger.Warnw("Orphaned upload",
			"saga_id", o.SagaID,
			"content_hash", o.ContentHash,
			"file_name", o.FileName,
			"reason", o.Reason,
		)
	}
	return nil
}
