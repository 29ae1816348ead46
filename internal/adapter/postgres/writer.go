// Package postgres persists prepared incident records to PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/couchcryptid/threat-data-etl/internal/domain"
)

const insertStatement = `
	INSERT INTO prepared_incidents (
		id, country, year, attack_type, target_industry,
		financial_loss_millions, affected_users, attack_source,
		vulnerability_type, defense_mechanism, resolution_time_hours,
		latitude, longitude, prepared_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (id) DO NOTHING`

// Writer persists prepared records to a prepared_incidents table.
// It implements preparer.Sink.
type Writer struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWriter opens a connection pool against the given DSN and verifies it
// with a ping.
func NewWriter(dsn string, logger *slog.Logger) (*Writer, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Writer{db: db, logger: logger}, nil
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "postgres" }

// Publish writes all records in a single transaction. Deterministic incident
// IDs make replays of the same build idempotent: conflicting rows are
// skipped rather than duplicated.
func (w *Writer) Publish(ctx context.Context, records []domain.IncidentRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, insertStatement)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := domain.Now()
	for i := range records {
		if _, err := stmt.ExecContext(ctx, insertArgs(records[i], now)...); err != nil {
			return fmt.Errorf("insert record %s: %w", records[i].ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	w.logger.Debug("persisted records to postgres", "count", len(records))
	return nil
}

func (w *Writer) Close() error {
	return w.db.Close()
}

func insertArgs(rec domain.IncidentRecord, preparedAt time.Time) []any {
	return []any{
		rec.ID, rec.Country, rec.Year, rec.AttackType, rec.TargetIndustry,
		rec.FinancialLossMillions, rec.AffectedUsers, rec.AttackSource,
		rec.VulnerabilityType, rec.DefenseMechanism, rec.ResolutionTimeHours,
		rec.Geo.Lat, rec.Geo.Lon, preparedAt,
	}
}
