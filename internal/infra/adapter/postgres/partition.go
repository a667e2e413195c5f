package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// partition bookkeeping constants, grounded on
// original_source/server/backend/infrastructure/feed/processing/partition.py.
const (
	partitionSchema = "content"
	partitionTable  = "articles"
	partitionPrefix = "articles_"
	partitionFormat = "2006_01"
)

// isPartitioned reports whether content.articles is a partitioned
// table. Non-partitioned test/dev databases skip partition bookkeeping
// entirely.
func (d *DB) isPartitioned(ctx context.Context) (bool, error) {
	const sql = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2 AND table_type = 'PARTITIONED TABLE'
		)`
	var exists bool
	if err := d.q(ctx).QueryRow(ctx, sql, partitionSchema, partitionTable).Scan(&exists); err != nil {
		return false, fmt.Errorf("check partitioned table: %w", err)
	}
	return exists, nil
}

// EnsurePartitionsFor pre-creates every monthly partition touched by
// publishedDates, plus the current and next month, per §4.A step 1 and
// the invariant in §3. Idempotent: existing partitions are left alone.
func (d *DB) EnsurePartitionsFor(ctx context.Context, publishedDates []time.Time) error {
	partitioned, err := d.isPartitioned(ctx)
	if err != nil {
		return err
	}
	if !partitioned {
		return nil
	}

	now := time.Now().UTC()
	months := map[string]time.Time{}
	addMonth := func(t time.Time) {
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		months[start.Format(partitionFormat)] = start
	}
	for _, t := range publishedDates {
		addMonth(t)
	}
	addMonth(now)
	addMonth(now.AddDate(0, 1, 0))

	for key, start := range months {
		if err := d.ensureMonthPartition(ctx, key, start); err != nil {
			slog.Warn("failed to pre-create partition",
				slog.String("partition", key), slog.Any("error", err))
		}
	}
	return nil
}

func (d *DB) ensureMonthPartition(ctx context.Context, key string, start time.Time) error {
	tableName := partitionPrefix + key
	const existsSQL = `SELECT EXISTS (SELECT 1 FROM pg_tables WHERE schemaname = $1 AND tablename = $2)`
	var exists bool
	if err := d.q(ctx).QueryRow(ctx, existsSQL, partitionSchema, tableName).Scan(&exists); err != nil {
		return fmt.Errorf("check partition exists: %w", err)
	}
	if exists {
		return nil
	}
	return d.createMonthPartition(ctx, start)
}

// createMonthPartition creates the articles_YYYY_MM partition covering
// [start, start+1 month). Called both from EnsurePartitionsFor and
// on-demand when an insert hits an undefined-table error.
func (d *DB) createMonthPartition(ctx context.Context, start time.Time) error {
	key := start.Format(partitionFormat)
	tableName := partitionPrefix + key
	end := start.AddDate(0, 1, 0)

	sql := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s.%s PARTITION OF %s.%s FOR VALUES FROM ($1) TO ($2)`,
		partitionSchema, tableName, partitionSchema, partitionTable,
	)
	if _, err := d.q(ctx).Exec(ctx, sql, start, end); err != nil {
		return fmt.Errorf("create partition %s: %w", tableName, err)
	}
	slog.Info("pre-created partition", slog.String("table", tableName))
	return nil
}
