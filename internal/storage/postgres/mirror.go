// Package postgres mirrors the small lookup tables into Postgres using pgx
// v5. The mirror is optional convenience for downstream queries; Parquet
// remains the canonical output, and the big entity tables are never mirrored.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"cnpjetl/internal/schema"
	"cnpjetl/pkg/records"
)

// Mirror holds a connection pool for lookup-table replication.
type Mirror struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// NewMirror connects to dsn and returns a Mirror plus a close function.
func NewMirror(ctx context.Context, dsn string, log *zap.Logger) (*Mirror, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Mirror{pool: pool, log: log}, func() { pool.Close() }, nil
}

// Replace drops and recreates the table for t, then bulk-loads recs with
// COPY. Lookup tables run a few thousand rows at most, so a full replace is
// cheaper and simpler than diffing.
func (m *Mirror) Replace(ctx context.Context, t schema.Type, recs []records.Record) error {
	table, ok := schema.Lookup(t)
	if !ok {
		return fmt.Errorf("unknown type %q", t)
	}
	if !t.IsLookup() {
		return fmt.Errorf("%s is not a lookup table", t)
	}

	name := string(t)
	cols := table.Columns

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "DROP TABLE IF EXISTS "+pgIdent(name)); err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", pgIdent(name), columnDefs(cols))
	if _, err := conn.Exec(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	rows := make([][]any, len(recs))
	for i, rec := range recs {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = rec[c]
		}
		rows[i] = row
	}
	n, err := conn.CopyFrom(ctx, pgx.Identifier{name}, cols, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", name, err)
	}
	m.log.Info("mirrored lookup table",
		zap.String("table", name),
		zap.Int64("rows", n))
	return nil
}

// columnDefs renders an all-text column list, matching the Parquet output's
// untyped string columns.
func columnDefs(cols []string) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = pgIdent(c) + " text"
	}
	return strings.Join(defs, ", ")
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
