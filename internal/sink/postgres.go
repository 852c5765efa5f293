// Package sink writes assembled rows to PostgreSQL.
//
// Each template maps to one table. Column types are derived from the
// template's type declarations, and two bookkeeping columns are added:
// _ingest_id, identifying the ingest that wrote the row so it can be rolled
// back, and _line, the source line the row came from.
package sink

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/sheetrow/internal/core"
)

// Bookkeeping column names.
const (
	IngestIDColumn = "_ingest_id"
	LineColumn     = "_line"
)

// DB is the part of *pgxpool.Pool the sink uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres writes rows with COPY, one transaction per Write call.
type Postgres struct {
	db     DB
	schema string
}

// New returns a sink writing to tables in the given PostgreSQL schema
// ("public" when empty).
func New(db DB, schema string) *Postgres {
	if schema == "" {
		schema = "public"
	}
	return &Postgres{db: db, schema: schema}
}

// ColumnName converts a display column name to a database column name.
// "Transaction ID" -> "transaction_id"
func ColumnName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), "_")
}

// TableName returns the table a template writes to.
func TableName(t *core.Template) string {
	return ColumnName(t.Name())
}

func (p *Postgres) table(t *core.Template) pgx.Identifier {
	return pgx.Identifier{p.schema, TableName(t)}
}

// ColumnType returns the PostgreSQL type for a column. Nullable unions use
// the type of their non-null member. A union of integer and number is
// numeric and a union of object and array is jsonb; other mixes are text.
func ColumnType(c *core.Column) string {
	decl := c.Type.Without(core.TypeNull)
	switch {
	case len(decl) == 0:
		return "text"
	case len(decl) == 1:
		return scalarType(decl[0], c.Schema)
	case only(decl, core.TypeInteger, core.TypeNumber):
		return "numeric"
	case only(decl, core.TypeArray, core.TypeObject):
		return "jsonb"
	}
	return "text"
}

func scalarType(typ core.Type, s *core.Schema) string {
	switch typ {
	case core.TypeInteger:
		return "bigint"
	case core.TypeNumber:
		return "numeric"
	case core.TypeBoolean:
		return "boolean"
	case core.TypeArray, core.TypeObject:
		return "jsonb"
	case core.TypeString:
		if s != nil {
			switch s.Format {
			case "date", core.FormatLooseDate:
				return "date"
			case "date-time":
				return "timestamptz"
			}
		}
	}
	return "text"
}

func only(decl core.TypeDecl, allowed ...core.Type) bool {
	for _, typ := range decl {
		if !slices.Contains(allowed, typ) {
			return false
		}
	}
	return true
}

// CreateTableSQL returns the DDL for a template's table.
func (p *Postgres) CreateTableSQL(t *core.Template) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", p.table(t).Sanitize())
	fmt.Fprintf(&b, "\t%s uuid NOT NULL,\n", pgx.Identifier{IngestIDColumn}.Sanitize())
	fmt.Fprintf(&b, "\t%s integer NOT NULL", pgx.Identifier{LineColumn}.Sanitize())
	for _, c := range t.Columns() {
		fmt.Fprintf(&b, ",\n\t%s %s", pgx.Identifier{ColumnName(c.Name)}.Sanitize(), ColumnType(c))
	}
	b.WriteString("\n)")
	return b.String()
}

// EnsureTable creates the template's table and its ingest index if they do
// not exist.
func (p *Postgres) EnsureTable(ctx context.Context, t *core.Template) error {
	if _, err := p.db.Exec(ctx, p.CreateTableSQL(t)); err != nil {
		return fmt.Errorf("create table %s: %w", TableName(t), wrapPgError(err))
	}
	index := pgx.Identifier{TableName(t) + IngestIDColumn + "_idx"}.Sanitize()
	sql := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		index, p.table(t).Sanitize(), pgx.Identifier{IngestIDColumn}.Sanitize())
	if _, err := p.db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create index on %s: %w", TableName(t), wrapPgError(err))
	}
	return nil
}

// Write copies rows into the template's table in one transaction and
// returns the number of rows written. Either every row is written or none.
func (p *Postgres) Write(ctx context.Context, ingestID uuid.UUID, t *core.Template, rows []*core.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	cols := t.Columns()
	names := make([]string, 0, len(cols)+2)
	names = append(names, IngestIDColumn, LineColumn)
	for _, c := range cols {
		names = append(names, ColumnName(c.Name))
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := tx.CopyFrom(ctx, p.table(t), names, pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		return encodeRow(ingestID, cols, rows[i])
	}))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", TableName(t), wrapPgError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// DeleteIngest removes every row written by an ingest and returns how many
// were deleted.
func (p *Postgres) DeleteIngest(ctx context.Context, ingestID uuid.UUID, t *core.Template) (int64, error) {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", p.table(t).Sanitize(), pgx.Identifier{IngestIDColumn}.Sanitize())
	tag, err := p.db.Exec(ctx, sql, toPgUUID(ingestID))
	if err != nil {
		return 0, fmt.Errorf("delete ingest %s: %w", ingestID, wrapPgError(err))
	}
	return tag.RowsAffected(), nil
}

// wrapPgError adds the SQLSTATE and constraint to server errors so they
// survive into reports.
func wrapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.ConstraintName != "" {
		return fmt.Errorf("%w (constraint %s)", err, pgErr.ConstraintName)
	}
	return err
}
