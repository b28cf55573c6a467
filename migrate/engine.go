package migrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"warehouse-mcp/config"
)

// TableResult is the per-table outcome in a migration report.
type TableResult struct {
	Table      string        `json:"table"`
	SourceRows int64         `json:"source_rows"`
	CopiedRows int64         `json:"copied_rows"`
	TargetRows int64         `json:"target_rows"`
	Verified   bool          `json:"verified"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// Report summarizes one migration run.
type Report struct {
	Tables    []TableResult `json:"tables"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Engine copies tables from a SQL Server source into Snowflake: analyze,
// create, copy in batches, verify counts.
type Engine struct {
	source   *sqlx.DB
	target   *sqlx.DB
	analyzer *SchemaAnalyzer
	cfg      config.MigrationConfig
	log      *log.Logger
}

func NewEngine(source, target *sqlx.DB, cfg config.MigrationConfig, logger *log.Logger) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Engine{
		source:   source,
		target:   target,
		analyzer: NewSchemaAnalyzer(source, cfg.SourceSchema),
		cfg:      cfg,
		log:      logger,
	}
}

// GenerateDDL renders the Snowflake CREATE TABLE statement for a source
// table.
func (e *Engine) GenerateDDL(t *Table) string {
	var lines []string
	var pk []string
	for _, col := range t.Columns {
		line := fmt.Sprintf("    %s %s", quoteSnowflake(col.Name), MapType(col))
		if !col.Nullable {
			line += " NOT NULL"
		}
		lines = append(lines, line)
		if col.IsPrimaryKey {
			pk = append(pk, quoteSnowflake(col.Name))
		}
	}
	if len(pk) > 0 {
		lines = append(lines, fmt.Sprintf("    PRIMARY KEY (%s)", strings.Join(pk, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)",
		e.targetTable(t.Name), strings.Join(lines, ",\n"))
}

// Run migrates the configured tables (or every table in the source schema
// when none are listed), copying up to Workers tables concurrently.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	tables := e.cfg.Tables
	if len(tables) == 0 {
		discovered, err := e.analyzer.ListTables(ctx)
		if err != nil {
			return nil, err
		}
		tables = discovered
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables to migrate in schema %s", e.cfg.SourceSchema)
	}
	e.log.Info("starting migration", "tables", len(tables), "workers", e.cfg.Workers, "batch_size", e.cfg.BatchSize)

	results := make([]TableResult, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, table := range tables {
		g.Go(func() error {
			results[i] = e.migrateTable(gctx, table)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Tables: results, Duration: time.Since(start)}
	for _, r := range results {
		if r.Error == "" && r.Verified {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	e.log.Info("migration finished", "succeeded", report.Succeeded, "failed", report.Failed, "duration", report.Duration)
	return report, nil
}

func (e *Engine) migrateTable(ctx context.Context, table string) TableResult {
	start := time.Now()
	result := TableResult{Table: table}
	fail := func(err error) TableResult {
		result.Error = err.Error()
		result.Duration = time.Since(start)
		e.log.Error("table migration failed", "table", table, "err", err)
		return result
	}

	t, err := e.analyzer.AnalyzeTable(ctx, table)
	if err != nil {
		return fail(err)
	}
	result.SourceRows = t.RowCount

	if _, err := e.target.ExecContext(ctx, e.GenerateDDL(t)); err != nil {
		return fail(fmt.Errorf("creating target table: %w", err))
	}

	copied, err := e.copyRows(ctx, t)
	if err != nil {
		return fail(err)
	}
	result.CopiedRows = copied

	targetRows, err := e.countTarget(ctx, t.Name)
	if err != nil {
		return fail(fmt.Errorf("verifying %s: %w", table, err))
	}
	result.TargetRows = targetRows
	result.Verified = targetRows == t.RowCount
	result.Duration = time.Since(start)
	e.log.Info("table migrated", "table", table, "rows", copied, "verified", result.Verified, "duration", result.Duration)
	return result
}

// copyRows streams the source table and inserts multi-row batches into the
// target.
func (e *Engine) copyRows(ctx context.Context, t *Table) (int64, error) {
	columns := make([]string, len(t.Columns))
	quoted := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		columns[i] = quoteSQLServer(col.Name)
		quoted[i] = quoteSnowflake(col.Name)
	}

	selectQuery := fmt.Sprintf("SELECT %s FROM %s.%s",
		strings.Join(columns, ", "), quoteSQLServer(t.Schema), quoteSQLServer(t.Name))
	rows, err := e.source.QueryxContext(ctx, selectQuery)
	if err != nil {
		return 0, fmt.Errorf("reading source rows: %w", err)
	}
	defer rows.Close()

	insertPrefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ",
		e.targetTable(t.Name), strings.Join(quoted, ", "))
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(t.Columns)), ",") + ")"

	var total int64
	batch := make([]interface{}, 0, e.cfg.BatchSize*len(t.Columns))
	batchRows := 0

	flush := func() error {
		if batchRows == 0 {
			return nil
		}
		values := strings.TrimSuffix(strings.Repeat(placeholder+",", batchRows), ",")
		if _, err := e.target.ExecContext(ctx, insertPrefix+values, batch...); err != nil {
			return fmt.Errorf("inserting batch into %s: %w", t.Name, err)
		}
		total += int64(batchRows)
		batch = batch[:0]
		batchRows = 0
		return nil
	}

	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return total, fmt.Errorf("scanning source row: %w", err)
		}
		for _, v := range values {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			batch = append(batch, v)
		}
		batchRows++
		if batchRows >= e.cfg.BatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return total, fmt.Errorf("iterating source rows: %w", err)
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

func (e *Engine) countTarget(ctx context.Context, table string) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", e.targetTable(table))
	err := e.target.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

func (e *Engine) targetTable(table string) string {
	return fmt.Sprintf("%s.%s", quoteSnowflake(e.cfg.TargetSchema), quoteSnowflake(strings.ToUpper(table)))
}

func quoteSnowflake(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteSQLServer(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
