package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Column is one source column as read from INFORMATION_SCHEMA.
type Column struct {
	Name         string
	DataType     string
	MaxLength    sql.NullInt64
	Precision    sql.NullInt64
	Scale        sql.NullInt64
	Nullable     bool
	IsPrimaryKey bool
}

// Table is the analyzed shape of one source table.
type Table struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// SchemaAnalyzer reads table structure from a SQL Server source.
type SchemaAnalyzer struct {
	db     *sqlx.DB
	schema string
}

func NewSchemaAnalyzer(db *sqlx.DB, schema string) *SchemaAnalyzer {
	if schema == "" {
		schema = "dbo"
	}
	return &SchemaAnalyzer{db: db, schema: schema}
}

// ListTables returns the base table names in the source schema.
func (a *SchemaAnalyzer) ListTables(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = @p1
		ORDER BY TABLE_NAME`, a.schema)
	if err != nil {
		return nil, fmt.Errorf("listing source tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// AnalyzeTable reads column metadata, primary key membership and the row
// count for one table.
func (a *SchemaAnalyzer) AnalyzeTable(ctx context.Context, table string) (*Table, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			CHARACTER_MAXIMUM_LENGTH,
			NUMERIC_PRECISION,
			NUMERIC_SCALE,
			IS_NULLABLE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
		ORDER BY ORDINAL_POSITION`, a.schema, table)
	if err != nil {
		return nil, fmt.Errorf("describing %s.%s: %w", a.schema, table, err)
	}
	defer rows.Close()

	t := &Table{Schema: a.schema, Name: table}
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &col.MaxLength, &col.Precision, &col.Scale, &nullable); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found or has no columns", a.schema, table)
	}

	pk, err := a.primaryKey(ctx, table)
	if err != nil {
		return nil, err
	}
	for i := range t.Columns {
		if pk[t.Columns[i].Name] {
			t.Columns[i].IsPrimaryKey = true
		}
	}

	countQuery := fmt.Sprintf("SELECT COUNT_BIG(*) FROM %s.%s", quoteSQLServer(a.schema), quoteSQLServer(table))
	if err := a.db.QueryRowContext(ctx, countQuery).Scan(&t.RowCount); err != nil {
		return nil, fmt.Errorf("counting %s.%s: %w", a.schema, table, err)
	}

	return t, nil
}

func (a *SchemaAnalyzer) primaryKey(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT ku.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku
			ON tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
			AND tc.CONSTRAINT_NAME = ku.CONSTRAINT_NAME
			AND tc.TABLE_SCHEMA = ku.TABLE_SCHEMA
			AND tc.TABLE_NAME = ku.TABLE_NAME
		WHERE tc.TABLE_SCHEMA = @p1 AND tc.TABLE_NAME = @p2`, a.schema, table)
	if err != nil {
		return nil, fmt.Errorf("reading primary key of %s.%s: %w", a.schema, table, err)
	}
	defer rows.Close()

	pk := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		pk[name] = true
	}
	return pk, rows.Err()
}
