package core

import "fmt"

// Dialect carries the per-warehouse metadata SQL the servers share.
// Statements that accept binds return args; SHOW/DESCRIBE style commands
// interpolate identifiers that must already be validated.
type Dialect interface {
	Name() string

	QuoteIdentifier(name string) string
	QualifyTable(schema, table string) string

	// ListTablesQuery lists tables, optionally restricted to a schema.
	ListTablesQuery(schema string) (string, []interface{})

	// DescribeTableQuery returns column metadata for one table.
	DescribeTableQuery(schema, table string) (string, []interface{})

	// RowCountQuery counts rows in a table. Identifiers are interpolated,
	// so both must pass IsValidIdentifier first.
	RowCountQuery(schema, table string) string

	// VersionQuery returns a one-cell engine version/identity query.
	VersionQuery() string

	DefaultSchema() string
}

// SQLServerDialect covers SQL Server and the Fabric SQL endpoint, which
// speaks the same TDS dialect.
type SQLServerDialect struct{}

func (SQLServerDialect) Name() string          { return "sqlserver" }
func (SQLServerDialect) DefaultSchema() string { return "dbo" }

func (SQLServerDialect) QuoteIdentifier(name string) string {
	return fmt.Sprintf("[%s]", name)
}

func (d SQLServerDialect) QualifyTable(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return fmt.Sprintf("%s.%s", d.QuoteIdentifier(schema), d.QuoteIdentifier(table))
}

func (SQLServerDialect) ListTablesQuery(schema string) (string, []interface{}) {
	query := `
		SELECT TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE'`
	var args []interface{}
	if schema != "" {
		query += " AND TABLE_SCHEMA = @p1"
		args = append(args, schema)
	}
	query += " ORDER BY TABLE_SCHEMA, TABLE_NAME"
	return query, args
}

func (SQLServerDialect) DescribeTableQuery(schema, table string) (string, []interface{}) {
	query := `
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			CHARACTER_MAXIMUM_LENGTH,
			NUMERIC_PRECISION,
			NUMERIC_SCALE,
			IS_NULLABLE,
			COLUMN_DEFAULT
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
		ORDER BY ORDINAL_POSITION`
	return query, []interface{}{schema, table}
}

func (d SQLServerDialect) RowCountQuery(schema, table string) string {
	return fmt.Sprintf("SELECT COUNT_BIG(*) AS row_count FROM %s", d.QualifyTable(schema, table))
}

func (SQLServerDialect) VersionQuery() string {
	return "SELECT @@VERSION"
}

// SnowflakeDialect. SHOW commands take no binds; identifiers are validated
// and interpolated.
type SnowflakeDialect struct{}

func (SnowflakeDialect) Name() string          { return "snowflake" }
func (SnowflakeDialect) DefaultSchema() string { return "PUBLIC" }

func (SnowflakeDialect) QuoteIdentifier(name string) string {
	return fmt.Sprintf(`"%s"`, name)
}

func (d SnowflakeDialect) QualifyTable(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return fmt.Sprintf("%s.%s", d.QuoteIdentifier(schema), d.QuoteIdentifier(table))
}

func (SnowflakeDialect) ListTablesQuery(schema string) (string, []interface{}) {
	if schema != "" {
		return fmt.Sprintf("SHOW TERSE TABLES IN SCHEMA %s", schema), nil
	}
	return "SHOW TERSE TABLES", nil
}

func (d SnowflakeDialect) DescribeTableQuery(schema, table string) (string, []interface{}) {
	return fmt.Sprintf("DESCRIBE TABLE %s", d.QualifyTable(schema, table)), nil
}

func (d SnowflakeDialect) RowCountQuery(schema, table string) string {
	return fmt.Sprintf("SELECT COUNT(*) AS row_count FROM %s", d.QualifyTable(schema, table))
}

func (SnowflakeDialect) VersionQuery() string {
	return "SELECT CURRENT_VERSION()"
}

// DatabricksDialect addresses tables as catalog.schema.table with backtick
// quoting. The catalog comes from configuration.
type DatabricksDialect struct {
	Catalog string
}

func (DatabricksDialect) Name() string          { return "databricks" }
func (DatabricksDialect) DefaultSchema() string { return "default" }

func (DatabricksDialect) QuoteIdentifier(name string) string {
	return fmt.Sprintf("`%s`", name)
}

func (d DatabricksDialect) QualifyTable(schema, table string) string {
	qualified := d.QuoteIdentifier(table)
	if schema != "" {
		qualified = fmt.Sprintf("%s.%s", d.QuoteIdentifier(schema), qualified)
		if d.Catalog != "" {
			qualified = fmt.Sprintf("%s.%s", d.QuoteIdentifier(d.Catalog), qualified)
		}
	}
	return qualified
}

func (d DatabricksDialect) ListTablesQuery(schema string) (string, []interface{}) {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	target := d.QuoteIdentifier(schema)
	if d.Catalog != "" {
		target = fmt.Sprintf("%s.%s", d.QuoteIdentifier(d.Catalog), target)
	}
	return fmt.Sprintf("SHOW TABLES IN %s", target), nil
}

func (d DatabricksDialect) DescribeTableQuery(schema, table string) (string, []interface{}) {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	return fmt.Sprintf("DESCRIBE TABLE %s", d.QualifyTable(schema, table)), nil
}

func (d DatabricksDialect) RowCountQuery(schema, table string) string {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	return fmt.Sprintf("SELECT COUNT(*) AS row_count FROM %s", d.QualifyTable(schema, table))
}

func (DatabricksDialect) VersionQuery() string {
	return "SELECT current_version().dbsql_version"
}
