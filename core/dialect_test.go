package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLServerDialect(t *testing.T) {
	d := SQLServerDialect{}

	assert.Equal(t, "sqlserver", d.Name())
	assert.Equal(t, "dbo", d.DefaultSchema())
	assert.Equal(t, "[orders]", d.QuoteIdentifier("orders"))
	assert.Equal(t, "[sales].[orders]", d.QualifyTable("sales", "orders"))
	assert.Equal(t, "[orders]", d.QualifyTable("", "orders"))

	t.Run("list tables binds schema", func(t *testing.T) {
		query, args := d.ListTablesQuery("sales")
		assert.Contains(t, query, "INFORMATION_SCHEMA.TABLES")
		assert.Contains(t, query, "TABLE_SCHEMA = @p1")
		assert.Equal(t, []interface{}{"sales"}, args)
	})

	t.Run("list tables without schema has no binds", func(t *testing.T) {
		query, args := d.ListTablesQuery("")
		assert.NotContains(t, query, "@p1")
		assert.Empty(t, args)
	})

	t.Run("describe binds both identifiers", func(t *testing.T) {
		query, args := d.DescribeTableQuery("dbo", "orders")
		assert.Contains(t, query, "INFORMATION_SCHEMA.COLUMNS")
		assert.Equal(t, []interface{}{"dbo", "orders"}, args)
	})

	assert.Equal(t, "SELECT COUNT_BIG(*) AS row_count FROM [dbo].[orders]", d.RowCountQuery("dbo", "orders"))
	assert.Equal(t, "SELECT @@VERSION", d.VersionQuery())
}

func TestSnowflakeDialect(t *testing.T) {
	d := SnowflakeDialect{}

	assert.Equal(t, "snowflake", d.Name())
	assert.Equal(t, "PUBLIC", d.DefaultSchema())
	assert.Equal(t, `"ORDERS"`, d.QuoteIdentifier("ORDERS"))
	assert.Equal(t, `"PUBLIC"."ORDERS"`, d.QualifyTable("PUBLIC", "ORDERS"))

	query, args := d.ListTablesQuery("PUBLIC")
	assert.Equal(t, "SHOW TERSE TABLES IN SCHEMA PUBLIC", query)
	assert.Nil(t, args)

	query, _ = d.ListTablesQuery("")
	assert.Equal(t, "SHOW TERSE TABLES", query)

	query, args = d.DescribeTableQuery("PUBLIC", "ORDERS")
	assert.Equal(t, `DESCRIBE TABLE "PUBLIC"."ORDERS"`, query)
	assert.Nil(t, args)

	assert.Equal(t, `SELECT COUNT(*) AS row_count FROM "PUBLIC"."ORDERS"`, d.RowCountQuery("PUBLIC", "ORDERS"))
	assert.Equal(t, "SELECT CURRENT_VERSION()", d.VersionQuery())
}

func TestDatabricksDialect(t *testing.T) {
	d := DatabricksDialect{Catalog: "main"}

	assert.Equal(t, "databricks", d.Name())
	assert.Equal(t, "default", d.DefaultSchema())
	assert.Equal(t, "`events`", d.QuoteIdentifier("events"))
	assert.Equal(t, "`main`.`bronze`.`events`", d.QualifyTable("bronze", "events"))

	t.Run("defaults schema when omitted", func(t *testing.T) {
		query, args := d.ListTablesQuery("")
		assert.Equal(t, "SHOW TABLES IN `main`.`default`", query)
		assert.Nil(t, args)

		query, _ = d.DescribeTableQuery("", "events")
		assert.Equal(t, "DESCRIBE TABLE `main`.`default`.`events`", query)

		assert.Equal(t, "SELECT COUNT(*) AS row_count FROM `main`.`default`.`events`", d.RowCountQuery("", "events"))
	})

	t.Run("no catalog configured", func(t *testing.T) {
		bare := DatabricksDialect{}
		query, _ := bare.ListTablesQuery("bronze")
		assert.Equal(t, "SHOW TABLES IN `bronze`", query)
		assert.Equal(t, "`bronze`.`events`", bare.QualifyTable("bronze", "events"))
	})

	require.Contains(t, d.VersionQuery(), "current_version")
}
