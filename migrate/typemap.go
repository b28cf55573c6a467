package migrate

import (
	"fmt"
	"strings"
)

// typeMap translates SQL Server column types to their Snowflake
// equivalents. Parameterized types (length, precision/scale) are rendered
// by MapType.
var typeMap = map[string]string{
	"varchar":          "VARCHAR",
	"nvarchar":         "VARCHAR",
	"char":             "CHAR",
	"nchar":            "CHAR",
	"text":             "VARCHAR",
	"ntext":            "VARCHAR",
	"sysname":          "VARCHAR(128)",
	"int":              "INTEGER",
	"bigint":           "BIGINT",
	"smallint":         "SMALLINT",
	"tinyint":          "SMALLINT",
	"bit":              "BOOLEAN",
	"decimal":          "NUMBER",
	"numeric":          "NUMBER",
	"money":            "NUMBER(19,4)",
	"smallmoney":       "NUMBER(10,4)",
	"float":            "FLOAT",
	"real":             "FLOAT",
	"datetime":         "TIMESTAMP_NTZ",
	"datetime2":        "TIMESTAMP_NTZ",
	"smalldatetime":    "TIMESTAMP_NTZ",
	"datetimeoffset":   "TIMESTAMP_TZ",
	"date":             "DATE",
	"time":             "TIME",
	"uniqueidentifier": "VARCHAR(36)",
	"binary":           "BINARY",
	"varbinary":        "BINARY",
	"image":            "BINARY",
	"xml":              "VARCHAR",
	"sql_variant":      "VARIANT",
}

// MapType renders the Snowflake type for a source column, carrying length
// and precision across where the target type takes them.
func MapType(col Column) string {
	base, ok := typeMap[strings.ToLower(col.DataType)]
	if !ok {
		// Unknown types land as VARCHAR so the migration keeps moving.
		return "VARCHAR"
	}

	switch base {
	case "VARCHAR", "CHAR":
		// max length -1 means (MAX); Snowflake VARCHAR is unbounded.
		if col.MaxLength.Valid && col.MaxLength.Int64 > 0 {
			return fmt.Sprintf("%s(%d)", base, col.MaxLength.Int64)
		}
		return base
	case "NUMBER":
		if col.Precision.Valid && col.Precision.Int64 > 0 {
			scale := int64(0)
			if col.Scale.Valid {
				scale = col.Scale.Int64
			}
			return fmt.Sprintf("NUMBER(%d,%d)", col.Precision.Int64, scale)
		}
		return "NUMBER(38,0)"
	default:
		return base
	}
}
