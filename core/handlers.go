package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mark3labs/mcp-go/mcp"
)

// The handlers below implement the operations every server in the family
// shares. Vendor packages wrap them in closures carrying their connection
// and dialect, and add vendor-specific tools next to them.

// HandleExecuteQuery runs a caller-supplied SQL string and returns the
// serialized QueryResult. Tool-level failures are reported as error
// results, not protocol errors.
func HandleExecuteQuery(ctx context.Context, db *sqlx.DB, readOnly bool, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := GetArgs(request.Params.Arguments)
	if !ok {
		return mcp.NewToolResultError(ErrInvalidArguments.Error()), nil
	}

	query, ok := GetStringArg(args, "query")
	if !ok || query == "" {
		return mcp.NewToolResultError(ErrQueryRequired.Error()), nil
	}

	// A caller can tighten a call to read-only; it cannot loosen a
	// server-level read_only.
	if readOnly || GetBoolArg(args, "read_only", false) {
		if err := GuardReadOnly(query); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	maxRows := GetIntArg(args, "max_rows", DefaultMaxRows)

	result, err := Execute(ctx, db, query, maxRows)
	if err != nil {
		return errorResultJSON(QueryType(query), err)
	}
	return resultJSON(result)
}

// HandleListTables lists tables through the dialect's metadata query.
func HandleListTables(ctx context.Context, db *sqlx.DB, dialect Dialect, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := GetArgs(request.Params.Arguments)
	if !ok {
		return mcp.NewToolResultError(ErrInvalidArguments.Error()), nil
	}

	schema, err := ValidIdentifierArg(args, "schema", "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query, queryArgs := dialect.ListTablesQuery(schema)
	return runMetadataQuery(ctx, db, query, queryArgs)
}

// HandleDescribeTable returns column metadata for one table.
func HandleDescribeTable(ctx context.Context, db *sqlx.DB, dialect Dialect, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := GetArgs(request.Params.Arguments)
	if !ok {
		return mcp.NewToolResultError(ErrInvalidArguments.Error()), nil
	}

	table, ok := GetStringArg(args, "table_name")
	if !ok || table == "" {
		return mcp.NewToolResultError(ErrTableNameRequired.Error()), nil
	}
	if !IsValidIdentifier(table) {
		return mcp.NewToolResultError(fmt.Sprintf("%v: table_name %q", ErrInvalidIdentifier, table)), nil
	}

	schema, err := ValidIdentifierArg(args, "schema", dialect.DefaultSchema())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query, queryArgs := dialect.DescribeTableQuery(schema, table)
	return runMetadataQuery(ctx, db, query, queryArgs)
}

// HandleRowCount counts rows in one table.
func HandleRowCount(ctx context.Context, db *sqlx.DB, dialect Dialect, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := GetArgs(request.Params.Arguments)
	if !ok {
		return mcp.NewToolResultError(ErrInvalidArguments.Error()), nil
	}

	table, ok := GetStringArg(args, "table_name")
	if !ok || table == "" {
		return mcp.NewToolResultError(ErrTableNameRequired.Error()), nil
	}
	if !IsValidIdentifier(table) {
		return mcp.NewToolResultError(fmt.Sprintf("%v: table_name %q", ErrInvalidIdentifier, table)), nil
	}

	schema, err := ValidIdentifierArg(args, "schema", dialect.DefaultSchema())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return runMetadataQuery(ctx, db, dialect.RowCountQuery(schema, table), nil)
}

func runMetadataQuery(ctx context.Context, db *sqlx.DB, query string, args []interface{}) (*mcp.CallToolResult, error) {
	if db == nil {
		return mcp.NewToolResultError(ErrNoConnection.Error()), nil
	}

	ctx, cancel := context.WithTimeout(ctx, MetadataQueryTimeout)
	defer cancel()

	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return errorResultJSON(QueryTypeRead, Classify(err))
	}
	defer rows.Close()

	result, err := CollectRows(rows, HardMaxRows, QueryTypeRead)
	if err != nil {
		return errorResultJSON(QueryTypeRead, err)
	}
	return resultJSON(result)
}

func resultJSON(result *QueryResult) (*mcp.CallToolResult, error) {
	text, err := result.JSON()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func errorResultJSON(queryType string, err error) (*mcp.CallToolResult, error) {
	result := ErrorResult(queryType, err)
	var ce *ConnError
	if errors.As(err, &ce) && ce.Hint != "" {
		result.Error = fmt.Sprintf("%s. %s", result.Error, ce.Hint)
	}
	text, jsonErr := result.JSON()
	if jsonErr != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}
