package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
)

// QueryResult is the rectangular-table-to-JSON shape every server returns.
type QueryResult struct {
	Success   bool                     `json:"success"`
	Columns   []string                 `json:"columns"`
	Data      []map[string]interface{} `json:"data"`
	RowCount  int                      `json:"row_count"`
	QueryType string                   `json:"query_type"`
	Truncated bool                     `json:"truncated,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// JSON renders the result for a tool response.
func (r *QueryResult) JSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", ErrSerializingJSON
	}
	return string(data), nil
}

// ErrorResult builds a failed result carrying the error message.
func ErrorResult(queryType string, err error) *QueryResult {
	return &QueryResult{
		Success:   false,
		Columns:   []string{},
		Data:      []map[string]interface{}{},
		QueryType: queryType,
		Error:     err.Error(),
	}
}

// Execute runs a caller-supplied statement and shapes the outcome. Read
// statements fetch up to maxRows rows; everything else reports the number
// of affected rows.
func Execute(ctx context.Context, db *sqlx.DB, query string, maxRows int) (*QueryResult, error) {
	if db == nil {
		return nil, ErrNoConnection
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if maxRows > HardMaxRows {
		maxRows = HardMaxRows
	}

	queryType := QueryType(query)
	if queryType != QueryTypeRead {
		res, err := db.ExecContext(ctx, query)
		if err != nil {
			return nil, Classify(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			// Some drivers cannot report affected rows for DDL.
			affected = 0
		}
		return &QueryResult{
			Success:   true,
			Columns:   []string{},
			Data:      []map[string]interface{}{},
			RowCount:  int(affected),
			QueryType: queryType,
		}, nil
	}

	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	return CollectRows(rows, maxRows, queryType)
}

// CollectRows drains up to maxRows rows into a QueryResult.
func CollectRows(rows *sqlx.Rows, maxRows int, queryType string) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, ErrReadingResults
	}

	data := make([]map[string]interface{}, 0, 16)
	truncated := false
	for rows.Next() {
		if len(data) >= maxRows {
			truncated = true
			break
		}
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadingRow, err)
		}
		for k, v := range row {
			row[k] = FormatValue(v)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadingResults, err)
	}

	return &QueryResult{
		Success:   true,
		Columns:   columns,
		Data:      data,
		RowCount:  len(data),
		QueryType: queryType,
		Truncated: truncated,
	}, nil
}

// FormatValue converts driver values to JSON-safe equivalents.
func FormatValue(val interface{}) interface{} {
	switch v := val.(type) {
	case []byte:
		if len(v) > 1000 {
			return fmt.Sprintf("<binary data: %d bytes>", len(v))
		}
		if utf8.Valid(v) {
			return string(v)
		}
		return fmt.Sprintf("<binary data: %d bytes>", len(v))
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return v
	}
}
