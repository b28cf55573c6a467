package core

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reLineComments  = regexp.MustCompile(`--[^\n]*`)
	reBlockComments = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reWhitespace    = regexp.MustCompile(`\s+`)
	reSingleQuotes  = regexp.MustCompile(`'[^']*'`)
	reDoubleQuotes  = regexp.MustCompile(`"[^"]*"`)
	reBrackets      = regexp.MustCompile(`\[[^\]]*\]`)
)

// readPrefixes are the statement keywords that produce a result set.
// Anything else goes through the rows-affected branch.
var readPrefixes = []string{"SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "WITH"}

// writeKeywords are scanned (outside string literals) by the read-only guard.
var writeKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "TRUNCATE", "MERGE",
	"DROP", "CREATE", "ALTER", "GRANT", "REVOKE",
	"EXEC", "EXECUTE", "CALL", "COPY",
}

// NormalizeQuery strips comments and collapses whitespace, upper-casing the
// remainder so prefix and keyword checks see a canonical form.
func NormalizeQuery(query string) string {
	q := reLineComments.ReplaceAllString(query, " ")
	q = reBlockComments.ReplaceAllString(q, " ")
	q = reWhitespace.ReplaceAllString(q, " ")
	return strings.TrimSpace(strings.ToUpper(q))
}

func stripLiterals(q string) string {
	q = reSingleQuotes.ReplaceAllString(q, "''")
	q = reDoubleQuotes.ReplaceAllString(q, `""`)
	q = reBrackets.ReplaceAllString(q, "[]")
	return q
}

// IsReadQuery reports whether the statement returns rows.
func IsReadQuery(query string) bool {
	normalized := NormalizeQuery(query)
	for _, prefix := range readPrefixes {
		if normalized == prefix || strings.HasPrefix(normalized, prefix+" ") || strings.HasPrefix(normalized, prefix+"(") {
			return true
		}
	}
	return false
}

// QueryType returns the type tag recorded in results.
func QueryType(query string) string {
	if IsReadQuery(query) {
		return QueryTypeRead
	}
	return QueryTypeWrite
}

// GuardReadOnly rejects statements that modify data or structure. Used by
// servers running with read_only enabled.
func GuardReadOnly(query string) error {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return ErrQueryEmpty
	}
	if !IsReadQuery(normalized) {
		return ErrWriteNotAllowed
	}
	bare := stripLiterals(normalized)
	for _, kw := range writeKeywords {
		if containsKeyword(bare, kw) {
			return fmt.Errorf("%w: %s", ErrWriteNotAllowed, kw)
		}
	}
	return nil
}

// containsKeyword matches kw as a whole word within an already normalized,
// literal-free statement.
func containsKeyword(sql, kw string) bool {
	idx := 0
	for {
		i := strings.Index(sql[idx:], kw)
		if i < 0 {
			return false
		}
		i += idx
		before := byte(' ')
		if i > 0 {
			before = sql[i-1]
		}
		after := byte(' ')
		if end := i + len(kw); end < len(sql) {
			after = sql[end]
		}
		if !isWordByte(before) && !isWordByte(after) {
			return true
		}
		idx = i + len(kw)
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
