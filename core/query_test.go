package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryType(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"select", "SELECT * FROM users", QueryTypeRead},
		{"lowercase select", "select 1", QueryTypeRead},
		{"leading whitespace", "  \n\tSELECT 1", QueryTypeRead},
		{"leading comment", "-- header\nSELECT 1", QueryTypeRead},
		{"block comment", "/* note */ SELECT 1", QueryTypeRead},
		{"show", "SHOW TABLES", QueryTypeRead},
		{"describe", "DESCRIBE TABLE t", QueryTypeRead},
		{"desc", "DESC t", QueryTypeRead},
		{"explain", "EXPLAIN SELECT 1", QueryTypeRead},
		{"cte", "WITH x AS (SELECT 1) SELECT * FROM x", QueryTypeRead},
		{"insert", "INSERT INTO t VALUES (1)", QueryTypeWrite},
		{"update", "UPDATE t SET a = 1", QueryTypeWrite},
		{"delete", "DELETE FROM t", QueryTypeWrite},
		{"create", "CREATE TABLE t (a INT)", QueryTypeWrite},
		{"drop", "DROP TABLE t", QueryTypeWrite},
		{"selective is not select", "SELECTIVE_PROC 1", QueryTypeWrite},
		{"empty", "", QueryTypeWrite},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, QueryType(tc.query))
		})
	}
}

func TestGuardReadOnly(t *testing.T) {
	t.Run("allows plain select", func(t *testing.T) {
		assert.NoError(t, GuardReadOnly("SELECT * FROM users WHERE id = 1"))
	})

	t.Run("allows write keywords inside string literals", func(t *testing.T) {
		assert.NoError(t, GuardReadOnly("SELECT * FROM logs WHERE message = 'DROP TABLE attempt'"))
	})

	t.Run("allows write keywords as identifier substrings", func(t *testing.T) {
		assert.NoError(t, GuardReadOnly("SELECT created_at, updated_at FROM audit"))
	})

	t.Run("allows quoted identifiers containing keywords", func(t *testing.T) {
		assert.NoError(t, GuardReadOnly(`SELECT "delete" FROM flags`))
	})

	t.Run("rejects empty query", func(t *testing.T) {
		assert.ErrorIs(t, GuardReadOnly("   "), ErrQueryEmpty)
	})

	t.Run("rejects comment-only query", func(t *testing.T) {
		assert.ErrorIs(t, GuardReadOnly("-- nothing here"), ErrQueryEmpty)
	})

	t.Run("rejects insert", func(t *testing.T) {
		assert.ErrorIs(t, GuardReadOnly("INSERT INTO t VALUES (1)"), ErrWriteNotAllowed)
	})

	t.Run("rejects write hidden in cte", func(t *testing.T) {
		assert.ErrorIs(t, GuardReadOnly("WITH x AS (SELECT 1) DELETE FROM t"), ErrWriteNotAllowed)
	})

	t.Run("rejects select into style via exec", func(t *testing.T) {
		assert.ErrorIs(t, GuardReadOnly("EXEC sp_do_stuff"), ErrWriteNotAllowed)
	})

	t.Run("rejects write after comment trick", func(t *testing.T) {
		assert.ErrorIs(t, GuardReadOnly("SELECT 1; /* x */ DROP TABLE t"), ErrWriteNotAllowed)
	})
}

func TestNormalizeQuery(t *testing.T) {
	got := NormalizeQuery("  select a, -- trailing\n b /* block\n comment */ from t  ")
	assert.Equal(t, "SELECT A, B FROM T", got)
}
