package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"timed out", errors.New("read tcp: i/o timeout"), KindTimeout},
		{"deadline", errors.New("context deadline exceeded"), KindTimeout},
		{"login failed", errors.New("mssql: Login failed for user 'app'"), KindAuthFailure},
		{"invalid token", errors.New("Invalid Token: the token is expired"), KindAuthFailure},
		{"http 401", errors.New("unexpected status 401"), KindAuthFailure},
		{"insufficient privileges", errors.New("SQL access control error: Insufficient privileges"), KindPermissionDenied},
		{"http 403", errors.New("unexpected status 403"), KindPermissionDenied},
		{"warehouse suspended", errors.New("warehouse RUN_WH is suspended"), KindWarehouseUnavailable},
		{"cluster starting", errors.New("cluster is starting, try again"), KindWarehouseUnavailable},
		{"unknown", errors.New("syntax error near FROM"), KindOther},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ce := Classify(tc.err)
			require.NotNil(t, ce)
			assert.Equal(t, tc.kind, ce.Kind)
			assert.ErrorIs(t, ce, tc.err)
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestClassifyPreservesExistingConnError(t *testing.T) {
	orig := NewConnError(KindAuthFailure, errors.New("bad secret"))
	wrapped := fmt.Errorf("opening connection: %w", orig)
	assert.Same(t, orig, Classify(wrapped))
}

func TestRetryable(t *testing.T) {
	assert.True(t, KindTimeout.Retryable())
	assert.True(t, KindWarehouseUnavailable.Retryable())
	assert.False(t, KindAuthFailure.Retryable())
	assert.False(t, KindPermissionDenied.Retryable())
	assert.False(t, KindOther.Retryable())
}

func TestConnErrorHints(t *testing.T) {
	for _, kind := range []ErrorKind{KindTimeout, KindAuthFailure, KindPermissionDenied, KindWarehouseUnavailable} {
		assert.NotEmpty(t, NewConnError(kind, nil).Hint, kind.String())
	}
	assert.Empty(t, NewConnError(KindOther, nil).Hint)
}
