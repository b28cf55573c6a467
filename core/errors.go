package core

import (
	"errors"
	"fmt"
	"strings"
)

// Connection errors
var (
	ErrNoConnection         = errors.New("no database connection")
	ErrConnectionFailed     = errors.New("failed to connect to database")
	ErrConnectionTestFailed = errors.New("connection test failed")
)

// Argument errors
var (
	ErrInvalidArguments  = errors.New("invalid arguments")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrQueryRequired     = errors.New("query is required")
	ErrTableNameRequired = errors.New("table_name is required")
)

// Query errors
var (
	ErrQueryEmpty      = errors.New("empty query")
	ErrWriteNotAllowed = errors.New("write statements are not allowed in read-only mode")
	ErrReadingRow      = errors.New("error reading row")
	ErrReadingResults  = errors.New("error reading results")
	ErrSerializingJSON = errors.New("error serializing JSON")
)

// ErrorKind classifies a connection-layer failure. Classification happens
// once, where the vendor error is produced, so callers can branch on the
// kind instead of matching message substrings.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindTimeout
	KindAuthFailure
	KindPermissionDenied
	KindWarehouseUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindAuthFailure:
		return "authentication"
	case KindPermissionDenied:
		return "permission"
	case KindWarehouseUnavailable:
		return "warehouse_unavailable"
	default:
		return "other"
	}
}

// Retryable reports whether an operation failing with this kind is worth
// retrying. Auth and permission failures never resolve on their own.
func (k ErrorKind) Retryable() bool {
	return k == KindTimeout || k == KindWarehouseUnavailable
}

// ConnError is a classified connection-layer error.
type ConnError struct {
	Kind ErrorKind
	Hint string
	Err  error
}

func (e *ConnError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// NewConnError builds a ConnError with the canned hint for the kind.
func NewConnError(kind ErrorKind, err error) *ConnError {
	return &ConnError{Kind: kind, Hint: hintFor(kind), Err: err}
}

// Classify wraps a vendor error in a ConnError, deriving the kind from the
// driver message. Keyword matching against vendor text is confined here.
func Classify(err error) *ConnError {
	if err == nil {
		return nil
	}
	var ce *ConnError
	if errors.As(err, &ce) {
		return ce
	}

	msg := strings.ToLower(err.Error())
	kind := KindOther
	switch {
	case containsAny(msg, "timeout", "timed out", "deadline exceeded", "i/o timeout"):
		kind = KindTimeout
	case containsAny(msg, "authentication", "login failed", "invalid token", "unauthorized", "401", "incorrect username or password"):
		kind = KindAuthFailure
	case containsAny(msg, "permission", "access denied", "forbidden", "403", "insufficient privileges"):
		kind = KindPermissionDenied
	case containsAny(msg, "warehouse", "cluster is starting", "compute not running", "endpoint is starting", "suspended"):
		kind = KindWarehouseUnavailable
	}
	return NewConnError(kind, err)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hintFor(kind ErrorKind) string {
	switch kind {
	case KindTimeout:
		return "The server did not respond in time. Check network reachability and increase the configured timeout if the warehouse is under load."
	case KindAuthFailure:
		return "Credentials were rejected. Verify the configured token, user/password or client secret, and that it has not expired."
	case KindPermissionDenied:
		return "The identity connected but lacks access. Grant the required role or workspace permission to it."
	case KindWarehouseUnavailable:
		return "The warehouse is stopped or still starting. Start it (or wait for the cold start to finish) and retry."
	default:
		return ""
	}
}
