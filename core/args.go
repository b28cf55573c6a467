package core

import (
	"fmt"
	"regexp"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_#@$]+$`)

// IsValidIdentifier accepts plain object names only. Identifiers that pass
// are safe to interpolate into metadata statements that cannot take binds
// (SHOW, DESCRIBE).
func IsValidIdentifier(name string) bool {
	return len(name) > 0 && len(name) < 128 && identifierPattern.MatchString(name)
}

// ValidIdentifierArg reads a named identifier argument, falling back to a
// default and rejecting anything that fails validation.
func ValidIdentifierArg(args map[string]interface{}, key, fallback string) (string, error) {
	value := fallback
	if v, ok := args[key].(string); ok && v != "" {
		value = v
	}
	if value != "" && !IsValidIdentifier(value) {
		return "", fmt.Errorf("%w: %s %q", ErrInvalidIdentifier, key, value)
	}
	return value, nil
}

// GetArgs coerces the raw tool arguments into a map.
func GetArgs(raw interface{}) (map[string]interface{}, bool) {
	if raw == nil {
		return map[string]interface{}{}, true
	}
	args, ok := raw.(map[string]interface{})
	return args, ok
}

func GetStringArg(args map[string]interface{}, key string) (string, bool) {
	val, ok := args[key].(string)
	return val, ok
}

// GetIntArg reads a numeric argument. JSON numbers arrive as float64.
func GetIntArg(args map[string]interface{}, key string, defaultVal int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	return defaultVal
}

func GetBoolArg(args map[string]interface{}, key string, defaultVal bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultVal
}
