package utils

import (
	"strconv"
	"strings"
)

// FormatID renders a principal id the way it is persisted and sent on the wire.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseID parses a stored or transmitted principal id. Blank and non-numeric values
// are reported as absent.
func ParseID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// IDFromAny accepts the numeric shapes a decoded JSON payload may carry for an id.
func IDFromAny(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		return ParseID(n)
	default:
		return 0, false
	}
}
