package misc

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Getenv returns the trimmed value of key or def when it is unset or blank.
func Getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// GetDuration accepts whole seconds ("10") or Go syntax ("1m30s").
// Non-positive values collapse to 0; garbage yields def.
func GetDuration(key string, def time.Duration) time.Duration {
	v := Getenv(key, "")
	if v == "" {
		return def
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return max(time.Duration(n)*time.Second, 0)
	}
	if d, err := time.ParseDuration(v); err == nil {
		return max(d, 0)
	}
	return def
}

// GetInt returns def unless key holds an integer >= minimum.
func GetInt(key string, def, minimum int) int {
	n, err := strconv.Atoi(Getenv(key, ""))
	if err != nil || n < minimum {
		return def
	}
	return n
}

func GetBool(key string, def bool) bool {
	switch strings.ToLower(Getenv(key, "")) {
	case "1", "true", "t", "yes", "y":
		return true
	case "0", "false", "f", "no", "n":
		return false
	default:
		return def
	}
}

// SplitList parses "a, b,,c" into [a b c]; nothing yields nil.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
