package config

import (
	"cmp"
	"strconv"
	"strings"
	"time"

	"github.com/vshulcz/sfxbridge/internal/misc"
)

// Every setting resolves as ENV > CLI flag > default; blank values count as unset.

func FromEnvOrFlag(envKey, flagVal, def string) string {
	return misc.Getenv(envKey, cmp.Or(strings.TrimSpace(flagVal), def))
}

// FromEnvOrFlagBool lets a set ENV value override the flag in both directions.
func FromEnvOrFlagBool(envKey string, flagVal, def bool) bool {
	if misc.Getenv(envKey, "") != "" {
		return misc.GetBool(envKey, def)
	}
	return flagVal || def
}

// FromEnvOrFlagInt ignores values below minimum.
func FromEnvOrFlagInt(envKey string, flagVal, def, minimum int) int {
	if n := misc.GetInt(envKey, minimum-1, minimum); n >= minimum {
		return n
	}
	if flagVal != 0 && flagVal >= minimum {
		return flagVal
	}
	return def
}

// FromEnvOrFlagDuration reads whole seconds or Go duration syntax from ENV,
// otherwise flag seconds unless they equal flagSentinel. Negative values are
// returned as is so callers can reject them; unparsable ENV yields the default.
func FromEnvOrFlagDuration(envKey string, flagSeconds, flagSentinel, defSeconds int) time.Duration {
	def := time.Duration(defSeconds) * time.Second
	if ev := misc.Getenv(envKey, ""); ev != "" {
		if n, err := strconv.ParseInt(ev, 10, 64); err == nil {
			return time.Duration(n) * time.Second
		}
		if d, err := time.ParseDuration(ev); err == nil {
			return d
		}
		return def
	}
	if flagSeconds != flagSentinel {
		return time.Duration(flagSeconds) * time.Second
	}
	return def
}
