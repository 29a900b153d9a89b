package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Helpers shared by config.go, redis.go, ratelimit.go and cache.go.  The
// env* functions return the default when the variable is unset or cannot
// be parsed; Load goes through the loader methods instead, which record
// the parse error.

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	b, err := parseBool(k, d)
	if err != nil {
		return d
	}
	return b
}

func envInt(k string, d int) int {
	n, err := parseInt(k, d)
	if err != nil {
		return d
	}
	return n
}

func envDur(k string, d time.Duration) time.Duration {
	dur, err := parseDur(k, d)
	if err != nil {
		return d
	}
	return dur
}

func parseBool(k string, d bool) (bool, error) {
	v := os.Getenv(k)
	switch v {
	case "":
		return d, nil
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true, nil
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false, nil
	}
	return d, fmt.Errorf("invalid %s: %q is not a boolean", k, v)
}

func parseInt(k string, d int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d, fmt.Errorf("invalid %s: %q is not an integer", k, v)
	}
	return n, nil
}

func parseDur(k string, d time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return d, fmt.Errorf("invalid %s: %q is not a duration such as 30s or 5m", k, v)
	}
	return dur, nil
}
