package utils

import (
	"os"
	"strconv"
)

// Environment lookups used by the runtime config: every override is optional,
// and a value that is unset, empty or unparsable silently falls back so a
// half-configured environment can never produce a zero-sized region or a
// zero gas limit.

// EnvOrDefault returns the environment variable named key, or fallback when
// it is unset or empty.
func EnvOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// EnvOrDefaultUint32 parses the environment variable named key as a uint32,
// or returns fallback when it is unset, empty or out of range. Storage
// offsets and region sizes are 32-bit, so sizes are parsed at that width
// instead of being truncated from a wider integer.
func EnvOrDefaultUint32(key string, fallback uint32) uint32 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint32(n)
		}
	}
	return fallback
}

// EnvOrDefaultUint64 parses the environment variable named key as a uint64,
// or returns fallback when it is unset, empty or not a valid unsigned
// number.
func EnvOrDefaultUint64(key string, fallback uint64) uint64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
