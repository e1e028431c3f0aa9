package utils

import "os"

// GetEnv returns the value of an environment variable, or "" when unset.
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvDefault returns the value of an environment variable, or the
// given fallback when unset or empty.
func GetEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
