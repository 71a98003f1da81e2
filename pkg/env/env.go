package env

import "os"

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// Lookup reports the first non-empty value among keys.
func Lookup(keys ...string) (string, bool) {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val, true
		}
	}
	return "", false
}
