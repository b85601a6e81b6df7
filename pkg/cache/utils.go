package cache

import (
	"fmt"
	"strings"
)

// GenerateKey creates a cache key with prefix and ID.
func GenerateKey(prefix string, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}

// GenerateKeyWithParams creates a cache key with multiple parameters.
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, param := range params {
		fmt.Fprintf(&b, ":%v", param)
	}
	return b.String()
}

// LockKey returns the key guarding a fill of key.
func LockKey(key string) string {
	return GenerateKey("lock", key)
}
