package cache

import "strings"

// GenerateKey joins the parts into a namespaced cache key.
func GenerateKey(parts ...string) string {
	return strings.Join(parts, ":")
}
