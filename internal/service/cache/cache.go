package cache

import "time"

// ResponseCache stores rendered API payloads keyed by request shape. Entries
// expire after their TTL; a miss is not an error.
type ResponseCache interface {
	Get(key string) (b []byte, ok bool, err error)
	Set(key string, value []byte, ttl time.Duration) error
}
