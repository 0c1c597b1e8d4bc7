package core

import "time"

// Cache is any in-process key/value cache with per-key expiration.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, d time.Duration)
	Delete(key string)
}
