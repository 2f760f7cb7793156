// Package cache provee una abstracción mínima de cache con backends
// memory (in-process) y redis (distribuido).
package cache

import "time"

// Cache define las operaciones básicas de cache byte-oriented.
type Cache interface {
	Get(k string) ([]byte, bool)
	Set(k string, v []byte, ttl time.Duration)
	Delete(k string)
}
