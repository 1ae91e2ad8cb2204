// Package storage provides prediction cache implementations.
//
// Inference over immutable artifacts is deterministic, so a prediction can be
// memoised under a key derived from the artifact fingerprint and the input
// window. MemoryStore serves single-instance deployments; RedisStore shares
// the cache between replicas.
package storage

import (
	"context"
	"time"
)

// Entry is one cached prediction.
type Entry struct {
	// Key identifies the (artifacts, window) pair the prediction was made for.
	Key string `json:"key"`

	// Value is the prediction in the original unit.
	Value float64 `json:"value"`

	// Model is the name of the model that produced Value.
	Model string `json:"model"`

	CreatedAt time.Time `json:"createdAt"`
}

// Store persists cached predictions.
type Store interface {
	Put(ctx context.Context, entry Entry) error
	Get(ctx context.Context, key string) (Entry, bool, error)
}
