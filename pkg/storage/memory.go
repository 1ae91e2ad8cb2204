package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore is an in-process prediction cache.
// It is safe for concurrent use by multiple goroutines.
//
// Without a TTL entries live until the process exits. With a TTL a background
// goroutine evicts expired entries and Get ignores them in between sweeps.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	cleanupDone   chan struct{}
	stopOnce      sync.Once
}

// NewMemoryStore creates a cache with no expiry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

// NewMemoryStoreWithTTL creates a cache whose entries expire after ttl.
// Expired entries are swept every cleanupInterval (one minute when <= 0).
//
// Stop must be called to release the sweeping goroutine.
func NewMemoryStoreWithTTL(ttl, cleanupInterval time.Duration) *MemoryStore {
	if ttl <= 0 {
		panic("TTL must be positive")
	}
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	s := &MemoryStore{
		entries:       make(map[string]Entry),
		ttl:           ttl,
		cleanupTicker: time.NewTicker(cleanupInterval),
		stopCleanup:   make(chan struct{}),
		cleanupDone:   make(chan struct{}),
	}

	go s.runCleanup()

	return s
}

// Stop shuts down the sweeping goroutine and waits for it to exit.
// It is safe to call more than once and on stores without a TTL.
func (s *MemoryStore) Stop() {
	if s.cleanupTicker == nil {
		return
	}

	s.stopOnce.Do(func() {
		close(s.stopCleanup)
		<-s.cleanupDone
		s.cleanupTicker.Stop()
	})
}

// Close implements io.Closer by calling Stop.
func (s *MemoryStore) Close() error {
	s.Stop()
	return nil
}

func (s *MemoryStore) runCleanup() {
	defer close(s.cleanupDone)

	for {
		select {
		case <-s.cleanupTicker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, key)
		}
	}
}

func (s *MemoryStore) expired(e Entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.CreatedAt) > s.ttl
}

// Put stores an entry, replacing any entry with the same key.
// A zero CreatedAt is set to the current time.
func (s *MemoryStore) Put(ctx context.Context, entry Entry) error {
	if entry.Key == "" {
		return errors.New("entry key cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Key] = entry
	return nil
}

// Get returns the entry stored under key, if present and not expired.
func (s *MemoryStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, found := s.entries[key]
	if !found || s.expired(e, time.Now()) {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Len returns the number of stored entries, including expired entries not
// yet swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Delete removes the entry stored under key and reports whether it existed.
func (s *MemoryStore) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.entries[key]
	delete(s.entries, key)
	return existed
}
