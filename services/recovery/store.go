package recovery

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
)

// CodeStore holds the active code record per composite key.
// All implementations must be safe for concurrent access.
type CodeStore interface {
	// Get retrieves the record for a key, nil if absent
	Get(ctx context.Context, key CompositeKey) (*CodeRecord, error)

	// PutNew creates or replaces the record for a key with delivered=false
	PutNew(ctx context.Context, key CompositeKey, code string, now time.Time) (*CodeRecord, error)

	// MarkDelivered flags the record as successfully delivered
	MarkDelivered(ctx context.Context, key CompositeKey) error

	// Delete removes the record; no error if absent
	Delete(ctx context.Context, key CompositeKey) error

	// SweepExpired deletes every record past its TTL and returns the keys removed
	SweepExpired(ctx context.Context, now time.Time) ([]CompositeKey, error)

	// Entries lists records whose account identifier starts with prefix.
	// An empty prefix matches everything.
	Entries(ctx context.Context, prefix string) ([]Entry, error)
}

// Entry pairs a key with its stored record
type Entry struct {
	Key    CompositeKey
	Record CodeRecord
}

// GenerateCode draws a uniformly distributed 6-digit numeric code from
// crypto/rand. The code spans [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// MemoryCodeStore is the single-instance CodeStore: a mutex-guarded map.
// Deployments running more than one instance must use the redis-backed
// store instead; local memory silently fails to coordinate across
// processes.
type MemoryCodeStore struct {
	mu      sync.RWMutex
	records map[CompositeKey]CodeRecord
}

// NewMemoryCodeStore creates an empty in-memory code store
func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{
		records: make(map[CompositeKey]CodeRecord),
	}
}

func (s *MemoryCodeStore) Get(_ context.Context, key CompositeKey) (*CodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryCodeStore) PutNew(_ context.Context, key CompositeKey, code string, now time.Time) (*CodeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := CodeRecord{
		Code:     code,
		IssuedAt: now,
		Channel:  key.Channel,
	}
	s.records[key] = rec
	return &rec, nil
}

func (s *MemoryCodeStore) MarkDelivered(_ context.Context, key CompositeKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return fmt.Errorf("no code record for key %s", key)
	}
	rec.Delivered = true
	s.records[key] = rec
	return nil
}

func (s *MemoryCodeStore) Delete(_ context.Context, key CompositeKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

func (s *MemoryCodeStore) SweepExpired(_ context.Context, now time.Time) ([]CompositeKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []CompositeKey
	for key, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, key)
			removed = append(removed, key)
		}
	}
	return removed, nil
}

func (s *MemoryCodeStore) Entries(_ context.Context, prefix string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []Entry
	for key, rec := range s.records {
		if prefix == "" || strings.HasPrefix(key.AccountID, prefix) {
			entries = append(entries, Entry{Key: key, Record: rec})
		}
	}
	return entries, nil
}
