// Package store holds the in-memory warning index and forecast cache.
//
// Mutation is expected to come from a single goroutine (the monitor's refresh
// loop); the locks exist so HTTP readers can run concurrently with it without
// ever observing a partially rebuilt index.
package store

import (
	"encoding/json"
	"sync"

	"github.com/meteopt/aviso/internal/domain"
)

// WarningStore indexes warning records by warning-area id. The index is only
// ever replaced wholesale: a refresh builds a complete new index off to the
// side and swaps it in under the lock, so readers see either the old or the
// new index, never a mix.
type WarningStore struct {
	mu    sync.RWMutex
	index map[string][]domain.Warning
}

// NewWarningStore returns an empty store.
func NewWarningStore() *WarningStore {
	return &WarningStore{index: make(map[string][]domain.Warning)}
}

// ReplaceAll discards the previous index and rebuilds it from records,
// grouped by area id in input order. Records with an empty area id are
// dropped silently. This is the only mutator.
func (s *WarningStore) ReplaceAll(records []domain.Warning) {
	fresh := make(map[string][]domain.Warning, len(records))
	for _, w := range records {
		if w.AreaID == "" {
			continue
		}
		fresh[w.AreaID] = append(fresh[w.AreaID], w)
	}

	s.mu.Lock()
	s.index = fresh
	s.mu.Unlock()
}

// Lookup returns the records for an area in insertion order, or an empty
// slice when the area is absent or the id is empty. The returned slice is
// never mutated afterwards and is safe to read without copying.
func (s *WarningStore) Lookup(areaID string) []domain.Warning {
	if areaID == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index[areaID]
}

// Len returns the total number of indexed records.
func (s *WarningStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, records := range s.index {
		n += len(records)
	}
	return n
}

// ForecastCache maps forecast ids to the raw decoded payload of the daily
// forecast feed. Last fetch wins per key; entries are never evicted for the
// lifetime of the process.
type ForecastCache struct {
	mu      sync.RWMutex
	entries map[string]json.RawMessage
}

// NewForecastCache returns an empty cache.
func NewForecastCache() *ForecastCache {
	return &ForecastCache{entries: make(map[string]json.RawMessage)}
}

// Put stores or overwrites the payload for a forecast id.
func (c *ForecastCache) Put(forecastID string, payload json.RawMessage) {
	if forecastID == "" {
		return
	}
	c.mu.Lock()
	c.entries[forecastID] = payload
	c.mu.Unlock()
}

// Get returns the cached payload for a forecast id.
func (c *ForecastCache) Get(forecastID string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	payload, ok := c.entries[forecastID]
	return payload, ok
}
