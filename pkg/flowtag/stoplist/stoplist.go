// Package stoplist holds the low-value tokens dropped by keyword
// extraction. Tagging and flow resolution never consult it.
package stoplist

import (
	"sort"
	"strings"
	"sync"
)

// Source records where a stopword came from.
type Source string

const (
	SourceFile  Source = "file"
	SourceStore Source = "store"
	SourceAdded Source = "added"
)

// Manager is a concurrency-safe stopword set.
type Manager struct {
	mu    sync.RWMutex
	stops map[string]Source
}

// NewManager creates a manager seeded with initialStops.
func NewManager(initialStops []string, src Source) *Manager {
	m := &Manager{stops: make(map[string]Source, len(initialStops))}
	for _, s := range initialStops {
		if s = normalize(s); s != "" {
			m.stops[s] = src
		}
	}
	return m
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.stops[normalize(token)]
	return ok
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string, src Source) {
	if token = normalize(token); token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops[token] = src
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stops, normalize(token))
}

// SourceOf reports where token came from.
func (m *Manager) SourceOf(token string) (Source, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src, ok := m.stops[normalize(token)]
	return src, ok
}

// All returns all stopwords, sorted
func (m *Manager) All() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Len returns the number of stopwords.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stops)
}

// Filter returns tokens that are not stopwords, in order.
func (m *Manager) Filter(tokens []string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := m.stops[normalize(t)]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func normalize(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}
