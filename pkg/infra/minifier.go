package infra

import (
	"strconv"
	"sync"
)

// StringMinifier swaps long, frequently repeated identifiers (connection and group names)
// for short tokens and back.
type StringMinifier interface {
	Minify(full string) string
	Unminify(short string) (string, bool)
	Remove(full string)
}

type minifier struct {
	mu      sync.RWMutex
	next    uint64
	toShort map[string]string
	toFull  map[string]string
}

func NewStringMinifier() StringMinifier {
	return &minifier{toShort: map[string]string{}, toFull: map[string]string{}}
}

// Minify returns the same token for the same string until it is removed.
func (m *minifier) Minify(full string) string {
	m.mu.RLock()
	short, ok := m.toShort[full]
	m.mu.RUnlock()
	if ok {
		return short
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if short, ok := m.toShort[full]; ok {
		return short
	}
	short = strconv.FormatUint(m.next, 36)
	m.next++
	m.toShort[full] = short
	m.toFull[short] = full
	return short
}

func (m *minifier) Unminify(short string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	full, ok := m.toFull[short]
	return full, ok
}

// Remove forgets full. Its token is never reissued.
func (m *minifier) Remove(full string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if short, ok := m.toShort[full]; ok {
		delete(m.toShort, full)
		delete(m.toFull, short)
	}
}
