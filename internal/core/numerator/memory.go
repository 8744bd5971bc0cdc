package numerator

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Generator for tests and the demo binary.
// Sequences reset on restart.
type Memory struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemory creates an empty in-process generator.
func NewMemory() *Memory {
	return &Memory{counters: make(map[string]int64)}
}

// Next implements Generator.
func (m *Memory) Next(_ context.Context, cfg Config, period time.Time) (string, error) {
	key := cfg.Prefix + "|" + cfg.PeriodKey(period)

	m.mu.Lock()
	m.counters[key]++
	value := m.counters[key]
	m.mu.Unlock()

	return cfg.Format(period, value), nil
}

var _ Generator = (*Memory)(nil)
