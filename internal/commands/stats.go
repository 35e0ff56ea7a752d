package commands

import (
	"sync"
	"time"
)

// Stat is the accumulated invocation record of one descriptor.
type Stat struct {
	Descriptor *Descriptor
	Count      int
	Total      time.Duration
}

// Average returns the mean duration per invocation.
func (s Stat) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Statistics accumulates per-descriptor invocation counts and durations.
// Records only grow.
type Statistics struct {
	mu    sync.Mutex
	order []*Descriptor
	byCmd map[*Descriptor]*Stat
}

// NewStatistics returns an empty statistics table.
func NewStatistics() *Statistics {
	return &Statistics{byCmd: make(map[*Descriptor]*Stat)}
}

// Record adds one invocation of d taking elapsed.
func (s *Statistics) Record(d *Descriptor, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.byCmd[d]
	if !ok {
		st = &Stat{Descriptor: d}
		s.byCmd[d] = st
		s.order = append(s.order, d)
	}
	st.Count++
	st.Total += elapsed
}

// Get returns the record for d.
func (s *Statistics) Get(d *Descriptor) (Stat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.byCmd[d]
	if !ok {
		return Stat{}, false
	}
	return *st, true
}

// Snapshot returns every descriptor invoked at least once, in order of first
// invocation.
func (s *Statistics) Snapshot() []Stat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Stat, 0, len(s.order))
	for _, d := range s.order {
		out = append(out, *s.byCmd[d])
	}
	return out
}
