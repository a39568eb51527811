package history

import (
	"context"
	"sync"
)

// MemoryRepository keeps flight records in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []FlightRecord
}

// NewMemoryRepository creates a repository seeded with records.
func NewMemoryRepository(records ...FlightRecord) *MemoryRepository {
	r := &MemoryRepository{}
	_ = r.Insert(context.Background(), records...)
	return r
}

// Insert appends records.
func (r *MemoryRepository) Insert(_ context.Context, records ...FlightRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.records = append(r.records, normalizeRecord(rec))
	}
	return nil
}

// GetPerformance summarizes matching records, preferring flight-level matches.
func (r *MemoryRepository) GetPerformance(_ context.Context, q Query) (*Performance, error) {
	q = q.Normalize()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if q.FlightNumber != "" {
		if t := r.tally(q, true); t.total > 0 {
			return t.performance(), nil
		}
	}
	if t := r.tally(q, false); t.total > 0 {
		return t.performance(), nil
	}
	return nil, ErrNoData
}

func (r *MemoryRepository) tally(q Query, byFlight bool) tally {
	var t tally
	for _, rec := range r.records {
		if rec.Airline != q.Airline || rec.Origin != q.Origin || rec.Destination != q.Destination {
			continue
		}
		if byFlight && rec.FlightNumber != q.FlightNumber {
			continue
		}
		if !q.Since.IsZero() && rec.FlightDate.Before(dayOf(q.Since)) {
			continue
		}
		t.add(rec)
	}
	return t
}

var _ Provider = (*MemoryRepository)(nil)
