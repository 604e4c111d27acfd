package store

import (
	"context"
	"sort"
	"sync"

	"tradewise/internal/model"
)

// MemoryStore keeps everything in process. Used when running dry and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	signals []model.Signal
	lth     map[string]model.LTHRecord
	runs    []model.RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lth: make(map[string]model.LTHRecord)}
}

func (m *MemoryStore) BulkCreateSignals(_ context.Context, signals []model.Signal) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range signals {
		s.ID = int64(len(m.signals) + 1)
		m.signals = append(m.signals, s)
	}
	return len(signals), nil
}

func (m *MemoryStore) ListSignals(_ context.Context, f SignalFilter) ([]model.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Signal
	for _, s := range m.signals {
		if f.match(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *MemoryStore) GetLTH(_ context.Context, symbol string) (model.LTHRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.lth[symbol]
	if !ok {
		return model.LTHRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) CreateLTH(_ context.Context, rec model.LTHRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lth[rec.Symbol]; ok {
		return ErrExists
	}
	m.lth[rec.Symbol] = rec
	return nil
}

func (m *MemoryStore) UpdateLTH(_ context.Context, rec model.LTHRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.lth[rec.Symbol]
	if !ok {
		return ErrNotFound
	}
	if staleLTH(rec, cur.Price, cur.Date) {
		return ErrStale
	}
	m.lth[rec.Symbol] = rec
	return nil
}

func (m *MemoryStore) ListLTH(_ context.Context, symbols []string) ([]model.LTHRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LTHRecord
	if len(symbols) == 0 {
		for _, rec := range m.lth {
			out = append(out, rec)
		}
	} else {
		for _, s := range symbols {
			if rec, ok := m.lth[s]; ok {
				out = append(out, rec)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *MemoryStore) RecordRun(_ context.Context, run model.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *MemoryStore) ListRuns(_ context.Context, limit int) ([]model.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.RunRecord, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
