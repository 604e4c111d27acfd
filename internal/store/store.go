package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradewise/internal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
	// ErrStale means the stored LTH beats the one being written.
	ErrStale = errors.New("stale lth update")
)

// staleLTH reports whether rec would replace a better stored high: a higher
// price, or the same price reached on an earlier day.
func staleLTH(rec model.LTHRecord, price decimal.Decimal, date time.Time) bool {
	if rec.Price.Equal(price) {
		return model.Day(rec.Date).After(model.Day(date))
	}
	return rec.Price.LessThan(price)
}

// SignalFilter narrows ListSignals. Zero fields match everything.
type SignalFilter struct {
	Strategy string
	Universe string
	Symbol   string
	Action   model.Action
	Since    time.Time
}

func (f SignalFilter) match(s model.Signal) bool {
	return (f.Strategy == "" || s.Strategy == f.Strategy) &&
		(f.Universe == "" || s.Universe == f.Universe) &&
		(f.Symbol == "" || s.Symbol == f.Symbol) &&
		(f.Action == "" || s.Action == f.Action) &&
		(f.Since.IsZero() || !s.Date.Before(f.Since))
}

// SignalStore persists strategy output. Signals are append-only.
type SignalStore interface {
	BulkCreateSignals(ctx context.Context, signals []model.Signal) (int, error)
	// ListSignals returns matches newest date first.
	ListSignals(ctx context.Context, f SignalFilter) ([]model.Signal, error)
}

// LTHStore persists one life-time-high record per symbol.
type LTHStore interface {
	GetLTH(ctx context.Context, symbol string) (model.LTHRecord, error)
	// CreateLTH returns ErrExists when the symbol already has a record.
	CreateLTH(ctx context.Context, rec model.LTHRecord) error
	// UpdateLTH replaces the record for rec.Symbol. It returns ErrNotFound
	// for an unknown symbol and ErrStale when rec.Price is below the stored
	// price, or equal to it with a later date.
	UpdateLTH(ctx context.Context, rec model.LTHRecord) error
	// ListLTH returns the records of symbols, or every record when symbols is
	// empty, ordered by symbol.
	ListLTH(ctx context.Context, symbols []string) ([]model.LTHRecord, error)
}

// RunRecorder keeps the batch run log.
type RunRecorder interface {
	RecordRun(ctx context.Context, run model.RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
}

// Store is the full persistence surface.
type Store interface {
	SignalStore
	LTHStore
	RunRecorder
	Close() error
}

const dateLayout = "2006-01-02"

// Open selects a Store by driver name.
func Open(driver, sqlitePath, postgresDSN string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLiteStore(sqlitePath)
	case "postgres":
		return NewPostgresStore(postgresDSN)
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", driver)
}
