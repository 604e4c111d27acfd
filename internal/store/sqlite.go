package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"tradewise/internal/model"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists signals, LTH records and the run log to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the listing commands read while a batch is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol        TEXT NOT NULL,
			date          TEXT NOT NULL,
			action        TEXT NOT NULL,
			price         TEXT NOT NULL,
			buy_price     TEXT,
			sell_price    TEXT,
			expected_gain TEXT,
			strategy      TEXT NOT NULL,
			universe      TEXT NOT NULL,
			created_at    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol_date ON signals(symbol, date)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_strategy ON signals(strategy, universe)`,

		`CREATE TABLE IF NOT EXISTS lth (
			symbol       TEXT PRIMARY KEY,
			price        TEXT NOT NULL,
			date         TEXT NOT NULL,
			universe     TEXT,
			last_updated INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lth_universe ON lth(universe)`,

		`CREATE TABLE IF NOT EXISTS batch_runs (
			id          TEXT PRIMARY KEY,
			job         TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			processed   INTEGER,
			created     INTEGER,
			updated     INTEGER,
			unchanged   INTEGER,
			errors      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON batch_runs(started_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func nullText(d decimal.NullDecimal, places int32) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.StringFixed(places)
}

// BulkCreateSignals inserts all signals in one transaction.
func (s *SQLiteStore) BulkCreateSignals(ctx context.Context, signals []model.Signal) (int, error) {
	if len(signals) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO signals
		(symbol, date, action, price, buy_price, sell_price, expected_gain, strategy, universe, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, sig := range signals {
		if _, err := stmt.ExecContext(ctx,
			sig.Symbol, sig.Date.Format(dateLayout), string(sig.Action),
			sig.Price.StringFixed(model.PricePlaces),
			nullText(sig.BuyPrice, model.PricePlaces),
			nullText(sig.SellPrice, model.PricePlaces),
			nullText(sig.ExpectedGain, model.GainPlaces),
			sig.Strategy, sig.Universe, now,
		); err != nil {
			return 0, fmt.Errorf("insert %s: %w", sig, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(signals), nil
}

func (s *SQLiteStore) ListSignals(ctx context.Context, f SignalFilter) ([]model.Signal, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Strategy != "" {
		where = append(where, "strategy = ?")
		args = append(args, f.Strategy)
	}
	if f.Universe != "" {
		where = append(where, "universe = ?")
		args = append(args, f.Universe)
	}
	if f.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, f.Symbol)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, string(f.Action))
	}
	if !f.Since.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.Since.Format(dateLayout))
	}
	q := `SELECT id, symbol, date, action, price, buy_price, sell_price, expected_gain, strategy, universe FROM signals`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY date DESC, id ASC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []model.Signal
	for rows.Next() {
		var (
			sig    model.Signal
			date   string
			action string
		)
		if err := rows.Scan(&sig.ID, &sig.Symbol, &date, &action, &sig.Price,
			&sig.BuyPrice, &sig.SellPrice, &sig.ExpectedGain, &sig.Strategy, &sig.Universe); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		if sig.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("signal %d date: %w", sig.ID, err)
		}
		sig.Action = model.Action(action)
		out = append(out, sig)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLTH(r rowScanner) (model.LTHRecord, error) {
	var (
		rec      model.LTHRecord
		date     string
		universe sql.NullString
		updated  int64
	)
	if err := r.Scan(&rec.Symbol, &rec.Price, &date, &universe, &updated); err != nil {
		return rec, err
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return rec, fmt.Errorf("lth %s date: %w", rec.Symbol, err)
	}
	rec.Date = d
	rec.Universe = universe.String
	rec.LastUpdated = time.Unix(updated, 0).UTC()
	return rec, nil
}

func nullUniverse(u string) interface{} {
	if u == "" {
		return nil
	}
	return u
}

func (s *SQLiteStore) GetLTH(ctx context.Context, symbol string) (model.LTHRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT symbol, price, date, universe, last_updated FROM lth WHERE symbol = ?`, symbol)
	rec, err := scanLTH(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LTHRecord{}, ErrNotFound
	}
	if err != nil {
		return model.LTHRecord{}, fmt.Errorf("get lth %s: %w", symbol, err)
	}
	return rec, nil
}

func (s *SQLiteStore) CreateLTH(ctx context.Context, rec model.LTHRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `INSERT INTO lth (symbol, price, date, universe, last_updated)
		VALUES (?,?,?,?,?) ON CONFLICT(symbol) DO NOTHING`,
		rec.Symbol, rec.Price.StringFixed(model.LTHPlaces), rec.Date.Format(dateLayout),
		nullUniverse(rec.Universe), rec.LastUpdated.Unix())
	if err != nil {
		return fmt.Errorf("create lth %s: %w", rec.Symbol, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExists
	}
	return nil
}

func (s *SQLiteStore) UpdateLTH(ctx context.Context, rec model.LTHRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var cur decimal.Decimal
	var curDate string
	err = tx.QueryRowContext(ctx, `SELECT price, date FROM lth WHERE symbol = ?`, rec.Symbol).Scan(&cur, &curDate)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read lth %s: %w", rec.Symbol, err)
	}
	d, err := time.Parse(dateLayout, curDate)
	if err != nil {
		return fmt.Errorf("lth %s: bad date %q: %w", rec.Symbol, curDate, err)
	}
	if staleLTH(rec, cur, d) {
		return ErrStale
	}
	if _, err := tx.ExecContext(ctx, `UPDATE lth SET price = ?, date = ?, universe = ?, last_updated = ?
		WHERE symbol = ?`,
		rec.Price.StringFixed(model.LTHPlaces), rec.Date.Format(dateLayout),
		nullUniverse(rec.Universe), rec.LastUpdated.Unix(), rec.Symbol); err != nil {
		return fmt.Errorf("update lth %s: %w", rec.Symbol, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListLTH(ctx context.Context, symbols []string) ([]model.LTHRecord, error) {
	q := `SELECT symbol, price, date, universe, last_updated FROM lth`
	var args []interface{}
	if len(symbols) > 0 {
		q += ` WHERE symbol IN (?` + strings.Repeat(",?", len(symbols)-1) + `)`
		for _, sym := range symbols {
			args = append(args, sym)
		}
	}
	q += ` ORDER BY symbol`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query lth: %w", err)
	}
	defer rows.Close()

	var out []model.LTHRecord
	for rows.Next() {
		rec, err := scanLTH(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lth: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO batch_runs
		(id, job, started_at, finished_at, processed, created, updated, unchanged, errors)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.Job, run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.Stats.Processed, run.Stats.Created, run.Stats.Updated, run.Stats.Unchanged, run.Stats.Errors,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, job, started_at, finished_at,
		processed, created, updated, unchanged, errors
		FROM batch_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []model.RunRecord
	for rows.Next() {
		var (
			run               model.RunRecord
			started, finished int64
		)
		if err := rows.Scan(&run.ID, &run.Job, &started, &finished,
			&run.Stats.Processed, &run.Stats.Created, &run.Stats.Updated,
			&run.Stats.Unchanged, &run.Stats.Errors); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0).UTC()
		run.FinishedAt = time.Unix(finished, 0).UTC()
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}
