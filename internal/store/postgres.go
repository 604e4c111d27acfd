package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tradewise/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type signalRow struct {
	ID           int64               `gorm:"primaryKey"`
	Symbol       string              `gorm:"size:20;not null;index:idx_signals_symbol_date"`
	Date         time.Time           `gorm:"type:date;not null;index:idx_signals_symbol_date"`
	Action       string              `gorm:"size:4;not null"`
	Price        decimal.Decimal     `gorm:"type:numeric(10,2);not null"`
	BuyPrice     decimal.NullDecimal `gorm:"type:numeric(10,2)"`
	SellPrice    decimal.NullDecimal `gorm:"type:numeric(10,2)"`
	ExpectedGain decimal.NullDecimal `gorm:"type:numeric(7,2)"`
	Strategy     string              `gorm:"size:100;not null;index:idx_signals_strategy"`
	Universe     string              `gorm:"size:100;not null;index:idx_signals_strategy"`
	CreatedAt    time.Time
}

func (signalRow) TableName() string { return "signals" }

type lthRow struct {
	Symbol      string          `gorm:"primaryKey;size:20"`
	Price       decimal.Decimal `gorm:"type:numeric(15,4);not null"`
	Date        time.Time       `gorm:"type:date;not null"`
	Universe    *string         `gorm:"size:100;index"`
	LastUpdated time.Time       `gorm:"not null"`
}

func (lthRow) TableName() string { return "lth" }

type runRow struct {
	ID         string    `gorm:"primaryKey;size:26"`
	Job        string    `gorm:"size:32;not null"`
	StartedAt  time.Time `gorm:"not null;index"`
	FinishedAt time.Time `gorm:"not null"`
	Processed  int
	Created    int
	Updated    int
	Unchanged  int
	Errors     int
}

func (runRow) TableName() string { return "batch_runs" }

// PostgresStore persists to PostgreSQL through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to dsn and migrates the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := db.AutoMigrate(&signalRow{}, &lthRow{}, &runRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Println("[INFO] postgres store connected")
	return &PostgresStore{db: db}, nil
}

func toSignalRow(s model.Signal) signalRow {
	return signalRow{
		Symbol:       s.Symbol,
		Date:         model.Day(s.Date),
		Action:       string(s.Action),
		Price:        s.Price,
		BuyPrice:     s.BuyPrice,
		SellPrice:    s.SellPrice,
		ExpectedGain: s.ExpectedGain,
		Strategy:     s.Strategy,
		Universe:     s.Universe,
	}
}

func (r signalRow) toModel() model.Signal {
	return model.Signal{
		ID:           r.ID,
		Symbol:       r.Symbol,
		Date:         model.Day(r.Date),
		Action:       model.Action(r.Action),
		Price:        r.Price,
		BuyPrice:     r.BuyPrice,
		SellPrice:    r.SellPrice,
		ExpectedGain: r.ExpectedGain,
		Strategy:     r.Strategy,
		Universe:     r.Universe,
	}
}

func toLTHRow(rec model.LTHRecord) lthRow {
	row := lthRow{
		Symbol:      rec.Symbol,
		Price:       rec.Price,
		Date:        model.Day(rec.Date),
		LastUpdated: rec.LastUpdated,
	}
	if rec.Universe != "" {
		u := rec.Universe
		row.Universe = &u
	}
	return row
}

func (r lthRow) toModel() model.LTHRecord {
	rec := model.LTHRecord{
		Symbol:      r.Symbol,
		Price:       r.Price,
		Date:        model.Day(r.Date),
		LastUpdated: r.LastUpdated.UTC(),
	}
	if r.Universe != nil {
		rec.Universe = *r.Universe
	}
	return rec
}

func (p *PostgresStore) BulkCreateSignals(ctx context.Context, signals []model.Signal) (int, error) {
	if len(signals) == 0 {
		return 0, nil
	}
	rows := make([]signalRow, len(signals))
	for i, s := range signals {
		rows[i] = toSignalRow(s)
	}
	if err := p.db.WithContext(ctx).CreateInBatches(rows, 500).Error; err != nil {
		return 0, fmt.Errorf("bulk create signals: %w", err)
	}
	return len(rows), nil
}

func (p *PostgresStore) ListSignals(ctx context.Context, f SignalFilter) ([]model.Signal, error) {
	q := p.db.WithContext(ctx).Model(&signalRow{})
	if f.Strategy != "" {
		q = q.Where("strategy = ?", f.Strategy)
	}
	if f.Universe != "" {
		q = q.Where("universe = ?", f.Universe)
	}
	if f.Symbol != "" {
		q = q.Where("symbol = ?", f.Symbol)
	}
	if f.Action != "" {
		q = q.Where("action = ?", string(f.Action))
	}
	if !f.Since.IsZero() {
		q = q.Where("date >= ?", model.Day(f.Since))
	}
	var rows []signalRow
	if err := q.Order("date DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	out := make([]model.Signal, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

func (p *PostgresStore) GetLTH(ctx context.Context, symbol string) (model.LTHRecord, error) {
	var row lthRow
	err := p.db.WithContext(ctx).Where("symbol = ?", symbol).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.LTHRecord{}, ErrNotFound
	}
	if err != nil {
		return model.LTHRecord{}, fmt.Errorf("get lth %s: %w", symbol, err)
	}
	return row.toModel(), nil
}

func (p *PostgresStore) CreateLTH(ctx context.Context, rec model.LTHRecord) error {
	row := toLTHRow(rec)
	res := p.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return fmt.Errorf("create lth %s: %w", rec.Symbol, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrExists
	}
	return nil
}

func (p *PostgresStore) UpdateLTH(ctx context.Context, rec model.LTHRecord) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur lthRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("symbol = ?", rec.Symbol).First(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read lth %s: %w", rec.Symbol, err)
		}
		if staleLTH(rec, cur.Price, cur.Date) {
			return ErrStale
		}
		row := toLTHRow(rec)
		if err := tx.Model(&lthRow{}).Where("symbol = ?", rec.Symbol).Updates(map[string]interface{}{
			"price":        row.Price,
			"date":         row.Date,
			"universe":     row.Universe,
			"last_updated": row.LastUpdated,
		}).Error; err != nil {
			return fmt.Errorf("update lth %s: %w", rec.Symbol, err)
		}
		return nil
	})
}

func (p *PostgresStore) ListLTH(ctx context.Context, symbols []string) ([]model.LTHRecord, error) {
	q := p.db.WithContext(ctx).Model(&lthRow{})
	if len(symbols) > 0 {
		q = q.Where("symbol IN ?", symbols)
	}
	var rows []lthRow
	if err := q.Order("symbol").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list lth: %w", err)
	}
	out := make([]model.LTHRecord, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

func (p *PostgresStore) RecordRun(ctx context.Context, run model.RunRecord) error {
	row := runRow{
		ID:         run.ID,
		Job:        run.Job,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Processed:  run.Stats.Processed,
		Created:    run.Stats.Created,
		Updated:    run.Stats.Updated,
		Unchanged:  run.Stats.Unchanged,
		Errors:     run.Stats.Errors,
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

func (p *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	q := p.db.WithContext(ctx).Order("started_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []runRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	out := make([]model.RunRecord, len(rows))
	for i, r := range rows {
		out[i] = model.RunRecord{
			ID:         r.ID,
			Job:        r.Job,
			StartedAt:  r.StartedAt.UTC(),
			FinishedAt: r.FinishedAt.UTC(),
			Stats: model.RunStats{
				Processed: r.Processed,
				Created:   r.Created,
				Updated:   r.Updated,
				Unchanged: r.Unchanged,
				Errors:    r.Errors,
			},
		}
	}
	return out, nil
}

func (p *PostgresStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	log.Println("[INFO] closing postgres store")
	return sqlDB.Close()
}
