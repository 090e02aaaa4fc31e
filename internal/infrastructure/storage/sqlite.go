package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/strategy_monitor/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS monitored_instruments (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			interval TEXT NOT NULL,
			strategy_id TEXT NOT NULL,
			strategy_params TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL,
			last_checked_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS signals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			instrument_id TEXT NOT NULL,
			detected_at DATETIME NOT NULL,
			bar_time INTEGER NOT NULL,
			signal_type TEXT NOT NULL,
			price REAL NOT NULL
		);`,
		// The uniqueness key makes re-detection idempotent: replaying the
		// same bars can never record a transition twice.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_signals_dedup
			ON signals(instrument_id, bar_time, signal_type);`,
		`CREATE INDEX IF NOT EXISTS idx_signals_instrument_time
			ON signals(instrument_id, bar_time);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	return nil
}

// InstrumentRepository Implementation

func (s *SQLiteStore) SaveInstrument(ctx context.Context, inst *domain.MonitoredInstrument) error {
	params, err := json.Marshal(inst.StrategyParams)
	if err != nil {
		return fmt.Errorf("encode strategy params: %w", err)
	}
	query := `INSERT INTO monitored_instruments (id, symbol, interval, strategy_id, strategy_params, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		inst.ID, inst.Symbol, inst.Interval, inst.StrategyID, string(params), inst.CreatedAt)
	return err
}

func (s *SQLiteStore) GetInstrument(ctx context.Context, id string) (*domain.MonitoredInstrument, error) {
	query := `SELECT id, symbol, interval, strategy_id, strategy_params, created_at, last_checked_at
			  FROM monitored_instruments WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)
	return scanInstrument(row.Scan)
}

func (s *SQLiteStore) ListInstruments(ctx context.Context) ([]*domain.MonitoredInstrument, error) {
	query := `SELECT id, symbol, interval, strategy_id, strategy_params, created_at, last_checked_at
			  FROM monitored_instruments ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insts []*domain.MonitoredInstrument
	for rows.Next() {
		inst, err := scanInstrument(rows.Scan)
		if err != nil {
			return nil, err
		}
		insts = append(insts, inst)
	}
	return insts, rows.Err()
}

func scanInstrument(scan func(...any) error) (*domain.MonitoredInstrument, error) {
	var (
		inst        domain.MonitoredInstrument
		params      string
		lastChecked sql.NullTime
	)
	if err := scan(&inst.ID, &inst.Symbol, &inst.Interval, &inst.StrategyID, &params, &inst.CreatedAt, &lastChecked); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &inst.StrategyParams); err != nil {
		return nil, fmt.Errorf("decode strategy params: %w", err)
	}
	if lastChecked.Valid {
		inst.LastCheckedAt = lastChecked.Time
	}
	return &inst, nil
}

func (s *SQLiteStore) DeleteInstrument(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM monitored_instruments WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) UpdateLastChecked(ctx context.Context, id string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE monitored_instruments SET last_checked_at = ? WHERE id = ?", ts, id)
	return err
}

// SignalRepository Implementation

func (s *SQLiteStore) InsertSignalIfAbsent(ctx context.Context, sig *domain.SignalRecord) (bool, error) {
	query := `INSERT OR IGNORE INTO signals (instrument_id, detected_at, bar_time, signal_type, price)
			  VALUES (?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query,
		sig.InstrumentID, sig.DetectedAt, sig.BarTime.UnixNano(), string(sig.Type), sig.Price)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, err
	}
	sig.ID = id
	return true, nil
}

func (s *SQLiteStore) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]*domain.SignalRecord, error) {
	query := `SELECT id, instrument_id, detected_at, bar_time, signal_type, price FROM signals WHERE 1=1`
	var args []any
	if filter.InstrumentID != "" {
		query += " AND instrument_id = ?"
		args = append(args, filter.InstrumentID)
	}
	if !filter.Since.IsZero() {
		query += " AND bar_time > ?"
		args = append(args, filter.Since.UnixNano())
	}
	query += " ORDER BY bar_time"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sigs []*domain.SignalRecord
	for rows.Next() {
		var (
			sig     domain.SignalRecord
			barTime int64
			typ     string
		)
		if err := rows.Scan(&sig.ID, &sig.InstrumentID, &sig.DetectedAt, &barTime, &typ, &sig.Price); err != nil {
			return nil, err
		}
		sig.BarTime = time.Unix(0, barTime).UTC()
		sig.Type = domain.SignalType(typ)
		sigs = append(sigs, &sig)
	}
	return sigs, rows.Err()
}

func (s *SQLiteStore) LastSignalTime(ctx context.Context, instrumentID string) (time.Time, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(bar_time), 0) FROM signals WHERE instrument_id = ?", instrumentID)
	var barTime int64
	if err := row.Scan(&barTime); err != nil {
		return time.Time{}, err
	}
	if barTime == 0 {
		return time.Time{}, nil
	}
	return time.Unix(0, barTime).UTC(), nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
