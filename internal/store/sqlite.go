package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

// SQLiteStore implements CandleStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based candle store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS candles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, timestamp)
	);
	CREATE INDEX IF NOT EXISTS idx_candles_symbol_ts ON candles(symbol, timestamp);
	CREATE TABLE IF NOT EXISTS candle_ranges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		from_ts INTEGER NOT NULL,
		to_ts INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_candle_ranges_symbol ON candle_ranges(symbol, from_ts, to_ts);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveCandles upserts candles for a symbol.
func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (symbol, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, timestamp) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, symbol, c.Timestamp.Unix(), c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("inserting candle: %w", err)
		}
	}

	return tx.Commit()
}

// GetCandles returns cached candles for a symbol within [from, end of
// to's day), ordered ascending by timestamp.
func (s *SQLiteStore) GetCandles(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC`,
		symbol, from.Unix(), dayStart(to).Add(24*time.Hour).Unix())
	if err != nil {
		return nil, fmt.Errorf("querying candles: %w", err)
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var ts int64
		var c models.Candle
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scanning candle: %w", err)
		}
		c.Timestamp = time.Unix(ts, 0)
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// SaveRange records that the candles covering [from, to] have been
// fetched for a symbol, merging with any overlapping or adjacent
// recorded ranges.
func (s *SQLiteStore) SaveRange(ctx context.Context, symbol string, from, to time.Time) error {
	fromTS := dayStart(from).Unix()
	toTS := dayStart(to).Add(24 * time.Hour).Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, from_ts, to_ts FROM candle_ranges
		WHERE symbol = ? AND from_ts <= ? AND to_ts >= ?`,
		symbol, toTS, fromTS)
	if err != nil {
		return fmt.Errorf("querying ranges: %w", err)
	}

	var absorbed []int64
	for rows.Next() {
		var id, f, t int64
		if err := rows.Scan(&id, &f, &t); err != nil {
			rows.Close()
			return fmt.Errorf("scanning range: %w", err)
		}
		absorbed = append(absorbed, id)
		if f < fromTS {
			fromTS = f
		}
		if t > toTS {
			toTS = t
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading ranges: %w", err)
	}

	for _, id := range absorbed {
		if _, err := tx.ExecContext(ctx, `DELETE FROM candle_ranges WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting absorbed range: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO candle_ranges (symbol, from_ts, to_ts) VALUES (?, ?, ?)`,
		symbol, fromTS, toTS); err != nil {
		return fmt.Errorf("inserting range: %w", err)
	}

	return tx.Commit()
}

// HasRange reports whether a recorded fetch range fully covers
// [from, to] for a symbol.
func (s *SQLiteStore) HasRange(ctx context.Context, symbol string, from, to time.Time) (bool, error) {
	fromTS := dayStart(from).Unix()
	toTS := dayStart(to).Add(24 * time.Hour).Unix()

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM candle_ranges
		WHERE symbol = ? AND from_ts <= ? AND to_ts >= ?`,
		symbol, fromTS, toTS).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying range coverage: %w", err)
	}
	return n > 0, nil
}

// GetDailyClose returns the close of the candle matching the given
// calendar day, or errors.ErrDataNotFound.
func (s *SQLiteStore) GetDailyClose(ctx context.Context, symbol string, day time.Time) (float64, error) {
	start := dayStart(day)
	dayEnd := start.Add(24 * time.Hour)

	var close float64
	err := s.db.QueryRowContext(ctx, `
		SELECT close FROM candles
		WHERE symbol = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp DESC LIMIT 1`,
		symbol, start.Unix(), dayEnd.Unix()).Scan(&close)
	if err == sql.ErrNoRows {
		return 0, errors.ErrDataNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("querying daily close: %w", err)
	}
	return close, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// dayStart truncates a timestamp to its local calendar date.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
