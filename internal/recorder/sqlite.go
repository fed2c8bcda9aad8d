package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"TrendLens/internal/model"
)

// SQLiteRecorder persists analysis snapshots to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_snapshots (
			id                TEXT PRIMARY KEY,
			symbol            TEXT NOT NULL,
			source            TEXT,
			bar_time          INTEGER NOT NULL,
			computed_at       INTEGER NOT NULL,
			close             REAL,
			rsi               REAL,
			rsi_state         TEXT,
			macd              REAL,
			macd_signal       REAL,
			macd_state        TEXT,
			band_position     REAL,
			band_state        TEXT,
			support           REAL,
			resistance        REAL,
			above_ma50        INTEGER,
			ma20_above_ma50   INTEGER,
			ma50_above_ma200  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_ts ON signal_snapshots(symbol, computed_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps NaN to SQL NULL so undefined values survive a round trip.
func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func (r *SQLiteRecorder) RecordSnapshot(ctx context.Context, a *model.Analysis) error {
	s := NewSnapshot(a)

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO signal_snapshots
		(id, symbol, source, bar_time, computed_at,
		 close, rsi, rsi_state, macd, macd_signal, macd_state,
		 band_position, band_state, support, resistance,
		 above_ma50, ma20_above_ma50, ma50_above_ma200)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.ID, s.Symbol, s.Source, s.BarTime.Unix(), s.ComputedAt.UnixMilli(),
		nullable(s.Close), nullable(s.RSI), string(s.RSIState),
		nullable(s.MACD), nullable(s.MACDSignal), string(s.MACDState),
		nullable(s.BandPosition), string(s.BandState),
		nullable(s.Support), nullable(s.Resistance),
		s.AboveMA50, s.MA20AboveMA50, s.MA50AboveMA200,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", s.Symbol, err)
	}
	return nil
}

func (r *SQLiteRecorder) Recent(ctx context.Context, symbol string, limit int) ([]Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, symbol, source, bar_time, computed_at,
		close, rsi, rsi_state, macd, macd_signal, macd_state,
		band_position, band_state, support, resistance,
		above_ma50, ma20_above_ma50, ma50_above_ma200
		FROM signal_snapshots WHERE symbol = ?
		ORDER BY computed_at DESC, rowid DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			s                                   Snapshot
			barTime, computedAt                 int64
			closeV, rsi, macd, macdSig, bandPos sql.NullFloat64
			support, resistance                 sql.NullFloat64
			rsiState, macdState, bandState      string
			source                              sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Symbol, &source, &barTime, &computedAt,
			&closeV, &rsi, &rsiState, &macd, &macdSig, &macdState,
			&bandPos, &bandState, &support, &resistance,
			&s.AboveMA50, &s.MA20AboveMA50, &s.MA50AboveMA200); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.Source = source.String
		s.BarTime = time.Unix(barTime, 0).UTC()
		s.ComputedAt = time.UnixMilli(computedAt).UTC()
		s.Close, s.RSI, s.MACD, s.MACDSignal = orNaN(closeV), orNaN(rsi), orNaN(macd), orNaN(macdSig)
		s.BandPosition, s.Support, s.Resistance = orNaN(bandPos), orNaN(support), orNaN(resistance)
		s.RSIState = model.RSIState(rsiState)
		s.MACDState = model.MACDState(macdState)
		s.BandState = model.BandState(bandState)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
