package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS hedge_runs (
			id             TEXT PRIMARY KEY,
			timestamp      INTEGER NOT NULL,
			source         TEXT,
			spot_symbol    TEXT NOT NULL,
			futures_symbol TEXT NOT NULL,
			start_date     TEXT,
			end_date       TEXT,
			observations   INTEGER,
			correlation    REAL,
			sigma_spot     REAL,
			sigma_futures  REAL,
			hedge_ratio    REAL,
			contracts      REAL,
			error          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON hedge_runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_pair ON hedge_runs(spot_symbol, futures_symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

const dateLayout = "2006-01-02"

// RecordRun inserts run, filling ID and RecordedAt when empty.
func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.RecordedAt.IsZero() {
		run.RecordedAt = time.Now()
	}

	var contracts sql.NullFloat64
	if run.Contracts != nil {
		contracts = sql.NullFloat64{Float64: *run.Contracts, Valid: true}
	}

	_, err := r.db.Exec(`INSERT INTO hedge_runs
		(id, timestamp, source, spot_symbol, futures_symbol, start_date, end_date,
		 observations, correlation, sigma_spot, sigma_futures, hedge_ratio, contracts, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.RecordedAt.UnixMilli(), run.Source, run.SpotSymbol, run.FuturesSymbol,
		run.Start.Format(dateLayout), run.End.Format(dateLayout),
		run.Observations, run.Correlation, run.SigmaSpot, run.SigmaFutures, run.HedgeRatio,
		contracts, run.Error,
	)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, timestamp, source, spot_symbol, futures_symbol, start_date, end_date,
		observations, correlation, sigma_spot, sigma_futures, hedge_ratio, contracts, error
		FROM hedge_runs ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			run        RunRecord
			ts         int64
			start, end string
			contracts  sql.NullFloat64
		)
		if err := rows.Scan(&run.ID, &ts, &run.Source, &run.SpotSymbol, &run.FuturesSymbol, &start, &end,
			&run.Observations, &run.Correlation, &run.SigmaSpot, &run.SigmaFutures, &run.HedgeRatio,
			&contracts, &run.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.RecordedAt = time.UnixMilli(ts)
		run.Start, _ = time.Parse(dateLayout, start)
		run.End, _ = time.Parse(dateLayout, end)
		if contracts.Valid {
			v := contracts.Float64
			run.Contracts = &v
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
