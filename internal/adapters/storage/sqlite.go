package storage

// sqlite.go: journal de auditoría de cada ejecución.
//
// Estrategia:
//   - `runs`: una fila por ejecución (uuid, variante, inicio, fin).
//   - `ticks`: una fila por tick con snapshot, quotes, permisos y acciones.
//   - El journal es write-only para el engine: nunca se lee para restaurar
//     estado entre reinicios. Summary solo agrega la ejecución actual.
//   - Prune automático al arrancar: runs (y sus ticks) > 30d.

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/ritmaker/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id      TEXT PRIMARY KEY,
    variant     TEXT     NOT NULL,
    started_at  DATETIME NOT NULL,
    finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS ticks (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT     NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    tick        INTEGER  NOT NULL,
    at          DATETIME NOT NULL,
    ticker      TEXT     NOT NULL DEFAULT '',
    phase       TEXT     NOT NULL DEFAULT '',
    skip_reason TEXT     NOT NULL DEFAULT '',
    best_bid    REAL     NOT NULL DEFAULT 0,
    best_ask    REAL     NOT NULL DEFAULT 0,
    position    INTEGER  NOT NULL DEFAULT 0,
    gross       INTEGER  NOT NULL DEFAULT 0,
    net         INTEGER  NOT NULL DEFAULT 0,
    bid         REAL     NOT NULL DEFAULT 0,
    ask         REAL     NOT NULL DEFAULT 0,
    bid_qty     INTEGER  NOT NULL DEFAULT 0,
    ask_qty     INTEGER  NOT NULL DEFAULT 0,
    allow_buy   INTEGER  NOT NULL DEFAULT 0,
    allow_sell  INTEGER  NOT NULL DEFAULT 0,
    filled      INTEGER  NOT NULL DEFAULT 0,
    placed      INTEGER  NOT NULL DEFAULT 0,
    cancelled   INTEGER  NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_ticks_run  ON ticks(run_id, tick);
CREATE INDEX IF NOT EXISTS idx_runs_start ON runs(started_at DESC);
`

const retentionRuns = 30 * 24 * time.Hour

// SQLiteJournal implementa ports.Journal usando SQLite (pure Go, sin CGo).
type SQLiteJournal struct {
	db        *sql.DB
	runID     string
	variant   string
	startedAt time.Time
	mu        sync.Mutex
}

// NewSQLiteJournal abre (o crea) la base de datos en la ruta dada, aplica el
// schema, limpia ejecuciones antiguas y registra una ejecución nueva.
func NewSQLiteJournal(path, variant string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}

	j := &SQLiteJournal{
		db:        db,
		runID:     uuid.NewString(),
		variant:   variant,
		startedAt: time.Now().UTC(),
	}
	j.pruneOld(context.Background())

	if _, err := db.Exec(
		`INSERT INTO runs (run_id, variant, started_at) VALUES (?, ?, ?)`,
		j.runID, j.variant, j.startedAt,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: insert run: %w", err)
	}
	return j, nil
}

// RunID identifica la ejecución actual.
func (j *SQLiteJournal) RunID() string {
	return j.runID
}

// RecordTick guarda el resumen de un tick.
func (j *SQLiteJournal) RecordTick(ctx context.Context, r domain.TickReport) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	at := r.At
	if at.IsZero() {
		at = time.Now()
	}
	if _, err := j.db.ExecContext(ctx, `
		INSERT INTO ticks
			(run_id, tick, at, ticker, phase, skip_reason, best_bid, best_ask,
			 position, gross, net, bid, ask, bid_qty, ask_qty,
			 allow_buy, allow_sell, filled, placed, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID, r.Tick, at.UTC(), r.Ticker, r.Phase.String(), string(r.Skip),
		r.BestBid, r.BestAsk, r.Position, r.Gross, r.Net,
		r.Bid, r.Ask, r.BidQty, r.AskQty,
		boolToInt(r.AllowBuy), boolToInt(r.AllowSell), boolToInt(r.Filled),
		r.Placed, r.Cancelled,
	); err != nil {
		return fmt.Errorf("storage.RecordTick: insert tick %d: %w", r.Tick, err)
	}
	return nil
}

// Summary agrega los ticks de la ejecución actual.
func (j *SQLiteJournal) Summary(ctx context.Context) (domain.RunSummary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	sum := domain.RunSummary{
		RunID:         j.runID,
		Variant:       j.variant,
		StartedAt:     j.startedAt,
		FinalPosition: make(map[string]int),
		SkipsByReason: make(map[domain.SkipReason]int),
	}

	if err := j.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN skip_reason = '' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(filled), 0),
		       COALESCE(SUM(placed), 0),
		       COALESCE(SUM(cancelled), 0)
		FROM ticks WHERE run_id = ?`, j.runID,
	).Scan(&sum.Ticks, &sum.QuotedTicks, &sum.FillTicks, &sum.Placed, &sum.Cancelled); err != nil {
		return sum, fmt.Errorf("storage.Summary: totals: %w", err)
	}
	sum.SkippedTicks = sum.Ticks - sum.QuotedTicks

	rows, err := j.db.QueryContext(ctx, `
		SELECT skip_reason, COUNT(*) FROM ticks
		WHERE run_id = ? AND skip_reason != ''
		GROUP BY skip_reason`, j.runID)
	if err != nil {
		return sum, fmt.Errorf("storage.Summary: skips: %w", err)
	}
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			rows.Close()
			return sum, fmt.Errorf("storage.Summary: scan skip: %w", err)
		}
		sum.SkipsByReason[domain.SkipReason(reason)] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return sum, fmt.Errorf("storage.Summary: skips: %w", err)
	}

	// Última posición observada por ticker.
	rows, err = j.db.QueryContext(ctx, `
		SELECT t.ticker, t.position FROM ticks t
		JOIN (SELECT ticker, MAX(id) AS id FROM ticks
		      WHERE run_id = ? AND ticker != '' GROUP BY ticker) last
		  ON t.id = last.id`, j.runID)
	if err != nil {
		return sum, fmt.Errorf("storage.Summary: positions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ticker string
		var pos int
		if err := rows.Scan(&ticker, &pos); err != nil {
			return sum, fmt.Errorf("storage.Summary: scan position: %w", err)
		}
		sum.FinalPosition[ticker] = pos
	}
	return sum, rows.Err()
}

// Close marca el fin de la ejecución y cierra la base de datos.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.db.Exec(`UPDATE runs SET finished_at = ? WHERE run_id = ?`, time.Now().UTC(), j.runID)
	return j.db.Close()
}

// pruneOld elimina ejecuciones antiguas para mantener la DB ligera.
func (j *SQLiteJournal) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)
	j.db.ExecContext(ctx, `DELETE FROM ticks WHERE run_id IN (SELECT run_id FROM runs WHERE started_at < ?)`, cutoff)
	j.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
