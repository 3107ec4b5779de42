// Package journal provides a SQLite-backed audit log of delivered alerts.
//
// The journal is observability, not pipeline state: dedup decisions never
// read it, and a journal failure must never block a delivery.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/arbscan/arbscan/internal/models"
)

// Journal wraps a SQLite database recording one row per delivered alert.
type Journal struct {
	db      *sql.DB
	maxRows int
}

// Open opens or creates the journal database at dbPath. An empty dbPath
// defaults to $TMPDIR/arbscan/journal.db. maxRows bounds the table; older
// rows are dropped by Rotate.
func Open(dbPath string, maxRows int) (*Journal, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "arbscan", "journal.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	j := &Journal{db: db, maxRows: maxRows}
	if err := j.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS deliveries (
			id             TEXT PRIMARY KEY,
			opportunity_id TEXT NOT NULL,
			channel        TEXT NOT NULL,
			sport          TEXT,
			edge           TEXT,
			sent_at        INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_sent_at ON deliveries(sent_at)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_opportunity ON deliveries(opportunity_id)`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts one delivery row and evicts the oldest rows beyond the
// maxRows cap. A blank row ID is assigned a fresh UUID.
func (j *Journal) Record(d models.Delivery) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.SentAt.IsZero() {
		d.SentAt = time.Now()
	}
	_, err := j.db.Exec(`
		INSERT INTO deliveries (id, opportunity_id, channel, sport, edge, sent_at)
		VALUES (?,?,?,?,?,?)`,
		d.ID, d.OpportunityID, d.Channel, d.Sport, d.Edge, d.SentAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert delivery: %w", err)
	}
	return j.rotate()
}

// CountSince returns the number of deliveries recorded at or after t.
func (j *Journal) CountSince(t time.Time) (int, error) {
	var n int
	err := j.db.QueryRow(
		`SELECT COUNT(*) FROM deliveries WHERE sent_at >= ?`, t.UnixNano(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count deliveries: %w", err)
	}
	return n, nil
}

// Recent returns up to limit deliveries, newest first.
func (j *Journal) Recent(limit int) ([]models.Delivery, error) {
	rows, err := j.db.Query(`
		SELECT id, opportunity_id, channel, sport, edge, sent_at
		FROM deliveries ORDER BY sent_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	var out []models.Delivery
	for rows.Next() {
		var d models.Delivery
		var sentAtNano int64
		if err := rows.Scan(&d.ID, &d.OpportunityID, &d.Channel, &d.Sport, &d.Edge, &sentAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		d.SentAt = time.Unix(0, sentAtNano)
		out = append(out, d)
	}
	return out, rows.Err()
}

// rotate keeps at most maxRows newest deliveries.
func (j *Journal) rotate() error {
	if j.maxRows <= 0 {
		return nil
	}
	_, err := j.db.Exec(`
		DELETE FROM deliveries WHERE id NOT IN (
			SELECT id FROM deliveries ORDER BY sent_at DESC LIMIT ?
		)`, j.maxRows)
	if err != nil {
		return fmt.Errorf("failed to rotate deliveries: %w", err)
	}
	return nil
}
