// Package journal persists the bootstrap's stage transitions to a local
// SQLite file so a non-ready remote-viewing stack can be diagnosed after
// the bootstrap has exec'd away. Journaling is optional; a nil *Journal
// is a valid no-op receiver.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type Journal struct {
	db *sql.DB
}

// Entry is one recorded stage transition.
type Entry struct {
	At     time.Time `json:"at"`
	Stage  string    `json:"stage"`
	State  string    `json:"state"`
	Detail string    `json:"detail,omitempty"`
}

// Open opens (creating if needed) the journal database.
// DSN format:
//   - "/var/log/deskboot/boot.db"
//   - "sqlite:///var/log/deskboot/boot.db"
//   - ":memory:" (tests)
func Open(dsn string) (*Journal, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty journal DSN")
	}
	if strings.HasPrefix(strings.ToLower(dsn), "sqlite://") {
		dsn = strings.TrimPrefix(dsn, "sqlite://")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	j := &Journal{db: db}
	if err := j.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) ensureSchema(ctx context.Context) error {
	// Append-only audit table, one row per transition.
	stmt := `CREATE TABLE IF NOT EXISTS boot_journal(
		timestamp TIMESTAMP NOT NULL DEFAULT (CURRENT_TIMESTAMP),
		stage TEXT NOT NULL,
		state TEXT NOT NULL,
		detail TEXT
	);`
	_, err := j.db.ExecContext(ctx, stmt)
	return err
}

// Record appends one transition. Errors are returned for the caller to
// log; journal failures never interrupt the bootstrap.
func (j *Journal) Record(ctx context.Context, stage, state, detail string) error {
	if j == nil {
		return nil
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO boot_journal(timestamp, stage, state, detail)
		VALUES(?, ?, ?, ?);`,
		time.Now().UTC(), stage, state, detail)
	return err
}

// Entries returns all recorded transitions in insertion order.
func (j *Journal) Entries(ctx context.Context) ([]Entry, error) {
	if j == nil {
		return nil, nil
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT timestamp, stage, state, COALESCE(detail, '') FROM boot_journal ORDER BY rowid;`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.At, &e.Stage, &e.State, &e.Detail); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}
