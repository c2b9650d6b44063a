// Package archive keeps every completed run in a SQLite database, next to
// the per-run results files.
package archive

import (
	"database/sql"
	"fmt"
	"time"

	"changeblind/internal/grid"
	"changeblind/internal/trial"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	started_at    TEXT NOT NULL,
	seed          INTEGER NOT NULL,
	build         TEXT NOT NULL,
	results_path  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trials (
	session_id    TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	delay_ms      INTEGER NOT NULL,
	success       INTEGER NOT NULL,
	latency_ms    INTEGER NOT NULL,
	response      INTEGER NOT NULL,
	mut_row       INTEGER NOT NULL,
	mut_col       INTEGER NOT NULL,
	mut_category  INTEGER NOT NULL,
	sel_row       INTEGER,
	sel_col       INTEGER,
	PRIMARY KEY (session_id, seq),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
`

// Session describes one archived run.
type Session struct {
	ID          string
	StartedAt   time.Time
	Seed        uint64
	Build       string
	ResultsPath string
	// Trials and Successes are filled in by Sessions.
	Trials    int
	Successes int
}

// Store is a SQLite run archive.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a run and its trials in run order, returning the new session ID.
func (s *Store) Save(sess Session, trials []trial.Result) (string, error) {
	id := uuid.New().String()
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (session_id, started_at, seed, build, results_path)
		 VALUES (?, ?, ?, ?, ?)`,
		id, sess.StartedAt.UTC().Format(time.RFC3339Nano), int64(sess.Seed), sess.Build, sess.ResultsPath,
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO trials (session_id, seq, delay_ms, success, latency_ms, response,
		                     mut_row, mut_col, mut_category, sel_row, sel_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", fmt.Errorf("prepare trial insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range trials {
		var selRow, selCol sql.NullInt64
		if r.HasSelection {
			selRow = sql.NullInt64{Int64: int64(r.Selected.Row), Valid: true}
			selCol = sql.NullInt64{Int64: int64(r.Selected.Col), Valid: true}
		}
		_, err := stmt.Exec(id, i, r.Delay, btoi(r.Success), r.Latency, int(r.Response),
			r.Mutation.Row, r.Mutation.Col, r.Mutation.Category, selRow, selCol)
		if err != nil {
			return "", fmt.Errorf("insert trial %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Sessions lists archived runs, oldest first.
func (s *Store) Sessions() ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT s.session_id, s.started_at, s.seed, s.build, s.results_path,
		        COUNT(t.seq), COALESCE(SUM(t.success), 0)
		 FROM sessions s LEFT JOIN trials t ON t.session_id = s.session_id
		 GROUP BY s.session_id
		 ORDER BY s.started_at, s.session_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess    Session
			started string
			seed    int64
		)
		if err := rows.Scan(&sess.ID, &started, &seed, &sess.Build, &sess.ResultsPath,
			&sess.Trials, &sess.Successes); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		sess.Seed = uint64(seed)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Trials returns the trials of session id in run order.
func (s *Store) Trials(id string) ([]trial.Result, error) {
	rows, err := s.db.Query(
		`SELECT delay_ms, success, latency_ms, response, mut_row, mut_col, mut_category, sel_row, sel_col
		 FROM trials WHERE session_id = ? ORDER BY seq`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}
	defer rows.Close()

	var out []trial.Result
	for rows.Next() {
		var (
			r              trial.Result
			success, resp  int
			selRow, selCol sql.NullInt64
		)
		if err := rows.Scan(&r.Delay, &success, &r.Latency, &resp,
			&r.Mutation.Row, &r.Mutation.Col, &r.Mutation.Category, &selRow, &selCol); err != nil {
			return nil, fmt.Errorf("scan trial: %w", err)
		}
		r.Success = success == 1
		r.Response = trial.ResponseKind(resp)
		if selRow.Valid && selCol.Valid {
			r.Selected = grid.Cell{Row: int(selRow.Int64), Col: int(selCol.Int64)}
			r.HasSelection = true
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
