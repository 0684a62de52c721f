package scenario

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	pass_id     TEXT PRIMARY KEY,
	scenario    TEXT NOT NULL,
	signature   TEXT NOT NULL,
	errors      INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_scenario ON runs (scenario, recorded_at);
`

// Recorder keeps the history of scenario runs in a SQLite database so
// changes in deduced signatures can be tracked between versions.
type Recorder struct {
	db  *sql.DB
	now func() time.Time
}

// Record is one stored run.
type Record struct {
	PassID     string
	Scenario   string
	Signature  string
	Errors     int
	Passed     bool
	RecordedAt time.Time
}

// OpenRecorder opens (creating if needed) the history database at path.
func OpenRecorder(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing %s: %w", path, err)
	}
	return &Recorder{db: db, now: time.Now}, nil
}

// Record stores a result under its scenario key.
func (r *Recorder) Record(ctx context.Context, res *Result) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (pass_id, scenario, signature, errors, passed, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		res.PassID.String(), res.Scenario.Key(), res.Signature.String(), len(res.Errors), res.Passed(),
		r.now().UnixNano())
	if err != nil {
		return fmt.Errorf("recording %s: %w", res.Scenario.ID(), err)
	}
	return nil
}

// History returns the stored runs of the scenario with the given key,
// oldest first.
func (r *Recorder) History(ctx context.Context, scenario string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT pass_id, scenario, signature, errors, passed, recorded_at FROM runs WHERE scenario = ? ORDER BY recorded_at, rowid`,
		scenario)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var at int64
		if err := rows.Scan(&rec.PassID, &rec.Scenario, &rec.Signature, &rec.Errors, &rec.Passed, &at); err != nil {
			return nil, err
		}
		rec.RecordedAt = time.Unix(0, at).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Changed reports whether the latest stored signature of the scenario
// differs from sig. A scenario without history has not changed.
func (r *Recorder) Changed(ctx context.Context, scenario, sig string) (bool, error) {
	var last string
	err := r.db.QueryRowContext(ctx,
		`SELECT signature FROM runs WHERE scenario = ? ORDER BY recorded_at DESC, rowid DESC LIMIT 1`,
		scenario).Scan(&last)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return last != sig, nil
}

// Close closes the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
