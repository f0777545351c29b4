// Package history records audit reports in a local SQLite database so
// repeated audits of a skill can be compared over time.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/garagon/skillaudit/internal/types"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for an unknown audit id.
var ErrNotFound = errors.New("audit not found")

const schema = `
CREATE TABLE IF NOT EXISTS audits (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT UNIQUE NOT NULL,
	skill_path     TEXT NOT NULL,
	source         TEXT NOT NULL DEFAULT '',
	numeric_score  INTEGER NOT NULL,
	risk_level     TEXT NOT NULL,
	risk_score     TEXT NOT NULL,
	total_findings INTEGER NOT NULL,
	reduction      INTEGER NOT NULL DEFAULT 0,
	report         TEXT NOT NULL,
	created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audits_path ON audits(skill_path);
`

// Entry is the summary row of one recorded audit.
type Entry struct {
	ID            string          `json:"id"`
	SkillPath     string          `json:"skill_path"`
	Source        string          `json:"source,omitempty"`
	NumericScore  int             `json:"numeric_score"`
	RiskLevel     types.RiskLevel `json:"risk_level"`
	RiskScore     string          `json:"risk_score"`
	TotalFindings int             `json:"total_findings"`
	Reduction     int             `json:"whitelist_reduction"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Store is an open history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying history schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores report. source names where the skill came from, such as
// "slug:weather"; it may be empty for local paths.
func (s *Store) Record(ctx context.Context, report *types.Report, source string) (Entry, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return Entry{}, fmt.Errorf("encoding report: %w", err)
	}
	e := Entry{
		ID:            uuid.NewString(),
		SkillPath:     report.SkillPath,
		Source:        source,
		NumericScore:  report.NumericScore,
		RiskLevel:     report.RiskLevel,
		RiskScore:     report.RiskScore.String(),
		TotalFindings: report.TotalFindings,
		Reduction:     report.WhitelistReduction,
		CreatedAt:     s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audits (id, skill_path, source, numeric_score, risk_level, risk_score, total_findings, reduction, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SkillPath, e.Source, e.NumericScore, string(e.RiskLevel), e.RiskScore,
		e.TotalFindings, e.Reduction, string(body), e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Entry{}, fmt.Errorf("recording audit: %w", err)
	}
	return e, nil
}

// List returns up to limit entries, newest first. A non-empty path
// restricts the list to audits of that skill path.
func (s *Store) List(ctx context.Context, path string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, skill_path, source, numeric_score, risk_level, risk_score, total_findings, reduction, created_at
		FROM audits`
	args := []any{}
	if path != "" {
		query += ` WHERE skill_path = ?`
		args = append(args, path)
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audits: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the stored report for id.
func (s *Store) Get(ctx context.Context, id string) (Entry, *types.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, skill_path, source, numeric_score, risk_level, risk_score, total_findings, reduction, created_at, report
		FROM audits WHERE id = ?`, id)

	var (
		e       Entry
		level   string
		created string
		body    string
	)
	err := row.Scan(&e.ID, &e.SkillPath, &e.Source, &e.NumericScore, &level, &e.RiskScore,
		&e.TotalFindings, &e.Reduction, &created, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, nil, fmt.Errorf("reading audit %s: %w", id, err)
	}
	e.RiskLevel = types.RiskLevel(level)
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Entry{}, nil, fmt.Errorf("reading audit %s: %w", id, err)
	}

	var report types.Report
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return Entry{}, nil, fmt.Errorf("decoding audit %s: %w", id, err)
	}
	return e, &report, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e       Entry
		level   string
		created string
	)
	if err := rows.Scan(&e.ID, &e.SkillPath, &e.Source, &e.NumericScore, &level, &e.RiskScore,
		&e.TotalFindings, &e.Reduction, &created); err != nil {
		return Entry{}, fmt.Errorf("scanning audit row: %w", err)
	}
	e.RiskLevel = types.RiskLevel(level)
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing audit time: %w", err)
	}
	e.CreatedAt = t
	return e, nil
}
