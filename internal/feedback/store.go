// Package feedback provides SQLite-backed persistence for verification
// outcomes so future runs can learn from prior failures on similar
// requirements.
package feedback

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/verdictproj/vouch/pkg/models"
)

// Entry is one recorded verification outcome.
type Entry struct {
	// ID is the verification report ID.
	ID string
	// Language is the requirements language tag.
	Language string
	// Patterns is the required-pattern list from the requirements.
	Patterns []string
	// Description is the requirement text.
	Description string
	// Score is the aggregate verification score.
	Score float64
	// Verified is the final pass/fail verdict.
	Verified bool
	// Problems summarizes what went wrong, empty on a clean pass.
	Problems []string
	// CreatedAt is when the entry was recorded.
	CreatedAt time.Time
}

// Store persists verification outcomes in an SQLite database.
type Store struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens the feedback store at the given path, creating parent
// directories and the schema as needed. WAL mode is enabled for concurrent
// reads.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the path to the database file.
func (s *Store) Path() string {
	return s.path
}

const schemaFeedback = `
CREATE TABLE IF NOT EXISTS feedback (
	id TEXT PRIMARY KEY,
	language TEXT NOT NULL,
	patterns TEXT NOT NULL DEFAULT '[]',
	description TEXT NOT NULL,
	score REAL NOT NULL,
	verified INTEGER NOT NULL,
	problems TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_language ON feedback(language);
CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at);
`

func (s *Store) migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.conn.Exec(schemaFeedback); err != nil {
		return fmt.Errorf("create feedback schema: %w", err)
	}
	return nil
}

// Record stores the outcome of one verification report.
func (s *Store) Record(report *models.VerificationReport) error {
	entry := Entry{
		ID:          report.ID,
		Language:    report.Requirements.Language,
		Patterns:    report.Requirements.Patterns,
		Description: report.Requirements.Description,
		Score:       report.Score,
		Verified:    report.Verified,
		Problems:    summarizeProblems(report),
		CreatedAt:   report.Timestamp,
	}

	patterns, err := json.Marshal(entry.Patterns)
	if err != nil {
		return fmt.Errorf("encode patterns: %w", err)
	}
	problems, err := json.Marshal(entry.Problems)
	if err != nil {
		return fmt.Errorf("encode problems: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.conn.Exec(`
		INSERT OR REPLACE INTO feedback
			(id, language, patterns, description, score, verified, problems, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Language, string(patterns), entry.Description,
		entry.Score, boolToInt(entry.Verified), string(problems),
		entry.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	return nil
}

// Similar returns up to limit prior entries for the same language, ranked by
// required-pattern overlap with the given requirements. Entries with no
// overlap are excluded unless the requirements carry no patterns.
func (s *Store) Similar(req models.Requirements, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 5
	}

	entries, err := s.byLanguage(req.Language)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		entry   Entry
		overlap int
	}
	var candidates []ranked
	for _, e := range entries {
		overlap := patternOverlap(req.Patterns, e.Patterns)
		if overlap == 0 && len(req.Patterns) > 0 {
			continue
		}
		candidates = append(candidates, ranked{entry: e, overlap: overlap})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].overlap != candidates[j].overlap {
			return candidates[i].overlap > candidates[j].overlap
		}
		return candidates[i].entry.CreatedAt.After(candidates[j].entry.CreatedAt)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]Entry, len(candidates))
	for i, c := range candidates {
		out[i] = c.entry
	}
	return out, nil
}

// Recent returns up to limit entries, newest first, across all languages.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.conn.Query(`
		SELECT id, language, patterns, description, score, verified, problems, created_at
		FROM feedback ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent feedback: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (s *Store) byLanguage(language string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.conn.Query(`
		SELECT id, language, patterns, description, score, verified, problems, created_at
		FROM feedback WHERE language = ? ORDER BY created_at DESC
	`, language)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var patterns, problems, createdAt string
		var verified int
		if err := rows.Scan(&e.ID, &e.Language, &patterns, &e.Description,
			&e.Score, &verified, &problems, &createdAt); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		if err := json.Unmarshal([]byte(patterns), &e.Patterns); err != nil {
			return nil, fmt.Errorf("decode patterns: %w", err)
		}
		if err := json.Unmarshal([]byte(problems), &e.Problems); err != nil {
			return nil, fmt.Errorf("decode problems: %w", err)
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		e.CreatedAt = t
		e.Verified = verified != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// summarizeProblems flattens a report's failures into short strings.
func summarizeProblems(report *models.VerificationReport) []string {
	var problems []string

	static := report.Static()
	if !static.Valid {
		if msg := static.Error(); msg != "" {
			problems = append(problems, "static: "+msg)
		}
		for _, p := range static.MissingPatterns {
			problems = append(problems, "missing pattern: "+p)
		}
		problems = append(problems, prefixAll("security: ", static.SecurityIssues)...)
	}
	problems = append(problems, prefixAll("unmet requirement: ", report.Spec().Missing)...)
	if runtime, ok := report.Runtime(); ok {
		for _, tc := range runtime.FailedCases() {
			problems = append(problems, "failed test: "+tc.Name)
		}
	}
	problems = append(problems, prefixAll("review: ", report.Peer().Issues)...)
	return problems
}

func prefixAll(prefix string, items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, prefix+item)
	}
	return out
}

// patternOverlap counts case-insensitive matches between two pattern lists.
func patternOverlap(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, p := range a {
		set[strings.ToLower(p)] = struct{}{}
	}
	overlap := 0
	for _, p := range b {
		if _, ok := set[strings.ToLower(p)]; ok {
			overlap++
		}
	}
	return overlap
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
