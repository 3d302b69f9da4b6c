package feedback

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/verdictproj/vouch/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "feedback.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func report(id, language string, patterns []string, score float64, at time.Time) *models.VerificationReport {
	return &models.VerificationReport{
		ID: id,
		Requirements: models.Requirements{
			Language:    language,
			Patterns:    patterns,
			Description: "a widget",
		},
		Timestamp: at,
		Results: map[string]models.CheckResult{
			models.StageStatic: models.StaticResult{Valid: true, SyntaxOK: true},
		},
		Score:    score,
		Verified: score >= 0.85,
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		if err := s.Record(report(id, "vue", nil, 0.9, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "third" || entries[1].ID != "second" {
		t.Errorf("expected newest first, got %q then %q", entries[0].ID, entries[1].ID)
	}
	if !entries[0].Verified {
		t.Error("verdict should round-trip")
	}
}

func TestRecordIsIdempotentPerReport(t *testing.T) {
	s := openTestStore(t)
	at := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	r := report("same-id", "python", nil, 0.5, at)
	if err := s.Record(r); err != nil {
		t.Fatal(err)
	}
	r.Score = 0.9
	if err := s.Record(r); err != nil {
		t.Fatal(err)
	}

	entries, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("re-recording a report must replace, got %d entries", len(entries))
	}
	if entries[0].Score != 0.9 {
		t.Errorf("score = %v, want the replacement 0.9", entries[0].Score)
	}
}

func TestSimilarRanksByPatternOverlap(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	seed := []struct {
		id       string
		language string
		patterns []string
	}{
		{"two-overlap", "vue", []string{"v-model", "computed"}},
		{"one-overlap", "vue", []string{"v-model", "watch"}},
		{"no-overlap", "vue", []string{"slots"}},
		{"wrong-language", "python", []string{"v-model", "computed"}},
	}
	for i, sd := range seed {
		if err := s.Record(report(sd.id, sd.language, sd.patterns, 0.4, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	req := models.Requirements{
		Language:    "vue",
		Patterns:    []string{"v-model", "computed"},
		Description: "a form",
	}
	entries, err := s.Similar(req, 5)
	if err != nil {
		t.Fatalf("Similar failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 overlapping entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].ID != "two-overlap" {
		t.Errorf("best overlap should rank first, got %q", entries[0].ID)
	}
	if entries[1].ID != "one-overlap" {
		t.Errorf("partial overlap should rank second, got %q", entries[1].ID)
	}
}

func TestSimilarWithoutPatternsReturnsLanguageMatches(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	if err := s.Record(report("a", "go", []string{"context.Context"}, 0.9, base)); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(report("b", "go", nil, 0.3, base.Add(time.Minute))); err != nil {
		t.Fatal(err)
	}

	entries, err := s.Similar(models.Requirements{Language: "go", Description: "anything"}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("no required patterns means every language match qualifies, got %d", len(entries))
	}
}

func TestSummarizeProblems(t *testing.T) {
	r := report("r", "vue", nil, 0.4, time.Now().UTC())
	r.Results = map[string]models.CheckResult{
		models.StageStatic: models.StaticResult{
			Valid:           false,
			SyntaxOK:        true,
			MissingPatterns: []string{"v-model"},
			SecurityIssues:  []string{"eval usage"},
		},
		models.StageSpec: models.SpecResult{
			Score:   0.4,
			Missing: []string{"no loading state"},
		},
		models.StageRuntime: models.RuntimeResult{
			Passed: false,
			Cases: []models.TestCaseResult{
				{Name: "renders", Passed: true},
				{Name: "submits", Passed: false, Error: "exit 1"},
			},
		},
		models.StagePeer: models.ReviewResult{
			Issues: []string{"calls a nonexistent API"},
		},
	}

	problems := summarizeProblems(r)

	want := []string{
		"missing pattern: v-model",
		"security: eval usage",
		"unmet requirement: no loading state",
		"failed test: submits",
		"review: calls a nonexistent API",
	}
	for _, w := range want {
		found := false
		for _, p := range problems {
			if p == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected problem %q in %v", w, problems)
		}
	}
	for _, p := range problems {
		if p == "failed test: renders" {
			t.Error("passing cases must not appear in the digest")
		}
	}
}

func TestPatternOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want int
	}{
		{"disjoint", []string{"a"}, []string{"b"}, 0},
		{"case insensitive", []string{"V-Model"}, []string{"v-model"}, 1},
		{"partial", []string{"a", "b", "c"}, []string{"b", "c", "d"}, 2},
		{"empty", nil, []string{"a"}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := patternOverlap(tc.a, tc.b); got != tc.want {
				t.Errorf("patternOverlap = %d, want %d", got, tc.want)
			}
		})
	}
}
