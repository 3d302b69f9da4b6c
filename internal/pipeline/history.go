package pipeline

import (
	"sync"

	"github.com/verdictproj/vouch/pkg/models"
)

// History is a bounded, in-memory record of past verification reports,
// newest last. It is safe for concurrent use.
type History struct {
	mu      sync.Mutex
	limit   int
	reports []*models.VerificationReport
}

// NewHistory creates a history holding at most limit reports. A non-positive
// limit defaults to 100.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 100
	}
	return &History{limit: limit}
}

// Append records a report, evicting the oldest entry when full.
func (h *History) Append(report *models.VerificationReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reports = append(h.reports, report)
	if len(h.reports) > h.limit {
		h.reports = h.reports[len(h.reports)-h.limit:]
	}
}

// Recent returns up to n reports, newest first. n <= 0 returns everything.
func (h *History) Recent(n int) []*models.VerificationReport {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 || n > len(h.reports) {
		n = len(h.reports)
	}
	out := make([]*models.VerificationReport, 0, n)
	for i := len(h.reports) - 1; i >= len(h.reports)-n; i-- {
		out = append(out, h.reports[i])
	}
	return out
}

// Len reports the number of stored reports.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.reports)
}
