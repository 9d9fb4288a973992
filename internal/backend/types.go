package backend

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned when the backend cannot be reached at all.
var ErrUnavailable = errors.New("backend unavailable")

// ErrMalformedReport is returned by ParseReport when no level can be found.
var ErrMalformedReport = errors.New("malformed analysis report")

// APIError is a non-2xx response from the backend.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Health is the /api/health payload.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Model   string `json:"model,omitempty"`
}

// Analysis is the /api/analyze payload. Parsed is filled client-side from
// Report.
type Analysis struct {
	ID       int64  `json:"id,omitempty"`
	Filename string `json:"filename,omitempty"`
	Report   string `json:"report"`
	Parsed   Report `json:"-"`
}

// ReportSummary is one row of the paginated report list.
type ReportSummary struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Level     float64   `json:"level"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportPage is the /api/reports payload.
type ReportPage struct {
	Reports []ReportSummary `json:"reports"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
	Total   int             `json:"total"`
}

// Pages returns the number of pages implied by Total and PerPage.
func (p ReportPage) Pages() int {
	if p.PerPage <= 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// Statistics is the /api/statistics payload.
type Statistics struct {
	TotalScans     int            `json:"total_scans"`
	AverageLevel   float64        `json:"average_level"`
	Categories     map[string]int `json:"categories"`
	WeeklyAverages []float64      `json:"weekly_averages"`
}
