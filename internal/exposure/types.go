// Package exposure owns the scan history, challenge and settings records and
// derives every statistic the presentation layer shows from them.
package exposure

// Category is the severity tier of a measured level.
type Category string

const (
	CategoryLow    Category = "low"
	CategoryMedium Category = "medium"
	CategoryHigh   Category = "high"
)

// Categories lists the tiers in ascending severity.
var Categories = []Category{CategoryLow, CategoryMedium, CategoryHigh}

// Tier ceilings in ppm. Each bound is inclusive on the lower tier.
const (
	LowCeiling    = 10.0
	MediumCeiling = 30.0
)

// Categorize maps a level in ppm to its severity tier.
func Categorize(level float64) Category {
	switch {
	case level <= LowCeiling:
		return CategoryLow
	case level <= MediumCeiling:
		return CategoryMedium
	default:
		return CategoryHigh
	}
}

// ScanRecord is one recorded measurement. Timestamp is epoch milliseconds.
type ScanRecord struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Level      float64  `json:"level"`
	Category   Category `json:"category"`
	Timestamp  int64    `json:"timestamp"`
	Location   string   `json:"location"`
	Confidence int      `json:"confidence"`
	Notes      string   `json:"notes"`
}

// ChallengeKind selects how a challenge's progress is derived.
type ChallengeKind string

const (
	// KindDaily progress is advanced outside the manager.
	KindDaily ChallengeKind = "daily"
	// KindScanCount tracks the total number of scans against a target.
	KindScanCount ChallengeKind = "scan_count"
	// KindAverageLevel tracks the mean level against a ceiling.
	KindAverageLevel ChallengeKind = "average_level"
)

type ChallengeStatus string

const (
	StatusActive    ChallengeStatus = "active"
	StatusCompleted ChallengeStatus = "completed"
)

// Challenge is a goal tied to scan history. StartDate and EndDate are epoch
// milliseconds, zero when unset.
type Challenge struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Goal        float64         `json:"goal"`
	Progress    float64         `json:"progress"`
	Kind        ChallengeKind   `json:"type"`
	Status      ChallengeStatus `json:"status"`
	StartDate   int64           `json:"startDate,omitempty"`
	EndDate     int64           `json:"endDate,omitempty"`
	Reward      string          `json:"reward,omitempty"`
}

// Settings holds the user's display and notification preferences.
type Settings struct {
	Notifications bool   `json:"notifications"`
	DarkMode      bool   `json:"darkMode"`
	DataSharing   bool   `json:"dataSharing"`
	Units         string `json:"units" validate:"oneof=ppm ppb"`
	ScanReminders bool   `json:"scanReminders"`
	WeeklyReports bool   `json:"weeklyReports"`
}

// ScanInput is a scan submission. Empty strings and a nil Confidence are
// filled with defaults; an empty Level is drawn from the manager's sampler.
type ScanInput struct {
	Name       string `validate:"max=200"`
	Type       string `validate:"max=100"`
	Level      string
	Location   string `validate:"max=200"`
	Notes      string `validate:"max=2000"`
	Confidence *int   `validate:"omitempty,min=0,max=100"`
}

// Defaults for omitted ScanInput fields.
const (
	DefaultScanName     = "Unknown Item"
	DefaultScanType     = "unknown"
	DefaultScanLocation = "Unknown"
	DefaultRecentLimit  = 5
)
