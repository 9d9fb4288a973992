package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging on stderr"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// StatusCommand shows the dashboard: totals, categories, weekday chart,
// recent activity and the personalized insight.
type StatusCommand struct {
	Live    bool `long:"live" description:"Prefer backend statistics, falling back to local data"`
	Metrics bool `long:"metrics" description:"Also print Prometheus metrics for this run"`

	globals *GlobalFlags
	version string
}

// ScanCommand records a new scan, entered manually or analyzed from an image.
type ScanCommand struct {
	Name       string `long:"name" description:"Item name" default:""`
	Type       string `long:"type" description:"Item type tag (e.g. food_packaging)"`
	Level      string `long:"level" description:"Measured level in ppm; omitted means generated"`
	Location   string `long:"location" description:"Where the item was scanned"`
	Notes      string `long:"notes" description:"Free-text notes"`
	Confidence int    `long:"confidence" description:"Confidence 0-100; omitted means generated" default:"-1"`
	Image      string `long:"image" description:"Analyze this image with the backend and record the result"`

	globals *GlobalFlags
	version string
}

// HistoryCommand lists scans, most recent first.
type HistoryCommand struct {
	Limit    int    `long:"limit" description:"Maximum results" default:"20"`
	Category string `long:"category" description:"Only scans in this category: low | medium | high"`
	Since    string `long:"since" description:"Only scans newer than duration (e.g., 7d, 24h, 2w)"`

	globals *GlobalFlags
	version string
}

// ShowCommand prints the details of one scan.
type ShowCommand struct {
	ID int64 `long:"id" description:"Scan ID (required)"`

	globals *GlobalFlags
	version string
}

// ChallengesCommand lists challenges and their progress.
type ChallengesCommand struct {
	Sync bool `long:"sync" description:"Recompute challenge progress from scan history first"`

	globals *GlobalFlags
	version string
}

// SettingsCommand shows settings or replaces them.
type SettingsCommand struct {
	Set      []string `long:"set" description:"Change a setting, key=value (repeatable)"`
	Defaults bool     `long:"defaults" description:"Forget saved settings before applying any --set"`

	globals *GlobalFlags
	version string
}

// ReportsCommand lists analysis reports stored by the backend.
type ReportsCommand struct {
	Page    int `long:"page" description:"Page number" default:"1"`
	PerPage int `long:"per-page" description:"Reports per page" default:"10"`

	globals *GlobalFlags
	version string
}

// HealthCommand checks that the backend is reachable.
type HealthCommand struct {
	globals *GlobalFlags
	version string
}

// ResetCommand deletes ALL stored data with safety confirmation.
type ResetCommand struct {
	All   bool `long:"all" description:"Required flag to confirm reset intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	in      io.Reader // confirmation input; nil means stdin
}
