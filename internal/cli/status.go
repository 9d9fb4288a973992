package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/tsifsaropt1/microplastics-analyzer/internal/backend"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/exposure"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/storage"
)

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

const chartWidth = 20

// dashboard is the data behind the status command. It comes from local
// scans, or from the backend when --live succeeds.
type dashboard struct {
	Source            string                    `json:"source"`
	TotalScans        int                       `json:"total_scans"`
	AverageLevel      float64                   `json:"average_level"`
	AverageConfidence float64                   `json:"accuracy"`
	Categories        map[exposure.Category]int `json:"categories"`
	WeeklyAverages    [7]float64                `json:"weekly_averages"`
	ChartHeights      [7]float64                `json:"chart_heights"`
	Recent            []exposure.ScanRecord     `json:"recent"`
	Insight           exposure.Insight          `json:"insight"`
	Storage           *storageJSON              `json:"storage,omitempty"`
}

type storageJSON struct {
	Records   int64  `json:"records"`
	Bytes     int64  `json:"bytes"`
	Audit     int64  `json:"audit_entries"`
	LastWrite string `json:"last_write,omitempty"`
	Schema    int    `json:"schema_version,omitempty"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	return withApp(c.globals, c.executeWithApp)
}

// executeWithApp runs status against a provided app (for testing).
func (c *StatusCommand) executeWithApp(ctx context.Context, a *app) error {
	d := localDashboard(a)

	if c.Live {
		if err := c.applyLive(ctx, a, &d); err != nil {
			a.log.Warnw("live statistics unavailable, using local data", "error", err)
		}
	}

	if stats, err := a.store.GetStats(ctx); err == nil {
		d.Storage = storageSummary(stats)
		d.Storage.Schema = schemaVersion(a)
	} else {
		a.log.Warnw("could not read storage stats", "error", err)
	}

	var err error
	if jsonOutput(c.globals) {
		err = printJSON(d)
	} else {
		printDashboard(a, d)
	}
	if err != nil {
		return err
	}

	if c.Metrics {
		fmt.Println()
		return a.metrics.WriteText(os.Stdout)
	}
	return nil
}

func localDashboard(a *app) dashboard {
	m := a.manager
	return dashboard{
		Source:            "local",
		TotalScans:        len(m.Scans()),
		AverageLevel:      m.AverageLevel(),
		AverageConfidence: m.AverageConfidence(),
		Categories:        m.CategoryCounts(),
		WeeklyAverages:    m.WeeklyAverages(),
		ChartHeights:      m.ChartHeights(),
		Recent:            m.RecentScans(a.cfg.Display.RecentLimit),
		Insight:           m.Insight(),
	}
}

// applyLive overlays backend aggregates onto d. d is untouched on error.
func (c *StatusCommand) applyLive(ctx context.Context, a *app, d *dashboard) error {
	client, err := a.requireBackend()
	if err != nil {
		return err
	}
	stats, err := client.Statistics(ctx)
	if err != nil {
		return err
	}
	if err := checkStatistics(stats); err != nil {
		return err
	}

	d.Source = "backend"
	d.TotalScans = stats.TotalScans
	d.AverageLevel = stats.AverageLevel

	cats := make(map[exposure.Category]int, len(exposure.Categories))
	for _, cat := range exposure.Categories {
		cats[cat] = stats.Categories[string(cat)]
	}
	d.Categories = cats

	if len(stats.WeeklyAverages) == 7 {
		copy(d.WeeklyAverages[:], stats.WeeklyAverages)
		d.ChartHeights = exposure.BarHeights(d.WeeklyAverages)
	}
	return nil
}

// checkStatistics rejects backend aggregates the dashboard cannot show.
func checkStatistics(s *backend.Statistics) error {
	if s.TotalScans < 0 || s.AverageLevel < 0 || math.IsNaN(s.AverageLevel) || math.IsInf(s.AverageLevel, 0) {
		return fmt.Errorf("backend statistics: invalid totals (%d scans, average %v)", s.TotalScans, s.AverageLevel)
	}
	for cat, n := range s.Categories {
		if n < 0 {
			return fmt.Errorf("backend statistics: negative count %d for %q", n, cat)
		}
	}
	for i, v := range s.WeeklyAverages {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("backend statistics: invalid weekly average %v at day %d", v, i)
		}
	}
	return nil
}

// schemaVersion is the newest applied migration, or 0 without a database.
func schemaVersion(a *app) int {
	if a.db == nil {
		return 0
	}
	versions, err := storage.NewMigrationRunner(a.db, a.cfg.Storage.JournalMode).Applied()
	if err != nil || len(versions) == 0 {
		a.log.Debugw("could not read schema version", "error", err)
		return 0
	}
	return versions[len(versions)-1]
}

func storageSummary(stats *storage.Stats) *storageJSON {
	s := &storageJSON{
		Records: stats.TotalRecords,
		Bytes:   stats.TotalBytes,
		Audit:   stats.AuditEntries,
	}
	if !stats.LastWrite.IsZero() {
		s.LastWrite = stats.LastWrite.UTC().Format(time.RFC3339)
	}
	return s
}

func printDashboard(a *app, d dashboard) {
	now := a.clock.Now()

	fmt.Println("Microplastics Dashboard")
	fmt.Println("=======================")
	fmt.Printf("Scans:         %d\n", d.TotalScans)
	fmt.Printf("Average:       %s\n", formatLevel(d.AverageLevel))
	fmt.Printf("Accuracy:      %.0f%%\n", d.AverageConfidence)
	fmt.Printf("Source:        %s\n", d.Source)

	fmt.Println()
	fmt.Println("Categories:")
	for _, cat := range exposure.Categories {
		fmt.Printf("  %-8s %d\n", formatCategory(cat), d.Categories[cat])
	}

	fmt.Println()
	fmt.Println("Weekly Average:")
	for i, label := range weekdayLabels {
		n := int(d.ChartHeights[i]/100*chartWidth + 0.5)
		n = max(0, min(n, chartWidth))
		bar := strings.Repeat("#", n) + strings.Repeat(".", chartWidth-n)
		fmt.Printf("  %s  %s  %s\n", label, bar, formatLevel(d.WeeklyAverages[i]))
	}

	if len(d.Recent) > 0 {
		fmt.Println()
		fmt.Println("Recent Activity:")
		for _, s := range d.Recent {
			fmt.Printf("  %-28s %10s  %-6s  %s\n",
				truncate(s.Name, 28), formatLevel(s.Level), formatCategory(s.Category), formatTimeAgo(now, s.Timestamp))
		}
	}

	fmt.Println()
	fmt.Printf("Insight: %s\n", d.Insight.Title)
	fmt.Printf("  %s\n", d.Insight.Message)

	if d.Storage != nil {
		fmt.Println()
		fmt.Printf("Storage:       %d records, %s\n", d.Storage.Records, formatBytes(d.Storage.Bytes))
		if d.Storage.Schema > 0 {
			fmt.Printf("Schema:        v%d\n", d.Storage.Schema)
		}
	}
}
