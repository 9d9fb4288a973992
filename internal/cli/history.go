package cli

import (
	"context"
	"fmt"

	"github.com/tsifsaropt1/microplastics-analyzer/internal/exposure"
)

// historyJSON is the JSON output structure for the history command.
type historyJSON struct {
	Total   int                   `json:"total"`
	Results []exposure.ScanRecord `json:"results"`
}

// Execute implements the go-flags Commander interface for HistoryCommand.
func (c *HistoryCommand) Execute(args []string) error {
	return withApp(c.globals, c.executeWithApp)
}

// executeWithApp runs history against a provided app (for testing).
func (c *HistoryCommand) executeWithApp(ctx context.Context, a *app) error {
	var since int64
	if c.Since != "" {
		d, err := parseDuration(c.Since)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		since = a.clock.Now().Add(-d).UnixMilli()
	}

	var category exposure.Category
	if c.Category != "" {
		category = exposure.Category(c.Category)
		if !validCategory(category) {
			return fmt.Errorf("invalid --category %q: use low, medium or high", c.Category)
		}
	}

	var results []exposure.ScanRecord
	for _, s := range a.manager.Scans() {
		if since > 0 && s.Timestamp < since {
			continue
		}
		if category != "" && s.Category != category {
			continue
		}
		results = append(results, s)
	}
	total := len(results)
	if c.Limit > 0 && len(results) > c.Limit {
		results = results[:c.Limit]
	}

	if jsonOutput(c.globals) {
		if results == nil {
			results = []exposure.ScanRecord{}
		}
		return printJSON(historyJSON{Total: total, Results: results})
	}

	if len(results) == 0 {
		fmt.Println("No scans found.")
		return nil
	}

	now := a.clock.Now()
	fmt.Printf("%-15s %-28s %10s  %-6s  %-12s %s\n", "ID", "NAME", "LEVEL", "TIER", "LOCATION", "WHEN")
	for _, s := range results {
		fmt.Printf("%-15d %-28s %10s  %-6s  %-12s %s\n",
			s.ID, truncate(s.Name, 28), formatLevel(s.Level), formatCategory(s.Category),
			truncate(s.Location, 12), formatTimeAgo(now, s.Timestamp))
	}
	if total > len(results) {
		fmt.Printf("\nShowing %d of %d scans.\n", len(results), total)
	}
	return nil
}

func validCategory(c exposure.Category) bool {
	for _, known := range exposure.Categories {
		if c == known {
			return true
		}
	}
	return false
}
