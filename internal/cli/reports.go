package cli

import (
	"context"
	"fmt"
)

// Execute implements the go-flags Commander interface for ReportsCommand.
func (c *ReportsCommand) Execute(args []string) error {
	return withApp(c.globals, c.executeWithApp)
}

// executeWithApp lists backend reports through a provided app (for testing).
func (c *ReportsCommand) executeWithApp(ctx context.Context, a *app) error {
	client, err := a.requireBackend()
	if err != nil {
		return err
	}

	page, err := client.Reports(ctx, c.Page, c.PerPage)
	if err != nil {
		return fmt.Errorf("list reports: %w", err)
	}

	if jsonOutput(c.globals) {
		return printJSON(page)
	}

	if len(page.Reports) == 0 {
		fmt.Println("No reports found.")
		return nil
	}

	loc, err := a.cfg.Display.Location()
	if err != nil {
		return err
	}
	fmt.Printf("%-8s %-28s %10s  %-6s  %s\n", "ID", "FILE", "LEVEL", "TIER", "CREATED")
	for _, r := range page.Reports {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.In(loc).Format("2006-01-02 15:04")
		}
		fmt.Printf("%-8d %-28s %10s  %-6s  %s\n",
			r.ID, truncate(r.Filename, 28), formatLevel(r.Level), r.Category, created)
	}
	fmt.Printf("\nPage %d of %d (%d reports)\n", page.Page, page.Pages(), page.Total)
	return nil
}
