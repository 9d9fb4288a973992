package cli

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Execute implements the go-flags Commander interface for ShowCommand.
func (c *ShowCommand) Execute(args []string) error {
	if c.ID == 0 {
		return fmt.Errorf("--id is required for show command")
	}
	return withApp(c.globals, c.executeWithApp)
}

// executeWithApp prints one scan from a provided app (for testing).
func (c *ShowCommand) executeWithApp(ctx context.Context, a *app) error {
	scan, err := a.manager.Scan(c.ID)
	if err != nil {
		return err
	}

	if jsonOutput(c.globals) {
		return printJSON(scan)
	}

	loc, err := a.cfg.Display.Location()
	if err != nil {
		loc = time.Local
	}

	fmt.Println(scan.Name)
	fmt.Println(strings.Repeat("=", len([]rune(scan.Name))))
	fmt.Printf("ID:            %d\n", scan.ID)
	fmt.Printf("Type:          %s\n", scan.Type)
	fmt.Printf("Level:         %s\n", formatLevel(scan.Level))
	fmt.Printf("Category:      %s\n", formatCategory(scan.Category))
	fmt.Printf("Confidence:    %d%%\n", scan.Confidence)
	fmt.Printf("Location:      %s\n", scan.Location)
	fmt.Printf("Scanned:       %s (%s)\n", formatDate(scan.Timestamp, loc), formatTimeAgo(a.clock.Now(), scan.Timestamp))
	if scan.Notes != "" {
		fmt.Printf("Notes:         %s\n", scan.Notes)
	}
	return nil
}
