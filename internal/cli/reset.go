package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Execute implements the go-flags Commander interface for ResetCommand.
func (c *ResetCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("reset requires --all flag for safety")
	}
	return withApp(c.globals, c.executeWithApp)
}

// executeWithApp confirms and purges the store of a provided app (for testing).
func (c *ResetCommand) executeWithApp(ctx context.Context, a *app) error {
	if !c.All {
		return fmt.Errorf("reset requires --all flag for safety")
	}

	// Confirmation prompt unless --force
	if !c.Force {
		fmt.Println("⚠ WARNING: This will permanently delete ALL stored data.")
		fmt.Println("  - All scans")
		fmt.Println("  - All challenge progress")
		fmt.Println("  - All settings")
		fmt.Println()
		fmt.Println("This action cannot be undone.")
		fmt.Println()
		fmt.Print(`Type "RESET" to confirm: `)

		var in io.Reader = os.Stdin
		if c.in != nil {
			in = c.in
		}
		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return fmt.Errorf("aborted: no input received")
		}
		if strings.TrimSpace(scanner.Text()) != "RESET" {
			return fmt.Errorf("aborted: confirmation text did not match")
		}
	}

	keys, err := a.store.Keys(ctx)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	if err := a.store.PurgeAll(ctx); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	a.log.Infow("store reset", "records", len(keys))

	if jsonOutput(c.globals) {
		return printJSON(map[string]interface{}{
			"reset":   true,
			"deleted": keys,
		})
	}

	if len(keys) > 0 {
		fmt.Printf("Deleted %d records: %s\n", len(keys), strings.Join(keys, ", "))
	}
	fmt.Println("Reset all data. Sample data will be seeded again on the next run.")
	return nil
}
