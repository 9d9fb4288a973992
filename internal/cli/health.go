package cli

import (
	"context"
	"fmt"
)

// Execute implements the go-flags Commander interface for HealthCommand.
func (c *HealthCommand) Execute(args []string) error {
	return withApp(c.globals, c.executeWithApp)
}

// executeWithApp checks the backend through a provided app (for testing).
func (c *HealthCommand) executeWithApp(ctx context.Context, a *app) error {
	client, err := a.requireBackend()
	if err != nil {
		return err
	}

	h, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	if jsonOutput(c.globals) {
		return printJSON(h)
	}

	fmt.Printf("Backend:       %s\n", a.cfg.Backend.URL)
	fmt.Printf("Status:        %s\n", h.Status)
	if h.Version != "" {
		fmt.Printf("Version:       %s\n", h.Version)
	}
	if h.Model != "" {
		fmt.Printf("Model:         %s\n", h.Model)
	}
	return nil
}
