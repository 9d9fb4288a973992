package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsifsaropt1/microplastics-analyzer/internal/exposure"
)

// Execute implements the go-flags Commander interface for SettingsCommand.
func (c *SettingsCommand) Execute(args []string) error {
	return withApp(c.globals, c.executeWithApp)
}

// executeWithApp shows or replaces settings on a provided app (for testing).
func (c *SettingsCommand) executeWithApp(ctx context.Context, a *app) error {
	if c.Defaults {
		a.manager.ResetSettings(ctx)
	}
	if len(c.Set) > 0 {
		s := a.manager.Settings()
		for _, kv := range c.Set {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("invalid --set %q: use key=value", kv)
			}
			if err := s.Set(strings.TrimSpace(key), value); err != nil {
				return err
			}
		}
		if err := a.manager.ReplaceSettings(ctx, s); err != nil {
			return err
		}
	}

	settings := a.manager.Settings()
	if jsonOutput(c.globals) {
		return printJSON(settings)
	}

	fmt.Println("Settings")
	fmt.Println("========")
	for _, key := range exposure.SettingKeys {
		v, _ := settings.Get(key)
		fmt.Printf("%-15s %s\n", key+":", v)
	}
	return nil
}
