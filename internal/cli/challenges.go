package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tsifsaropt1/microplastics-analyzer/internal/exposure"
)

// Execute implements the go-flags Commander interface for ChallengesCommand.
func (c *ChallengesCommand) Execute(args []string) error {
	return withApp(c.globals, c.executeWithApp)
}

// executeWithApp lists challenges from a provided app (for testing).
func (c *ChallengesCommand) executeWithApp(ctx context.Context, a *app) error {
	if c.Sync {
		a.manager.SyncChallenges(ctx)
	}
	challenges := a.manager.Challenges()

	if jsonOutput(c.globals) {
		return printJSON(challenges)
	}

	now := a.clock.Now()
	for i, ch := range challenges {
		if i > 0 {
			fmt.Println()
		}
		marker := " "
		if ch.Status == exposure.StatusCompleted {
			marker = "x"
		}
		fmt.Printf("[%s] %s\n", marker, ch.Title)
		fmt.Printf("    %s\n", ch.Description)
		fmt.Printf("    Progress:  %s\n", formatProgress(ch))
		fmt.Printf("    Status:    %s\n", ch.Status)
		if ch.EndDate > 0 && ch.Status == exposure.StatusActive {
			fmt.Printf("    Ends:      %s\n", formatRemaining(now, ch.EndDate))
		}
		if ch.Reward != "" {
			fmt.Printf("    Reward:    %s\n", ch.Reward)
		}
	}
	return nil
}

// formatProgress renders progress against the goal. Ceiling-type
// challenges show the current level; target-type ones show a bar.
func formatProgress(ch exposure.Challenge) string {
	if ch.Kind == exposure.KindAverageLevel {
		return fmt.Sprintf("%.1f / %.0f ppm", ch.Progress, ch.Goal)
	}

	const width = 10
	filled := 0
	if ch.Goal > 0 {
		filled = int(math.Min(ch.Progress/ch.Goal, 1) * width)
	}
	bar := strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
	return fmt.Sprintf("%s %g / %g", bar, ch.Progress, ch.Goal)
}

func formatRemaining(now time.Time, end int64) string {
	left := time.UnixMilli(end).Sub(now)
	if left <= 0 {
		return "ended"
	}
	days := int(left.Hours() / 24)
	switch days {
	case 0:
		return "today"
	case 1:
		return "in 1 day"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}
