package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Status     *StatusCommand
	Scan       *ScanCommand
	History    *HistoryCommand
	Show       *ShowCommand
	Challenges *ChallengesCommand
	Settings   *SettingsCommand
	Reports    *ReportsCommand
	Health     *HealthCommand
	Reset      *ResetCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "microplastics"
	parser.LongDescription = "Track microplastic exposure from scanned items, with challenges and optional backend analysis."

	cmds := &commands{
		Status:     &StatusCommand{globals: &globals, version: version},
		Scan:       &ScanCommand{globals: &globals, version: version},
		History:    &HistoryCommand{globals: &globals, version: version},
		Show:       &ShowCommand{globals: &globals, version: version},
		Challenges: &ChallengesCommand{globals: &globals, version: version},
		Settings:   &SettingsCommand{globals: &globals, version: version},
		Reports:    &ReportsCommand{globals: &globals, version: version},
		Health:     &HealthCommand{globals: &globals, version: version},
		Reset:      &ResetCommand{globals: &globals, version: version},
	}

	parser.AddCommand("status", "Show the exposure dashboard", "Show totals, average level, accuracy, category breakdown, weekday chart, recent activity and a personalized insight.", cmds.Status)
	parser.AddCommand("scan", "Record a new scan", "Record a scan from manual values, or analyze an image with the backend and record the result.", cmds.Scan)
	parser.AddCommand("history", "List recorded scans", "List recorded scans, most recent first, with optional filters.", cmds.History)
	parser.AddCommand("show", "Show one scan", "Print the details of a single scan.", cmds.Show)
	parser.AddCommand("challenges", "List challenges", "List challenges with their progress and status.", cmds.Challenges)
	parser.AddCommand("settings", "Show or change settings", "Show settings, or replace them with one or more --set key=value.", cmds.Settings)
	parser.AddCommand("reports", "List backend reports", "List analysis reports stored by the backend, one page at a time.", cmds.Reports)
	parser.AddCommand("health", "Probe the backend", "Check that the analysis backend is reachable and healthy.", cmds.Health)
	parser.AddCommand("reset", "Delete ALL stored data", "Delete ALL scans, challenges and settings. Destructive operation with safety prompt.", cmds.Reset)

	return parser, &globals, cmds
}

// Run is the main entry point for the CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("microplastics %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
