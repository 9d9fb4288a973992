package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tsifsaropt1/microplastics-analyzer/internal/backend"
	"github.com/tsifsaropt1/microplastics-analyzer/internal/exposure"
)

// scanJSON is the JSON output structure for the scan command.
type scanJSON struct {
	Scan            exposure.ScanRecord `json:"scan"`
	ReportID        int64               `json:"report_id,omitempty"`
	Recommendations []string            `json:"recommendations,omitempty"`
}

// Execute implements the go-flags Commander interface for ScanCommand.
func (c *ScanCommand) Execute(args []string) error {
	return withApp(c.globals, c.executeWithApp)
}

// executeWithApp runs the scan logic against a provided app (used by tests).
func (c *ScanCommand) executeWithApp(ctx context.Context, a *app) error {
	in := exposure.ScanInput{
		Name:     c.Name,
		Type:     c.Type,
		Level:    c.Level,
		Location: c.Location,
		Notes:    c.Notes,
	}
	if c.Confidence != -1 {
		conf := c.Confidence
		in.Confidence = &conf
	}

	var analysis *backend.Analysis
	if c.Image != "" {
		if c.Level != "" {
			return fmt.Errorf("--level and --image are mutually exclusive")
		}
		var err error
		analysis, err = c.analyze(ctx, a)
		if err != nil {
			return err
		}
		mergeAnalysis(&in, analysis, c.Image)
	}

	scan, err := a.manager.AddScan(ctx, in)
	if err != nil {
		return err
	}

	out := scanJSON{Scan: scan}
	if analysis != nil {
		out.ReportID = analysis.ID
		out.Recommendations = analysis.Parsed.Recommendations
	}

	if jsonOutput(c.globals) {
		return printJSON(out)
	}

	fmt.Println("Scan Complete")
	fmt.Printf("  ID:          %d\n", scan.ID)
	fmt.Printf("  Item:        %s\n", scan.Name)
	fmt.Printf("  Level:       %s\n", formatLevel(scan.Level))
	fmt.Printf("  Category:    %s Level\n", strings.ToUpper(string(scan.Category)))
	fmt.Printf("  Confidence:  %d%%\n", scan.Confidence)
	if len(out.Recommendations) > 0 {
		fmt.Println()
		fmt.Println("Recommendations:")
		for _, r := range out.Recommendations {
			fmt.Printf("  - %s\n", r)
		}
	}
	return nil
}

func (c *ScanCommand) analyze(ctx context.Context, a *app) (*backend.Analysis, error) {
	client, err := a.requireBackend()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(c.Image)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	analysis, err := client.Analyze(ctx, filepath.Base(c.Image), f)
	if err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	return analysis, nil
}

// mergeAnalysis fills fields the user left empty from the backend report.
func mergeAnalysis(in *exposure.ScanInput, a *backend.Analysis, imagePath string) {
	in.Level = strconv.FormatFloat(a.Parsed.Level, 'f', -1, 64)
	if in.Confidence == nil && a.Parsed.Confidence > 0 {
		conf := a.Parsed.Confidence
		in.Confidence = &conf
	}
	if in.Type == "" {
		in.Type = a.Parsed.ItemType
	}
	if in.Name == "" {
		in.Name = strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	}
	if in.Notes == "" && len(a.Parsed.Recommendations) > 0 {
		in.Notes = strings.Join(a.Parsed.Recommendations, "; ")
	}
}
