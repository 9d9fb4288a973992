package backend

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Report is the typed form of the analysis text the backend returns.
type Report struct {
	Level           float64  `json:"level"`
	Confidence      int      `json:"confidence"`
	ItemType        string   `json:"item_type"`
	Category        string   `json:"category"`
	Recommendations []string `json:"recommendations"`
}

// ParseReport reads a "Key: Value" report, one field per line:
//
//	Microplastic Level: 23.4 ppm
//	Confidence: 91%
//	Item Type: food_packaging
//	Category: Medium
//	Recommendations:
//	- Use glass containers
//	- Avoid heating plastic
//
// Keys are case-insensitive and unknown keys are ignored. Recommendations
// may also be given inline, separated by semicolons. Only the level is
// required.
func ParseReport(text string) (Report, error) {
	var r Report
	haveLevel := false
	inRecs := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if inRecs {
			if item, ok := bullet(line); ok {
				r.Recommendations = append(r.Recommendations, item)
				continue
			}
			inRecs = false
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch normalizeKey(key) {
		case "microplasticlevel", "level":
			v := strings.TrimSpace(strings.TrimSuffix(strings.ToLower(value), "ppm"))
			level, err := strconv.ParseFloat(v, 64)
			if err != nil || level < 0 {
				return Report{}, fmt.Errorf("%w: level %q", ErrMalformedReport, value)
			}
			r.Level = level
			haveLevel = true
		case "confidence":
			v := strings.TrimSpace(strings.TrimSuffix(value, "%"))
			c, err := strconv.ParseFloat(v, 64)
			if err != nil || math.IsNaN(c) {
				return Report{}, fmt.Errorf("%w: confidence %q", ErrMalformedReport, value)
			}
			// Some backends report a 0-1 fraction.
			if c > 0 && c <= 1 && strings.Contains(v, ".") {
				c *= 100
			}
			r.Confidence = int(math.Max(0, math.Min(c, 100)) + 0.5)
		case "itemtype", "type":
			r.ItemType = value
		case "category", "severity":
			r.Category = strings.ToLower(value)
		case "recommendations", "recommendation":
			inRecs = true
			for _, part := range strings.Split(value, ";") {
				if part = strings.TrimSpace(part); part != "" {
					r.Recommendations = append(r.Recommendations, part)
				}
			}
		}
	}

	if !haveLevel {
		return Report{}, fmt.Errorf("%w: no level", ErrMalformedReport)
	}
	return r, nil
}

func normalizeKey(k string) string {
	k = strings.ToLower(k)
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(k)
}

func bullet(line string) (string, bool) {
	for _, p := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(line[len(p):]), true
		}
	}
	// Numbered items: "1. ..." or "1) ..."
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:]), true
	}
	return "", false
}
