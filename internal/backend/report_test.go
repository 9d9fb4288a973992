package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReport(t *testing.T) {
	r, err := ParseReport(sampleReport)
	require.NoError(t, err)

	assert.Equal(t, Report{
		Level:           23.4,
		Confidence:      91,
		ItemType:        "food_packaging",
		Category:        "medium",
		Recommendations: []string{"Use glass containers", "Avoid heating plastic"},
	}, r)
}

func TestParseReport_Variants(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Report
	}{
		{
			name: "inline recommendations",
			text: "level: 4\r\nconfidence: 0.87\r\nrecommendations: reuse bottles; skip straws",
			want: Report{Level: 4, Confidence: 87, Recommendations: []string{"reuse bottles", "skip straws"}},
		},
		{
			name: "numbered list then trailing key",
			text: "Microplastic_Level: 31.0PPM\nRecommendations:\n1. Switch to glass\n2) Filter water\nItem-Type: bottle",
			want: Report{Level: 31, ItemType: "bottle", Recommendations: []string{"Switch to glass", "Filter water"}},
		},
		{
			name: "confidence above 100 is clamped",
			text: "Level: 8\nConfidence: 101%",
			want: Report{Level: 8, Confidence: 100},
		},
		{
			name: "negative confidence is clamped",
			text: "Level: 8\nConfidence: -5",
			want: Report{Level: 8, Confidence: 0},
		},
		{
			name: "unknown keys and prose ignored",
			text: "Analysis complete\nModel: v2\nLevel: 12.5 ppm\n",
			want: Report{Level: 12.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReport(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseReport_Errors(t *testing.T) {
	for _, text := range []string{
		"",
		"Confidence: 90%",
		"Level: lots",
		"Level: -3 ppm",
		"Level: 3\nConfidence: high",
		"Level: 3\nConfidence: NaN",
	} {
		_, err := ParseReport(text)
		assert.ErrorIs(t, err, ErrMalformedReport, text)
	}
}
