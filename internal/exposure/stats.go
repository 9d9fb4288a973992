package exposure

import (
	"fmt"
	"time"
)

// AverageLevel is the mean level across all scans, or exactly 0 with none.
func (m *Manager) AverageLevel() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return averageLevel(m.scans)
}

func averageLevel(scans []ScanRecord) float64 {
	if len(scans) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scans {
		sum += s.Level
	}
	return sum / float64(len(scans))
}

// WeeklyAverages buckets scans by local weekday (index 0 is Sunday) and
// returns the mean level per day, 0 for days without scans.
func (m *Manager) WeeklyAverages() [7]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return weeklyAverages(m.scans, m.location)
}

func weeklyAverages(scans []ScanRecord, loc *time.Location) [7]float64 {
	var totals, avgs [7]float64
	var counts [7]int
	for _, s := range scans {
		d := time.UnixMilli(s.Timestamp).In(loc).Weekday()
		totals[d] += s.Level
		counts[d]++
	}
	for i := range totals {
		if counts[i] > 0 {
			avgs[i] = totals[i] / float64(counts[i])
		}
	}
	return avgs
}

// CategoryCounts returns the number of scans per tier. Every tier is present.
func (m *Manager) CategoryCounts() map[Category]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	for _, s := range m.scans {
		counts[s.Category]++
	}
	return counts
}

// RecentScans returns up to limit scans, most recent first. A non-positive
// limit means DefaultRecentLimit.
func (m *Manager) RecentScans(limit int) []ScanRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > len(m.scans) {
		limit = len(m.scans)
	}
	return append([]ScanRecord(nil), m.scans[:limit]...)
}

// AverageConfidence is the mean scan confidence, shown as accuracy. With no
// scans it reports 95.
func (m *Manager) AverageConfidence() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.scans) == 0 {
		return 95
	}
	sum := 0
	for _, s := range m.scans {
		sum += s.Confidence
	}
	return float64(sum) / float64(len(m.scans))
}

// ChartHeights scales the weekday averages into bar heights between 10 and
// 90 percent of the largest average (floored at 1 ppm).
func (m *Manager) ChartHeights() [7]float64 {
	return BarHeights(m.WeeklyAverages())
}

// BarHeights applies the ChartHeights scaling to any set of weekday values.
func BarHeights(weekly [7]float64) [7]float64 {
	maxValue := 1.0
	for _, v := range weekly {
		if v > maxValue {
			maxValue = v
		}
	}

	var heights [7]float64
	for i, v := range weekly {
		heights[i] = v/maxValue*80 + 10
	}
	return heights
}

// Insight is a personalized recommendation keyed off the average level.
type Insight struct {
	Tier    string  `json:"tier"`
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Average float64 `json:"average"`
}

// Insight thresholds in ppm, exclusive.
const (
	insightHigh     = 25.0
	insightModerate = 15.0
)

func (m *Manager) Insight() Insight {
	avg := m.AverageLevel()
	switch {
	case avg > insightHigh:
		return Insight{
			Tier:    "high",
			Title:   "Personal Recommendation",
			Message: fmt.Sprintf("Your average exposure (%.1f ppm) is high. Consider switching to glass or metal containers.", avg),
			Average: avg,
		}
	case avg > insightModerate:
		return Insight{
			Tier:    "moderate",
			Title:   "Good Progress",
			Message: fmt.Sprintf("Your average exposure (%.1f ppm) is moderate. Focus on reducing single-use plastics.", avg),
			Average: avg,
		}
	default:
		return Insight{
			Tier:    "low",
			Title:   "Excellent Work",
			Message: fmt.Sprintf("Your average exposure (%.1f ppm) is low. Keep up the great work!", avg),
			Average: avg,
		}
	}
}
