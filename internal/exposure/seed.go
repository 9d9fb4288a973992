package exposure

import "time"

const day = 24 * time.Hour

// SeedScans returns the sample history written on first run, most recent
// first, with timestamps relative to now.
func SeedScans(now time.Time) []ScanRecord {
	at := func(ago time.Duration) int64 { return now.Add(-ago).UnixMilli() }

	scans := []ScanRecord{
		{ID: 1, Name: "Water Bottle Analysis", Type: "beverage_container", Level: 5.2, Timestamp: at(2 * time.Hour), Location: "Kitchen", Confidence: 94, Notes: "Reusable plastic bottle"},
		{ID: 2, Name: "Food Container Scan", Type: "food_packaging", Level: 18.7, Timestamp: at(day), Location: "Office", Confidence: 87, Notes: "Takeout container"},
		{ID: 3, Name: "Packaging Assessment", Type: "product_packaging", Level: 42.3, Timestamp: at(2 * day), Location: "Home", Confidence: 92, Notes: "Disposable packaging"},
		{ID: 4, Name: "Drink Cup Analysis", Type: "beverage_container", Level: 12.1, Timestamp: at(3 * day), Location: "Coffee Shop", Confidence: 89, Notes: "Paper cup with plastic lining"},
		{ID: 5, Name: "Shopping Bag Check", Type: "bag", Level: 7.8, Timestamp: at(4 * day), Location: "Store", Confidence: 91, Notes: "Reusable bag"},
	}
	for i := range scans {
		scans[i].Category = Categorize(scans[i].Level)
	}
	return scans
}

// SeedChallenges returns the default challenges. Derived progress is left
// at zero; the caller synchronizes it against the current scans.
func SeedChallenges(now time.Time) []Challenge {
	return []Challenge{
		{
			ID:          1,
			Title:       "Plastic-Free Week",
			Description: "Avoid single-use plastics for 7 days",
			Goal:        7,
			Progress:    3,
			Kind:        KindDaily,
			Status:      StatusActive,
			StartDate:   now.Add(-3 * day).UnixMilli(),
			EndDate:     now.Add(4 * day).UnixMilli(),
			Reward:      "Eco Warrior Badge",
		},
		{
			ID:          2,
			Title:       "Scan 20 Items",
			Description: "Analyze microplastics in 20 different items",
			Goal:        20,
			Kind:        KindScanCount,
			Status:      StatusActive,
			Reward:      "Data Detective Badge",
		},
		{
			ID:          3,
			Title:       "Low Impact Living",
			Description: "Keep average microplastic exposure below 15 ppm",
			Goal:        15,
			Kind:        KindAverageLevel,
			Status:      StatusActive,
			Reward:      "Clean Living Badge",
		},
	}
}

// DefaultSettings is used when no settings have been saved.
func DefaultSettings() Settings {
	return Settings{
		Notifications: true,
		DarkMode:      false,
		DataSharing:   false,
		Units:         "ppm",
		ScanReminders: true,
		WeeklyReports: true,
	}
}
