package exposure

import (
	"fmt"
	"strconv"
	"strings"
)

// SettingKeys lists the names accepted by Settings.Set, in display order.
var SettingKeys = []string{"notifications", "darkMode", "dataSharing", "units", "scanReminders", "weeklyReports"}

// Set updates one field by its stored name. Boolean fields accept anything
// strconv.ParseBool does. The result is not validated; ReplaceSettings does that.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)

	var target *bool
	switch key {
	case "notifications":
		target = &s.Notifications
	case "darkMode":
		target = &s.DarkMode
	case "dataSharing":
		target = &s.DataSharing
	case "scanReminders":
		target = &s.ScanReminders
	case "weeklyReports":
		target = &s.WeeklyReports
	case "units":
		s.Units = value
		return nil
	default:
		return fmt.Errorf("%w: unknown setting %q", ErrInvalidInput, key)
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%w: %s must be true or false, got %q", ErrInvalidInput, key, value)
	}
	*target = b
	return nil
}

// Get returns the display value of one field by its stored name.
func (s Settings) Get(key string) (string, bool) {
	switch key {
	case "notifications":
		return strconv.FormatBool(s.Notifications), true
	case "darkMode":
		return strconv.FormatBool(s.DarkMode), true
	case "dataSharing":
		return strconv.FormatBool(s.DataSharing), true
	case "units":
		return s.Units, true
	case "scanReminders":
		return strconv.FormatBool(s.ScanReminders), true
	case "weeklyReports":
		return strconv.FormatBool(s.WeeklyReports), true
	}
	return "", false
}

// settingsRecord is the stored form of Settings. Keys absent from the record
// stay nil and keep their default.
type settingsRecord struct {
	Notifications *bool   `json:"notifications"`
	DarkMode      *bool   `json:"darkMode"`
	DataSharing   *bool   `json:"dataSharing"`
	Units         *string `json:"units"`
	ScanReminders *bool   `json:"scanReminders"`
	WeeklyReports *bool   `json:"weeklyReports"`
}

func (r settingsRecord) over(s Settings) Settings {
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	setBool(&s.Notifications, r.Notifications)
	setBool(&s.DarkMode, r.DarkMode)
	setBool(&s.DataSharing, r.DataSharing)
	setBool(&s.ScanReminders, r.ScanReminders)
	setBool(&s.WeeklyReports, r.WeeklyReports)
	if r.Units != nil {
		s.Units = *r.Units
	}
	return s
}
