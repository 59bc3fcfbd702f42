package service

import "time"

// SettingsUpdate is a partial settings change; nil fields are left as stored.
type SettingsUpdate struct {
	Host     *string `json:"ip_address"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Interval *int    `json:"interval"`
}

// HistoryWindows maps the accepted history range keys to their lookback.
var HistoryWindows = map[string]time.Duration{
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
}

// DefaultHistoryRange applies to unknown or empty range keys.
const DefaultHistoryRange = "1h"
