package models

// ControlConfig holds what the monitor loop needs to reach the management controller.
type ControlConfig struct {
	Host                string `json:"ip_address"`
	Username            string `json:"username"`
	Password            string `json:"password"`
	PollIntervalSeconds int    `json:"interval"`
}

// Settings keys in the key-value store.
const (
	KeyHost          = "ip_address"
	KeyUsername      = "username"
	KeyPassword      = "password"
	KeyInterval      = "interval"
	KeyRetentionDays = "retention_days"
)

const (
	MinPollIntervalSeconds     = 5
	MaxPollIntervalSeconds     = 300
	DefaultPollIntervalSeconds = 30
	DefaultRetentionDays       = 30
)

// AllowedRetentionDays lists the retention windows an operator may choose.
var AllowedRetentionDays = []int{7, 30, 90, 365}

// IsAllowedRetention reports whether days is one of AllowedRetentionDays.
func IsAllowedRetention(days int) bool {
	for _, d := range AllowedRetentionDays {
		if d == days {
			return true
		}
	}
	return false
}
