package models

import "time"

// TelemetryReading is one sampled row of monitor history.
type TelemetryReading struct {
	CPUTemp    float64   `json:"cpu_temp"`    // °C, average over CPU sockets
	FanSpeed   int       `json:"fan_speed"`   // percent applied for this reading
	PowerWatts int       `json:"power"`       // W, 0 when not reported
	ObservedAt time.Time `json:"time"`
}
