package models

// CurvePoint maps a CPU temperature to a fan speed percentage.
type CurvePoint struct {
	Temperature int `json:"temp"`  // °C, 0..100
	Speed       int `json:"speed"` // percent, 0..100
}
