package models

import "time"

// ControlMode tells who owns the fans: server firmware or this service.
type ControlMode string

const (
	ModeAuto   ControlMode = "auto"
	ModeManual ControlMode = "manual"
)

// Status is the last-known snapshot published by the monitor loop.
type Status struct {
	CPUTemp     float64     `json:"cpu_temp"`
	FanSpeed    int         `json:"fan_speed"`
	PowerWatts  int         `json:"power"`
	ControlMode ControlMode `json:"control_mode"`
	LastUpdate  *time.Time  `json:"last_update"`
}
