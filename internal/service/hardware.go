package service

import (
	"fan_controller/internal/hardware"
	"fan_controller/internal/models"
)

// NewHardwareClients returns the production ClientFactory: racadm and
// ipmitool driven through exec.
func NewHardwareClients(exec hardware.Executor, opts hardware.Options) ClientFactory {
	return func(cfg models.ControlConfig) HardwareClient {
		return hardware.NewClient(cfg, exec, opts)
	}
}
