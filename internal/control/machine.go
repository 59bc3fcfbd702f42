package control

import (
	"context"
	"sync"

	"fan_controller/internal/logger"
	"fan_controller/internal/models"
)

// Commander issues the fan mode commands to the management controller.
type Commander interface {
	EnableManualControl(ctx context.Context) error
	DisableManualControl(ctx context.Context) error
}

// Machine tracks whether the fans are under manual or BMC automatic control.
// The mode changes only after the matching command succeeded.
type Machine struct {
	mu   sync.Mutex
	cmd  Commander
	mode models.ControlMode
	log  *logger.Logger
}

// NewMachine starts in auto mode; cmd may be nil until a host is configured.
func NewMachine(cmd Commander, log *logger.Logger) *Machine {
	return &Machine{cmd: cmd, mode: models.ModeAuto, log: log}
}

// SetCommander swaps the hardware client, e.g. after a settings change.
func (m *Machine) SetCommander(cmd Commander) {
	m.mu.Lock()
	m.cmd = cmd
	m.mu.Unlock()
}

// Mode returns the last confirmed mode.
func (m *Machine) Mode() models.ControlMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

func (m *Machine) commander() Commander {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cmd
}

// EnableManual takes fan control away from the BMC. It reports whether the
// override was accepted; on failure the mode is left unchanged.
func (m *Machine) EnableManual(ctx context.Context) bool {
	cmd := m.commander()
	if cmd == nil {
		m.log.Errorw("manual_control_failed", "err", ErrNoCommander)
		return false
	}
	if err := cmd.EnableManualControl(ctx); err != nil {
		m.log.Errorw("manual_control_failed", "err", err)
		return false
	}
	m.setMode(models.ModeManual)
	m.log.Infow("manual_control_enabled")
	return true
}

// DisableManual hands fan control back to the BMC.
func (m *Machine) DisableManual(ctx context.Context) error {
	cmd := m.commander()
	if cmd == nil {
		return ErrNoCommander
	}
	if err := cmd.DisableManualControl(ctx); err != nil {
		m.log.Errorw("auto_control_restore_failed", "err", err)
		return err
	}
	m.setMode(models.ModeAuto)
	m.log.Infow("auto_control_restored")
	return nil
}

func (m *Machine) setMode(mode models.ControlMode) {
	m.mu.Lock()
	m.mode = mode
	m.mu.Unlock()
}
