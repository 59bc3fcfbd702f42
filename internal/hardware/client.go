package hardware

import (
	"context"
	"fmt"
	"time"

	"fan_controller/internal/clock"
	"fan_controller/internal/models"
)

// Executor runs one external command with per-attempt timeout and retries.
type Executor interface {
	Execute(ctx context.Context, argv []string, timeout time.Duration, maxRetries int) (string, error)
}

// Options tunes how the client drives the executor.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
}

// Raw IPMI payloads understood by Dell iDRAC for fan override.
var (
	rawManualOn  = []string{"raw", "0x30", "0x30", "0x01", "0x00"}
	rawManualOff = []string{"raw", "0x30", "0x30", "0x01", "0x01"}
	rawSetSpeed  = []string{"raw", "0x30", "0x30", "0x02", "0xff"}
)

// Client talks to one management controller through racadm and ipmitool.
type Client struct {
	host     string
	username string
	password string
	exec     Executor
	opts     Options
	now      clock.NowFunc
}

// NewClient builds a client for cfg. It performs no I/O.
func NewClient(cfg models.ControlConfig, exec Executor, opts Options) *Client {
	return &Client{
		host:     cfg.Host,
		username: cfg.Username,
		password: cfg.Password,
		exec:     exec,
		opts:     opts,
		now:      clock.UTCNow,
	}
}

// Host returns the management controller address.
func (c *Client) Host() string { return c.host }

// ReadTelemetry samples the sensor table and returns a parsed reading.
func (c *Client) ReadTelemetry(ctx context.Context) (models.TelemetryReading, error) {
	out, err := c.exec.Execute(ctx, c.racadm("getsensorinfo"), c.opts.Timeout, c.opts.MaxRetries)
	if err != nil {
		return models.TelemetryReading{}, err
	}
	reading, err := ParseSensorInfo(out)
	if err != nil {
		return models.TelemetryReading{}, err
	}
	reading.ObservedAt = c.now()
	return reading, nil
}

// SetFanSpeed sets every fan to percent of full speed.
func (c *Client) SetFanSpeed(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return models.NewValidationError("fan_speed", "%d%% is outside 0..100", percent)
	}
	args := append(append([]string{}, rawSetSpeed...), fmt.Sprintf("0x%02x", percent))
	_, err := c.exec.Execute(ctx, c.ipmitool(args...), c.opts.Timeout, c.opts.MaxRetries)
	return err
}

// EnableManualControl takes fan control away from the firmware.
func (c *Client) EnableManualControl(ctx context.Context) error {
	_, err := c.exec.Execute(ctx, c.ipmitool(rawManualOn...), c.opts.Timeout, c.opts.MaxRetries)
	return err
}

// DisableManualControl hands fan control back to the firmware.
func (c *Client) DisableManualControl(ctx context.Context) error {
	_, err := c.exec.Execute(ctx, c.ipmitool(rawManualOff...), c.opts.Timeout, c.opts.MaxRetries)
	return err
}

func (c *Client) racadm(args ...string) []string {
	return append([]string{"racadm", "-r", c.host, "-u", c.username, "-p", c.password}, args...)
}

func (c *Client) ipmitool(args ...string) []string {
	return append([]string{"ipmitool", "-I", "lanplus", "-H", c.host, "-U", c.username, "-P", c.password}, args...)
}
