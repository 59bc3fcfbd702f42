package hardware

import (
	"fmt"
	"regexp"
	"strconv"

	"fan_controller/internal/models"
)

var (
	cpuTempPattern = regexp.MustCompile(`CPU\d Temp\s+Ok\s+(\d+)C`)
	powerPattern   = regexp.MustCompile(`System Board Pwr Consumption\s+Ok\s+(\d+)Watts`)
)

// ParseError means the sensor table did not contain the expected rows.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse sensor info: " + e.Reason
}

// ParseSensorInfo extracts the average CPU temperature and board power draw
// from `racadm getsensorinfo` output. ObservedAt is left to the caller.
func ParseSensorInfo(raw string) (models.TelemetryReading, error) {
	matches := cpuTempPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return models.TelemetryReading{}, &ParseError{Reason: "no CPU temperature rows found"}
	}

	sum := 0
	for _, m := range matches {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			return models.TelemetryReading{}, &ParseError{Reason: fmt.Sprintf("bad temperature %q", m[1])}
		}
		sum += v
	}

	power := 0
	if m := powerPattern.FindStringSubmatch(raw); m != nil {
		// digits only, guaranteed by the pattern
		power, _ = strconv.Atoi(m[1])
	}

	return models.TelemetryReading{
		CPUTemp:    float64(sum) / float64(len(matches)),
		PowerWatts: power,
	}, nil
}
