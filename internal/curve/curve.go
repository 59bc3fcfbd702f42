package curve

import (
	"sort"

	"fan_controller/internal/models"
)

// DefaultSpeed is applied when no curve is configured.
const DefaultSpeed = 20

// MinPoints is the smallest curve an operator may store.
const MinPoints = 2

// Evaluate maps temp onto the piecewise-linear curve through points.
// Points need not be sorted. Interpolated values are truncated toward zero.
func Evaluate(temp float64, points []models.CurvePoint) int {
	if len(points) == 0 {
		return DefaultSpeed
	}

	sorted := Sorted(points)
	first, last := sorted[0], sorted[len(sorted)-1]

	if temp <= float64(first.Temperature) {
		return first.Speed
	}
	if temp >= float64(last.Temperature) {
		return last.Speed
	}

	for i := 0; i < len(sorted)-1; i++ {
		t0, s0 := float64(sorted[i].Temperature), float64(sorted[i].Speed)
		t1, s1 := float64(sorted[i+1].Temperature), float64(sorted[i+1].Speed)
		if t0 <= temp && temp < t1 {
			return int(s0 + (temp-t0)*(s1-s0)/(t1-t0))
		}
	}

	return last.Speed
}

// Sorted returns a copy of points ordered by temperature.
func Sorted(points []models.CurvePoint) []models.CurvePoint {
	out := make([]models.CurvePoint, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Temperature < out[j].Temperature })
	return out
}

// Validate checks a curve before it is stored.
func Validate(points []models.CurvePoint) error {
	if len(points) < MinPoints {
		return models.NewValidationError("points", "at least %d control points are required", MinPoints)
	}
	seen := make(map[int]struct{}, len(points))
	for _, p := range points {
		if p.Temperature < 0 || p.Temperature > 100 {
			return models.NewValidationError("temp", "%d is outside 0..100", p.Temperature)
		}
		if p.Speed < 0 || p.Speed > 100 {
			return models.NewValidationError("speed", "%d is outside 0..100", p.Speed)
		}
		if _, dup := seen[p.Temperature]; dup {
			return models.NewValidationError("temp", "duplicate control point at %d", p.Temperature)
		}
		seen[p.Temperature] = struct{}{}
	}
	return nil
}
