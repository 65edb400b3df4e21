package tts

import (
	"errors"
	"fmt"
)

const (
	// DefaultSpeed is the narration speed used when none is configured.
	DefaultSpeed = 1.3

	MinSpeed = 0.5
	MaxSpeed = 2.0
)

var (
	// ErrSpeedOutOfRange is returned when speed is outside valid range
	ErrSpeedOutOfRange = errors.New("speed must be between 0.5 and 2.0")
)

// ValidateSpeed checks that speed can be passed to an engine.
func ValidateSpeed(speed float64) error {
	if speed < MinSpeed || speed > MaxSpeed {
		return fmt.Errorf("%w: got %.2f", ErrSpeedOutOfRange, speed)
	}
	return nil
}
