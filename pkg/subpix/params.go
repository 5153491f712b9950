package subpix

import (
	"fmt"
	"runtime"
)

// SaturationMask excludes a circular core of the rotated crop from the
// residual. Radius 0 with Enabled set is a valid, if empty, mask.
type SaturationMask struct {
	Enabled bool
	Radius  float64
}

// Tolerance switches the controller from a single pass to iterating until
// both offset components of a pass are at most Pixels.
type Tolerance struct {
	Enabled bool
	Pixels  float64
}

// minBoxSize is the smallest window whose inner half is not empty.
const minBoxSize = 4

// CenteringParams contains all parameters for rotational-symmetry centering.
type CenteringParams struct {
	// NumAngles is the number of test rotations, spaced 360/NumAngles
	// degrees apart with a half-step phase offset.
	NumAngles int
	// BoxSize is the diameter of the square window compared after rotation.
	BoxSize int
	// Grid is the candidate shift grid shared by every angle.
	Grid           Grid
	SaturationMask SaturationMask
	Tolerance      Tolerance
	// MaxIterations bounds the number of passes in tolerance mode.
	MaxIterations int
	// Workers limits how many angles are evaluated concurrently.
	Workers int
}

// NewCenteringParams creates CenteringParams with default values.
func NewCenteringParams() *CenteringParams {
	return &CenteringParams{
		NumAngles:     36,
		BoxSize:       128,
		Grid:          DefaultGrid(),
		MaxIterations: 20,
		Workers:       runtime.NumCPU(),
	}
}

// Validate checks p against an image of the given size.
func (p *CenteringParams) Validate(rows, cols int) error {
	if p.NumAngles <= 0 {
		return fmt.Errorf("%w: angle count must be positive, got %d", ErrInvalidConfig, p.NumAngles)
	}
	if p.BoxSize < minBoxSize {
		return fmt.Errorf("%w: box size must be at least %d, got %d", ErrInvalidConfig, minBoxSize, p.BoxSize)
	}
	if p.BoxSize > rows || p.BoxSize > cols {
		return fmt.Errorf("%w: box size %d exceeds image extent %dx%d", ErrInvalidConfig, p.BoxSize, cols, rows)
	}
	if p.Grid.HalfSteps < 0 {
		return fmt.Errorf("%w: grid half steps must not be negative, got %d", ErrInvalidConfig, p.Grid.HalfSteps)
	}
	if p.Grid.Step <= 0 {
		return fmt.Errorf("%w: grid step must be positive, got %f", ErrInvalidConfig, p.Grid.Step)
	}
	if p.SaturationMask.Enabled && p.SaturationMask.Radius < 0 {
		return fmt.Errorf("%w: saturation radius must not be negative, got %f", ErrInvalidConfig, p.SaturationMask.Radius)
	}
	if p.Tolerance.Enabled && p.Tolerance.Pixels < 0 {
		return fmt.Errorf("%w: tolerance must not be negative, got %f", ErrInvalidConfig, p.Tolerance.Pixels)
	}
	if p.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be at least 1, got %d", ErrInvalidConfig, p.MaxIterations)
	}
	return nil
}

func (p *CenteringParams) workers() int {
	if p.Workers < 1 {
		return 1
	}
	return p.Workers
}
