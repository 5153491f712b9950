package subpix

import "fmt"

// Shift is a sub-pixel translation. Positive DX moves content right,
// positive DY moves content down.
type Shift struct {
	DX float64
	DY float64
}

func (s Shift) Add(o Shift) Shift { return Shift{DX: s.DX + o.DX, DY: s.DY + o.DY} }
func (s Shift) Neg() Shift        { return Shift{DX: -s.DX, DY: -s.DY} }

// Within reports whether both components are at most tol in magnitude.
func (s Shift) Within(tol float64) bool {
	return abs(s.DX) <= tol && abs(s.DY) <= tol
}

func (s Shift) String() string {
	return fmt.Sprintf("(%+.4f, %+.4f)", s.DX, s.DY)
}

// AngleOffset is the grid search outcome for one test angle.
type AngleOffset struct {
	// Angle is the test rotation in degrees.
	Angle float64
	// Offset is the winning candidate halved; zero when Valid is false.
	Offset Shift
	// Residual is the standard deviation at the winning candidate.
	Residual  float64
	Valid     bool
	Residuals ResidualMap
}

// Pass is one run of every test angle over an image.
type Pass struct {
	Angles []AngleOffset
	// MeanOffset is the component-wise mean of the valid per-angle offsets.
	MeanOffset Shift
	// Offset is the consensus offset of the image center from the geometric
	// center of the array.
	Offset Shift
	// Image is the pass input resampled by -Offset.
	Image Image
}

// ValidAngles counts the angles that contributed to the consensus.
func (p *Pass) ValidAngles() int {
	n := 0
	for _, a := range p.Angles {
		if a.Valid {
			n++
		}
	}
	return n
}

// State is the convergence controller state.
type State int

const (
	StateInitial State = iota
	StateSearching
	StateConverged
	StateIterationLimit
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateSearching:
		return "Searching"
	case StateConverged:
		return "Converged"
	case StateIterationLimit:
		return "IterationLimit"
	default:
		return "Unknown"
	}
}

// Result is the output of Center.
type Result struct {
	// Offset is the total offset of the rotational-symmetry center from the
	// geometric center of the input.
	Offset Shift
	// CenterX and CenterY locate the center of rotational symmetry in
	// input pixel coordinates.
	CenterX float64
	CenterY float64
	// Image is the input resampled by -Offset.
	Image  Image
	Passes []*Pass
	State  State
}

// Converged is false only when the iteration limit ended the search.
func (r *Result) Converged() bool { return r.State == StateConverged }

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
