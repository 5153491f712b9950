package subpix

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Grid is the square set of candidate shifts searched for every angle:
// (i-HalfSteps)*Step for i in [0, 2*HalfSteps].
type Grid struct {
	HalfSteps int
	Step      float64
}

// DefaultGrid spans +/-1 px in 0.1 px steps (21x21 candidates).
func DefaultGrid() Grid { return Grid{HalfSteps: 10, Step: 0.1} }

// Size is the number of candidates along one axis.
func (g Grid) Size() int { return 2*g.HalfSteps + 1 }

// Value is the candidate shift at index i.
func (g Grid) Value(i int) float64 { return float64(i-g.HalfSteps) * g.Step }

// Resolution is the spacing of the per-angle offsets after halving.
func (g Grid) Resolution() float64 { return g.Step / 2 }

// ResidualMap holds one residual per candidate, NaN for candidates whose
// inner window had no valid sample.
type ResidualMap struct {
	Grid   Grid
	Values []float64 // [ix*Size + iy]
}

func (m ResidualMap) At(ix, iy int) float64 { return m.Values[ix*m.Grid.Size()+iy] }

// AngleSearch is the best candidate for one rotated/original pair.
type AngleSearch struct {
	// Relative is the winning candidate shift of the rotated crop.
	Relative Shift
	// Offset is Relative halved.
	Offset   Shift
	Residual float64
	Valid    bool
	Map      ResidualMap
}

// maskValue marks saturated samples. NaN survives interpolation, so any
// shifted sample whose support touched the mask comes out invalid.
var maskValue = math.NaN()

// applyMask sets every sample strictly inside radius of the crop center to
// maskValue.
func applyMask(im Image, radius float64) {
	cx, cy := im.Center()
	r2 := radius * radius
	for y := 0; y < im.rows; y++ {
		dy := float64(y) - cy
		for x := 0; x < im.cols; x++ {
			dx := float64(x) - cx
			if dx*dx+dy*dy < r2 {
				im.data[y*im.cols+x] = maskValue
			}
		}
	}
}

// SearchShift finds the grid candidate that best aligns rotated to target,
// two crops of the same size. Candidates are scanned with the x index in the
// outer loop; the first minimum wins and NaN residuals never win.
func SearchShift(rotated, target Image, grid Grid, mask SaturationMask) AngleSearch {
	n := grid.Size()
	win := innerWindow(target.cols)
	res := ResidualMap{Grid: grid, Values: make([]float64, n*n)}
	diff := make([]float64, 0, win.Dx()*win.Dy())

	best := AngleSearch{Residual: math.NaN()}
	bestX, bestY := 0, 0
	for ix := 0; ix < n; ix++ {
		for iy := 0; iy < n; iy++ {
			candidate := rotated
			if mask.Enabled {
				// Each candidate masks its own copy.
				candidate = rotated.Clone()
				applyMask(candidate, mask.Radius)
			}
			s := Shift{DX: grid.Value(ix), DY: grid.Value(iy)}
			shifted := shiftRegion(candidate, s, win)

			diff = diff[:0]
			for y := 0; y < win.Dy(); y++ {
				for x := 0; x < win.Dx(); x++ {
					d := shifted.data[y*shifted.cols+x] - target.At(win.Min.X+x, win.Min.Y+y)
					if !math.IsNaN(d) {
						diff = append(diff, d)
					}
				}
			}
			v := math.NaN()
			if len(diff) > 0 {
				v = math.Sqrt(stat.PopVariance(diff, nil))
			}
			res.Values[ix*n+iy] = v

			if !math.IsNaN(v) && (!best.Valid || v < best.Residual) {
				best.Valid = true
				best.Residual = v
				bestX, bestY = ix, iy
			}
		}
	}

	best.Map = res
	if best.Valid {
		best.Relative = Shift{DX: grid.Value(bestX), DY: grid.Value(bestY)}
		best.Offset = Shift{
			DX: float64(bestX-grid.HalfSteps) * grid.Resolution(),
			DY: float64(bestY-grid.HalfSteps) * grid.Resolution(),
		}
	}
	return best
}
