package subpix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// gaussianImage renders a circular Gaussian of the given sigma and peak
// centered at (cx, cy).
func gaussianImage(rows, cols int, cx, cy, sigma, peak float64) Image {
	im := NewImage(rows, cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			im.Set(x, y, peak*math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma)))
		}
	}
	return im
}

// offsetGaussian renders a Gaussian displaced by d from the geometric center.
func offsetGaussian(size int, d Shift, sigma float64) Image {
	c := float64(size-1) / 2
	return gaussianImage(size, size, c+d.DX, c+d.DY, sigma, 1000)
}

// smallParams keeps package tests fast: 128x128 fixtures, 64 px window.
func smallParams() *CenteringParams {
	p := NewCenteringParams()
	p.NumAngles = 36
	p.BoxSize = 64
	p.Workers = 4
	return p
}

func requireMultipleOf(t *testing.T, v, step float64) {
	t.Helper()
	q := v / step
	require.InDelta(t, math.Round(q), q, 1e-9, "%v is not a multiple of %v", v, step)
}
