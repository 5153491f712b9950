package subpix

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Angles returns n test rotations in degrees, (k+0.5)*360/n for k in [0, n).
// The half-step phase keeps 0 degrees out of the set.
func Angles(n int) []float64 {
	angles := make([]float64, n)
	step := 360 / float64(n)
	for k := range angles {
		angles[k] = (float64(k) + 0.5) * step
	}
	return angles
}

// Aggregate runs the grid search for every test angle and combines the
// per-angle offsets into a consensus offset of img's center of rotational
// symmetry from its geometric center.
//
// A center offset d shows up in the rotation by angle a as a relative shift
// (I - R(a))d, which the grid search halves. The mean of the halved shifts
// is therefore M*d with M the mean of (I - R(a))/2 over the valid angles;
// Offset solves that 2x2 system. For a full evenly spaced set M is I/2.
func Aggregate(ctx context.Context, img Image, p *CenteringParams) (*Pass, error) {
	if err := p.Validate(img.rows, img.cols); err != nil {
		return nil, err
	}
	target, err := CropCenter(img, p.BoxSize)
	if err != nil {
		return nil, err
	}

	angles := Angles(p.NumAngles)
	results := make([]AngleOffset, len(angles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i, angle := range angles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rotated, err := CropCenter(Rotate(img, angle), p.BoxSize)
			if err != nil {
				return err
			}
			s := SearchShift(rotated, target, p.Grid, p.SaturationMask)
			results[i] = AngleOffset{
				Angle:     angle,
				Offset:    s.Offset,
				Residual:  s.Residual,
				Valid:     s.Valid,
				Residuals: s.Map,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pass := &Pass{Angles: results}
	mean, offset, err := consensus(results)
	if err != nil {
		return nil, err
	}
	pass.MeanOffset = mean
	pass.Offset = offset
	pass.Image = ShiftImage(img, offset.Neg())
	return pass, nil
}

// consensus averages the valid per-angle offsets and maps the mean back to
// a center offset through the angle response matrix.
func consensus(results []AngleOffset) (mean, offset Shift, err error) {
	var dx, dy, c, s []float64
	for _, r := range results {
		if !r.Valid {
			continue
		}
		rad := r.Angle * math.Pi / 180
		dx = append(dx, r.Offset.DX)
		dy = append(dy, r.Offset.DY)
		c = append(c, (1-math.Cos(rad))/2)
		s = append(s, math.Sin(rad)/2)
	}
	if len(dx) == 0 {
		return Shift{}, Shift{}, ErrNoValidAngles
	}
	mean = Shift{DX: stat.Mean(dx, nil), DY: stat.Mean(dy, nil)}

	a, b := stat.Mean(c, nil), stat.Mean(s, nil)
	m := mat.NewDense(2, 2, []float64{
		a, b,
		-b, a,
	})
	var d mat.VecDense
	if err := d.SolveVec(m, mat.NewVecDense(2, []float64{mean.DX, mean.DY})); err != nil {
		return Shift{}, Shift{}, fmt.Errorf("solve angle response: %w", err)
	}
	return mean, Shift{DX: d.AtVec(0), DY: d.AtVec(1)}, nil
}
