package subpix

import "context"

// Observer is called after every completed pass. iteration starts at 1.
type Observer func(iteration int, pass *Pass)

// controller accumulates the offset across passes. Passes never overlap, so
// total only changes between them.
type controller struct {
	params *CenteringParams
	state  State
	last   Shift
	total  Shift
	passes []*Pass
}

// step records a finished pass and moves to the next state.
func (c *controller) step(pass *Pass) {
	c.passes = append(c.passes, pass)
	c.last = pass.Offset
	c.total = c.total.Add(pass.Offset)
	c.state = StateSearching

	switch {
	case !c.params.Tolerance.Enabled:
		c.state = StateConverged
	case c.last.Within(c.params.Tolerance.Pixels):
		c.state = StateConverged
	case len(c.passes) >= c.params.MaxIterations:
		c.state = StateIterationLimit
	}
}

func (c *controller) done() bool {
	return c.state == StateConverged || c.state == StateIterationLimit
}

// Center estimates the center of rotational symmetry of img.
//
// Without a tolerance it runs a single pass. With one it re-runs on each
// re-centered image until both components of a pass offset are within the
// tolerance, or MaxIterations passes have run. The returned image is always
// the original input resampled once by the negated total offset.
func Center(ctx context.Context, img Image, p *CenteringParams, observe Observer) (*Result, error) {
	if err := p.Validate(img.rows, img.cols); err != nil {
		return nil, err
	}

	c := &controller{params: p, state: StateInitial}
	current := img
	for !c.done() {
		pass, err := Aggregate(ctx, current, p)
		if err != nil {
			return nil, err
		}
		c.step(pass)
		if observe != nil {
			observe(len(c.passes), pass)
		}
		current = pass.Image
	}

	cx, cy := img.Center()
	res := &Result{
		Offset:  c.total,
		CenterX: cx + c.total.DX,
		CenterY: cy + c.total.DY,
		Passes:  c.passes,
		State:   c.state,
	}
	if len(c.passes) == 1 {
		res.Image = c.passes[0].Image
	} else {
		res.Image = ShiftImage(img, c.total.Neg())
	}
	return res, nil
}
