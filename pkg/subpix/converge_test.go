package subpix

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerSinglePass(t *testing.T) {
	c := &controller{params: NewCenteringParams(), state: StateInitial}
	c.step(&Pass{Offset: Shift{DX: 0.3, DY: -0.1}})
	assert.Equal(t, StateConverged, c.state)
	assert.True(t, c.done())
	assert.Equal(t, Shift{DX: 0.3, DY: -0.1}, c.total)
}

func TestControllerTolerance(t *testing.T) {
	p := NewCenteringParams()
	p.Tolerance = Tolerance{Enabled: true, Pixels: 0.05}
	p.MaxIterations = 3
	c := &controller{params: p, state: StateInitial}

	c.step(&Pass{Offset: Shift{DX: 0.3, DY: -0.1}})
	assert.Equal(t, StateSearching, c.state)
	c.step(&Pass{Offset: Shift{DX: 0.05, DY: -0.05}})
	assert.Equal(t, StateConverged, c.state)
	assert.InDelta(t, 0.35, c.total.DX, 1e-12)
	assert.InDelta(t, -0.15, c.total.DY, 1e-12)
	assert.Equal(t, Shift{DX: 0.05, DY: -0.05}, c.last)
}

func TestControllerIterationLimit(t *testing.T) {
	p := NewCenteringParams()
	p.Tolerance = Tolerance{Enabled: true, Pixels: 0.01}
	p.MaxIterations = 2
	c := &controller{params: p, state: StateInitial}

	c.step(&Pass{Offset: Shift{DX: 0.3}})
	assert.False(t, c.done())
	c.step(&Pass{Offset: Shift{DY: 0.2}})
	assert.Equal(t, StateIterationLimit, c.state)
	assert.True(t, c.done())
}

func TestCenterSinglePass(t *testing.T) {
	d := Shift{DX: 0.37, DY: -0.22}
	img := offsetGaussian(128, d, 4)
	var seen []int
	res, err := Center(context.Background(), img, smallParams(), func(i int, p *Pass) {
		seen = append(seen, i)
	})
	require.NoError(t, err)
	assert.Equal(t, StateConverged, res.State)
	assert.True(t, res.Converged())
	assert.Equal(t, []int{1}, seen)
	require.Len(t, res.Passes, 1)
	assert.Equal(t, res.Passes[0].Offset, res.Offset)
	assert.Equal(t, res.Passes[0].Image.Data(), res.Image.Data())
	assert.InDelta(t, 63.5+res.Offset.DX, res.CenterX, 1e-12)
	assert.InDelta(t, 63.5+res.Offset.DY, res.CenterY, 1e-12)
}

func TestCenterIterates(t *testing.T) {
	d := Shift{DX: 0.37, DY: -0.22}
	img := offsetGaussian(128, d, 4)
	p := smallParams()
	p.Tolerance = Tolerance{Enabled: true, Pixels: 0.02}

	res, err := Center(context.Background(), img, p, nil)
	require.NoError(t, err)
	assert.Equal(t, StateConverged, res.State)
	require.GreaterOrEqual(t, len(res.Passes), 2)
	assert.LessOrEqual(t, len(res.Passes), p.MaxIterations)

	total := Shift{}
	for _, pass := range res.Passes {
		total = total.Add(pass.Offset)
	}
	assert.Equal(t, total, res.Offset)
	assert.True(t, res.Passes[len(res.Passes)-1].Offset.Within(0.02))

	first := res.Passes[0].Offset
	second := res.Passes[1].Offset
	assert.LessOrEqual(t, abs(second.DX), abs(first.DX))
	assert.LessOrEqual(t, abs(second.DY), abs(first.DY))

	assert.InDelta(t, d.DX, res.Offset.DX, 0.05)
	assert.InDelta(t, d.DY, res.Offset.DY, 0.05)

	// The output is one resampling of the original, not a chain.
	want := ShiftImage(img, res.Offset.Neg())
	assert.Equal(t, want.Data(), res.Image.Data())
}

func TestCenterReportsIterationLimit(t *testing.T) {
	img := offsetGaussian(128, Shift{DX: 0.37, DY: -0.22}, 4)
	p := smallParams()
	p.Tolerance = Tolerance{Enabled: true, Pixels: 1e-6}
	p.MaxIterations = 1

	res, err := Center(context.Background(), img, p, nil)
	require.NoError(t, err)
	assert.Equal(t, StateIterationLimit, res.State)
	assert.False(t, res.Converged())
	assert.Len(t, res.Passes, 1)
}

func TestCenterRejectsInvalidConfig(t *testing.T) {
	p := smallParams()
	p.MaxIterations = 0
	_, err := Center(context.Background(), NewImage(128, 128), p, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCenterScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("256x256 scenario")
	}
	// Symmetric Gaussian, sigma 4, displaced by (+0.37, -0.22) from the
	// array center; defaults: 36 angles, 128 px window, single pass.
	d := Shift{DX: 0.37, DY: -0.22}
	img := offsetGaussian(256, d, 4)

	res, err := Center(context.Background(), img, NewCenteringParams(), nil)
	require.NoError(t, err)
	assert.Equal(t, StateConverged, res.State)
	assert.InDelta(t, d.DX, res.Offset.DX, 0.05)
	assert.InDelta(t, d.DY, res.Offset.DY, 0.05)

	c, ok := MomentCentroid(res.Image, 0)
	require.True(t, ok)
	assert.InDelta(t, 127.5, c.X, 0.1)
	assert.InDelta(t, 127.5, c.Y, 0.1)
}
