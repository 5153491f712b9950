package subpix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	g := DefaultGrid()
	assert.Equal(t, 21, g.Size())
	assert.InDelta(t, -1.0, g.Value(0), 1e-12)
	assert.InDelta(t, 0.0, g.Value(10), 1e-12)
	assert.InDelta(t, 1.0, g.Value(20), 1e-12)
	assert.InDelta(t, 0.05, g.Resolution(), 1e-12)
}

func TestSearchShiftFindsRelativeShift(t *testing.T) {
	const size = 48
	c := float64(size-1) / 2
	target := gaussianImage(size, size, c, c, 3, 1)
	// The rotated copy sits 0.4 px left of and 0.2 px below the target.
	rotated := gaussianImage(size, size, c-0.4, c+0.2, 3, 1)

	s := SearchShift(rotated, target, DefaultGrid(), SaturationMask{})
	require.True(t, s.Valid)
	assert.InDelta(t, 0.4, s.Relative.DX, 1e-9)
	assert.InDelta(t, -0.2, s.Relative.DY, 1e-9)
	assert.InDelta(t, 0.2, s.Offset.DX, 1e-9)
	assert.InDelta(t, -0.1, s.Offset.DY, 1e-9)
	assert.Len(t, s.Map.Values, 21*21)
	assert.Equal(t, s.Residual, s.Map.At(14, 8))
}

func TestSearchShiftFirstMinimumWins(t *testing.T) {
	// Every candidate has residual 0; the first cell in scan order wins.
	zero := NewImage(16, 16)
	s := SearchShift(zero, zero, DefaultGrid(), SaturationMask{})
	require.True(t, s.Valid)
	assert.Equal(t, Shift{DX: -1, DY: -1}, s.Relative)
	assert.Equal(t, 0.0, s.Residual)
}

func TestSearchShiftScansXOuter(t *testing.T) {
	g := Grid{HalfSteps: 1, Step: 0.5}
	const size = 32
	c := float64(size-1) / 2
	target := gaussianImage(size, size, c, c, 3, 1)
	rotated := gaussianImage(size, size, c-0.5, c, 3, 1)

	s := SearchShift(rotated, target, g, SaturationMask{})
	require.True(t, s.Valid)
	assert.Equal(t, 0.5, s.Relative.DX)
	assert.Equal(t, 0.0, s.Relative.DY)
	// Map index is ix*Size + iy.
	assert.Equal(t, s.Map.Values[2*3+1], s.Residual)
}

func TestSearchShiftFullyMaskedIsInvalid(t *testing.T) {
	const size = 32
	target := gaussianImage(size, size, 15.5, 15.5, 3, 1)
	s := SearchShift(target.Clone(), target, DefaultGrid(), SaturationMask{Enabled: true, Radius: 100})
	assert.False(t, s.Valid)
	assert.True(t, math.IsNaN(s.Residual))
	assert.Equal(t, Shift{}, s.Offset)
	for _, v := range s.Map.Values {
		assert.True(t, math.IsNaN(v))
	}
}

func TestSearchShiftMaskLeavesInputUntouched(t *testing.T) {
	const size = 32
	c := float64(size-1) / 2
	target := gaussianImage(size, size, c, c, 3, 1)
	rotated := gaussianImage(size, size, c+0.3, c, 3, 1)
	before := rotated.Clone()

	s := SearchShift(rotated, target, DefaultGrid(), SaturationMask{Enabled: true, Radius: 3})
	require.True(t, s.Valid)
	assert.Equal(t, before.Data(), rotated.Data())
	assert.InDelta(t, -0.3, s.Relative.DX, 1e-9)
}

func TestSearchShiftMaskExcludesCore(t *testing.T) {
	const size = 32
	c := float64(size-1) / 2
	target := gaussianImage(size, size, c, c, 3, 1)

	masked := SearchShift(target.Clone(), target, DefaultGrid(), SaturationMask{Enabled: true, Radius: 4})
	plain := SearchShift(target.Clone(), target, DefaultGrid(), SaturationMask{})
	require.True(t, masked.Valid)
	require.True(t, plain.Valid)
	// Cells are still defined but computed over fewer samples.
	assert.NotEqual(t, plain.Map.At(0, 0), masked.Map.At(0, 0))
}

func TestSearchShiftRadiusZeroMaskIsEmpty(t *testing.T) {
	const size = 32
	c := float64(size-1) / 2
	target := gaussianImage(size, size, c, c, 3, 1)
	rotated := gaussianImage(size, size, c+0.2, c-0.1, 3, 1)

	masked := SearchShift(rotated, target, DefaultGrid(), SaturationMask{Enabled: true, Radius: 0})
	plain := SearchShift(rotated, target, DefaultGrid(), SaturationMask{})
	assert.Equal(t, plain.Relative, masked.Relative)
	assert.Equal(t, plain.Residual, masked.Residual)
}

func TestApplyMaskStrictRadius(t *testing.T) {
	im := NewImage(5, 5)
	applyMask(im, 1)
	// Only the center is strictly closer than 1 px.
	assert.True(t, math.IsNaN(im.At(2, 2)))
	assert.False(t, math.IsNaN(im.At(3, 2)))
	assert.False(t, math.IsNaN(im.At(2, 1)))
}
