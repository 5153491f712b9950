package subpix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebayerUniform(t *testing.T) {
	raw := NewImage(6, 8)
	for i := range raw.Data() {
		raw.Data()[i] = 42
	}
	out := DebayerRGGB(raw)
	assert.Equal(t, 6, out.Rows())
	assert.Equal(t, 8, out.Cols())
	for _, v := range out.Data() {
		assert.InDelta(t, 42.0, v, 1e-12)
	}
}

func TestDebayerRedOnlyMosaic(t *testing.T) {
	raw := NewImage(8, 8)
	for y := 0; y < 8; y += 2 {
		for x := 0; x < 8; x += 2 {
			raw.Set(x, y, 3)
		}
	}
	out := DebayerRGGB(raw)
	// Away from the edges every site sees red 3 and nothing else.
	for y := 1; y < 7; y++ {
		for x := 1; x < 7; x++ {
			assert.InDelta(t, 1.0, out.At(x, y), 1e-12, "(%d,%d)", x, y)
		}
	}
}
