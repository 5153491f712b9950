package subpix

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// kernel is the cubic convolution kernel used for every resampling in the
// package. Samples outside the image read as 0, and a NaN anywhere in a
// 4x4 support turns the output NaN.
var kernel = draw.CatmullRom

// cubicWeights fills w with the weights of the four taps at offsets -1..2
// around a sample whose fractional position is t in [0, 1).
func cubicWeights(t float64, w *[4]float64) {
	w[0] = kernel.At(1 + t)
	w[1] = kernel.At(t)
	w[2] = kernel.At(1 - t)
	w[3] = kernel.At(2 - t)
}

// sampleCubic interpolates im at (x, y).
func sampleCubic(im Image, x, y float64) float64 {
	if x < -2 || y < -2 || x > float64(im.cols+1) || y > float64(im.rows+1) {
		return 0
	}
	fx, fy := math.Floor(x), math.Floor(y)
	var wx, wy [4]float64
	cubicWeights(x-fx, &wx)
	cubicWeights(y-fy, &wy)
	x0, y0 := int(fx)-1, int(fy)-1

	var v float64
	for j := 0; j < 4; j++ {
		yy := y0 + j
		if yy < 0 || yy >= im.rows {
			continue
		}
		row := im.data[yy*im.cols : (yy+1)*im.cols]
		var rv float64
		for i := 0; i < 4; i++ {
			xx := x0 + i
			if xx < 0 || xx >= im.cols {
				continue
			}
			rv += wx[i] * row[xx]
		}
		v += wy[j] * rv
	}
	return v
}

// rotateCubic is Rotate sampled with the package kernel.
func rotateCubic(im Image, angleDeg float64) Image {
	rad := angleDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	cx, cy := im.Center()

	dst := NewImage(im.rows, im.cols)
	for y := 0; y < im.rows; y++ {
		vy := float64(y) - cy
		off := y * im.cols
		for x := 0; x < im.cols; x++ {
			vx := float64(x) - cx
			// Inverse map: sample the source at c + R(-angle)v.
			sx := cx + cos*vx + sin*vy
			sy := cy - sin*vx + cos*vy
			dst.data[off+x] = sampleCubic(im, sx, sy)
		}
	}
	return dst
}

// ShiftImage translates im by s with cubic interpolation, keeping its shape.
func ShiftImage(im Image, s Shift) Image {
	return shiftRegion(im, s, image.Rect(0, 0, im.cols, im.rows))
}

// shiftRegion evaluates ShiftImage(im, s) only inside r. A pure translation
// has the same fractional phase at every sample, so the two separable passes
// use one set of weights each.
func shiftRegion(im Image, s Shift, r image.Rectangle) Image {
	ox := math.Floor(-s.DX)
	oy := math.Floor(-s.DY)
	var wx, wy [4]float64
	cubicWeights(-s.DX-ox, &wx)
	cubicWeights(-s.DY-oy, &wy)
	dx, dy := int(ox)-1, int(oy)-1

	w, h := r.Dx(), r.Dy()
	// Horizontal pass over every source row the vertical taps reach.
	tmp := make([]float64, (h+3)*w)
	for i := 0; i < h+3; i++ {
		sy := r.Min.Y + dy + i
		if sy < 0 || sy >= im.rows {
			continue
		}
		row := im.data[sy*im.cols : (sy+1)*im.cols]
		out := tmp[i*w : (i+1)*w]
		for j := range out {
			sx := r.Min.X + dx + j
			var v float64
			for k := 0; k < 4; k++ {
				c := sx + k
				if c >= 0 && c < im.cols {
					v += wx[k] * row[c]
				}
			}
			out[j] = v
		}
	}

	dst := NewImage(h, w)
	for i := 0; i < h; i++ {
		out := dst.data[i*w : (i+1)*w]
		for j := range out {
			out[j] = wy[0]*tmp[i*w+j] + wy[1]*tmp[(i+1)*w+j] + wy[2]*tmp[(i+2)*w+j] + wy[3]*tmp[(i+3)*w+j]
		}
	}
	return dst
}
