// Package subpix finds the sub-pixel center of a point-source image from the
// rotational symmetry of its PSF.
package subpix

import (
	"fmt"
	"image"
	"math"
)

// Image is a 2D float64 sample array stored row-major. Operations in this
// package never modify their inputs; they return new Images.
type Image struct {
	data []float64
	rows int
	cols int
}

func NewImage(rows, cols int) Image {
	return Image{data: make([]float64, rows*cols), rows: rows, cols: cols}
}

// NewImageFromData wraps data (row-major, len rows*cols) without copying.
func NewImageFromData(rows, cols int, data []float64) (Image, error) {
	if rows <= 0 || cols <= 0 {
		return Image{}, fmt.Errorf("image dimensions must be positive, got %dx%d", cols, rows)
	}
	if len(data) != rows*cols {
		return Image{}, fmt.Errorf("image data has %d samples, want %d", len(data), rows*cols)
	}
	return Image{data: data, rows: rows, cols: cols}, nil
}

func (im Image) Rows() int   { return im.rows }
func (im Image) Cols() int   { return im.cols }
func (im Image) Empty() bool { return im.data == nil || im.rows == 0 || im.cols == 0 }

// Data returns the backing row-major slice.
func (im Image) Data() []float64 { return im.data }

func (im Image) At(x, y int) float64 { return im.data[y*im.cols+x] }

func (im Image) Set(x, y int, v float64) { im.data[y*im.cols+x] = v }

func (im Image) Clone() Image {
	data := make([]float64, len(im.data))
	copy(data, im.data)
	return Image{data: data, rows: im.rows, cols: im.cols}
}

// Center returns the geometric center ((cols-1)/2, (rows-1)/2).
func (im Image) Center() (float64, float64) {
	return float64(im.cols-1) / 2, float64(im.rows-1) / 2
}

// Region copies the samples inside r, which must lie within the image.
func (im Image) Region(r image.Rectangle) Image {
	out := NewImage(r.Dy(), r.Dx())
	for y := 0; y < r.Dy(); y++ {
		srcOff := (r.Min.Y+y)*im.cols + r.Min.X
		copy(out.data[y*out.cols:(y+1)*out.cols], im.data[srcOff:srcOff+r.Dx()])
	}
	return out
}

// CenterRect returns the size x size window centered on an image of the
// given extent. The origin is floor((extent-size)/2) on each axis.
func CenterRect(rows, cols, size int) image.Rectangle {
	x0 := (cols - size) / 2
	y0 := (rows - size) / 2
	return image.Rect(x0, y0, x0+size, y0+size)
}

// CropCenter extracts the size x size window from the center of im.
func CropCenter(im Image, size int) (Image, error) {
	if size <= 0 {
		return Image{}, fmt.Errorf("%w: window size must be positive, got %d", ErrInvalidConfig, size)
	}
	if size > im.rows || size > im.cols {
		return Image{}, fmt.Errorf("%w: window size %d exceeds image extent %dx%d", ErrInvalidConfig, size, im.cols, im.rows)
	}
	return im.Region(CenterRect(im.rows, im.cols, size)), nil
}

// innerWindow is the middle half of a size x size crop,
// [size/2 - size/4, size/2 + size/4) on both axes.
func innerWindow(size int) image.Rectangle {
	lo := size/2 - size/4
	hi := size/2 + size/4
	return image.Rect(lo, lo, hi, hi)
}

// MinMax returns the smallest and largest non-NaN samples. ok is false when
// every sample is NaN.
func (im Image) MinMax() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range im.data {
		if math.IsNaN(v) {
			continue
		}
		ok = true
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, ok
}
