//go:build !purego && !js

package subpix

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// Rotate turns im by angleDeg degrees about its geometric center. Content at
// c+v moves to c+R(angle)v; the frame keeps its shape and exposed corners
// read 0. OpenCV's bicubic kernel uses a = -0.75 where rotateCubic uses
// Catmull-Rom (a = -0.5), so the two agree closely but not exactly.
func Rotate(im Image, angleDeg float64) Image {
	src := toMat(im)
	defer src.Close()

	rad := angleDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	cx, cy := im.Center()

	// GetRotationMatrix2D only takes an integer center, so build the forward
	// map by hand: dst = R*src + (c - R*c).
	m := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer m.Close()
	m.SetDoubleAt(0, 0, cos)
	m.SetDoubleAt(0, 1, -sin)
	m.SetDoubleAt(0, 2, cx-cos*cx+sin*cy)
	m.SetDoubleAt(1, 0, sin)
	m.SetDoubleAt(1, 1, cos)
	m.SetDoubleAt(1, 2, cy-sin*cx-cos*cy)

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.WarpAffineWithParams(src, &dst, m, image.Pt(im.cols, im.rows),
		gocv.InterpolationCubic, gocv.BorderConstant, color.RGBA{})

	return fromMat(dst, im.rows, im.cols)
}

func toMat(im Image) gocv.Mat {
	m := gocv.NewMatWithSize(im.rows, im.cols, gocv.MatTypeCV64F)
	data, _ := m.DataPtrFloat64()
	copy(data, im.data)
	return m
}

func fromMat(m gocv.Mat, rows, cols int) Image {
	out := NewImage(rows, cols)
	data, _ := m.DataPtrFloat64()
	copy(out.data, data)
	return out
}
