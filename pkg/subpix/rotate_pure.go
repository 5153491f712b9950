//go:build purego || js

package subpix

// Rotate turns im by angleDeg degrees about its geometric center. Content at
// c+v moves to c+R(angle)v; the frame keeps its shape and exposed corners
// read 0.
func Rotate(im Image, angleDeg float64) Image {
	return rotateCubic(im, angleDeg)
}
