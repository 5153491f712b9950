//go:build purego || js

package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/tiff"

	"github.com/abhijithrajan/subpixelcentering/pkg/subpix"
)

func loadNonFitsImage(path string) (subpix.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return subpix.Image{}, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return subpix.Image{}, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Luminance on the 16-bit scale.
			pixels[y*w+x] = float64((19595*r + 38470*g + 7471*b + 1<<15) >> 16)
		}
	}
	return subpix.NewImageFromData(h, w, pixels)
}
