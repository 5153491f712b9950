//go:build !purego && !js

package main

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/abhijithrajan/subpixelcentering/pkg/subpix"
)

func loadNonFitsImage(path string) (subpix.Image, error) {
	src := gocv.IMRead(path, gocv.IMReadGrayScale|gocv.IMReadAnyDepth)
	if src.Empty() {
		return subpix.Image{}, fmt.Errorf("could not load image: %s", path)
	}
	defer src.Close()

	floatMat := gocv.NewMat()
	defer floatMat.Close()
	src.ConvertTo(&floatMat, gocv.MatTypeCV32F)

	data, err := floatMat.DataPtrFloat32()
	if err != nil {
		return subpix.Image{}, fmt.Errorf("reading image samples: %w", err)
	}
	w, h := floatMat.Cols(), floatMat.Rows()
	pixels := make([]float64, w*h)
	for i := range pixels {
		pixels[i] = float64(data[i])
	}
	return subpix.NewImageFromData(h, w, pixels)
}
