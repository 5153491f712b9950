package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/abhijithrajan/subpixelcentering/pkg/subpix"
)

func isFits(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fits", ".fit", ".fts":
		return true
	}
	return false
}

// loadImage reads a FITS file with its header, or any other image format
// through loadNonFitsImage. The header is empty for non-FITS input.
func loadImage(path string, debayer bool) (subpix.Image, *subpix.FitsHeader, error) {
	var img subpix.Image
	header := subpix.NewFitsHeader()
	if isFits(path) {
		fitsData, err := subpix.ReadFits(path)
		if err != nil {
			return subpix.Image{}, nil, fmt.Errorf("reading FITS: %w", err)
		}
		fmt.Printf("FITS loaded: %dx%d, BITPIX %d\n", fitsData.Image.Cols(), fitsData.Image.Rows(), fitsData.Bitpix)
		img, header = fitsData.Image, fitsData.Header
	} else {
		var err error
		img, err = loadNonFitsImage(path)
		if err != nil {
			return subpix.Image{}, nil, err
		}
	}
	if debayer {
		img = subpix.DebayerRGGB(img)
	}
	return img, header, nil
}
