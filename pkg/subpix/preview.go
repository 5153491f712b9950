package subpix

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// ToGray8 stretches the finite samples of im linearly onto 0..255. NaN
// samples render black.
func ToGray8(im Image) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, im.cols, im.rows))
	lo, hi, ok := im.MinMax()
	if !ok {
		return out
	}
	scale := 0.0
	if hi > lo {
		scale = 255 / (hi - lo)
	}
	for y := 0; y < im.rows; y++ {
		for x := 0; x < im.cols; x++ {
			v := im.At(x, y)
			if math.IsNaN(v) {
				continue
			}
			out.SetGray(x, y, color.Gray{Y: uint8(math.Round((v - lo) * scale))})
		}
	}
	return out
}

// WritePreview saves an 8-bit rendering of im scaled to fit within
// maxSize x maxSize. The format follows the file extension.
func WritePreview(filePath string, im Image, maxSize int) error {
	if im.Empty() {
		return fmt.Errorf("preview: empty image")
	}
	var img image.Image = ToGray8(im)
	if im.cols > maxSize || im.rows > maxSize {
		img = imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	}
	if err := imaging.Save(img, filePath); err != nil {
		return fmt.Errorf("save preview: %w", err)
	}
	return nil
}
