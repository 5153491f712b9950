package subpix

// DebayerRGGB performs bilinear interpolation on a raw RGGB Bayer-pattern image
// and returns a luminance channel: (R + G + B) / 3 per pixel.
//
// RGGB layout (row-major, 0-indexed):
//
//	(even row, even col) = R
//	(even row, odd  col) = G  (Gr)
//	(odd  row, even col) = G  (Gb)
//	(odd  row, odd  col) = B
//
// Edge pixels replicate their nearest neighbour.
func DebayerRGGB(raw Image) Image {
	out := NewImage(raw.rows, raw.cols)
	px := func(x, y int) float64 {
		return raw.At(clampIndex(x, raw.cols), clampIndex(y, raw.rows))
	}
	cross := func(x, y int) float64 {
		return (px(x-1, y) + px(x+1, y) + px(x, y-1) + px(x, y+1)) / 4
	}
	diagonal := func(x, y int) float64 {
		return (px(x-1, y-1) + px(x+1, y-1) + px(x-1, y+1) + px(x+1, y+1)) / 4
	}
	horizontal := func(x, y int) float64 { return (px(x-1, y) + px(x+1, y)) / 2 }
	vertical := func(x, y int) float64 { return (px(x, y-1) + px(x, y+1)) / 2 }

	for y := 0; y < raw.rows; y++ {
		for x := 0; x < raw.cols; x++ {
			var r, g, b float64
			switch {
			case y%2 == 0 && x%2 == 0:
				r, g, b = px(x, y), cross(x, y), diagonal(x, y)
			case y%2 == 0:
				r, g, b = horizontal(x, y), px(x, y), vertical(x, y)
			case x%2 == 0:
				r, g, b = vertical(x, y), px(x, y), horizontal(x, y)
			default:
				r, g, b = diagonal(x, y), cross(x, y), px(x, y)
			}
			out.Set(x, y, (r+g+b)/3)
		}
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
