package subpix

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// KappaSigmaResult holds background estimation results.
type KappaSigmaResult struct {
	Sigma          float64
	BackgroundMean float64
	NumIterations  int
}

// KappaSigmaBackground estimates the sky level by iteratively discarding
// samples above mean + clippingMultiplier*sigma until sigma changes by at most
// allowedError. NaN samples are ignored.
func KappaSigmaBackground(img Image, clippingMultiplier, allowedError float64, maxIterations int) KappaSigmaResult {
	threshold := math.Inf(1)
	lastSigma := 1.0
	lastBackgroundMean := 1.0
	numIterations := 0

	kept := make([]float64, 0, len(img.data))
	for numIterations < maxIterations {
		kept = kept[:0]
		for _, v := range img.data {
			if !math.IsNaN(v) && v < threshold {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			break
		}
		meanVal, sigmaVal := stat.PopMeanStdDev(kept, nil)

		numIterations++
		if numIterations > 1 && math.Abs(sigmaVal-lastSigma) <= allowedError {
			lastSigma = sigmaVal
			lastBackgroundMean = meanVal
			break
		}
		threshold = meanVal + clippingMultiplier*sigmaVal
		lastSigma = sigmaVal
		lastBackgroundMean = meanVal
	}

	return KappaSigmaResult{
		Sigma:          lastSigma,
		BackgroundMean: lastBackgroundMean,
		NumIterations:  numIterations,
	}
}

// Centroid is an intensity-weighted first moment.
type Centroid struct {
	X    float64
	Y    float64
	Flux float64
}

// MomentCentroid computes the first moment of img above background. Samples
// at or below background and NaN samples carry no weight. ok is false when no
// sample is above background.
func MomentCentroid(img Image, background float64) (c Centroid, ok bool) {
	var sx, sy float64
	for y := 0; y < img.rows; y++ {
		row := img.data[y*img.cols : (y+1)*img.cols]
		for x, v := range row {
			w := v - background
			if !(w > 0) {
				continue
			}
			sx += w * float64(x)
			sy += w * float64(y)
			c.Flux += w
		}
	}
	if c.Flux == 0 {
		return Centroid{}, false
	}
	c.X = sx / c.Flux
	c.Y = sy / c.Flux
	return c, true
}

// MeasureCentroid subtracts a 3-sigma clipped background estimate and returns
// the moment centroid of what is left.
func MeasureCentroid(img Image) (Centroid, KappaSigmaResult, bool) {
	bg := KappaSigmaBackground(img, 3, 1e-6, 20)
	c, ok := MomentCentroid(img, bg.BackgroundMean)
	return c, bg, ok
}
