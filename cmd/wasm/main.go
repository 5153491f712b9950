//go:build js && wasm

package main

import (
	"bytes"
	"context"
	"syscall/js"

	"github.com/abhijithrajan/subpixelcentering/pkg/subpix"
)

var (
	lastResult *subpix.Result
	lastHeader *subpix.FitsHeader
)

func main() {
	js.Global().Set("centerFITS", js.FuncOf(centerFITS))
	js.Global().Set("renderPlot", js.FuncOf(renderPlot))
	js.Global().Set("recenteredFITS", js.FuncOf(recenteredFITS))
	select {} // block forever
}

// centerFITS(fileBytes, options) centers the primary image of a FITS file.
// Recognised options: angles, box, satRadius, tol, maxIter, debayer.
func centerFITS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("usage: centerFITS(fileBytes, options)")
	}

	jsBytes := args[0]
	fileBytes := make([]byte, jsBytes.Get("length").Int())
	js.CopyBytesToGo(fileBytes, jsBytes)

	params := subpix.NewCenteringParams()
	// The browser runtime is single threaded.
	params.Workers = 1
	debayer := false
	if len(args) >= 2 && args[1].Type() == js.TypeObject {
		opts := args[1]
		if v := opts.Get("angles"); v.Type() == js.TypeNumber {
			params.NumAngles = v.Int()
		}
		if v := opts.Get("box"); v.Type() == js.TypeNumber {
			params.BoxSize = v.Int()
		}
		if v := opts.Get("satRadius"); v.Type() == js.TypeNumber {
			params.SaturationMask = subpix.SaturationMask{Enabled: true, Radius: v.Float()}
		}
		if v := opts.Get("tol"); v.Type() == js.TypeNumber {
			params.Tolerance = subpix.Tolerance{Enabled: true, Pixels: v.Float()}
		}
		if v := opts.Get("maxIter"); v.Type() == js.TypeNumber {
			params.MaxIterations = v.Int()
		}
		if v := opts.Get("debayer"); v.Type() == js.TypeBoolean {
			debayer = v.Bool()
		}
	}

	fitsData, err := subpix.ReadFitsFromBytes(fileBytes)
	if err != nil {
		return errorResult("FITS parse error: " + err.Error())
	}
	img := fitsData.Image
	if debayer {
		img = subpix.DebayerRGGB(img)
	}

	res, err := subpix.Center(context.Background(), img, params, nil)
	if err != nil {
		return errorResult("Centering error: " + err.Error())
	}
	lastResult = res
	lastHeader = fitsData.Header
	lastHeader.AnnotateCentering(res, params)

	bg := subpix.KappaSigmaBackground(img, 3, 1e-6, 20)
	jsResult := map[string]interface{}{
		"width":      img.Cols(),
		"height":     img.Rows(),
		"offsetX":    res.Offset.DX,
		"offsetY":    res.Offset.DY,
		"centerX":    res.CenterX,
		"centerY":    res.CenterY,
		"state":      res.State.String(),
		"converged":  res.Converged(),
		"passes":     len(res.Passes),
		"background": bg.BackgroundMean,
		"stddev":     bg.Sigma,
	}

	first := res.Passes[0]
	jsAngles := make([]interface{}, len(first.Angles))
	for i, a := range first.Angles {
		jsAngles[i] = map[string]interface{}{
			"angle":    a.Angle,
			"dx":       a.Offset.DX,
			"dy":       a.Offset.DY,
			"residual": a.Residual,
			"valid":    a.Valid,
		}
	}
	jsResult["angles"] = jsAngles

	return js.ValueOf(jsResult)
}

// renderPlot returns the offset-vs-angle plot of the last run as PNG bytes.
func renderPlot(this js.Value, args []js.Value) interface{} {
	if lastResult == nil {
		return js.Null()
	}
	var buf bytes.Buffer
	if err := subpix.RenderOffsetPlotPNG(&buf, lastResult.Passes); err != nil {
		return js.Null()
	}
	return toUint8Array(buf.Bytes())
}

// recenteredFITS returns the re-centered image of the last run as FITS bytes,
// with the result recorded in its header.
func recenteredFITS(this js.Value, args []js.Value) interface{} {
	if lastResult == nil {
		return js.Null()
	}
	var buf bytes.Buffer
	if err := subpix.EncodeFits(&buf, lastResult.Image, lastHeader); err != nil {
		return js.Null()
	}
	return toUint8Array(buf.Bytes())
}

func toUint8Array(b []byte) js.Value {
	uint8Array := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(uint8Array, b)
	return uint8Array
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}
