package subpix

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	plotWidth  = 720.0
	plotHeight = 420.0
	plotMargin = 50.0
)

// plotRenderer is implemented by both the svg and rasterizer renderers.
type plotRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// offsetPlot maps angles in [0, 360] and offsets in [-span, span] onto the
// plot area. Canvas coordinates grow upwards.
type offsetPlot struct {
	passes []*Pass
	span   float64
}

func newOffsetPlot(passes []*Pass) *offsetPlot {
	span := 0.0
	for _, p := range passes {
		for _, a := range p.Angles {
			if a.Valid {
				span = math.Max(span, math.Max(abs(a.Offset.DX), abs(a.Offset.DY)))
			}
		}
	}
	// Leave headroom and never collapse to a flat axis.
	span = math.Max(span*1.2, 0.1)
	return &offsetPlot{passes: passes, span: span}
}

func (p *offsetPlot) toCanvas(angle, offset float64) (float64, float64) {
	x := plotMargin + angle/360*(plotWidth-2*plotMargin)
	y := plotHeight/2 + offset/p.span*(plotHeight/2-plotMargin)
	return x, y
}

// passColor fades later passes towards grey.
func passColor(base colorful.Color, pass, total int) color.RGBA {
	c := base
	if total > 1 {
		c = base.BlendHcl(colorful.Color{R: 0.8, G: 0.8, B: 0.8}, 0.7*float64(pass)/float64(total-1))
	}
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{r, g, b, 255}
}

var (
	colorDX = colorful.Hsv(210, 0.85, 0.75)
	colorDY = colorful.Hsv(15, 0.85, 0.85)
)

func (p *offsetPlot) render(r plotRenderer) {
	bg := canvas.DefaultStyle
	bg.Fill = canvas.Paint{Color: canvas.White}
	r.RenderPath(canvas.Rectangle(plotWidth, plotHeight), bg, canvas.Identity)

	axis := canvas.DefaultStyle
	axis.Fill = canvas.Paint{Color: canvas.Transparent}
	axis.Stroke = canvas.Paint{Color: canvas.Black}
	axis.StrokeWidth = 1.0
	x0, y0 := p.toCanvas(0, -p.span)
	x1, y1 := p.toCanvas(360, p.span)
	frame := &canvas.Path{}
	frame.MoveTo(x0, y0)
	frame.LineTo(x1, y0)
	frame.LineTo(x1, y1)
	frame.LineTo(x0, y1)
	frame.Close()
	r.RenderPath(frame, axis, canvas.Identity)

	grid := canvas.DefaultStyle
	grid.Fill = canvas.Paint{Color: canvas.Transparent}
	grid.Stroke = canvas.Paint{Color: canvas.Gray}
	grid.StrokeWidth = 0.5
	grid.Dashes = []float64{4.0, 4.0}
	for angle := 90.0; angle < 360; angle += 90 {
		gx, _ := p.toCanvas(angle, 0)
		line := &canvas.Path{}
		line.MoveTo(gx, y0)
		line.LineTo(gx, y1)
		r.RenderPath(line, grid, canvas.Identity)
	}
	zero := &canvas.Path{}
	_, zy := p.toCanvas(0, 0)
	zero.MoveTo(x0, zy)
	zero.LineTo(x1, zy)
	r.RenderPath(zero, grid, canvas.Identity)

	for i, pass := range p.passes {
		p.renderCurve(r, pass, func(a AngleOffset) float64 { return a.Offset.DX }, passColor(colorDX, i, len(p.passes)), nil)
		p.renderCurve(r, pass, func(a AngleOffset) float64 { return a.Offset.DY }, passColor(colorDY, i, len(p.passes)), []float64{6.0, 3.0})
	}
}

func (p *offsetPlot) renderCurve(r plotRenderer, pass *Pass, value func(AngleOffset) float64, c color.RGBA, dashes []float64) {
	line := canvas.DefaultStyle
	line.Fill = canvas.Paint{Color: canvas.Transparent}
	line.Stroke = canvas.Paint{Color: c}
	line.StrokeWidth = 1.5
	line.Dashes = dashes

	marker := canvas.DefaultStyle
	marker.Fill = canvas.Paint{Color: c}
	marker.Stroke = canvas.Paint{Color: canvas.Transparent}

	path := &canvas.Path{}
	started := false
	for _, a := range pass.Angles {
		if !a.Valid {
			// Break the curve at excluded angles.
			started = false
			continue
		}
		x, y := p.toCanvas(a.Angle, value(a))
		if !started {
			path.MoveTo(x, y)
			started = true
		} else {
			path.LineTo(x, y)
		}
		r.RenderPath(canvas.Circle(2.5).Translate(x, y), marker, canvas.Identity)
	}
	r.RenderPath(path, line, canvas.Identity)
}

// RenderOffsetPlotSVG writes the per-angle offsets of every pass as
// offset-vs-angle curves (dx solid, dy dashed).
func RenderOffsetPlotSVG(w io.Writer, passes []*Pass) error {
	p := newOffsetPlot(passes)
	s := svg.New(w, plotWidth, plotHeight, nil)
	p.render(s)
	return s.Close()
}

// RenderOffsetPlotPNG is RenderOffsetPlotSVG rasterized, with axis labels.
func RenderOffsetPlotPNG(w io.Writer, passes []*Pass) error {
	p := newOffsetPlot(passes)
	// One canvas unit per pixel.
	rast := rasterizer.New(plotWidth, plotHeight, canvas.DPI(25.4), canvas.DefaultColorSpace)
	p.render(rast)
	p.label(rast)
	return png.Encode(w, rast)
}

func (p *offsetPlot) label(dst *rasterizer.Rasterizer) {
	face := basicfont.Face7x13
	textColor := color.RGBA{40, 40, 40, 255}
	// Image rows grow downwards.
	px := func(x, y float64) (int, int) { return int(x), int(plotHeight - y) }

	for _, angle := range []float64{0, 90, 180, 270, 360} {
		x, y := px(p.toCanvas(angle, -p.span))
		s := fmt.Sprintf("%.0f", angle)
		drawText(dst, face, s, x-font.MeasureString(face, s).Round()/2, y+16, textColor)
	}
	for _, off := range []float64{-p.span, 0, p.span} {
		x, y := px(p.toCanvas(0, off))
		s := fmt.Sprintf("%+.2f", off)
		drawText(dst, face, s, x-font.MeasureString(face, s).Round()-4, y+4, textColor)
	}
	drawText(dst, face, "angle [deg]", int(plotWidth/2)-40, int(plotHeight)-12, textColor)
	drawText(dst, face, "dx (solid)", int(plotMargin)+8, int(plotMargin)-10, passColor(colorDX, 0, 1))
	drawText(dst, face, "dy (dashed)", int(plotMargin)+100, int(plotMargin)-10, passColor(colorDY, 0, 1))
}

func drawText(img *rasterizer.Rasterizer, face font.Face, s string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// WriteOffsetPlot renders to filePath as PNG or SVG depending on its
// extension.
func WriteOffsetPlot(filePath string, passes []*Pass) error {
	render := RenderOffsetPlotSVG
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		render = RenderOffsetPlotPNG
	case ".svg":
	default:
		return fmt.Errorf("unsupported plot format %q, want .svg or .png", filepath.Ext(filePath))
	}

	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}
	defer f.Close()
	return render(f, passes)
}
