package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/abhijithrajan/subpixelcentering/pkg/subpix"
)

// errNotConverged is returned after the output is written when the
// iteration cap ended the search.
var errNotConverged = errors.New("centering did not converge")

func main() {
	log.SetFlags(0)
	log.SetPrefix("subpixcenter: ")
	if err := run(context.Background(), os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errNotConverged) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// options holds the parsed command line.
type options struct {
	config *Config
	input  string
	output string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	def := DefaultConfig()
	fs := flag.NewFlagSet("subpixcenter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: subpixcenter [flags] <input> <output.fits>")
		fs.PrintDefaults()
	}

	configFile := fs.String("config", "", "YAML configuration file; flags given on the command line override it")
	angles := fs.Int("angles", def.Angles, "number of test rotation angles")
	box := fs.Int("box", def.Box, "diameter of the compared center window in pixels")
	satRadius := fs.Float64("satradius", 0, "mask saturated core pixels within this radius (enables the mask)")
	tol := fs.Float64("tol", 0, "iterate until the pass offset is within this many pixels (enables iteration)")
	maxIter := fs.Int("max-iter", def.MaxIterations, "maximum number of passes when iterating")
	workers := fs.Int("workers", def.Workers, "angles evaluated concurrently")
	debug := fs.Bool("debug", false, "log per-angle offsets and write the offset-vs-angle plot")
	plot := fs.String("plot", "", "offset-vs-angle plot file (.svg or .png)")
	preview := fs.String("preview", "", "8-bit preview of the re-centered image (.png, .jpg, .tif)")
	debayer := fs.Bool("debayer", false, "treat input as a raw RGGB frame and debayer to luminance")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return nil, fmt.Errorf("expected <input> and <output>, got %d arguments", fs.NArg())
	}

	cfg := def
	if *configFile != "" {
		var err error
		if cfg, err = LoadConfig(*configFile); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "angles":
			cfg.Angles = *angles
		case "box":
			cfg.Box = *box
		case "satradius":
			cfg.Saturation = SaturationConfig{Enabled: true, Radius: *satRadius}
		case "tol":
			cfg.Tolerance = ToleranceConfig{Enabled: true, Pixels: *tol}
		case "max-iter":
			cfg.MaxIterations = *maxIter
		case "workers":
			cfg.Workers = *workers
		case "debug":
			cfg.Debug = *debug
		case "plot":
			cfg.Plot = *plot
		case "preview":
			cfg.Preview = *preview
		case "debayer":
			cfg.Debayer = *debayer
		}
	})

	return &options{config: cfg, input: fs.Arg(0), output: fs.Arg(1)}, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	cfg := opts.config

	fmt.Printf("Loading: %s\n", opts.input)
	img, header, err := loadImage(opts.input, cfg.Debayer)
	if err != nil {
		return err
	}

	params := cfg.Params()
	if err := params.Validate(img.Rows(), img.Cols()); err != nil {
		return err
	}

	observe := func(iteration int, pass *subpix.Pass) {
		fmt.Printf("  pass %d: offset %s from %d/%d angles\n", iteration, pass.Offset, pass.ValidAngles(), len(pass.Angles))
		if !cfg.Debug {
			return
		}
		for _, a := range pass.Angles {
			if a.Valid {
				log.Printf("pass %d angle %6.1f: offset %s residual %.6g", iteration, a.Angle, a.Offset, a.Residual)
			} else {
				log.Printf("pass %d angle %6.1f: no valid candidate", iteration, a.Angle)
			}
		}
	}

	startTime := time.Now()
	res, err := subpix.Center(ctx, img, params, observe)
	if err != nil {
		return fmt.Errorf("centering: %w", err)
	}
	elapsed := time.Since(startTime)

	fmt.Println()
	fmt.Printf("=== Rotational Symmetry Center (%.1fs) ===\n", elapsed.Seconds())
	fmt.Printf("  Image size:      %d x %d\n", img.Cols(), img.Rows())
	fmt.Printf("  Passes:          %d (%s)\n", len(res.Passes), res.State)
	fmt.Printf("  Offset:          %s px\n", res.Offset)
	fmt.Printf("  Center:          (%.4f, %.4f)\n", res.CenterX, res.CenterY)
	if before, _, ok := subpix.MeasureCentroid(img); ok {
		fmt.Printf("  Centroid before: (%.4f, %.4f)\n", before.X, before.Y)
	}
	if after, _, ok := subpix.MeasureCentroid(res.Image); ok {
		fmt.Printf("  Centroid after:  (%.4f, %.4f)\n", after.X, after.Y)
	}
	fmt.Println("==============================")

	header.AnnotateCentering(res, params)
	if err := subpix.WriteFits(opts.output, res.Image, header); err != nil {
		return fmt.Errorf("writing %s: %w", opts.output, err)
	}
	fmt.Printf("Wrote: %s\n", opts.output)

	plotPath := cfg.Plot
	if plotPath == "" && cfg.Debug {
		plotPath = strings.TrimSuffix(opts.output, ".fits") + "-offsets.svg"
	}
	if plotPath != "" {
		if err := subpix.WriteOffsetPlot(plotPath, res.Passes); err != nil {
			log.Printf("Warning: failed to write plot %s: %v", plotPath, err)
		} else {
			fmt.Printf("Wrote: %s\n", plotPath)
		}
	}
	if cfg.Preview != "" {
		if err := subpix.WritePreview(cfg.Preview, res.Image, 800); err != nil {
			log.Printf("Warning: failed to write preview %s: %v", cfg.Preview, err)
		} else {
			fmt.Printf("Wrote: %s\n", cfg.Preview)
		}
	}

	if res.State == subpix.StateIterationLimit {
		return fmt.Errorf("%w after %d passes (last offset %s)", errNotConverged, len(res.Passes), res.Passes[len(res.Passes)-1].Offset)
	}
	return nil
}
