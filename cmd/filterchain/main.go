// Command filterchain applies a filter chain to an image file.
//
// Usage:
//
//	filterchain -in photo.jpg -out out.png -chain 'brightness:0.1,posterize[levels=4],invert'
//
// A chain is a comma separated list of passes. Each pass is a kernel name,
// optionally followed by specialization constants in brackets and by
// colon separated float arguments.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gogpu/filterchain"
	"github.com/gogpu/filterchain/backend"
	"github.com/gogpu/filterchain/frame"
	"github.com/gogpu/filterchain/kernel"
)

func main() {
	var (
		input       = flag.String("in", "", "input image (PNG, JPEG, GIF, BMP, TIFF, WebP)")
		output      = flag.String("out", "out.png", "output image (PNG or JPEG)")
		chainSpec   = flag.String("chain", "", "filter chain, e.g. 'brightness:0.1,invert'")
		backendName = flag.String("backend", "", "backend name, e.g. software (default: best available GPU)")
		space       = flag.String("space", "", "output color space: srgb, p3, linear, extended")
		verbose     = flag.Bool("v", false, "debug logging")
		list        = flag.Bool("list", false, "list backends and bundled kernels, then exit")
	)
	flag.Parse()

	if *list {
		fmt.Println("backends:", strings.Join(backend.Available(), ", "))
		for _, name := range kernel.BundledNames() {
			fmt.Println(name)
		}
		return
	}
	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	if *verbose {
		filterchain.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	filters, err := parseChain(*chainSpec)
	if err != nil {
		log.Fatalf("Invalid chain: %v", err)
	}
	target, err := parseColorSpace(*space)
	if err != nil {
		log.Fatalf("Invalid color space: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var opts []filterchain.Option
	if *backendName != "" {
		opts = append(opts, filterchain.WithBackend(*backendName))
	}
	p, err := filterchain.New(ctx, opts...)
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}
	defer func() { _ = p.Close() }()

	src, err := frame.Load(*input)
	if err != nil {
		log.Fatalf("Failed to load: %v", err)
	}

	start := time.Now()
	out, err := p.Run(ctx, src, filters)
	if err != nil {
		log.Fatalf("Chain failed: %v", err)
	}
	if target != frame.ColorSpaceNone {
		if out, err = p.Render(ctx, out, target); err != nil {
			log.Fatalf("Color conversion failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	if err := out.Save(*output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	st := p.Stats()
	log.Printf("Saved %s (%dx%d, %d passes, %s backend, %v)\n",
		*output, out.Width(), out.Height(), len(filters), st.Registry.Backend, elapsed.Round(time.Microsecond))
}
