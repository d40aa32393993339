// Command paneldetect runs panel detection on pages and prints the results.
// Optionally it writes annotated previews and exports every detected panel
// without review.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"panel-cropper/internal/batch"
	"panel-cropper/internal/config"
	"panel-cropper/internal/detect"
	"panel-cropper/internal/export"
	"panel-cropper/internal/render"
	"panel-cropper/internal/source"
	"panel-cropper/internal/system"
	"panel-cropper/internal/version"
)

func main() {
	defaults := detect.DefaultParams()
	minArea := flag.Float64("min-area", defaults.MinAreaPercent, "Minimum panel area, percent of page")
	solidity := flag.Float64("solidity", defaults.MinSolidity, "Minimum contour solidity (0-1)")
	kernel := flag.Int("kernel", defaults.ClosingKernelSize, "Closing kernel size in pixels (odd)")
	aspect := flag.Float64("aspect", defaults.MaxAspectRatio, "Maximum width/height or height/width ratio")
	dpi := flag.Float64("dpi", config.Defaults().PDFDPI, "PDF render DPI")
	workers := flag.Int("workers", 0, "Concurrent detections (0 = one per core)")
	previewDir := flag.String("preview", "", "Write annotated previews into this folder")
	outDir := flag.String("out", "", "Export every detected panel into this folder")
	format := flag.String("format", "png", "Export format: png, jpeg or webp")
	start := flag.Int("start", 1, "Number of the first exported panel")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("Usage: paneldetect [flags] <image|folder|pdf>...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	lvl, _ := config.ParseLevel(level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	logger.Debug("paneldetect", "version", version.String())

	fmtOut, err := export.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	src, err := source.Open(flag.Args(), *dpi)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open pages: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	params := detect.Params{
		MinAreaPercent:    *minArea,
		MinSolidity:       *solidity,
		MaxAspectRatio:    *aspect,
		ClosingKernelSize: *kernel,
	}.Normalize()

	fmt.Printf("Pages: %d\n", src.Len())
	fmt.Printf("Detection parameters:\n")
	fmt.Printf("  Min area: %.2f%%\n", params.MinAreaPercent)
	fmt.Printf("  Min solidity: %.2f\n", params.MinSolidity)
	fmt.Printf("  Max aspect ratio: %.1f\n", params.MaxAspectRatio)
	fmt.Printf("  Closing kernel: %dpx\n", params.Kernel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	job, err := batch.Detect(ctx, src, detect.New(logger), params, batch.Options{
		Workers: system.Workers(*workers),
		Progress: func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rDetecting %d/%d", done, total)
		},
		Logger: logger,
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Detection failed: %v\n", err)
		os.Exit(1)
	}

	var exporter *export.Exporter
	if *outDir != "" {
		exporter = export.New(*outDir, fmtOut, export.NewCounter(*start), logger)
	}

	for i := 0; i < job.Len(); i++ {
		if err := job.Err(i); err != nil {
			fmt.Printf("\n%s: FAILED: %v\n", job.Name(i), err)
			continue
		}
		rects := job.Candidates(i)
		fmt.Printf("\n%s: %d panel(s)\n", job.Name(i), len(rects))
		fmt.Printf("  %-4s %8s %8s %8s %8s\n", "#", "X", "Y", "W", "H")
		for n, r := range rects {
			fmt.Printf("  %-4d %8.0f %8.0f %8.0f %8.0f\n", n+1, r.X1, r.Y1, r.Width(), r.Height())
		}

		if *previewDir == "" && exporter == nil {
			continue
		}
		page, err := src.Load(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  reload failed: %v\n", err)
			continue
		}
		if *previewDir != "" {
			name := strings.TrimSuffix(job.Name(i), filepath.Ext(job.Name(i))) + "_preview.png"
			path := filepath.Join(*previewDir, name)
			if err := os.MkdirAll(*previewDir, 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "  preview: %v\n", err)
			} else if err := render.SavePreview(path, page.Image, rects); err != nil {
				fmt.Fprintf(os.Stderr, "  preview: %v\n", err)
			} else {
				fmt.Printf("  preview: %s\n", path)
			}
		}
		if exporter != nil {
			res, err := exporter.ExportPage(page.Image, rects)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  export: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("  %s\n", res)
		}
	}

	fmt.Printf("\nTotal: %s\n", job.Summary())
}
