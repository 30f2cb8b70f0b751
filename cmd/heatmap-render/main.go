// Command heatmap-render renders an IDW heatmap of a GeoJSON sample file
// to a PNG image.
//
// Usage:
//
//	heatmap-render -in samples.geojson -out heatmap.png -radius 2000
//
// Point features carry the sample value in a numeric property (-key). The
// first polygon feature, if any, becomes the region of interest.
package main

import (
	"flag"
	"image"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/gogpu/heatmap"
	"github.com/gogpu/heatmap/backend"
	_ "github.com/gogpu/heatmap/backend/wgpu"
	"github.com/gogpu/heatmap/internal/basemap"
	"github.com/gogpu/heatmap/internal/dataset"
)

func main() {
	var (
		input     = flag.String("in", "", "GeoJSON FeatureCollection with the samples")
		output    = flag.String("out", "heatmap.png", "output file")
		width     = flag.Int("width", 1024, "image width")
		height    = flag.Int("height", 768, "image height")
		device    = flag.String("backend", "", "device backend (wgpu, software); empty picks the best available")
		key       = flag.String("key", dataset.DefaultValueKey, "feature property holding the sample value")
		pad       = flag.Float64("pad", 0.1, "view padding around the samples, as a fraction of their extent")
		exponent  = flag.Float64("exponent", 3, "IDW power")
		opacity   = flag.Float64("opacity", 0.5, "heatmap opacity")
		factor    = flag.Float64("factor", 0.3, "IDW framebuffer size relative to the image")
		radius    = flag.Float64("radius", 0, "limit the surface to this many meters around each sample")
		faster    = flag.Bool("faster", false, "test the radius per pixel instead of drawing circles")
		threshold = flag.Float64("threshold", 0, "hide values within this distance of the mean")
		minValue  = flag.Float64("min", math.NaN(), "lower bound of the color range")
		maxValue  = flag.Float64("max", math.NaN(), "upper bound of the color range")
		markers   = flag.Bool("markers", true, "draw the sample positions")
		verbose   = flag.Bool("v", false, "log debug output")
	)
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		heatmap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ds, err := dataset.Load(*input, *key)
	if err != nil {
		log.Fatalf("Failed to load samples: %v", err)
	}
	view := dataset.Fit(ds, *width, *height, *pad)

	dev, err := openDevice(*device, *width, *height)
	if err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}
	defer dev.Close()

	if err := dev.SetSurface(basemap.Draw(ds, view, basemap.DefaultStyle)); err != nil {
		log.Fatalf("Failed to upload base map: %v", err)
	}

	opts := []heatmap.Option{
		heatmap.WithExponent(*exponent),
		heatmap.WithOpacity(*opacity),
		heatmap.WithFramebufferFactor(*factor),
		heatmap.WithPointRadius(*radius),
		heatmap.WithFasterPointRadius(*faster),
		heatmap.WithAverageThreshold(*threshold),
		heatmap.WithROI(ds.ROI),
	}
	if !math.IsNaN(*minValue) {
		opts = append(opts, heatmap.WithMinValue(*minValue))
	}
	if !math.IsNaN(*maxValue) {
		opts = append(opts, heatmap.WithMaxValue(*maxValue))
	}

	layer, err := heatmap.New(ds.Points, opts...)
	if err != nil {
		log.Fatalf("Invalid layer options: %v", err)
	}
	defer layer.Delete()

	if err := layer.Init(dev); err != nil {
		log.Fatalf("Failed to initialize layer: %v", err)
	}
	if err := layer.Draw(view.MVP()); err != nil {
		log.Fatalf("Failed to render: %v", err)
	}

	img, err := dev.ReadSurface()
	if err != nil {
		log.Fatalf("Failed to read surface: %v", err)
	}
	var result image.Image = img
	if *markers {
		result = basemap.DrawMarkers(img, ds, view, basemap.DefaultStyle)
	}
	if err := basemap.SavePNG(*output, result); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	log.Printf("Heatmap saved to %s (%dx%d, %d samples, %s)\n",
		*output, *width, *height, len(ds.Points), dev.Name())
}

// openDevice returns the named backend, or the best available one when
// name is empty.
func openDevice(name string, width, height int) (backend.Device, error) {
	if name == "" {
		return backend.Default(width, height)
	}
	return backend.Get(name, width, height)
}
