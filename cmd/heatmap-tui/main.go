// Command heatmap-tui previews an IDW heatmap of a GeoJSON sample file in
// the terminal and lets the layer options be tuned interactively.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gogpu/heatmap"
	"github.com/gogpu/heatmap/backend"
	_ "github.com/gogpu/heatmap/backend/wgpu"
	"github.com/gogpu/heatmap/internal/dataset"
	"github.com/gogpu/heatmap/internal/tui"
)

func main() {
	var (
		device   = flag.String("backend", "", "device backend (wgpu, software); empty picks the best available")
		valueKey = flag.String("key", dataset.DefaultValueKey, "feature property holding the sample value")
		scale    = flag.Int("scale", 4, "render pixels per preview pixel")
		pad      = flag.Float64("pad", 0.1, "view padding around the samples")
		exponent = flag.Float64("exponent", 3, "initial IDW power")
		radius   = flag.Float64("radius", 0, "initial point radius in meters")
		logFile  = flag.String("log", "", "write debug logs to this file")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: heatmap-tui [flags] samples.geojson")
	}
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Fatalf("Failed to open log: %v", err)
		}
		defer f.Close()
		heatmap.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ds, err := dataset.Load(flag.Arg(0), *valueKey)
	if err != nil {
		log.Fatalf("Failed to load samples: %v", err)
	}

	open := backend.Default
	if *device != "" {
		name := *device
		open = func(w, h int) (backend.Device, error) { return backend.Get(name, w, h) }
	}

	params := tui.DefaultParams()
	params.Exponent = *exponent
	params.Radius = *radius

	m := tui.New(tui.Config{
		Dataset: ds,
		Open:    open,
		Params:  params,
		Pad:     *pad,
		Scale:   *scale,
	})
	defer m.Close()

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		log.Fatal(err)
	}
	if err := final.(tui.Model).Err(); err != nil {
		log.Printf("last frame failed: %v", err)
	}
}
