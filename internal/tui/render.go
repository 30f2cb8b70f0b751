package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"

	"github.com/gogpu/heatmap"
	"github.com/gogpu/heatmap/backend"
	"github.com/gogpu/heatmap/internal/basemap"
	"github.com/gogpu/heatmap/internal/dataset"
)

// renderer owns the device and layer behind the preview. It survives
// model copies, so the model keeps a pointer to it.
type renderer struct {
	ds    *dataset.Dataset
	open  backend.Factory
	pad   float64
	scale int

	dev    backend.Device
	layer  *heatmap.Layer
	params Params
	view   dataset.View
}

// render draws the heatmap for a preview of cols×rows cells. Every cell
// shows two pixels, and the device renders at scale times that resolution.
func (r *renderer) render(cols, rows int, p Params) (image.Image, error) {
	w, h := cols*r.scale, rows*2*r.scale
	if err := r.ensureDevice(w, h); err != nil {
		return nil, err
	}

	r.view = dataset.Fit(r.ds, w, h, r.pad)
	if err := r.dev.SetSurface(basemap.Draw(r.ds, r.view, basemap.DefaultStyle)); err != nil {
		return nil, fmt.Errorf("upload base map: %w", err)
	}
	if err := r.ensureLayer(p); err != nil {
		return nil, err
	}
	if err := r.layer.Draw(r.view.MVP()); err != nil {
		return nil, err
	}

	img, err := r.dev.ReadSurface()
	if err != nil {
		return nil, fmt.Errorf("read surface: %w", err)
	}
	out := basemap.DrawMarkers(img, r.ds, r.view, basemap.DefaultStyle)
	return downscale(out, cols, rows*2), nil
}

func (r *renderer) ensureDevice(w, h int) error {
	if r.dev == nil {
		dev, err := r.open(w, h)
		if err != nil {
			return err
		}
		r.dev = dev
		return nil
	}
	if cw, ch := r.dev.SurfaceSize(); cw == w && ch == h {
		return nil
	}
	if err := r.dev.ResizeSurface(w, h); err != nil {
		return fmt.Errorf("resize surface: %w", err)
	}
	if r.layer != nil {
		return r.layer.Resize()
	}
	return nil
}

// ensureLayer rebuilds the layer when the parameters changed since the
// last frame.
func (r *renderer) ensureLayer(p Params) error {
	if r.layer != nil && p == r.params {
		return nil
	}
	layer, err := heatmap.New(r.ds.Points, p.options(r.ds)...)
	if err != nil {
		return err
	}
	if err := layer.Init(r.dev); err != nil {
		layer.Delete()
		return err
	}
	if r.layer != nil {
		r.layer.Delete()
	}
	r.layer, r.params = layer, p
	return nil
}

func (r *renderer) average() float64 {
	if r.layer == nil {
		return 0
	}
	return r.layer.Average()
}

func (r *renderer) deviceName() string {
	if r.dev == nil {
		return "no device"
	}
	return r.dev.Name()
}

func (r *renderer) close() {
	if r.layer != nil {
		r.layer.Delete()
		r.layer = nil
	}
	if r.dev != nil {
		r.dev.Close()
		r.dev = nil
	}
}

// downscale resamples src to w×h.
func downscale(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// halfBlocks renders img with one upper half block per two vertical
// pixels: the foreground paints the top pixel, the background the bottom.
func halfBlocks(img image.Image) string {
	b := img.Bounds()
	styles := make(map[[2]lipgloss.Color]lipgloss.Style)

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			top := hexColor(img.At(x, y))
			bottom := top
			if y+1 < b.Max.Y {
				bottom = hexColor(img.At(x, y+1))
			}
			k := [2]lipgloss.Color{top, bottom}
			st, ok := styles[k]
			if !ok {
				st = lipgloss.NewStyle().Foreground(top).Background(bottom)
				styles[k] = st
			}
			sb.WriteString(st.Render("▀"))
		}
	}
	return sb.String()
}

func hexColor(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}
