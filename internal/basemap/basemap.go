// Package basemap draws the scene the heatmap is composited over: a
// background, a graticule, the region of interest and sample markers.
package basemap

import (
	"image"
	"math"

	"github.com/gogpu/gg"
	"github.com/paulmach/orb"

	"github.com/gogpu/heatmap/geo"
	"github.com/gogpu/heatmap/internal/dataset"
)

// Style sets the colors of a base map.
type Style struct {
	Background gg.RGBA
	Grid       gg.RGBA
	ROI        gg.RGBA
	Marker     gg.RGBA
}

// DefaultStyle is a dark map.
var DefaultStyle = Style{
	Background: gg.Hex("#1b2029"),
	Grid:       gg.RGBA2(1, 1, 1, 0.12),
	ROI:        gg.Hex("#e6e6e6"),
	Marker:     gg.Hex("#ffffff"),
}

// Draw renders the background, graticule and ROI outline of ds.
func Draw(ds *dataset.Dataset, v dataset.View, style Style) image.Image {
	dc := gg.NewContext(v.Width, v.Height)
	defer dc.Close()
	dc.ClearWithColor(style.Background)
	drawGraticule(dc, v, style.Grid)
	drawROI(dc, ds, v, style.ROI)
	return dc.Image()
}

// DrawMarkers draws a dot on every sample of ds over img.
func DrawMarkers(img image.Image, ds *dataset.Dataset, v dataset.View, style Style) image.Image {
	dc := gg.NewContextForImage(img)
	defer dc.Close()
	dc.SetColor(style.Marker.Color())
	for _, p := range ds.Points {
		x, y := v.Pixel(p.Lat, p.Lon)
		dc.DrawCircle(x, y, 2)
		_ = dc.Fill()
	}
	return dc.Image()
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	dc := gg.NewContextForImage(img)
	defer dc.Close()
	return dc.SavePNG(path)
}

func drawGraticule(dc *gg.Context, v dataset.View, c gg.RGBA) {
	minLat, minLon := unproject(v, 0, float64(v.Height))
	maxLat, maxLon := unproject(v, float64(v.Width), 0)

	dc.SetColor(c.Color())
	dc.SetLineWidth(1)

	step := GridStep(maxLon - minLon)
	for lon := math.Ceil(minLon/step) * step; lon <= maxLon; lon += step {
		x, _ := v.Pixel(0, lon)
		dc.DrawLine(x, 0, x, float64(v.Height))
		_ = dc.Stroke()
	}
	step = GridStep(maxLat - minLat)
	for lat := math.Ceil(minLat/step) * step; lat <= maxLat; lat += step {
		_, y := v.Pixel(lat, 0)
		dc.DrawLine(0, y, float64(v.Width), y)
		_ = dc.Stroke()
	}
}

func drawROI(dc *gg.Context, ds *dataset.Dataset, v dataset.View, c gg.RGBA) {
	if len(ds.ROI) < 3 {
		return
	}
	for i, p := range ds.ROI {
		x, y := v.Pixel(p.Lat(), p.Lon())
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
	dc.SetColor(c.Color())
	dc.SetLineWidth(1.5)
	dc.SetDash(6, 4)
	_ = dc.Stroke()
	dc.ClearDash()
}

// unproject returns the latitude and longitude at a canvas position.
func unproject(v dataset.View, x, y float64) (lat, lon float64) {
	return geo.Unproject(orb.Point{
		v.Bound.Min.X() + x/float64(v.Width)*(v.Bound.Max.X()-v.Bound.Min.X()),
		v.Bound.Min.Y() + y/float64(v.Height)*(v.Bound.Max.Y()-v.Bound.Min.Y()),
	})
}

// GridStep returns a graticule spacing in degrees giving roughly five to
// ten lines over span: 1, 2 or 5 times a power of ten.
func GridStep(span float64) float64 {
	if span <= 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return 1
	}
	raw := span / 5
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch r := raw / mag; {
	case r < 2:
		return mag
	case r < 5:
		return 2 * mag
	default:
		return 5 * mag
	}
}
