// Package dataset loads heatmap samples from GeoJSON and fits a view over
// them for the command-line tools.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/gogpu/heatmap"
	"github.com/gogpu/heatmap/geo"
	"github.com/gogpu/heatmap/mat4"
)

// DefaultValueKey is the feature property holding a sample value.
const DefaultValueKey = "val"

// ErrNoSamples is returned for a collection without point features.
var ErrNoSamples = errors.New("dataset: no point features")

// Dataset is a sample set with an optional region of interest.
type Dataset struct {
	Points []heatmap.Point

	// ROI is the outer ring of the first polygon feature, in (lon, lat)
	// order. Nil when the collection has no polygon.
	ROI orb.Ring
}

// Load reads a GeoJSON FeatureCollection from path.
func Load(path, valueKey string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	ds, err := Parse(data, valueKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Parse decodes a FeatureCollection. Point and MultiPoint features become
// samples valued by the numeric property valueKey; the first Polygon or
// MultiPolygon becomes the ROI. Other geometries are ignored.
func Parse(data []byte, valueKey string) (*Dataset, error) {
	if valueKey == "" {
		valueKey = DefaultValueKey
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("dataset: decode: %w", err)
	}

	ds := &Dataset{}
	for i, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Point:
			v, err := value(f, valueKey)
			if err != nil {
				return nil, fmt.Errorf("dataset: feature %d: %w", i, err)
			}
			ds.Points = append(ds.Points, heatmap.Point{Lat: g.Lat(), Lon: g.Lon(), Val: v})
		case orb.MultiPoint:
			v, err := value(f, valueKey)
			if err != nil {
				return nil, fmt.Errorf("dataset: feature %d: %w", i, err)
			}
			for _, p := range g {
				ds.Points = append(ds.Points, heatmap.Point{Lat: p.Lat(), Lon: p.Lon(), Val: v})
			}
		case orb.Polygon:
			if ds.ROI == nil && len(g) > 0 {
				ds.ROI = g[0]
			}
		case orb.MultiPolygon:
			if ds.ROI == nil && len(g) > 0 && len(g[0]) > 0 {
				ds.ROI = g[0][0]
			}
		}
	}
	if len(ds.Points) == 0 {
		return nil, ErrNoSamples
	}
	return ds, nil
}

func value(f *geojson.Feature, key string) (float64, error) {
	raw, ok := f.Properties[key]
	if !ok {
		return 0, fmt.Errorf("missing property %q", key)
	}
	v, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("property %q is %T, want a number", key, raw)
	}
	return v, nil
}

// View maps a rectangle of the Mercator plane onto a canvas.
type View struct {
	Bound  orb.Bound
	Width  int
	Height int
}

// minExtent keeps a single-sample view from collapsing.
const minExtent = 1e-6

// Fit returns a view over the samples and the ROI of ds on a canvas of the
// given size. pad widens the fitted extent by that fraction on every side.
// The extent is grown along one axis to match the canvas aspect ratio.
func Fit(ds *Dataset, width, height int, pad float64) View {
	var b orb.Bound
	first := true
	extend := func(p orb.Point) {
		if first {
			b = p.Bound()
			first = false
			return
		}
		b = b.Extend(p)
	}
	for _, p := range ds.Points {
		extend(geo.Project(p.Lat, p.Lon))
	}
	for _, p := range geo.ProjectRing(ds.ROI) {
		extend(p)
	}

	w := math.Max(b.Max.X()-b.Min.X(), minExtent)
	h := math.Max(b.Max.Y()-b.Min.Y(), minExtent)
	w, h = w*(1+2*pad), h*(1+2*pad)

	aspect := float64(width) / float64(height)
	if w/h < aspect {
		w = h * aspect
	} else {
		h = w / aspect
	}

	c := b.Center()
	return View{
		Bound: orb.Bound{
			Min: orb.Point{c.X() - w/2, c.Y() - h/2},
			Max: orb.Point{c.X() + w/2, c.Y() + h/2},
		},
		Width:  width,
		Height: height,
	}
}

// MVP returns the matrix mapping the view's Mercator rectangle to clip
// space, north up.
func (v View) MVP() mat4.Matrix {
	return mat4.Ortho(
		float32(v.Bound.Min.X()), float32(v.Bound.Max.X()),
		float32(v.Bound.Max.Y()), float32(v.Bound.Min.Y()),
		-1, 1)
}

// Pixel returns the canvas position of a geographic coordinate.
func (v View) Pixel(lat, lon float64) (x, y float64) {
	p := geo.Project(lat, lon)
	x = (p.X() - v.Bound.Min.X()) / (v.Bound.Max.X() - v.Bound.Min.X()) * float64(v.Width)
	y = (p.Y() - v.Bound.Min.Y()) / (v.Bound.Max.Y() - v.Bound.Min.Y()) * float64(v.Height)
	return x, y
}

// Resize returns the view refitted to a canvas of another size, keeping
// its center and vertical extent.
func (v View) Resize(width, height int) View {
	c := v.Bound.Center()
	h := v.Bound.Max.Y() - v.Bound.Min.Y()
	w := h * float64(width) / float64(height)
	return View{
		Bound: orb.Bound{
			Min: orb.Point{c.X() - w/2, c.Y() - h/2},
			Max: orb.Point{c.X() + w/2, c.Y() + h/2},
		},
		Width:  width,
		Height: height,
	}
}
