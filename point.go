package heatmap

import (
	"fmt"

	"github.com/paulmach/orb"
	"golang.org/x/image/math/f32"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/gogpu/heatmap/geo"
	"github.com/gogpu/heatmap/internal/pass"
)

// Point is a raw sample: a geographic position in degrees and a value.
type Point struct {
	Lat, Lon float64
	Val      float64
}

// validatePoints rejects samples that would poison normalization.
func validatePoints(points []Point) error {
	for i, p := range points {
		if !finite(p.Lat) || !finite(p.Lon) || !finite(p.Val) {
			return fmt.Errorf("%w: points[%d] = %+v", ErrInvalidPoint, i, p)
		}
	}
	return nil
}

// prepared is the device-ready form of a point set.
type prepared struct {
	samples []pass.Sample
	radius  pass.Radius
	average float32
}

// prepare projects and normalizes points. Values map to
// (v - lo) / (hi - lo) where lo and hi are the observed range widened by
// MinValue and MaxValue. A zero-width range maps every value to 0.5.
func prepare(points []Point, opts *Options) prepared {
	n := len(points)
	out := prepared{samples: make([]pass.Sample, n)}

	if opts.PointRadius > 0 {
		radii := make([]float32, n)
		for i, p := range points {
			radii[i] = float32(opts.PointRadius * geo.MetersPerUnit(p.Lat))
		}
		out.radius = pass.PerSampleRadius(radii)
	}
	if n == 0 {
		return out
	}

	values := make([]float64, n)
	for i, p := range points {
		values[i] = p.Val
	}
	lo := min(floats.Min(values), opts.MinValue)
	hi := max(floats.Max(values), opts.MaxValue)

	normalized := make([]float64, n)
	for i, v := range values {
		if hi > lo {
			normalized[i] = (v - lo) / (hi - lo)
		} else {
			normalized[i] = 0.5
		}
	}
	out.average = float32(stat.Mean(normalized, nil))

	for i, p := range points {
		xy := geo.Project(p.Lat, p.Lon)
		out.samples[i] = pass.Sample{
			X:     float32(xy.X()),
			Y:     float32(xy.Y()),
			Value: float32(normalized[i]),
		}
	}
	return out
}

// projectROI converts a (lon, lat) ring to projected vertices.
func projectROI(ring orb.Ring) []f32.Vec2 {
	projected := geo.ProjectRing(ring)
	out := make([]f32.Vec2, len(projected))
	for i, p := range projected {
		out[i] = f32.Vec2{float32(p.X()), float32(p.Y())}
	}
	return out
}
