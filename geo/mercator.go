// Package geo projects geographic coordinates onto the normalized Web
// Mercator plane used by the heatmap layer.
//
// The plane spans [0,1] on both axes: x grows eastward from the
// antimeridian, y grows southward from the northern Mercator limit.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371008.8

// MaxLatitude is the latitude at which the projected plane reaches y = 0.
// Project does not clamp; callers feeding latitudes beyond this receive
// coordinates outside [0,1], and latitudes of ±90 are undefined.
const MaxLatitude = 85.051129

// Project converts a latitude/longitude pair in degrees to normalized
// Mercator coordinates.
func Project(lat, lon float64) orb.Point {
	x := (180 + lon) / 360
	y := (180 - (180/math.Pi)*math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))) / 360
	return orb.Point{x, y}
}

// Unproject is the inverse of Project.
func Unproject(p orb.Point) (lat, lon float64) {
	lon = p.X()*360 - 180
	lat = 360/math.Pi*math.Atan(math.Exp((180-p.Y()*360)*math.Pi/180)) - 90
	return lat, lon
}

// MetersPerUnit returns how many projected units one meter spans at the
// given latitude. The value grows without bound towards the poles.
func MetersPerUnit(lat float64) float64 {
	return 1 / (2 * math.Pi * EarthRadius) / math.Cos(lat*math.Pi/180)
}

// ProjectRing projects every vertex of a ring given in (lon, lat) order,
// the orb convention. A closing vertex equal to the first is dropped.
func ProjectRing(r orb.Ring) []orb.Point {
	n := len(r)
	if n > 1 && r[0].Equal(r[n-1]) {
		n--
	}
	out := make([]orb.Point, 0, n)
	for _, p := range r[:n] {
		out = append(out, Project(p.Lat(), p.Lon()))
	}
	return out
}
