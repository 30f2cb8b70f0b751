package pass

import (
	"math"

	"golang.org/x/image/math/f32"
)

// CircleSegments is the number of triangles in the unit circle fan.
const CircleSegments = 50

// fullScreenQuad covers [-1, 1]² as a triangle strip.
var fullScreenQuad = []f32.Vec2{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}

// fullScreenRing is the [-1, 1]² square as a polygon, used when no region
// of interest is configured.
var fullScreenRing = []f32.Vec2{{-1, -1}, {-1, 1}, {1, 1}, {1, -1}}

// unitCircle returns a fan of CircleSegments triangles around the origin
// as vertices and an indexed triangle list. Vertex 0 is the center.
func unitCircle() ([]f32.Vec2, []uint16) {
	vertices := make([]f32.Vec2, 0, CircleSegments+1)
	vertices = append(vertices, f32.Vec2{0, 0})

	step := 2 * math.Pi / CircleSegments
	for i := range CircleSegments {
		s, c := math.Sincos(float64(i) * step)
		vertices = append(vertices, f32.Vec2{float32(c), float32(s)})
	}

	indices := make([]uint16, 0, CircleSegments*3)
	for i := range CircleSegments {
		next := (i+1)%CircleSegments + 1
		indices = append(indices, 0, uint16(i+1), uint16(next))
	}
	return vertices, indices
}
