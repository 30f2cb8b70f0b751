package pass

import (
	"math"
	"testing"

	"golang.org/x/image/math/f32"
)

func polygonArea(ring []f32.Vec2) float64 {
	var a float64
	for i := range ring {
		p, q := ring[i], ring[(i+1)%len(ring)]
		a += float64(p[0])*float64(q[1]) - float64(q[0])*float64(p[1])
	}
	return math.Abs(a) / 2
}

func trianglesArea(ring []f32.Vec2, indices []uint16) float64 {
	var total float64
	for i := 0; i+2 < len(indices); i += 3 {
		total += polygonArea([]f32.Vec2{ring[indices[i]], ring[indices[i+1]], ring[indices[i+2]]})
	}
	return total
}

func TestTriangulate(t *testing.T) {
	tests := []struct {
		name      string
		ring      []f32.Vec2
		triangles int
	}{
		{"triangle", []f32.Vec2{{0, 0}, {1, 0}, {0, 1}}, 1},
		{"square ccw", []f32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, 2},
		{"square cw", []f32.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}}, 2},
		{"l shape", []f32.Vec2{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}}, 4},
		{"arrow", []f32.Vec2{{0, 0}, {4, 2}, {0, 4}, {1, 2}}, 2},
		{"comb", []f32.Vec2{{0, 0}, {5, 0}, {5, 3}, {4, 3}, {4, 1}, {3, 1}, {3, 3}, {2, 3}, {2, 1}, {1, 1}, {1, 3}, {0, 3}}, 10},
		{"collinear edge", []f32.Vec2{{0, 0}, {1, 0}, {2, 0}, {2, 2}, {0, 2}}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indices, err := Triangulate(tt.ring)
			if err != nil {
				t.Fatalf("Triangulate() error = %v", err)
			}
			if got := len(indices) / 3; got > tt.triangles {
				t.Errorf("Triangulate() = %d triangles, want at most %d", got, tt.triangles)
			}
			want := polygonArea(tt.ring)
			if got := trianglesArea(tt.ring, indices); math.Abs(got-want) > 1e-9 {
				t.Errorf("triangle area = %v, want %v", got, want)
			}
		})
	}
}

func TestTriangulateDegenerate(t *testing.T) {
	tests := []struct {
		name string
		ring []f32.Vec2
	}{
		{"empty", nil},
		{"two points", []f32.Vec2{{0, 0}, {1, 1}}},
		{"line", []f32.Vec2{{0, 0}, {1, 0}, {2, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indices, err := Triangulate(tt.ring)
			if err != nil {
				t.Fatalf("Triangulate() error = %v", err)
			}
			if len(indices) != 0 {
				t.Errorf("Triangulate() = %v, want no triangles", indices)
			}
		})
	}
}

func TestUnitCircle(t *testing.T) {
	vertices, indices := unitCircle()

	if len(vertices) != CircleSegments+1 {
		t.Fatalf("len(vertices) = %d, want %d", len(vertices), CircleSegments+1)
	}
	if len(indices) != CircleSegments*3 {
		t.Fatalf("len(indices) = %d, want %d", len(indices), CircleSegments*3)
	}
	for i, v := range vertices[1:] {
		r := math.Hypot(float64(v[0]), float64(v[1]))
		if math.Abs(r-1) > 1e-6 {
			t.Errorf("rim vertex %d radius = %v, want 1", i, r)
		}
	}

	// The fan area approaches π from below.
	area := trianglesArea(vertices, indices)
	want := CircleSegments / 2.0 * math.Sin(2*math.Pi/CircleSegments)
	if math.Abs(area-want) > 1e-5 {
		t.Errorf("fan area = %v, want %v", area, want)
	}
}
