package pass

import (
	"fmt"
	"math"

	"golang.org/x/image/math/f32"
)

// Triangulate splits a simple polygon into triangles by ear clipping and
// returns them as indices into ring. The ring may be in either winding
// order and must not repeat its first vertex at the end.
//
// Collinear vertices are clipped without emitting a triangle. If the ring
// self-intersects and no ear can be found, the remaining vertices are
// fanned so the call always terminates.
func Triangulate(ring []f32.Vec2) ([]uint16, error) {
	n := len(ring)
	if n < 3 {
		return nil, nil
	}
	if n > math.MaxUint16+1 {
		return nil, fmt.Errorf("%w: polygon has %d vertices", ErrTooManyVertices, n)
	}

	pts := make([]vec2, n)
	for i, p := range ring {
		pts[i] = vec2{float64(p[0]), float64(p[1])}
	}

	// Work on a counter-clockwise index list.
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if signedArea(pts) < 0 {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			idx[i], idx[j] = idx[j], idx[i]
		}
	}

	out := make([]uint16, 0, (n-2)*3)
	for len(idx) > 3 {
		clipped := false
		for i := range idx {
			prev := idx[(i+len(idx)-1)%len(idx)]
			cur := idx[i]
			next := idx[(i+1)%len(idx)]

			turn := cross(pts[prev], pts[cur], pts[next])
			if turn == 0 {
				idx = append(idx[:i], idx[i+1:]...)
				clipped = true
				break
			}
			if turn < 0 || !isEar(pts, idx, prev, cur, next) {
				continue
			}

			out = append(out, uint16(prev), uint16(cur), uint16(next))
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			for i := 1; i+1 < len(idx); i++ {
				out = append(out, uint16(idx[0]), uint16(idx[i]), uint16(idx[i+1]))
			}
			return out, nil
		}
	}
	if cross(pts[idx[0]], pts[idx[1]], pts[idx[2]]) != 0 {
		out = append(out, uint16(idx[0]), uint16(idx[1]), uint16(idx[2]))
	}
	return out, nil
}

type vec2 struct{ x, y float64 }

// cross is the z component of (b-a)×(c-b); positive for a left turn.
func cross(a, b, c vec2) float64 {
	return (b.x-a.x)*(c.y-b.y) - (b.y-a.y)*(c.x-b.x)
}

func signedArea(pts []vec2) float64 {
	var a float64
	for i := range pts {
		p, q := pts[i], pts[(i+1)%len(pts)]
		a += p.x*q.y - q.x*p.y
	}
	return a / 2
}

// isEar reports whether no other remaining vertex lies inside or on the
// triangle (a, b, c).
func isEar(pts []vec2, idx []int, a, b, c int) bool {
	for _, i := range idx {
		if i == a || i == b || i == c {
			continue
		}
		p := pts[i]
		if p == pts[a] || p == pts[b] || p == pts[c] {
			continue
		}
		if cross(pts[a], pts[b], p) >= 0 &&
			cross(pts[b], pts[c], p) >= 0 &&
			cross(pts[c], pts[a], p) >= 0 {
			return false
		}
	}
	return true
}
