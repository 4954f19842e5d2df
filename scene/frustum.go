package scene

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrDegenerateFrustum is returned by Frustum.Update when one or more planes
// extracted from the matrix have a zero-length normal.
var ErrDegenerateFrustum = errors.New("degenerate frustum plane")

// Plane represents a half-space: dot(Normal, p) + D = 0.
// Normal points into the "inside" of the frustum.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// DistanceTo returns the signed distance from a point to the plane.
// Positive means on the "inside" (same side as Normal).
func (p Plane) DistanceTo(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

const (
	PlaneLeft = iota
	PlaneRight
	PlaneBottom
	PlaneTop
	PlaneNear
	PlaneFar
)

var planeNames = [6]string{"left", "right", "bottom", "top", "near", "far"}

// Frustum holds the six clip planes of a view frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumFromVP extracts the six frustum planes from a view-projection matrix.
// Degenerate planes are left as pass-through planes; use Update to find out
// whether that happened.
func FrustumFromVP(vp mgl32.Mat4) Frustum {
	var f Frustum
	_ = f.Update(vp)
	return f
}

// Update recomputes the planes from vp (Gribb/Hartmann). mgl32 matrices are
// column-major, so row i of the matrix is vp.Row(i).
//
// A plane whose normal has zero length cannot be normalized; it is replaced
// by a zero plane, which every point passes. The frustum stays conservative
// (it never rejects visible geometry) and ErrDegenerateFrustum names the
// affected planes.
func (f *Frustum) Update(vp mgl32.Mat4) error {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)

	raw := [6]mgl32.Vec4{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
		r3.Sub(r2), // far
	}

	var degenerate []string
	for i, p := range raw {
		plane, ok := normalizePlane(p)
		if !ok {
			degenerate = append(degenerate, planeNames[i])
		}
		f.Planes[i] = plane
	}
	if len(degenerate) > 0 {
		return fmt.Errorf("%w: %s", ErrDegenerateFrustum, strings.Join(degenerate, ", "))
	}
	return nil
}

func normalizePlane(p mgl32.Vec4) (Plane, bool) {
	n := p.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{}, false
	}
	return Plane{Normal: n.Mul(1 / l), D: p[3] / l}, true
}

// IsPointInside reports whether p is on the inner side of all six planes.
func (f *Frustum) IsPointInside(p mgl32.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceTo(p) < 0 {
			return false
		}
	}
	return true
}

// IsSphereInside is the inclusive sphere test: a sphere straddling a plane
// still counts as inside.
func (f *Frustum) IsSphereInside(center mgl32.Vec3, radius float32) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceTo(center) < -radius {
			return false
		}
	}
	return true
}

// IsBoxInside tests, per plane, only the box corner furthest along the
// plane normal. If that corner is outside, the whole box is. Boxes near
// frustum corners may be accepted though fully outside.
func (f *Frustum) IsBoxInside(min, max mgl32.Vec3) bool {
	for i := range f.Planes {
		p := f.Planes[i]
		corner := min
		for axis := 0; axis < 3; axis++ {
			if p.Normal[axis] >= 0 {
				corner[axis] = max[axis]
			}
		}
		if p.DistanceTo(corner) < 0 {
			return false
		}
	}
	return true
}

// IsBoundsInside runs the sphere test on b.
func (f *Frustum) IsBoundsInside(b Bounds) bool {
	return f.IsSphereInside(b.Center, b.Radius)
}
