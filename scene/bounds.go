package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Extend returns the smallest box containing both b and p.
func (b AABB) Extend(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Transform returns the world-space AABB of b under m by testing all 8 corners.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	mn, mx := b.Min, b.Max
	corners := [8]mgl32.Vec3{
		{mn[0], mn[1], mn[2]},
		{mx[0], mn[1], mn[2]},
		{mn[0], mx[1], mn[2]},
		{mx[0], mx[1], mn[2]},
		{mn[0], mn[1], mx[2]},
		{mx[0], mn[1], mx[2]},
		{mn[0], mx[1], mx[2]},
		{mx[0], mx[1], mx[2]},
	}
	first := mgl32.TransformCoordinate(corners[0], m)
	out := AABB{Min: first, Max: first}
	for i := 1; i < 8; i++ {
		out = out.Extend(mgl32.TransformCoordinate(corners[i], m))
	}
	return out
}

// IntersectsFrustum returns false if the AABB is completely outside the frustum.
func (b AABB) IntersectsFrustum(f *Frustum) bool {
	return f.IsBoxInside(b.Min, b.Max)
}

// Bounds describes one instance for culling: a bounding sphere plus the
// box it was derived from. Culling uses the sphere; the box is kept for
// callers that want the tighter IsBoxInside test.
type Bounds struct {
	Center mgl32.Vec3
	Radius float32
	Min    mgl32.Vec3
	Max    mgl32.Vec3
}

// BoundsFromAABB returns the sphere circumscribing box.
func BoundsFromAABB(box AABB) Bounds {
	c := box.Center()
	return Bounds{
		Center: c,
		Radius: box.Max.Sub(c).Len(),
		Min:    box.Min,
		Max:    box.Max,
	}
}

// SphereBounds builds bounds for a sphere, with the box enclosing it.
func SphereBounds(center mgl32.Vec3, radius float32) Bounds {
	r := mgl32.Vec3{radius, radius, radius}
	return Bounds{
		Center: center,
		Radius: radius,
		Min:    center.Sub(r),
		Max:    center.Add(r),
	}
}

// Transform moves b into the space of m. The radius is scaled by the
// largest axis scale of m so the sphere still encloses the transformed box.
func (b Bounds) Transform(m mgl32.Mat4) Bounds {
	box := AABB{Min: b.Min, Max: b.Max}.Transform(m)
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	scale := float32(math.Max(float64(sx), math.Max(float64(sy), float64(sz))))
	return Bounds{
		Center: mgl32.TransformCoordinate(b.Center, m),
		Radius: b.Radius * scale,
		Min:    box.Min,
		Max:    box.Max,
	}
}
