package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestBoundsFromAABB(t *testing.T) {
	b := BoundsFromAABB(AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}})
	if b.Center != (mgl32.Vec3{}) {
		t.Errorf("center: expected origin, got %v", b.Center)
	}
	if math.Abs(float64(b.Radius)-math.Sqrt(3)) > 1e-5 {
		t.Errorf("radius: expected sqrt(3), got %v", b.Radius)
	}
}

func TestBoundsTransform(t *testing.T) {
	b := SphereBounds(mgl32.Vec3{}, 1)

	moved := b.Transform(mgl32.Translate3D(5, 0, 0))
	if !moved.Center.ApproxEqual(mgl32.Vec3{5, 0, 0}) {
		t.Errorf("translated center: expected (5,0,0), got %v", moved.Center)
	}
	if moved.Radius != 1 {
		t.Errorf("translated radius: expected 1, got %v", moved.Radius)
	}
	if !moved.Min.ApproxEqual(mgl32.Vec3{4, -1, -1}) || !moved.Max.ApproxEqual(mgl32.Vec3{6, 1, 1}) {
		t.Errorf("translated box: got %v..%v", moved.Min, moved.Max)
	}

	scaled := b.Transform(mgl32.Scale3D(1, 3, 2))
	if math.Abs(float64(scaled.Radius-3)) > 1e-5 {
		t.Errorf("scaled radius: expected 3, got %v", scaled.Radius)
	}
}

func TestMeshLocalBounds(t *testing.T) {
	cube := CreateCube(2)
	if !cube.HasLocalAABB {
		t.Fatal("CreateCube should cache its AABB")
	}
	if cube.LocalAABB.Min != (mgl32.Vec3{-1, -1, -1}) || cube.LocalAABB.Max != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("cube AABB: got %v..%v", cube.LocalAABB.Min, cube.LocalAABB.Max)
	}
	if cube.IndexCount != 36 {
		t.Errorf("cube indices: expected 36, got %d", cube.IndexCount)
	}

	quad := CreateQuad()
	b := quad.LocalBounds()
	if math.Abs(float64(b.Radius)-math.Sqrt(0.5)) > 1e-5 {
		t.Errorf("quad radius: expected %v, got %v", math.Sqrt(0.5), b.Radius)
	}

	empty := NewMesh("empty")
	if got := empty.LocalBounds(); got != (Bounds{}) {
		t.Errorf("empty mesh bounds: expected zero, got %v", got)
	}
}
