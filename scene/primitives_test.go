package scene

import (
	"testing"
)

func TestPrimitiveCounts(t *testing.T) {
	cases := []struct {
		name     string
		mesh     *Mesh
		vertices int
		indices  int
	}{
		{"sphere", CreateSphere(1, 8, 4), 9 * 5, 8 * 4 * 6},
		{"torus", CreateTorus(2, 0.5, 6, 4), 7 * 5, 6 * 4 * 6},
		{"plane", CreatePlane(10, 10, 2), 9, 2 * 2 * 6},
		{"clamped sphere", CreateSphere(1, 1, 1), 4 * 3, 3 * 2 * 6},
	}
	for _, c := range cases {
		if len(c.mesh.Vertices) != c.vertices {
			t.Errorf("%s vertices: expected %d, got %d", c.name, c.vertices, len(c.mesh.Vertices))
		}
		if int(c.mesh.IndexCount) != c.indices {
			t.Errorf("%s indices: expected %d, got %d", c.name, c.indices, c.mesh.IndexCount)
		}
		for _, i := range c.mesh.Indices {
			if int(i) >= len(c.mesh.Vertices) {
				t.Errorf("%s: index %d out of range", c.name, i)
				break
			}
		}
	}
}

func TestSphereBoundsEnclosesRadius(t *testing.T) {
	b := CreateSphere(2, 16, 8).LocalBounds()
	if b.Radius < 2-1e-4 {
		t.Errorf("radius: expected at least 2, got %v", b.Radius)
	}
	if b.Center.Len() > 1e-4 {
		t.Errorf("center: expected origin, got %v", b.Center)
	}
}

func TestPlaneIsFlat(t *testing.T) {
	m := CreatePlane(4, 6, 3)
	if !m.HasLocalAABB {
		t.Fatal("expected a local AABB")
	}
	if m.LocalAABB.Min.Y() != 0 || m.LocalAABB.Max.Y() != 0 {
		t.Errorf("plane height: expected 0, got %v..%v", m.LocalAABB.Min.Y(), m.LocalAABB.Max.Y())
	}
	if m.LocalAABB.Max.X() != 2 || m.LocalAABB.Max.Z() != 3 {
		t.Errorf("plane extent: expected (2,_,3), got %v", m.LocalAABB.Max)
	}
}
