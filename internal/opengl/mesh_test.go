package opengl

import (
	"errors"
	"testing"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"silent-forge/scene"
)

func TestNewMeshUploadsInterleavedVertices(t *testing.T) {
	drv, ctx, _ := newTestContext(t)
	src := scene.CreateQuad()
	m := newTestMesh(t, ctx, src)

	if m.VertexCount() != 4 || m.IndexCount() != 6 {
		t.Errorf("counts: expected 4 vertices 6 indices, got %d/%d", m.VertexCount(), m.IndexCount())
	}
	if got := len(drv.BufferBytes(m.vbo)); got != 4*vertexSize {
		t.Errorf("vertex buffer size: expected %d, got %d", 4*vertexSize, got)
	}

	va := drv.VAO(m.VAO())
	if va.ElementBuffer != m.ebo {
		t.Errorf("element buffer: expected %d, got %d", m.ebo, va.ElementBuffer)
	}
	want := map[uint32]struct {
		size   int32
		offset int
	}{
		AttribPosition: {3, 0},
		AttribNormal:   {3, 12},
		AttribTexCoord: {2, 24},
	}
	for loc, w := range want {
		a := va.Attribs[loc]
		if !a.Enabled || a.Size != w.size || a.Offset != w.offset || a.Stride != int32(vertexSize) {
			t.Errorf("attrib %d: expected size %d offset %d stride %d, got %+v", loc, w.size, w.offset, vertexSize, a)
		}
		if a.Buffer != m.vbo {
			t.Errorf("attrib %d: expected buffer %d, got %d", loc, m.vbo, a.Buffer)
		}
	}
	if drv.BoundVAO != 0 {
		t.Errorf("NewMesh should leave VAO 0 bound, got %d", drv.BoundVAO)
	}
}

func TestNewMeshFailures(t *testing.T) {
	drv, ctx, logs := newTestContext(t)

	if _, err := NewMesh(ctx, scene.NewMesh("empty")); !errors.Is(err, ErrEmptyMesh) {
		t.Errorf("empty mesh: expected ErrEmptyMesh, got %v", err)
	}

	drv.Lost = true
	if _, err := NewMesh(ctx, scene.CreateQuad()); !errors.Is(err, ErrNoContext) {
		t.Errorf("lost context: expected ErrNoContext, got %v", err)
	}
	if logs.FilterMessage("mesh creation without graphics context").Len() != 1 {
		t.Errorf("expected a warning for mesh creation without context")
	}
	if _, err := NewMesh(nil, scene.CreateQuad()); !errors.Is(err, ErrNoContext) {
		t.Errorf("nil context: expected ErrNoContext, got %v", err)
	}
}

func TestMeshDraw(t *testing.T) {
	drv, ctx, _ := newTestContext(t)
	quad := newTestMesh(t, ctx, scene.CreateQuad())
	tri := newTestMesh(t, ctx, scene.CreateMeshFromData("tri", scene.CreateTriangle().Vertices, nil))
	drv.ResetCalls()

	quad.Draw()
	tri.Draw()
	if len(drv.Draws) != 2 {
		t.Fatalf("draws: expected 2, got %d", len(drv.Draws))
	}
	if d := drv.Draws[0]; !d.Indexed || d.Count != 6 || d.VAO != quad.VAO() {
		t.Errorf("quad draw: got %+v", d)
	}
	if d := drv.Draws[1]; d.Indexed || d.Count != 3 || d.Mode != gl.TRIANGLES {
		t.Errorf("triangle draw: got %+v", d)
	}
}

func TestMeshRetainRelease(t *testing.T) {
	drv, ctx, _ := newTestContext(t)
	m := newTestMesh(t, ctx, scene.CreateCube(1))
	vao, vbo := m.VAO(), m.vbo

	m.Retain()
	m.Release()
	if !m.Valid() {
		t.Fatalf("mesh released while a reference remained")
	}
	m.Release()
	if m.Valid() {
		t.Errorf("mesh still valid after last release")
	}
	if drv.VAO(vao) != nil || drv.BufferBytes(vbo) != nil {
		t.Errorf("GPU names not deleted on last release")
	}
	// Extra releases and draws are harmless.
	m.Release()
	m.Draw()
}

func TestMeshBounds(t *testing.T) {
	_, ctx, _ := newTestContext(t)
	m := newTestMesh(t, ctx, scene.CreateCube(2))
	if b := m.Bounds(); b.Max != scene.CreateCube(2).LocalAABB.Max {
		t.Errorf("bounds max: expected %v, got %v", scene.CreateCube(2).LocalAABB.Max, b.Max)
	}
}
