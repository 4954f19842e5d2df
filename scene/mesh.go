package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"silent-forge/core"
)

// Mesh holds CPU-side vertex/index data.
// GPU upload is done by opengl.NewMesh.
type Mesh struct {
	Name       string
	Vertices   []core.Vertex
	Indices    []uint32
	IndexCount uint32

	// Cached local-space AABB (computed by CreateMeshFromData).
	LocalAABB    AABB
	HasLocalAABB bool
}

func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]core.Vertex, 0),
		Indices:  make([]uint32, 0),
	}
}

// CreateMeshFromData builds a Mesh and pre-computes its local-space AABB.
func CreateMeshFromData(name string, vertices []core.Vertex, indices []uint32) *Mesh {
	m := &Mesh{
		Name:       name,
		Vertices:   vertices,
		Indices:    indices,
		IndexCount: uint32(len(indices)),
	}
	if len(vertices) > 0 {
		m.LocalAABB = computeLocalAABB(vertices)
		m.HasLocalAABB = true
	}
	return m
}

// LocalBounds returns the bounding sphere and box of the mesh in model space.
func (m *Mesh) LocalBounds() Bounds {
	if !m.HasLocalAABB {
		if len(m.Vertices) == 0 {
			return Bounds{}
		}
		m.LocalAABB = computeLocalAABB(m.Vertices)
		m.HasLocalAABB = true
	}
	return BoundsFromAABB(m.LocalAABB)
}

func computeLocalAABB(vertices []core.Vertex) AABB {
	box := AABB{Min: vertices[0].Position, Max: vertices[0].Position}
	for i := 1; i < len(vertices); i++ {
		box = box.Extend(vertices[i].Position)
	}
	return box
}

// Primitive generation helpers

func vtx(px, py, pz, nx, ny, nz, u, v float32) core.Vertex {
	return core.Vertex{
		Position: mgl32.Vec3{px, py, pz},
		Normal:   mgl32.Vec3{nx, ny, nz},
		TexCoord: mgl32.Vec2{u, v},
	}
}

func CreateTriangle() *Mesh {
	vertices := []core.Vertex{
		vtx(-0.5, -0.5, 0, 0, 0, 1, 0, 0),
		vtx(0.5, -0.5, 0, 0, 0, 1, 1, 0),
		vtx(0, 0.5, 0, 0, 0, 1, 0.5, 1),
	}
	return CreateMeshFromData("Triangle", vertices, []uint32{0, 1, 2})
}

func CreateQuad() *Mesh {
	vertices := []core.Vertex{
		vtx(-0.5, -0.5, 0, 0, 0, 1, 0, 0),
		vtx(0.5, -0.5, 0, 0, 0, 1, 1, 0),
		vtx(0.5, 0.5, 0, 0, 0, 1, 1, 1),
		vtx(-0.5, 0.5, 0, 0, 0, 1, 0, 1),
	}
	return CreateMeshFromData("Quad", vertices, []uint32{0, 1, 2, 2, 3, 0})
}

func CreateCube(size float32) *Mesh {
	s := size / 2

	vertices := []core.Vertex{
		// Front face
		vtx(-s, -s, s, 0, 0, 1, 0, 0), vtx(s, -s, s, 0, 0, 1, 1, 0), vtx(s, s, s, 0, 0, 1, 1, 1), vtx(-s, s, s, 0, 0, 1, 0, 1),
		// Back face
		vtx(-s, -s, -s, 0, 0, -1, 1, 0), vtx(s, -s, -s, 0, 0, -1, 0, 0), vtx(s, s, -s, 0, 0, -1, 0, 1), vtx(-s, s, -s, 0, 0, -1, 1, 1),
		// Top face
		vtx(-s, s, -s, 0, 1, 0, 0, 0), vtx(s, s, -s, 0, 1, 0, 1, 0), vtx(s, s, s, 0, 1, 0, 1, 1), vtx(-s, s, s, 0, 1, 0, 0, 1),
		// Bottom face
		vtx(-s, -s, -s, 0, -1, 0, 0, 1), vtx(s, -s, -s, 0, -1, 0, 1, 1), vtx(s, -s, s, 0, -1, 0, 1, 0), vtx(-s, -s, s, 0, -1, 0, 0, 0),
		// Right face
		vtx(s, -s, -s, 1, 0, 0, 0, 0), vtx(s, -s, s, 1, 0, 0, 1, 0), vtx(s, s, s, 1, 0, 0, 1, 1), vtx(s, s, -s, 1, 0, 0, 0, 1),
		// Left face
		vtx(-s, -s, -s, -1, 0, 0, 1, 0), vtx(-s, -s, s, -1, 0, 0, 0, 0), vtx(-s, s, s, -1, 0, 0, 0, 1), vtx(-s, s, -s, -1, 0, 0, 1, 1),
	}

	indices := []uint32{
		0, 1, 2, 2, 3, 0,
		4, 5, 6, 6, 7, 4,
		8, 9, 10, 10, 11, 8,
		12, 13, 14, 14, 15, 12,
		16, 17, 18, 18, 19, 16,
		20, 21, 22, 22, 23, 20,
	}

	return CreateMeshFromData("Cube", vertices, indices)
}
