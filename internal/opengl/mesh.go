package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"silent-forge/core"
	"silent-forge/scene"
)

// Vertex attribute locations shared by every shader the engine drives.
const (
	AttribPosition uint32 = 0
	AttribTexCoord uint32 = 1
	AttribNormal   uint32 = 2
)

// Mesh is an uploaded vertex/index buffer pair with its VAO. It is
// reference counted so several InstancedMeshes can share one base mesh;
// the GPU names are released when the last reference is dropped.
type Mesh struct {
	ctx         *Context
	name        string
	vao         uint32
	vbo         uint32
	ebo         uint32
	vertexCount int32
	indexCount  int32
	bounds      scene.Bounds
	refs        int

	// The VAO's instance attributes are shared by every InstancedMesh over
	// this mesh. instanceOwner is the one they currently read from and
	// instanceLocs the locations it enabled.
	instanceOwner *InstancedMesh
	instanceLocs  []uint32
}

// NewMesh uploads src. It fails with ErrNoContext when no context is
// current and ErrEmptyMesh when src has no vertices.
func NewMesh(ctx *Context, src *scene.Mesh) (*Mesh, error) {
	if !ctx.Valid() {
		if ctx != nil {
			ctx.Logger().Warn("mesh creation without graphics context")
		}
		return nil, ErrNoContext
	}
	if src == nil || len(src.Vertices) == 0 {
		return nil, ErrEmptyMesh
	}

	drv, state := ctx.Driver(), ctx.State()
	m := &Mesh{
		ctx:         ctx,
		name:        src.Name,
		vertexCount: int32(len(src.Vertices)),
		indexCount:  int32(len(src.Indices)),
		bounds:      src.LocalBounds(),
		refs:        1,
	}

	m.vao = drv.GenVertexArray()
	m.vbo = drv.GenBuffer()
	state.BindVAO(m.vao)

	state.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	drv.BufferData(gl.ARRAY_BUFFER, len(src.Vertices)*vertexSize, vertexBytes(src.Vertices), gl.STATIC_DRAW)

	var v core.Vertex
	stride := int32(vertexSize)
	drv.EnableVertexAttribArray(AttribPosition)
	drv.VertexAttribPointer(AttribPosition, 3, gl.FLOAT, false, stride, int(unsafe.Offsetof(v.Position)))
	drv.EnableVertexAttribArray(AttribTexCoord)
	drv.VertexAttribPointer(AttribTexCoord, 2, gl.FLOAT, false, stride, int(unsafe.Offsetof(v.TexCoord)))
	drv.EnableVertexAttribArray(AttribNormal)
	drv.VertexAttribPointer(AttribNormal, 3, gl.FLOAT, false, stride, int(unsafe.Offsetof(v.Normal)))

	if m.indexCount > 0 {
		m.ebo = drv.GenBuffer()
		state.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
		drv.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(src.Indices)*4, indexBytes(src.Indices), gl.STATIC_DRAW)
	}

	state.BindVAO(0)
	if !ctx.CheckError("NewMesh") {
		m.release()
		return nil, fmt.Errorf("upload mesh %q: driver reported errors", src.Name)
	}
	ctx.Logger().Debug("mesh uploaded",
		zap.String("mesh", src.Name),
		zap.Int32("vertices", m.vertexCount),
		zap.Int32("indices", m.indexCount))
	return m, nil
}

// Valid reports whether the mesh still owns GPU names in a live context.
func (m *Mesh) Valid() bool {
	return m != nil && m.vao != 0 && m.ctx.Valid()
}

func (m *Mesh) Bind() {
	if m.Valid() {
		m.ctx.State().BindVAO(m.vao)
	}
}

func (m *Mesh) Unbind() {
	if m.Valid() {
		m.ctx.State().BindVAO(0)
	}
}

// Draw issues one indexed or non-indexed triangle draw.
func (m *Mesh) Draw() {
	if !m.Valid() {
		return
	}
	m.Bind()
	if m.indexCount > 0 {
		m.ctx.Driver().DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, 0)
	} else {
		m.ctx.Driver().DrawArrays(gl.TRIANGLES, 0, m.vertexCount)
	}
	m.Unbind()
}

// Retain adds a reference.
func (m *Mesh) Retain() *Mesh {
	if m != nil && m.refs > 0 {
		m.refs++
	}
	return m
}

// Release drops a reference and frees the GPU names with the last one.
func (m *Mesh) Release() {
	if m == nil || m.refs == 0 {
		return
	}
	m.refs--
	if m.refs == 0 {
		m.release()
	}
}

func (m *Mesh) release() {
	m.refs = 0
	if m.ctx.Valid() {
		state := m.ctx.State()
		state.DeleteBuffer(m.ebo)
		state.DeleteBuffer(m.vbo)
		state.DeleteVertexArray(m.vao)
	}
	m.vao, m.vbo, m.ebo = 0, 0, 0
	m.instanceOwner, m.instanceLocs = nil, nil
}

func (m *Mesh) Name() string         { return m.name }
func (m *Mesh) VAO() uint32          { return m.vao }
func (m *Mesh) IndexCount() int32    { return m.indexCount }
func (m *Mesh) VertexCount() int32   { return m.vertexCount }
func (m *Mesh) HasIndices() bool     { return m.indexCount > 0 }
func (m *Mesh) Refs() int            { return m.refs }
func (m *Mesh) Bounds() scene.Bounds { return m.bounds }
