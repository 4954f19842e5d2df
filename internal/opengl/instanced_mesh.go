package opengl

import (
	"slices"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"silent-forge/scene"
)

const (
	// DefaultInstanceCapacity is the number of matrices the instance
	// buffer holds before it first grows.
	DefaultInstanceCapacity = 100

	// InstanceMatrixLocation is the first of the four consecutive vec4
	// attribute locations holding the per-instance model matrix.
	InstanceMatrixLocation uint32 = 3

	// InvalidInstance is returned by AddInstance when nothing was added.
	InvalidInstance = -1
)

// InstanceAttribute describes one per-instance vertex attribute of a
// custom instance layout. Divisor should be 1 for per-instance data.
type InstanceAttribute struct {
	Index      uint32
	Size       int32
	Type       uint32
	Normalized bool
	Stride     int32
	Offset     int
	Divisor    uint32
}

// InstancedOption configures an InstancedMesh.
type InstancedOption func(*InstancedMesh)

// WithLogger sets the log sink. nil keeps the context's logger.
func WithLogger(l *zap.Logger) InstancedOption {
	return func(im *InstancedMesh) {
		if l != nil {
			im.logger = l
		}
	}
}

// WithInitialCapacity sets how many matrices are pre-allocated.
func WithInitialCapacity(n int) InstancedOption {
	return func(im *InstancedMesh) {
		if n > 0 {
			im.initialCapacity = n
		}
	}
}

// WithCompactVisible controls whether culled draws repack the visible
// matrices and draw only those. It is on by default.
func WithCompactVisible(on bool) InstancedOption {
	return func(im *InstancedMesh) { im.compactVisible = on }
}

// InstancedMesh draws many copies of a base Mesh with one instanced draw
// call. Each copy reads its model matrix from a per-instance buffer bound
// at locations 3-6 (one vec4 column each, divisor 1), unless a custom
// layout was installed with UpdateCustomInstanceData.
//
// Misuse in the frame loop never panics: with no base mesh or no current
// context every operation logs a warning and does nothing.
type InstancedMesh struct {
	ctx    *Context
	mesh   *Mesh
	logger *zap.Logger

	initialCapacity int
	compactVisible  bool

	instanceVBO uint32
	bufferBytes int
	stride      int
	// liveBytes is the prefix of the instance buffer holding current data.
	liveBytes int
	resizes   int

	modelMatrices  []mgl32.Mat4
	instanceBounds []scene.Bounds

	// currentAttributes is nil while the default matrix layout is active.
	currentAttributes []InstanceAttribute
	customCount       int

	cullVBO     uint32
	cullBytes   int
	visible     []int
	packed      []mgl32.Mat4
	lastVisible int
}

// NewInstancedMesh wraps mesh, taking a reference to it, and allocates the
// instance buffer. If mesh or the context is unusable the returned value
// is inert; Valid reports which.
func NewInstancedMesh(ctx *Context, mesh *Mesh, opts ...InstancedOption) *InstancedMesh {
	im := &InstancedMesh{
		ctx:             ctx,
		logger:          zap.NewNop(),
		initialCapacity: DefaultInstanceCapacity,
		compactVisible:  true,
		stride:          mat4Size,
	}
	if ctx != nil {
		im.logger = ctx.Logger()
	}
	for _, opt := range opts {
		opt(im)
	}
	im.logger = im.logger.Named("instanced")

	if !mesh.Valid() {
		im.logger.Warn("instanced mesh created without a valid base mesh")
		return im
	}
	if !ctx.Valid() {
		im.logger.Warn("instanced mesh created without graphics context")
		return im
	}

	im.mesh = mesh.Retain()
	drv, state := ctx.Driver(), ctx.State()
	im.instanceVBO = drv.GenBuffer()
	im.bufferBytes = im.initialCapacity * mat4Size
	state.BindBuffer(gl.ARRAY_BUFFER, im.instanceVBO)
	drv.BufferData(gl.ARRAY_BUFFER, im.bufferBytes, nil, gl.DYNAMIC_DRAW)
	im.installLayout()
	ctx.CheckError("NewInstancedMesh")

	im.logger.Debug("instance buffer allocated",
		zap.String("mesh", mesh.Name()),
		zap.Uint32("buffer", im.instanceVBO),
		zap.Int("capacity", im.initialCapacity))
	return im
}

// Valid reports whether draws and uploads will reach the GPU.
func (im *InstancedMesh) Valid() bool {
	return im != nil && im.instanceVBO != 0 && im.mesh.Valid() && im.ctx.Valid()
}

func (im *InstancedMesh) ready(op string) bool {
	if im == nil {
		return false
	}
	if im.Valid() {
		return true
	}
	reason := "no graphics context"
	if im.mesh == nil || !im.mesh.Valid() {
		reason = "no base mesh"
	}
	im.logger.Warn("instanced mesh operation skipped", zap.String("op", op), zap.String("reason", reason))
	return false
}

// UpdateInstanceData replaces every instance matrix. An empty slice is
// rejected with a warning; use ClearInstances to drop instances. The
// default matrix layout is reinstalled if a custom one was active.
func (im *InstancedMesh) UpdateInstanceData(matrices []mgl32.Mat4) {
	if !im.ready("UpdateInstanceData") {
		return
	}
	if len(matrices) == 0 {
		im.logger.Warn("empty instance update ignored")
		return
	}

	relayout := im.useDefaultLayout()
	need := len(matrices) * mat4Size
	if need > im.bufferBytes {
		im.resize(len(matrices))
		relayout = false
	}

	im.modelMatrices = append(im.modelMatrices[:0], matrices...)
	im.upload(0, matrixBytes(im.modelMatrices))
	im.liveBytes = need
	if relayout {
		im.installLayout()
	}
	im.ctx.CheckError("UpdateInstanceData")
}

// UpdateCustomInstanceData uploads count records of stride bytes from data
// and points the VAO at them using attrs in place of the matrix layout.
// Default matrix locations not reused by attrs are disabled. Until the
// next matrix operation, InstanceCount reports count.
func (im *InstancedMesh) UpdateCustomInstanceData(attrs []InstanceAttribute, data []byte, stride, count int) {
	if !im.ready("UpdateCustomInstanceData") {
		return
	}
	need := stride * count
	switch {
	case len(attrs) == 0:
		im.logger.Warn("custom instance update without attributes ignored")
		return
	case count <= 0 || stride <= 0:
		im.logger.Warn("empty custom instance update ignored", zap.Int("count", count), zap.Int("stride", stride))
		return
	case len(data) < need:
		im.logger.Warn("custom instance data shorter than stride*count",
			zap.Int("have", len(data)), zap.Int("need", need))
		return
	}

	if stride != im.stride {
		im.liveBytes = 0
	}
	im.currentAttributes = append([]InstanceAttribute(nil), attrs...)
	im.customCount = count
	im.stride = stride

	if need > im.bufferBytes {
		im.resize(count)
	} else {
		im.installLayout()
	}
	im.upload(0, data[:need])
	im.liveBytes = need
	im.ctx.CheckError("UpdateCustomInstanceData")
}

// UpdateInstanceBounds replaces the per-instance bounds used by
// DrawInstancedCulled. Bounds live on the CPU only.
func (im *InstancedMesh) UpdateInstanceBounds(bounds []scene.Bounds) {
	if !im.ready("UpdateInstanceBounds") {
		return
	}
	im.instanceBounds = append(im.instanceBounds[:0], bounds...)
}

// AddInstance appends one instance and returns its index, or
// InvalidInstance. Only the new matrix is uploaded unless the default
// layout had to be reinstalled. bounds is stored at the new index; if
// fewer bounds than instances were known it cannot be placed there and
// culled draws fall back to unculled ones.
func (im *InstancedMesh) AddInstance(matrix mgl32.Mat4, bounds scene.Bounds) int {
	if !im.ready("AddInstance") {
		return InvalidInstance
	}

	relayout := im.useDefaultLayout()
	index := len(im.modelMatrices)
	if index+1 > im.Capacity() {
		im.resize((index + 1) * 2)
		relayout = false
	}

	im.modelMatrices = append(im.modelMatrices, matrix)
	switch {
	case len(im.instanceBounds) > index:
		im.instanceBounds[index] = bounds
	case len(im.instanceBounds) == index:
		im.instanceBounds = append(im.instanceBounds, bounds)
	}

	if im.liveBytes == index*mat4Size {
		im.upload(index*mat4Size, matrixBytes(im.modelMatrices[index:]))
	} else {
		im.upload(0, matrixBytes(im.modelMatrices))
	}
	im.liveBytes = len(im.modelMatrices) * mat4Size
	if relayout {
		im.installLayout()
	}
	im.ctx.CheckError("AddInstance")
	return index
}

// RemoveInstance deletes the instance at index, shifting later instances
// down by one, and re-uploads all remaining matrices.
func (im *InstancedMesh) RemoveInstance(index int) bool {
	if !im.ready("RemoveInstance") {
		return false
	}
	if index < 0 || index >= len(im.modelMatrices) {
		im.logger.Warn("instance index out of range",
			zap.Int("index", index), zap.Int("count", len(im.modelMatrices)))
		return false
	}

	relayout := im.useDefaultLayout()
	im.modelMatrices = append(im.modelMatrices[:index], im.modelMatrices[index+1:]...)
	if index < len(im.instanceBounds) {
		im.instanceBounds = append(im.instanceBounds[:index], im.instanceBounds[index+1:]...)
	}

	im.upload(0, matrixBytes(im.modelMatrices))
	im.liveBytes = len(im.modelMatrices) * mat4Size
	if relayout {
		im.installLayout()
	}
	im.ctx.CheckError("RemoveInstance")
	return true
}

// ClearInstances drops every instance and bound. Buffer capacity and
// contents are left alone.
func (im *InstancedMesh) ClearInstances() {
	if im == nil {
		return
	}
	im.modelMatrices = im.modelMatrices[:0]
	im.instanceBounds = im.instanceBounds[:0]
	im.customCount = 0
	im.liveBytes = 0
}

func (im *InstancedMesh) effectiveCount(count int) int {
	total := im.InstanceCount()
	if count <= 0 || count > total {
		return total
	}
	return count
}

// DrawInstanced draws the first count instances, or all of them when
// count <= 0, in one call.
func (im *InstancedMesh) DrawInstanced(count int) {
	if !im.ready("DrawInstanced") {
		return
	}
	n := im.effectiveCount(count)
	if n <= 0 || !im.mesh.HasIndices() {
		return
	}
	im.drawRange(n)
}

// DrawInstancedCulled tests the bounds of the first count instances
// against f and draws only when at least one is visible. When the
// default layout is active and compaction is on, the visible matrices are
// packed into a separate buffer and exactly those are drawn. If fewer
// bounds than instances are known the call behaves like DrawInstanced.
func (im *InstancedMesh) DrawInstancedCulled(f *scene.Frustum, count int) {
	if !im.ready("DrawInstancedCulled") {
		return
	}
	n := im.effectiveCount(count)
	if n <= 0 || !im.mesh.HasIndices() {
		return
	}
	if f == nil || len(im.instanceBounds) < n {
		if f != nil {
			im.logger.Warn("instance bounds do not cover draw range, drawing unculled",
				zap.Int("bounds", len(im.instanceBounds)), zap.Int("count", n))
		}
		im.lastVisible = n
		im.drawRange(n)
		return
	}

	im.visible = im.visible[:0]
	for i := 0; i < n; i++ {
		if f.IsBoundsInside(im.instanceBounds[i]) {
			im.visible = append(im.visible, i)
		}
	}
	im.lastVisible = len(im.visible)

	switch {
	case len(im.visible) == 0:
		return
	case len(im.visible) == n || im.currentAttributes != nil || !im.compactVisible:
		im.drawRange(n)
	default:
		im.drawVisible()
	}
}

func (im *InstancedMesh) drawRange(n int) {
	im.claimLayout()
	state := im.ctx.State()
	state.BindVAO(im.mesh.VAO())
	state.BindBuffer(gl.ARRAY_BUFFER, im.instanceVBO)
	im.ctx.Driver().DrawElementsInstanced(gl.TRIANGLES, im.mesh.IndexCount(), gl.UNSIGNED_INT, 0, int32(n))
	state.BindVAO(0)
}

// drawVisible packs the visible matrices into the cull buffer, points the
// matrix attributes at it for one draw and restores them.
func (im *InstancedMesh) drawVisible() {
	im.claimLayout()
	drv, state := im.ctx.Driver(), im.ctx.State()

	im.packed = im.packed[:0]
	for _, i := range im.visible {
		im.packed = append(im.packed, im.modelMatrices[i])
	}
	data := matrixBytes(im.packed)

	if im.cullVBO == 0 {
		im.cullVBO = drv.GenBuffer()
	}
	state.BindBuffer(gl.ARRAY_BUFFER, im.cullVBO)
	if len(data) > im.cullBytes {
		size := im.cullBytes * 2
		if size < len(data) {
			size = len(data)
		}
		drv.BufferData(gl.ARRAY_BUFFER, size, data, gl.STREAM_DRAW)
		im.cullBytes = size
	} else {
		drv.BufferSubData(gl.ARRAY_BUFFER, 0, data)
	}

	state.BindVAO(im.mesh.VAO())
	im.pointMatrixAttributes(im.cullVBO)
	drv.DrawElementsInstanced(gl.TRIANGLES, im.mesh.IndexCount(), gl.UNSIGNED_INT, 0, int32(len(im.packed)))
	im.pointMatrixAttributes(im.instanceVBO)
	state.BindVAO(0)
}

// resize grows the instance buffer to hold newSize records of the current
// stride. Live data is copied on the GPU and the layout re-pointed.
func (im *InstancedMesh) resize(newSize int) {
	drv, state := im.ctx.Driver(), im.ctx.State()
	old, oldCap := im.instanceVBO, im.Capacity()
	newBytes := newSize * im.stride

	buf := drv.GenBuffer()
	state.BindBuffer(gl.ARRAY_BUFFER, buf)
	drv.BufferData(gl.ARRAY_BUFFER, newBytes, nil, gl.DYNAMIC_DRAW)
	if im.liveBytes > 0 {
		state.BindBuffer(gl.COPY_READ_BUFFER, old)
		drv.CopyBufferSubData(gl.COPY_READ_BUFFER, gl.ARRAY_BUFFER, 0, 0, im.liveBytes)
	}
	state.DeleteBuffer(old)

	im.instanceVBO = buf
	im.bufferBytes = newBytes
	im.resizes++
	im.installLayout()

	im.logger.Debug("instance buffer resized",
		zap.Int("from", oldCap), zap.Int("to", newSize), zap.Int("copied_bytes", im.liveBytes))
}

func (im *InstancedMesh) upload(offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	im.ctx.State().BindBuffer(gl.ARRAY_BUFFER, im.instanceVBO)
	im.ctx.Driver().BufferSubData(gl.ARRAY_BUFFER, offset, data)
}

// useDefaultLayout switches bookkeeping back to the matrix layout and
// reports whether the VAO needs reconfiguring.
func (im *InstancedMesh) useDefaultLayout() bool {
	if im.currentAttributes == nil {
		return false
	}
	im.currentAttributes = nil
	im.customCount = 0
	im.stride = mat4Size
	im.liveBytes = 0
	return true
}

// claimLayout re-points the shared VAO at this mesh's instance buffer
// when another InstancedMesh over the same base mesh installed its layout
// last.
func (im *InstancedMesh) claimLayout() {
	if im.mesh.instanceOwner != im {
		im.installLayout()
	}
}

// installLayout points the base VAO's instance attributes at the instance
// buffer using the active layout. Instance locations enabled by the
// previous layout and unused by this one are disabled.
func (im *InstancedMesh) installLayout() {
	drv, state := im.ctx.Driver(), im.ctx.State()
	state.BindVAO(im.mesh.VAO())
	state.BindBuffer(gl.ARRAY_BUFFER, im.instanceVBO)

	locs := im.layoutLocations()
	for _, loc := range im.mesh.instanceLocs {
		if !slices.Contains(locs, loc) {
			drv.VertexAttribDivisor(loc, 0)
			drv.DisableVertexAttribArray(loc)
		}
	}

	if im.currentAttributes == nil {
		for i := uint32(0); i < 4; i++ {
			loc := InstanceMatrixLocation + i
			drv.EnableVertexAttribArray(loc)
			drv.VertexAttribPointer(loc, 4, gl.FLOAT, false, int32(mat4Size), int(i)*16)
			drv.VertexAttribDivisor(loc, 1)
		}
	} else {
		for _, a := range im.currentAttributes {
			drv.EnableVertexAttribArray(a.Index)
			drv.VertexAttribPointer(a.Index, a.Size, a.Type, a.Normalized, a.Stride, a.Offset)
			drv.VertexAttribDivisor(a.Index, a.Divisor)
		}
	}
	state.BindVAO(0)

	im.mesh.instanceOwner = im
	im.mesh.instanceLocs = locs
}

func (im *InstancedMesh) layoutLocations() []uint32 {
	if im.currentAttributes == nil {
		return []uint32{InstanceMatrixLocation, InstanceMatrixLocation + 1, InstanceMatrixLocation + 2, InstanceMatrixLocation + 3}
	}
	locs := make([]uint32, 0, len(im.currentAttributes))
	for _, a := range im.currentAttributes {
		locs = append(locs, a.Index)
	}
	return locs
}

func (im *InstancedMesh) pointMatrixAttributes(buf uint32) {
	im.ctx.State().BindBuffer(gl.ARRAY_BUFFER, buf)
	for i := uint32(0); i < 4; i++ {
		im.ctx.Driver().VertexAttribPointer(InstanceMatrixLocation+i, 4, gl.FLOAT, false, int32(mat4Size), int(i)*16)
	}
}

// Destroy frees the instance buffers and drops the base mesh reference.
// It is safe to call more than once.
func (im *InstancedMesh) Destroy() {
	if im == nil {
		return
	}
	if im.ctx.Valid() {
		state := im.ctx.State()
		state.DeleteBuffer(im.instanceVBO)
		state.DeleteBuffer(im.cullVBO)
	}
	im.instanceVBO, im.cullVBO = 0, 0
	im.bufferBytes, im.cullBytes = 0, 0
	if im.mesh != nil {
		if im.mesh.instanceOwner == im {
			im.mesh.instanceOwner = nil
		}
		im.mesh.Release()
		im.mesh = nil
	}
}

// InstanceCount is the number of instances a draw covers: the matrix
// count, or the record count of an active custom layout.
func (im *InstancedMesh) InstanceCount() int {
	if im == nil {
		return 0
	}
	if im.currentAttributes != nil {
		return im.customCount
	}
	return len(im.modelMatrices)
}

// Capacity is how many records of the active layout fit in the buffer.
func (im *InstancedMesh) Capacity() int {
	if im == nil || im.stride == 0 {
		return 0
	}
	return im.bufferBytes / im.stride
}

// Resizes counts buffer growth events.
func (im *InstancedMesh) Resizes() int { return im.resizes }

// VisibleCount is the number of instances the last culled draw found visible.
func (im *InstancedMesh) VisibleCount() int { return im.lastVisible }

// BufferID is the GPU name of the instance buffer.
func (im *InstancedMesh) BufferID() uint32 { return im.instanceVBO }

// Mesh is the shared base mesh.
func (im *InstancedMesh) Mesh() *Mesh { return im.mesh }

// SetCompactVisible toggles visible-subset packing for culled draws.
func (im *InstancedMesh) SetCompactVisible(on bool) { im.compactVisible = on }

// Matrices returns a copy of the instance matrices.
func (im *InstancedMesh) Matrices() []mgl32.Mat4 {
	return append([]mgl32.Mat4(nil), im.modelMatrices...)
}

// Bounds returns a copy of the instance bounds.
func (im *InstancedMesh) Bounds() []scene.Bounds {
	return append([]scene.Bounds(nil), im.instanceBounds...)
}
