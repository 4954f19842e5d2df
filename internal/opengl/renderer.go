package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"silent-forge/core"
	"silent-forge/scene"
)

// Stats are the counters of the last frame.
type Stats struct {
	DrawCalls int
	Vertices  int
	Indices   int
	Batches   int
	Instances int
	Culled    int
}

type batchKey struct {
	mesh   *Mesh
	shader *Shader
}

type batch struct {
	transforms []mgl32.Mat4
}

// Renderer collects submissions for a frame, groups them by mesh and
// shader and flushes each group at EndFrame. Indexed meshes are drawn
// with one instanced call per group; the shader must then read the model
// matrix from attribute locations 3-6. Meshes without indices are drawn
// once per transform with a "model" uniform.
//
// Every shader receives "view" and "projection" uniforms.
type Renderer struct {
	ctx    *Context
	cfg    core.Config
	logger *zap.Logger

	initialized bool
	inFrame     bool

	clearColor core.Color
	target     *Framebuffer

	view, proj mgl32.Mat4
	frustum    scene.Frustum

	batches   map[batchKey]*batch
	order     []batchKey
	instanced map[*Mesh]*InstancedMesh
	bounds    []scene.Bounds

	stats Stats
}

func NewRenderer(ctx *Context, cfg core.Config) *Renderer {
	logger := zap.NewNop()
	if ctx != nil {
		logger = ctx.Logger().Named("renderer")
	}
	return &Renderer{
		ctx:        ctx,
		cfg:        cfg,
		logger:     logger,
		clearColor: core.ColorBlack,
		batches:    map[batchKey]*batch{},
		instanced:  map[*Mesh]*InstancedMesh{},
	}
}

// Initialize applies the configured global render state.
func (r *Renderer) Initialize() error {
	if !r.ctx.Valid() {
		return ErrNoContext
	}
	state := r.ctx.State()
	state.SetEnabled(gl.DEPTH_TEST, r.cfg.Graphics.DepthTest)
	state.SetDepthFunc(gl.LESS)
	state.SetEnabled(gl.CULL_FACE, r.cfg.Graphics.CullFace)
	r.applyClearColor()
	r.initialized = true
	r.logger.Info("renderer initialized",
		zap.Bool("depth_test", r.cfg.Graphics.DepthTest),
		zap.Bool("cull_face", r.cfg.Graphics.CullFace),
		zap.Bool("frustum_culling", r.cfg.Instancing.FrustumCulling))
	return nil
}

// Shutdown frees the per-mesh instance buffers. Meshes and shaders belong
// to the caller.
func (r *Renderer) Shutdown() {
	for mesh := range r.instanced {
		r.ReleaseMesh(mesh)
	}
	r.initialized = false
	r.inFrame = false
}

// ReleaseMesh drops the instance buffer kept for mesh, along with the
// reference it holds on mesh.
func (r *Renderer) ReleaseMesh(mesh *Mesh) {
	if im, ok := r.instanced[mesh]; ok {
		im.Destroy()
		delete(r.instanced, mesh)
	}
}

func (r *Renderer) SetClearColor(c core.Color) {
	r.clearColor = c
	r.applyClearColor()
}

func (r *Renderer) applyClearColor() {
	if r.ctx.Valid() {
		c := r.clearColor
		r.ctx.Driver().ClearColor(c.R, c.G, c.B, c.A)
	}
}

func (r *Renderer) SetViewport(vp core.Viewport) {
	if r.ctx.Valid() {
		r.ctx.Driver().Viewport(vp.X, vp.Y, vp.Width, vp.Height)
	}
}

// SetTargetFramebuffer renders subsequent frames into fb; nil restores the
// default framebuffer.
func (r *Renderer) SetTargetFramebuffer(fb *Framebuffer) { r.target = fb }

// Clear clears the current target.
func (r *Renderer) Clear() {
	if !r.ctx.Valid() {
		return
	}
	if r.target != nil {
		r.target.Clear(r.clearColor.Vec4())
		return
	}
	r.applyClearColor()
	r.ctx.Driver().Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// BeginFrame starts collecting submissions for a frame seen through view
// and proj.
func (r *Renderer) BeginFrame(view, proj mgl32.Mat4) error {
	if !r.initialized {
		return ErrNotInitialized
	}
	if !r.ctx.Valid() {
		return ErrNoContext
	}
	r.view, r.proj = view, proj
	if err := r.frustum.Update(proj.Mul4(view)); err != nil {
		r.logger.Debug("frustum degenerate, culling relaxed", zap.Error(err))
	}
	for k, b := range r.batches {
		if len(b.transforms) == 0 {
			delete(r.batches, k)
			continue
		}
		b.transforms = b.transforms[:0]
	}
	r.order = r.order[:0]
	r.stats = Stats{}

	if r.target != nil {
		r.target.Bind()
		r.target.SetViewport()
	}
	r.inFrame = true
	return nil
}

// Submit queues transforms of mesh to be drawn with shader.
func (r *Renderer) Submit(mesh *Mesh, shader *Shader, transforms ...mgl32.Mat4) error {
	if !r.inFrame {
		return ErrNotInitialized
	}
	if shader == nil {
		return ErrNilShader
	}
	if !mesh.Valid() {
		return ErrInvalidSubmission
	}
	if len(transforms) == 0 {
		return nil
	}
	key := batchKey{mesh, shader}
	b, ok := r.batches[key]
	if !ok {
		b = &batch{}
		r.batches[key] = b
	}
	if len(b.transforms) == 0 {
		r.order = append(r.order, key)
	}
	b.transforms = append(b.transforms, transforms...)
	return nil
}

// EndFrame draws every batch in submission order.
func (r *Renderer) EndFrame() error {
	if !r.inFrame {
		return ErrNotInitialized
	}
	r.inFrame = false
	if !r.ctx.Valid() {
		return ErrNoContext
	}
	for _, key := range r.order {
		r.flush(key, r.batches[key].transforms)
	}
	if r.target != nil {
		r.target.Unbind()
	}
	r.ctx.CheckError("EndFrame")
	return nil
}

func (r *Renderer) flush(key batchKey, transforms []mgl32.Mat4) {
	mesh, shader := key.mesh, key.shader
	shader.Use()
	shader.SetMat4("view", r.view)
	shader.SetMat4("projection", r.proj)
	r.stats.Batches++

	if !mesh.HasIndices() {
		r.drawEach(mesh, shader, transforms)
		return
	}

	n := len(transforms)
	im := r.instancedFor(mesh)
	im.UpdateInstanceData(transforms)

	visible := n
	if r.cfg.Instancing.FrustumCulling {
		local := mesh.Bounds()
		r.bounds = r.bounds[:0]
		for _, m := range transforms {
			r.bounds = append(r.bounds, local.Transform(m))
		}
		im.UpdateInstanceBounds(r.bounds)
		im.DrawInstancedCulled(&r.frustum, n)
		visible = im.VisibleCount()
	} else {
		im.DrawInstanced(n)
	}

	r.stats.Culled += n - visible
	if visible > 0 {
		r.count(mesh, visible)
	}
}

func (r *Renderer) drawEach(mesh *Mesh, shader *Shader, transforms []mgl32.Mat4) {
	local := mesh.Bounds()
	for _, m := range transforms {
		if r.cfg.Instancing.FrustumCulling && !r.frustum.IsBoundsInside(local.Transform(m)) {
			r.stats.Culled++
			continue
		}
		shader.SetMat4("model", m)
		mesh.Draw()
		r.count(mesh, 1)
	}
}

func (r *Renderer) count(mesh *Mesh, instances int) {
	r.stats.DrawCalls++
	r.stats.Instances += instances
	r.stats.Vertices += instances * int(mesh.VertexCount())
	r.stats.Indices += instances * int(mesh.IndexCount())
}

func (r *Renderer) instancedFor(mesh *Mesh) *InstancedMesh {
	im, ok := r.instanced[mesh]
	if ok && im.Valid() {
		return im
	}
	if ok {
		im.Destroy()
	}
	im = NewInstancedMesh(r.ctx, mesh,
		WithLogger(r.logger),
		WithInitialCapacity(r.cfg.Instancing.InitialCapacity),
		WithCompactVisible(r.cfg.Instancing.CompactVisible))
	r.instanced[mesh] = im
	return im
}

// SetFrustumCulling switches per-instance culling on or off for the
// following frames.
func (r *Renderer) SetFrustumCulling(on bool) { r.cfg.Instancing.FrustumCulling = on }

func (r *Renderer) FrustumCulling() bool { return r.cfg.Instancing.FrustumCulling }

// Statistics returns the counters of the last completed frame.
func (r *Renderer) Statistics() Stats { return r.stats }

// Frustum is the view frustum of the current frame.
func (r *Renderer) Frustum() *scene.Frustum { return &r.frustum }
