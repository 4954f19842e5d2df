package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// UniformValue is one of IntUniform, FloatUniform, Vec2Uniform,
// Vec3Uniform, Vec4Uniform, Mat3Uniform, Mat4Uniform or TextureUniform.
type UniformValue interface {
	isUniformValue()
}

type (
	IntUniform   int32
	FloatUniform float32
	Vec2Uniform  mgl32.Vec2
	Vec3Uniform  mgl32.Vec3
	Vec4Uniform  mgl32.Vec4
	Mat3Uniform  mgl32.Mat3
	Mat4Uniform  mgl32.Mat4
)

// TextureUniform binds Texture to Unit and sets the sampler to Unit.
type TextureUniform struct {
	Texture *Texture
	Unit    uint32
}

func (IntUniform) isUniformValue()     {}
func (FloatUniform) isUniformValue()   {}
func (Vec2Uniform) isUniformValue()    {}
func (Vec3Uniform) isUniformValue()    {}
func (Vec4Uniform) isUniformValue()    {}
func (Mat3Uniform) isUniformValue()    {}
func (Mat4Uniform) isUniformValue()    {}
func (TextureUniform) isUniformValue() {}

// Material pairs a shader with uniform values and the fixed-function
// state it needs. Uniforms are applied in the order they were first set.
type Material struct {
	shader   *Shader
	uniforms map[string]UniformValue
	order    []string

	Blend     bool
	BlendSrc  uint32
	BlendDst  uint32
	DepthTest bool
	DepthFunc uint32
	CullFace  bool
}

// NewMaterial returns an opaque, depth-tested, back-face culled material.
func NewMaterial(shader *Shader) *Material {
	return &Material{
		shader:    shader,
		uniforms:  map[string]UniformValue{},
		BlendSrc:  gl.SRC_ALPHA,
		BlendDst:  gl.ONE_MINUS_SRC_ALPHA,
		DepthTest: true,
		DepthFunc: gl.LESS,
		CullFace:  true,
	}
}

func (m *Material) Shader() *Shader { return m.shader }

// Set stores a uniform value.
func (m *Material) Set(name string, v UniformValue) {
	if _, ok := m.uniforms[name]; !ok {
		m.order = append(m.order, name)
	}
	m.uniforms[name] = v
}

func (m *Material) Get(name string) (UniformValue, bool) {
	v, ok := m.uniforms[name]
	return v, ok
}

// Bind makes the shader current, applies render state through the state
// cache and uploads every uniform.
func (m *Material) Bind() error {
	if m.shader == nil {
		return ErrNilShader
	}
	if !m.shader.valid() {
		return ErrNoContext
	}
	m.shader.Use()

	state := m.shader.ctx.State()
	state.SetEnabled(gl.BLEND, m.Blend)
	if m.Blend {
		state.SetBlendFunc(m.BlendSrc, m.BlendDst)
	}
	state.SetEnabled(gl.DEPTH_TEST, m.DepthTest)
	if m.DepthTest {
		state.SetDepthFunc(m.DepthFunc)
	}
	state.SetEnabled(gl.CULL_FACE, m.CullFace)

	for _, name := range m.order {
		if err := m.apply(name, m.uniforms[name]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Material) apply(name string, v UniformValue) error {
	s := m.shader
	switch v := v.(type) {
	case IntUniform:
		s.SetInt(name, int32(v))
	case FloatUniform:
		s.SetFloat(name, float32(v))
	case Vec2Uniform:
		s.SetVec2(name, mgl32.Vec2(v))
	case Vec3Uniform:
		s.SetVec3(name, mgl32.Vec3(v))
	case Vec4Uniform:
		s.SetVec4(name, mgl32.Vec4(v))
	case Mat3Uniform:
		s.SetMat3(name, mgl32.Mat3(v))
	case Mat4Uniform:
		s.SetMat4(name, mgl32.Mat4(v))
	case TextureUniform:
		if !v.Texture.Bind(v.Unit) && (v.Texture == nil || v.Texture.ID() == 0) {
			return fmt.Errorf("uniform %q: %w", name, ErrInvalidTexture)
		}
		s.SetInt(name, int32(v.Unit))
	default:
		return fmt.Errorf("uniform %q: unsupported value %T", name, v)
	}
	return nil
}
