package opengl

import (
	"fmt"
	"os"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Shader is a linked vertex+fragment program. Uniform locations are looked
// up once per name and cached; setters for names the linker removed are
// silently skipped.
type Shader struct {
	ctx       *Context
	id        uint32
	vertPath  string
	fragPath  string
	locations map[string]int32
}

// NewShader compiles and links a program from GLSL source.
func NewShader(ctx *Context, vertSrc, fragSrc string) (*Shader, error) {
	if !ctx.Valid() {
		return nil, ErrNoContext
	}
	prog, err := newProgram(ctx.Driver(), vertSrc, fragSrc)
	if err != nil {
		ctx.Logger().Error("shader build failed", zap.Error(err))
		return nil, err
	}
	return &Shader{ctx: ctx, id: prog, locations: map[string]int32{}}, nil
}

// LoadShader reads both stages from disk and builds the program. The paths
// are kept for Reload.
func LoadShader(ctx *Context, vertPath, fragPath string) (*Shader, error) {
	vertSrc, fragSrc, err := readShaderSources(vertPath, fragPath)
	if err != nil {
		if ctx != nil {
			ctx.Logger().Error("shader source unreadable", zap.Error(err))
		}
		return nil, err
	}
	s, err := NewShader(ctx, vertSrc, fragSrc)
	if err != nil {
		return nil, fmt.Errorf("%s + %s: %w", vertPath, fragPath, err)
	}
	s.vertPath, s.fragPath = vertPath, fragPath
	return s, nil
}

func readShaderSources(vertPath, fragPath string) (string, string, error) {
	v, err := os.ReadFile(vertPath)
	if err != nil {
		return "", "", fmt.Errorf("read vertex shader: %w", err)
	}
	f, err := os.ReadFile(fragPath)
	if err != nil {
		return "", "", fmt.Errorf("read fragment shader: %w", err)
	}
	return string(v), string(f), nil
}

// Reload rebuilds a shader created by LoadShader from its files. On
// failure the current program stays in use.
func (s *Shader) Reload() error {
	if s.vertPath == "" {
		return nil
	}
	if !s.ctx.Valid() {
		return ErrNoContext
	}
	vertSrc, fragSrc, err := readShaderSources(s.vertPath, s.fragPath)
	if err != nil {
		return err
	}
	prog, err := newProgram(s.ctx.Driver(), vertSrc, fragSrc)
	if err != nil {
		return fmt.Errorf("%s + %s: %w", s.vertPath, s.fragPath, err)
	}
	s.ctx.State().DeleteProgram(s.id)
	s.id = prog
	s.locations = map[string]int32{}
	return nil
}

func newProgram(drv Driver, vertSrc, fragSrc string) (uint32, error) {
	vert, log, ok := drv.CompileShader(gl.VERTEX_SHADER, vertSrc)
	if !ok {
		return 0, fmt.Errorf("vertex: %w: %s", ErrShaderCompile, log)
	}
	frag, log, ok := drv.CompileShader(gl.FRAGMENT_SHADER, fragSrc)
	if !ok {
		drv.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w: %s", ErrShaderCompile, log)
	}
	prog, log, ok := drv.LinkProgram(vert, frag)
	drv.DeleteShader(vert)
	drv.DeleteShader(frag)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrShaderLink, log)
	}
	return prog, nil
}

// Use makes the program current.
func (s *Shader) Use() {
	if s.valid() {
		s.ctx.State().UseProgram(s.id)
	}
}

func (s *Shader) valid() bool {
	return s != nil && s.id != 0 && s.ctx.Valid()
}

// location makes the program current and resolves name.
func (s *Shader) location(name string) int32 {
	if !s.valid() {
		return -1
	}
	s.ctx.State().UseProgram(s.id)
	loc, ok := s.locations[name]
	if !ok {
		loc = s.ctx.Driver().GetUniformLocation(s.id, name)
		s.locations[name] = loc
	}
	return loc
}

// HasUniform reports whether the linked program uses name.
func (s *Shader) HasUniform(name string) bool { return s.location(name) >= 0 }

func (s *Shader) SetBool(name string, v bool) {
	var i int32
	if v {
		i = 1
	}
	s.SetInt(name, i)
}

func (s *Shader) SetInt(name string, v int32) {
	if loc := s.location(name); loc >= 0 {
		s.ctx.Driver().Uniform1i(loc, v)
	}
}

func (s *Shader) SetFloat(name string, v float32) {
	if loc := s.location(name); loc >= 0 {
		s.ctx.Driver().Uniform1f(loc, v)
	}
}

func (s *Shader) SetVec2(name string, v mgl32.Vec2) {
	if loc := s.location(name); loc >= 0 {
		s.ctx.Driver().Uniform2f(loc, v[0], v[1])
	}
}

func (s *Shader) SetVec3(name string, v mgl32.Vec3) {
	if loc := s.location(name); loc >= 0 {
		s.ctx.Driver().Uniform3f(loc, v[0], v[1], v[2])
	}
}

func (s *Shader) SetVec4(name string, v mgl32.Vec4) {
	if loc := s.location(name); loc >= 0 {
		s.ctx.Driver().Uniform4f(loc, v[0], v[1], v[2], v[3])
	}
}

func (s *Shader) SetMat2(name string, m mgl32.Mat2) {
	if loc := s.location(name); loc >= 0 {
		s.ctx.Driver().UniformMatrix2fv(loc, m)
	}
}

func (s *Shader) SetMat3(name string, m mgl32.Mat3) {
	if loc := s.location(name); loc >= 0 {
		s.ctx.Driver().UniformMatrix3fv(loc, m)
	}
}

func (s *Shader) SetMat4(name string, m mgl32.Mat4) {
	if loc := s.location(name); loc >= 0 {
		s.ctx.Driver().UniformMatrix4fv(loc, m)
	}
}

// Destroy deletes the program.
func (s *Shader) Destroy() {
	if s == nil || s.id == 0 {
		return
	}
	if s.ctx.Valid() {
		s.ctx.State().DeleteProgram(s.id)
	}
	s.id = 0
}

func (s *Shader) ID() uint32 { return s.id }
