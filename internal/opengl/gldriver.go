package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// GLDriver issues real OpenGL calls through go-gl.
type GLDriver struct{}

var _ Driver = (*GLDriver)(nil)

// NewGLDriver loads the GL function pointers. A context must be current.
func NewGLDriver() (*GLDriver, error) {
	if glfw.GetCurrentContext() == nil {
		return nil, ErrNoContext
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	return &GLDriver{}, nil
}

// Version returns the GL_VERSION string of the current context.
func (d *GLDriver) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

func (d *GLDriver) HasContext() bool { return glfw.GetCurrentContext() != nil }
func (d *GLDriver) GetError() uint32 { return gl.GetError() }

func (d *GLDriver) GetInteger(pname uint32) int32 {
	var v int32
	gl.GetIntegerv(pname, &v)
	return v
}

func (d *GLDriver) GenVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (d *GLDriver) DeleteVertexArray(vao uint32) { gl.DeleteVertexArrays(1, &vao) }
func (d *GLDriver) BindVertexArray(vao uint32)   { gl.BindVertexArray(vao) }

func (d *GLDriver) GenBuffer() uint32 {
	var buf uint32
	gl.GenBuffers(1, &buf)
	return buf
}

func (d *GLDriver) DeleteBuffer(buf uint32)       { gl.DeleteBuffers(1, &buf) }
func (d *GLDriver) BindBuffer(target, buf uint32) { gl.BindBuffer(target, buf) }

func (d *GLDriver) BufferData(target uint32, size int, data []byte, usage uint32) {
	var ptr unsafe.Pointer
	if len(data) >= size && size > 0 {
		ptr = gl.Ptr(data)
	}
	gl.BufferData(target, size, ptr, usage)
	if ptr == nil && len(data) > 0 {
		gl.BufferSubData(target, 0, len(data), gl.Ptr(data))
	}
}

func (d *GLDriver) BufferSubData(target uint32, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.BufferSubData(target, offset, len(data), gl.Ptr(data))
}

func (d *GLDriver) CopyBufferSubData(readTarget, writeTarget uint32, readOffset, writeOffset, size int) {
	gl.CopyBufferSubData(readTarget, writeTarget, readOffset, writeOffset, size)
}

func (d *GLDriver) EnableVertexAttribArray(index uint32)  { gl.EnableVertexAttribArray(index) }
func (d *GLDriver) DisableVertexAttribArray(index uint32) { gl.DisableVertexAttribArray(index) }

func (d *GLDriver) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int) {
	gl.VertexAttribPointer(index, size, xtype, normalized, stride, gl.PtrOffset(offset))
}

func (d *GLDriver) VertexAttribDivisor(index, divisor uint32) { gl.VertexAttribDivisor(index, divisor) }

func (d *GLDriver) DrawArrays(mode uint32, first, count int32) { gl.DrawArrays(mode, first, count) }

func (d *GLDriver) DrawElements(mode uint32, count int32, xtype uint32, offset int) {
	gl.DrawElements(mode, count, xtype, gl.PtrOffset(offset))
}

func (d *GLDriver) DrawArraysInstanced(mode uint32, first, count, instances int32) {
	gl.DrawArraysInstanced(mode, first, count, instances)
}

func (d *GLDriver) DrawElementsInstanced(mode uint32, count int32, xtype uint32, offset int, instances int32) {
	gl.DrawElementsInstanced(mode, count, xtype, gl.PtrOffset(offset), instances)
}

func (d *GLDriver) ActiveTexture(unit uint32) { gl.ActiveTexture(gl.TEXTURE0 + unit) }

func (d *GLDriver) GenTexture() uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	return tex
}

func (d *GLDriver) DeleteTexture(tex uint32)       { gl.DeleteTextures(1, &tex) }
func (d *GLDriver) BindTexture(target, tex uint32) { gl.BindTexture(target, tex) }

func (d *GLDriver) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte) {
	var ptr unsafe.Pointer
	if len(pixels) > 0 {
		ptr = gl.Ptr(pixels)
	}
	gl.TexImage2D(target, level, internalFormat, width, height, 0, format, xtype, ptr)
}

func (d *GLDriver) TexParameteri(target, pname uint32, param int32) {
	gl.TexParameteri(target, pname, param)
}

func (d *GLDriver) GenerateMipmap(target uint32) { gl.GenerateMipmap(target) }

func (d *GLDriver) UseProgram(prog uint32)            { gl.UseProgram(prog) }
func (d *GLDriver) Enable(capability uint32)          { gl.Enable(capability) }
func (d *GLDriver) Disable(capability uint32)         { gl.Disable(capability) }
func (d *GLDriver) BlendFunc(sfactor, dfactor uint32) { gl.BlendFunc(sfactor, dfactor) }
func (d *GLDriver) DepthFunc(fn uint32)               { gl.DepthFunc(fn) }

func (d *GLDriver) CompileShader(stage uint32, src string) (uint32, string, bool) {
	shader := gl.CreateShader(stage)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, strings.TrimRight(log, "\x00"), false
	}
	return shader, "", true
}

func (d *GLDriver) LinkProgram(shaders ...uint32) (uint32, string, bool) {
	prog := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(prog, s)
	}
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, strings.TrimRight(log, "\x00"), false
	}
	for _, s := range shaders {
		gl.DetachShader(prog, s)
	}
	return prog, "", true
}

func (d *GLDriver) DeleteShader(shader uint32) { gl.DeleteShader(shader) }
func (d *GLDriver) DeleteProgram(prog uint32)  { gl.DeleteProgram(prog) }

func (d *GLDriver) GetUniformLocation(prog uint32, name string) int32 {
	return gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
}

func (d *GLDriver) Uniform1i(loc, v int32)                   { gl.Uniform1i(loc, v) }
func (d *GLDriver) Uniform1f(loc int32, v float32)           { gl.Uniform1f(loc, v) }
func (d *GLDriver) Uniform2f(loc int32, x, y float32)        { gl.Uniform2f(loc, x, y) }
func (d *GLDriver) Uniform3f(loc int32, x, y, z float32)     { gl.Uniform3f(loc, x, y, z) }
func (d *GLDriver) Uniform4f(loc int32, x, y, z, w float32)  { gl.Uniform4f(loc, x, y, z, w) }
func (d *GLDriver) UniformMatrix2fv(loc int32, m mgl32.Mat2) { gl.UniformMatrix2fv(loc, 1, false, &m[0]) }
func (d *GLDriver) UniformMatrix3fv(loc int32, m mgl32.Mat3) { gl.UniformMatrix3fv(loc, 1, false, &m[0]) }
func (d *GLDriver) UniformMatrix4fv(loc int32, m mgl32.Mat4) { gl.UniformMatrix4fv(loc, 1, false, &m[0]) }

func (d *GLDriver) GenFramebuffer() uint32 {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	return fb
}

func (d *GLDriver) DeleteFramebuffer(fb uint32)       { gl.DeleteFramebuffers(1, &fb) }
func (d *GLDriver) BindFramebuffer(target, fb uint32) { gl.BindFramebuffer(target, fb) }

func (d *GLDriver) FramebufferTexture2D(target, attachment, texTarget, tex uint32, level int32) {
	gl.FramebufferTexture2D(target, attachment, texTarget, tex, level)
}

func (d *GLDriver) CheckFramebufferStatus(target uint32) uint32 {
	return gl.CheckFramebufferStatus(target)
}

func (d *GLDriver) DrawBuffer(mode uint32) { gl.DrawBuffer(mode) }
func (d *GLDriver) ReadBuffer(mode uint32) { gl.ReadBuffer(mode) }

func (d *GLDriver) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }
func (d *GLDriver) ClearColor(r, g, b, a float32)      { gl.ClearColor(r, g, b, a) }
func (d *GLDriver) Clear(mask uint32)                  { gl.Clear(mask) }
