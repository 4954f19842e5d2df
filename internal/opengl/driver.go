package opengl

import "github.com/go-gl/mathgl/mgl32"

// Driver is the subset of OpenGL the engine issues. GLDriver forwards to
// go-gl; tests use the in-memory fakegl driver. Every method must be called
// on the thread that owns the context.
//
// Enum arguments are the raw GL values (gl.ARRAY_BUFFER, gl.TRIANGLES, ...).
// Offsets into bound buffers are plain byte offsets.
type Driver interface {
	HasContext() bool
	GetError() uint32
	GetInteger(pname uint32) int32

	GenVertexArray() uint32
	DeleteVertexArray(vao uint32)
	BindVertexArray(vao uint32)

	GenBuffer() uint32
	DeleteBuffer(buf uint32)
	BindBuffer(target, buf uint32)
	// BufferData (re)allocates size bytes; data may be nil or shorter than
	// size, in which case the rest is undefined.
	BufferData(target uint32, size int, data []byte, usage uint32)
	BufferSubData(target uint32, offset int, data []byte)
	CopyBufferSubData(readTarget, writeTarget uint32, readOffset, writeOffset, size int)

	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int)
	VertexAttribDivisor(index, divisor uint32)

	DrawArrays(mode uint32, first, count int32)
	DrawElements(mode uint32, count int32, xtype uint32, offset int)
	DrawArraysInstanced(mode uint32, first, count, instances int32)
	DrawElementsInstanced(mode uint32, count int32, xtype uint32, offset int, instances int32)

	// ActiveTexture takes a zero-based unit index, not gl.TEXTURE0+n.
	ActiveTexture(unit uint32)
	GenTexture() uint32
	DeleteTexture(tex uint32)
	BindTexture(target, tex uint32)
	TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte)
	TexParameteri(target, pname uint32, param int32)
	GenerateMipmap(target uint32)

	UseProgram(prog uint32)
	Enable(capability uint32)
	Disable(capability uint32)
	BlendFunc(sfactor, dfactor uint32)
	DepthFunc(fn uint32)

	// CompileShader returns the shader name, or ok=false with the info log.
	CompileShader(stage uint32, src string) (shader uint32, infoLog string, ok bool)
	LinkProgram(shaders ...uint32) (prog uint32, infoLog string, ok bool)
	DeleteShader(shader uint32)
	DeleteProgram(prog uint32)
	GetUniformLocation(prog uint32, name string) int32
	Uniform1i(loc, v int32)
	Uniform1f(loc int32, v float32)
	Uniform2f(loc int32, x, y float32)
	Uniform3f(loc int32, x, y, z float32)
	Uniform4f(loc int32, x, y, z, w float32)
	UniformMatrix2fv(loc int32, m mgl32.Mat2)
	UniformMatrix3fv(loc int32, m mgl32.Mat3)
	UniformMatrix4fv(loc int32, m mgl32.Mat4)

	GenFramebuffer() uint32
	DeleteFramebuffer(fb uint32)
	BindFramebuffer(target, fb uint32)
	FramebufferTexture2D(target, attachment, texTarget, tex uint32, level int32)
	CheckFramebufferStatus(target uint32) uint32
	DrawBuffer(mode uint32)
	ReadBuffer(mode uint32)

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask uint32)
}
