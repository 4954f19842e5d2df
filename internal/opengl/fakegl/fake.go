// Package fakegl is an in-memory stand-in for the OpenGL driver. It keeps
// enough state (buffer bytes, vertex array attributes, programs, uniforms
// and draw submissions) for tests to check what the engine asked the GPU
// to do without a window or a context.
package fakegl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Attrib is one vertex attribute slot of a vertex array.
type Attrib struct {
	Enabled    bool
	Size       int32
	Type       uint32
	Normalized bool
	Stride     int32
	Offset     int
	Divisor    uint32
	Buffer     uint32
}

// VertexArray holds the attribute table and element buffer of a VAO.
type VertexArray struct {
	Attribs       map[uint32]Attrib
	ElementBuffer uint32
}

// Buffer is the emulated storage of one buffer object.
type Buffer struct {
	Data  []byte
	Usage uint32
}

// Texture records the last image specified for a texture name.
type Texture struct {
	Width, Height int32
	Format        uint32
	Pixels        []byte
	Params        map[uint32]int32
	Mipmapped     bool
}

// Program is a linked program with the uniform values set on it.
type Program struct {
	Uniforms  map[string]any
	locations map[string]int32
	names     map[int32]string
}

// Draw is one recorded draw submission.
type Draw struct {
	Mode      uint32
	Indexed   bool
	First     int32
	Count     int32
	Instances int32
	VAO       uint32
	Program   uint32
	// Attribs is the VAO attribute table at the time of the draw.
	Attribs map[uint32]Attrib
}

// Driver implements opengl.Driver in memory.
type Driver struct {
	// Lost makes HasContext report false.
	Lost bool
	// FailLink makes every LinkProgram fail.
	FailLink bool
	// FramebufferStatus overrides CheckFramebufferStatus when nonzero.
	FramebufferStatus uint32
	// MaxTextureUnits is reported for GL_MAX_COMBINED_TEXTURE_IMAGE_UNITS.
	MaxTextureUnits int32
	// MissingUniforms are names GetUniformLocation reports as -1.
	MissingUniforms map[string]bool
	// LocationQueries counts GetUniformLocation calls.
	LocationQueries int

	next uint32

	Buffers      map[uint32]*Buffer
	VertexArrays map[uint32]*VertexArray
	Textures     map[uint32]*Texture
	Programs     map[uint32]*Program
	Shaders      map[uint32]string
	Framebuffers map[uint32]map[uint32]uint32

	BoundVAO         uint32
	BoundBuffers     map[uint32]uint32
	ActiveUnit       uint32
	BoundTextures    map[uint32]uint32 // unit<<16 | target index -> texture
	CurrentProgram   uint32
	BoundFramebuffer uint32
	Capabilities     map[uint32]bool
	BlendSrc         uint32
	BlendDst         uint32
	DepthFn          uint32
	ViewportRect     [4]int32
	ClearRGBA        [4]float32
	Clears           []uint32

	Draws  []Draw
	errors []uint32
	calls  []string
}

// New returns a driver with a current "context" and GL default state.
func New() *Driver {
	d := &Driver{
		MaxTextureUnits: 16,
		MissingUniforms: map[string]bool{},
		Buffers:         map[uint32]*Buffer{},
		VertexArrays:    map[uint32]*VertexArray{0: newVertexArray()},
		Textures:        map[uint32]*Texture{},
		Programs:        map[uint32]*Program{},
		Shaders:         map[uint32]string{},
		Framebuffers:    map[uint32]map[uint32]uint32{},
		BoundBuffers:    map[uint32]uint32{},
		BoundTextures:   map[uint32]uint32{},
		Capabilities:    map[uint32]bool{},
		BlendSrc:        gl.ONE,
		BlendDst:        gl.ZERO,
		DepthFn:         gl.LESS,
	}
	return d
}

func newVertexArray() *VertexArray {
	return &VertexArray{Attribs: map[uint32]Attrib{}}
}

func (d *Driver) name() uint32 {
	d.next++
	return d.next
}

func (d *Driver) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *Driver) raise(code uint32) { d.errors = append(d.errors, code) }

// Calls returns the state-changing calls issued since the last ResetCalls.
// Queries (HasContext, GetError, GetInteger, GetUniformLocation,
// CheckFramebufferStatus) are not recorded.
func (d *Driver) Calls() []string { return append([]string(nil), d.calls...) }

// ResetCalls clears the call log and the recorded draws.
func (d *Driver) ResetCalls() {
	d.calls = nil
	d.Draws = nil
}

// CountCalls returns how many recorded calls start with prefix.
func (d *Driver) CountCalls(prefix string) int {
	n := 0
	for _, c := range d.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// InjectError queues an error for the next GetError.
func (d *Driver) InjectError(code uint32) { d.raise(code) }

// BufferBytes returns a copy of the storage of buf.
func (d *Driver) BufferBytes(buf uint32) []byte {
	b, ok := d.Buffers[buf]
	if !ok {
		return nil
	}
	return append([]byte(nil), b.Data...)
}

// VAO returns the emulated state of a vertex array.
func (d *Driver) VAO(vao uint32) *VertexArray { return d.VertexArrays[vao] }

// Uniform returns the value last set for name on prog.
func (d *Driver) Uniform(prog uint32, name string) (any, bool) {
	p, ok := d.Programs[prog]
	if !ok {
		return nil, false
	}
	v, ok := p.Uniforms[name]
	return v, ok
}

// TextureBinding returns the texture bound to target on unit.
func (d *Driver) TextureBinding(unit, target uint32) uint32 {
	return d.BoundTextures[texKey(unit, target)]
}

func texKey(unit, target uint32) uint32 { return unit<<16 | (target & 0xffff) }

func (d *Driver) HasContext() bool { return !d.Lost }

func (d *Driver) GetError() uint32 {
	if len(d.errors) == 0 {
		return gl.NO_ERROR
	}
	code := d.errors[0]
	d.errors = d.errors[1:]
	return code
}

func (d *Driver) GetInteger(pname uint32) int32 {
	if pname == gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS {
		return d.MaxTextureUnits
	}
	return 0
}

func (d *Driver) GenVertexArray() uint32 {
	vao := d.name()
	d.VertexArrays[vao] = newVertexArray()
	d.record("GenVertexArray() = %d", vao)
	return vao
}

func (d *Driver) DeleteVertexArray(vao uint32) {
	d.record("DeleteVertexArray(%d)", vao)
	if vao == 0 {
		return
	}
	delete(d.VertexArrays, vao)
	if d.BoundVAO == vao {
		d.BoundVAO = 0
	}
}

func (d *Driver) BindVertexArray(vao uint32) {
	d.record("BindVertexArray(%d)", vao)
	if _, ok := d.VertexArrays[vao]; !ok {
		d.raise(gl.INVALID_OPERATION)
		return
	}
	d.BoundVAO = vao
}

func (d *Driver) GenBuffer() uint32 {
	buf := d.name()
	d.Buffers[buf] = &Buffer{}
	d.record("GenBuffer() = %d", buf)
	return buf
}

func (d *Driver) DeleteBuffer(buf uint32) {
	d.record("DeleteBuffer(%d)", buf)
	delete(d.Buffers, buf)
	for target, b := range d.BoundBuffers {
		if b == buf {
			d.BoundBuffers[target] = 0
		}
	}
	if va := d.VertexArrays[d.BoundVAO]; va != nil && va.ElementBuffer == buf {
		va.ElementBuffer = 0
	}
}

func (d *Driver) BindBuffer(target, buf uint32) {
	d.record("BindBuffer(0x%X, %d)", target, buf)
	if _, ok := d.Buffers[buf]; buf != 0 && !ok {
		d.raise(gl.INVALID_VALUE)
		return
	}
	if target == gl.ELEMENT_ARRAY_BUFFER {
		d.VertexArrays[d.BoundVAO].ElementBuffer = buf
		return
	}
	d.BoundBuffers[target] = buf
}

func (d *Driver) bound(target uint32) *Buffer {
	if target == gl.ELEMENT_ARRAY_BUFFER {
		return d.Buffers[d.VertexArrays[d.BoundVAO].ElementBuffer]
	}
	return d.Buffers[d.BoundBuffers[target]]
}

func (d *Driver) BufferData(target uint32, size int, data []byte, usage uint32) {
	d.record("BufferData(0x%X, %d)", target, size)
	b := d.bound(target)
	if b == nil {
		d.raise(gl.INVALID_OPERATION)
		return
	}
	b.Data = make([]byte, size)
	copy(b.Data, data)
	b.Usage = usage
}

func (d *Driver) BufferSubData(target uint32, offset int, data []byte) {
	d.record("BufferSubData(0x%X, %d, %d)", target, offset, len(data))
	b := d.bound(target)
	if b == nil {
		d.raise(gl.INVALID_OPERATION)
		return
	}
	if offset < 0 || offset+len(data) > len(b.Data) {
		d.raise(gl.INVALID_VALUE)
		return
	}
	copy(b.Data[offset:], data)
}

func (d *Driver) CopyBufferSubData(readTarget, writeTarget uint32, readOffset, writeOffset, size int) {
	d.record("CopyBufferSubData(0x%X, 0x%X, %d, %d, %d)", readTarget, writeTarget, readOffset, writeOffset, size)
	src, dst := d.bound(readTarget), d.bound(writeTarget)
	if src == nil || dst == nil {
		d.raise(gl.INVALID_OPERATION)
		return
	}
	if readOffset+size > len(src.Data) || writeOffset+size > len(dst.Data) {
		d.raise(gl.INVALID_VALUE)
		return
	}
	copy(dst.Data[writeOffset:writeOffset+size], src.Data[readOffset:readOffset+size])
}

func (d *Driver) attrib(index uint32, f func(a *Attrib)) {
	va := d.VertexArrays[d.BoundVAO]
	a := va.Attribs[index]
	f(&a)
	va.Attribs[index] = a
}

func (d *Driver) EnableVertexAttribArray(index uint32) {
	d.record("EnableVertexAttribArray(%d)", index)
	d.attrib(index, func(a *Attrib) { a.Enabled = true })
}

func (d *Driver) DisableVertexAttribArray(index uint32) {
	d.record("DisableVertexAttribArray(%d)", index)
	d.attrib(index, func(a *Attrib) { a.Enabled = false })
}

func (d *Driver) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int) {
	d.record("VertexAttribPointer(%d, %d, 0x%X, %t, %d, %d)", index, size, xtype, normalized, stride, offset)
	buf := d.BoundBuffers[gl.ARRAY_BUFFER]
	d.attrib(index, func(a *Attrib) {
		a.Size, a.Type, a.Normalized, a.Stride, a.Offset, a.Buffer = size, xtype, normalized, stride, offset, buf
	})
}

func (d *Driver) VertexAttribDivisor(index, divisor uint32) {
	d.record("VertexAttribDivisor(%d, %d)", index, divisor)
	d.attrib(index, func(a *Attrib) { a.Divisor = divisor })
}

func (d *Driver) snapshot() map[uint32]Attrib {
	out := map[uint32]Attrib{}
	for k, v := range d.VertexArrays[d.BoundVAO].Attribs {
		out[k] = v
	}
	return out
}

func (d *Driver) draw(dr Draw) {
	dr.VAO = d.BoundVAO
	dr.Program = d.CurrentProgram
	dr.Attribs = d.snapshot()
	d.Draws = append(d.Draws, dr)
}

func (d *Driver) DrawArrays(mode uint32, first, count int32) {
	d.record("DrawArrays(0x%X, %d, %d)", mode, first, count)
	d.draw(Draw{Mode: mode, First: first, Count: count, Instances: 1})
}

func (d *Driver) DrawElements(mode uint32, count int32, xtype uint32, offset int) {
	d.record("DrawElements(0x%X, %d)", mode, count)
	d.draw(Draw{Mode: mode, Indexed: true, Count: count, Instances: 1})
}

func (d *Driver) DrawArraysInstanced(mode uint32, first, count, instances int32) {
	d.record("DrawArraysInstanced(0x%X, %d, %d, %d)", mode, first, count, instances)
	d.draw(Draw{Mode: mode, First: first, Count: count, Instances: instances})
}

func (d *Driver) DrawElementsInstanced(mode uint32, count int32, xtype uint32, offset int, instances int32) {
	d.record("DrawElementsInstanced(0x%X, %d, %d)", mode, count, instances)
	d.draw(Draw{Mode: mode, Indexed: true, Count: count, Instances: instances})
}

func (d *Driver) ActiveTexture(unit uint32) {
	d.record("ActiveTexture(%d)", unit)
	d.ActiveUnit = unit
}

func (d *Driver) GenTexture() uint32 {
	tex := d.name()
	d.Textures[tex] = &Texture{Params: map[uint32]int32{}}
	d.record("GenTexture() = %d", tex)
	return tex
}

func (d *Driver) DeleteTexture(tex uint32) {
	d.record("DeleteTexture(%d)", tex)
	delete(d.Textures, tex)
	for k, t := range d.BoundTextures {
		if t == tex {
			d.BoundTextures[k] = 0
		}
	}
}

func (d *Driver) BindTexture(target, tex uint32) {
	d.record("BindTexture(0x%X, %d)", target, tex)
	d.BoundTextures[texKey(d.ActiveUnit, target)] = tex
}

func (d *Driver) boundTexture(target uint32) *Texture {
	return d.Textures[d.BoundTextures[texKey(d.ActiveUnit, target)]]
}

func (d *Driver) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte) {
	d.record("TexImage2D(0x%X, %d, %dx%d)", target, level, width, height)
	t := d.boundTexture(target)
	if t == nil {
		d.raise(gl.INVALID_OPERATION)
		return
	}
	t.Width, t.Height, t.Format = width, height, format
	t.Pixels = append([]byte(nil), pixels...)
}

func (d *Driver) TexParameteri(target, pname uint32, param int32) {
	d.record("TexParameteri(0x%X, 0x%X, %d)", target, pname, param)
	if t := d.boundTexture(target); t != nil {
		t.Params[pname] = param
	}
}

func (d *Driver) GenerateMipmap(target uint32) {
	d.record("GenerateMipmap(0x%X)", target)
	if t := d.boundTexture(target); t != nil {
		t.Mipmapped = true
	}
}

func (d *Driver) UseProgram(prog uint32) {
	d.record("UseProgram(%d)", prog)
	d.CurrentProgram = prog
}

func (d *Driver) Enable(capability uint32) {
	d.record("Enable(0x%X)", capability)
	d.Capabilities[capability] = true
}

func (d *Driver) Disable(capability uint32) {
	d.record("Disable(0x%X)", capability)
	d.Capabilities[capability] = false
}

func (d *Driver) BlendFunc(sfactor, dfactor uint32) {
	d.record("BlendFunc(0x%X, 0x%X)", sfactor, dfactor)
	d.BlendSrc, d.BlendDst = sfactor, dfactor
}

func (d *Driver) DepthFunc(fn uint32) {
	d.record("DepthFunc(0x%X)", fn)
	d.DepthFn = fn
}

// CompileShader fails for sources containing an #error directive, which is
// what a real GLSL compiler does too.
func (d *Driver) CompileShader(stage uint32, src string) (uint32, string, bool) {
	d.record("CompileShader(0x%X)", stage)
	if i := strings.Index(src, "#error"); i >= 0 {
		line := src[i:]
		if j := strings.IndexByte(line, '\n'); j >= 0 {
			line = line[:j]
		}
		return 0, "0:1: " + line, false
	}
	s := d.name()
	d.Shaders[s] = src
	return s, "", true
}

func (d *Driver) LinkProgram(shaders ...uint32) (uint32, string, bool) {
	d.record("LinkProgram(%v)", shaders)
	if d.FailLink {
		return 0, "error: linking failed", false
	}
	for _, s := range shaders {
		if _, ok := d.Shaders[s]; !ok {
			return 0, fmt.Sprintf("error: shader %d not compiled", s), false
		}
	}
	p := d.name()
	d.Programs[p] = &Program{
		Uniforms:  map[string]any{},
		locations: map[string]int32{},
		names:     map[int32]string{},
	}
	return p, "", true
}

func (d *Driver) DeleteShader(shader uint32) {
	d.record("DeleteShader(%d)", shader)
	delete(d.Shaders, shader)
}

func (d *Driver) DeleteProgram(prog uint32) {
	d.record("DeleteProgram(%d)", prog)
	delete(d.Programs, prog)
	if d.CurrentProgram == prog {
		d.CurrentProgram = 0
	}
}

func (d *Driver) GetUniformLocation(prog uint32, name string) int32 {
	d.LocationQueries++
	p, ok := d.Programs[prog]
	if !ok || d.MissingUniforms[name] {
		return -1
	}
	loc, ok := p.locations[name]
	if !ok {
		loc = int32(len(p.locations))
		p.locations[name] = loc
		p.names[loc] = name
	}
	return loc
}

func (d *Driver) setUniform(loc int32, v any) {
	if loc < 0 {
		return
	}
	p, ok := d.Programs[d.CurrentProgram]
	if !ok {
		d.raise(gl.INVALID_OPERATION)
		return
	}
	name, ok := p.names[loc]
	if !ok {
		d.raise(gl.INVALID_OPERATION)
		return
	}
	p.Uniforms[name] = v
}

func (d *Driver) Uniform1i(loc, v int32) {
	d.record("Uniform1i(%d, %d)", loc, v)
	d.setUniform(loc, v)
}

func (d *Driver) Uniform1f(loc int32, v float32) {
	d.record("Uniform1f(%d, %v)", loc, v)
	d.setUniform(loc, v)
}

func (d *Driver) Uniform2f(loc int32, x, y float32) {
	d.record("Uniform2f(%d)", loc)
	d.setUniform(loc, mgl32.Vec2{x, y})
}

func (d *Driver) Uniform3f(loc int32, x, y, z float32) {
	d.record("Uniform3f(%d)", loc)
	d.setUniform(loc, mgl32.Vec3{x, y, z})
}

func (d *Driver) Uniform4f(loc int32, x, y, z, w float32) {
	d.record("Uniform4f(%d)", loc)
	d.setUniform(loc, mgl32.Vec4{x, y, z, w})
}

func (d *Driver) UniformMatrix2fv(loc int32, m mgl32.Mat2) {
	d.record("UniformMatrix2fv(%d)", loc)
	d.setUniform(loc, m)
}

func (d *Driver) UniformMatrix3fv(loc int32, m mgl32.Mat3) {
	d.record("UniformMatrix3fv(%d)", loc)
	d.setUniform(loc, m)
}

func (d *Driver) UniformMatrix4fv(loc int32, m mgl32.Mat4) {
	d.record("UniformMatrix4fv(%d)", loc)
	d.setUniform(loc, m)
}

func (d *Driver) GenFramebuffer() uint32 {
	fb := d.name()
	d.Framebuffers[fb] = map[uint32]uint32{}
	d.record("GenFramebuffer() = %d", fb)
	return fb
}

func (d *Driver) DeleteFramebuffer(fb uint32) {
	d.record("DeleteFramebuffer(%d)", fb)
	delete(d.Framebuffers, fb)
	if d.BoundFramebuffer == fb {
		d.BoundFramebuffer = 0
	}
}

func (d *Driver) BindFramebuffer(target, fb uint32) {
	d.record("BindFramebuffer(0x%X, %d)", target, fb)
	d.BoundFramebuffer = fb
}

func (d *Driver) FramebufferTexture2D(target, attachment, texTarget, tex uint32, level int32) {
	d.record("FramebufferTexture2D(0x%X, 0x%X, %d)", target, attachment, tex)
	att, ok := d.Framebuffers[d.BoundFramebuffer]
	if !ok {
		d.raise(gl.INVALID_OPERATION)
		return
	}
	att[attachment] = tex
}

// Attachments returns the attachment table of fb.
func (d *Driver) Attachments(fb uint32) map[uint32]uint32 { return d.Framebuffers[fb] }

func (d *Driver) CheckFramebufferStatus(target uint32) uint32 {
	if d.FramebufferStatus != 0 {
		return d.FramebufferStatus
	}
	att := d.Framebuffers[d.BoundFramebuffer]
	if d.BoundFramebuffer != 0 && len(att) == 0 {
		return gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT
	}
	return gl.FRAMEBUFFER_COMPLETE
}

func (d *Driver) DrawBuffer(mode uint32) { d.record("DrawBuffer(0x%X)", mode) }
func (d *Driver) ReadBuffer(mode uint32) { d.record("ReadBuffer(0x%X)", mode) }

func (d *Driver) Viewport(x, y, width, height int32) {
	d.record("Viewport(%d, %d, %d, %d)", x, y, width, height)
	d.ViewportRect = [4]int32{x, y, width, height}
}

func (d *Driver) ClearColor(r, g, b, a float32) {
	d.record("ClearColor(%v, %v, %v, %v)", r, g, b, a)
	d.ClearRGBA = [4]float32{r, g, b, a}
}

func (d *Driver) Clear(mask uint32) {
	d.record("Clear(0x%X)", mask)
	d.Clears = append(d.Clears, mask)
}
