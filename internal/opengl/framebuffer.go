package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Framebuffer is an offscreen render target built from texture
// attachments.
type Framebuffer struct {
	ctx    *Context
	id     uint32
	width  int32
	height int32

	color        *Texture
	depth        *Texture
	colorTargets int
}

// NewFramebuffer creates an empty framebuffer of the given size. Attach
// textures, then call CheckStatus before rendering to it.
func NewFramebuffer(ctx *Context, width, height int32) (*Framebuffer, error) {
	if !ctx.Valid() {
		return nil, ErrNoContext
	}
	return &Framebuffer{
		ctx:    ctx,
		id:     ctx.Driver().GenFramebuffer(),
		width:  width,
		height: height,
	}, nil
}

// NewDepthFramebuffer creates a depth-only target of size×size, as used for
// shadow maps. The depth texture compares against a reference value so a
// sampler2DShadow gets hardware PCF.
func NewDepthFramebuffer(ctx *Context, size int32) (*Framebuffer, error) {
	fb, err := NewFramebuffer(ctx, size, size)
	if err != nil {
		return nil, err
	}
	if err := fb.AttachDepthTexture(); err != nil {
		fb.Destroy()
		return nil, err
	}
	drv := ctx.Driver()
	fb.depth.Bind(0)
	drv.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	drv.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)
	ctx.State().BindTexture(0, gl.TEXTURE_2D, 0)

	fb.Bind()
	drv.DrawBuffer(gl.NONE)
	drv.ReadBuffer(gl.NONE)
	fb.Unbind()

	if err := fb.CheckStatus(); err != nil {
		fb.Destroy()
		return nil, err
	}
	return fb, nil
}

// AttachColorTexture creates an RGBA8 texture and attaches it as color
// attachment 0.
func (fb *Framebuffer) AttachColorTexture() error {
	tex, err := NewTexture2D(fb.ctx, fb.width, fb.height, nil, TextureOptions{
		NoMipmaps: true,
		Wrap:      gl.CLAMP_TO_EDGE,
	})
	if err != nil {
		return fmt.Errorf("color attachment: %w", err)
	}
	fb.attach(gl.COLOR_ATTACHMENT0, tex)
	fb.color.Destroy()
	fb.color = tex
	fb.colorTargets = 1
	return nil
}

// AttachDepthTexture attaches a 32-bit float depth texture.
func (fb *Framebuffer) AttachDepthTexture() error {
	return fb.attachDepth(gl.DEPTH_ATTACHMENT, TextureOptions{
		InternalFormat: gl.DEPTH_COMPONENT32F,
		Format:         gl.DEPTH_COMPONENT,
		Type:           gl.FLOAT,
		Wrap:           gl.CLAMP_TO_EDGE,
		NoMipmaps:      true,
	})
}

// AttachDepthStencilTexture attaches a packed 24/8 depth-stencil texture.
func (fb *Framebuffer) AttachDepthStencilTexture() error {
	return fb.attachDepth(gl.DEPTH_STENCIL_ATTACHMENT, TextureOptions{
		InternalFormat: gl.DEPTH24_STENCIL8,
		Format:         gl.DEPTH_STENCIL,
		Type:           gl.UNSIGNED_INT_24_8,
		Wrap:           gl.CLAMP_TO_EDGE,
		NoMipmaps:      true,
	})
}

func (fb *Framebuffer) attachDepth(attachment uint32, opts TextureOptions) error {
	tex, err := NewTexture2D(fb.ctx, fb.width, fb.height, nil, opts)
	if err != nil {
		return fmt.Errorf("depth attachment: %w", err)
	}
	fb.attach(attachment, tex)
	fb.depth.Destroy()
	fb.depth = tex
	return nil
}

func (fb *Framebuffer) attach(attachment uint32, tex *Texture) {
	fb.Bind()
	fb.ctx.Driver().FramebufferTexture2D(gl.FRAMEBUFFER, attachment, gl.TEXTURE_2D, tex.ID(), 0)
	fb.Unbind()
}

// CheckStatus returns ErrFramebufferIncomplete, naming the status, unless
// the framebuffer is complete.
func (fb *Framebuffer) CheckStatus() error {
	if !fb.ctx.Valid() {
		return ErrNoContext
	}
	fb.Bind()
	status := fb.ctx.Driver().CheckFramebufferStatus(gl.FRAMEBUFFER)
	fb.Unbind()
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("%w: %s", ErrFramebufferIncomplete, framebufferStatusName(status))
	}
	return nil
}

func framebufferStatusName(status uint32) string {
	switch status {
	case gl.FRAMEBUFFER_UNDEFINED:
		return "GL_FRAMEBUFFER_UNDEFINED"
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return "GL_FRAMEBUFFER_INCOMPLETE_ATTACHMENT"
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return "GL_FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT"
	case gl.FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER:
		return "GL_FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER"
	case gl.FRAMEBUFFER_INCOMPLETE_READ_BUFFER:
		return "GL_FRAMEBUFFER_INCOMPLETE_READ_BUFFER"
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return "GL_FRAMEBUFFER_UNSUPPORTED"
	case gl.FRAMEBUFFER_INCOMPLETE_MULTISAMPLE:
		return "GL_FRAMEBUFFER_INCOMPLETE_MULTISAMPLE"
	}
	return fmt.Sprintf("0x%X", status)
}

func (fb *Framebuffer) Bind() {
	if fb.ctx.Valid() {
		fb.ctx.Driver().BindFramebuffer(gl.FRAMEBUFFER, fb.id)
	}
}

func (fb *Framebuffer) Unbind() {
	if fb.ctx.Valid() {
		fb.ctx.Driver().BindFramebuffer(gl.FRAMEBUFFER, 0)
	}
}

// SetViewport covers the whole framebuffer.
func (fb *Framebuffer) SetViewport() {
	if fb.ctx.Valid() {
		fb.ctx.Driver().Viewport(0, 0, fb.width, fb.height)
	}
}

// Clear clears the attachments that exist. The framebuffer must be bound.
func (fb *Framebuffer) Clear(color mgl32.Vec4) {
	if !fb.ctx.Valid() {
		return
	}
	var mask uint32
	if fb.colorTargets > 0 {
		fb.ctx.Driver().ClearColor(color[0], color[1], color[2], color[3])
		mask |= gl.COLOR_BUFFER_BIT
	}
	if fb.depth != nil {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if mask != 0 {
		fb.ctx.Driver().Clear(mask)
	}
}

// Destroy frees the framebuffer and its attachments.
func (fb *Framebuffer) Destroy() {
	if fb == nil {
		return
	}
	fb.color.Destroy()
	fb.depth.Destroy()
	fb.color, fb.depth = nil, nil
	if fb.id != 0 && fb.ctx.Valid() {
		fb.ctx.Driver().DeleteFramebuffer(fb.id)
	}
	fb.id = 0
}

func (fb *Framebuffer) ID() uint32             { return fb.id }
func (fb *Framebuffer) Width() int32           { return fb.width }
func (fb *Framebuffer) Height() int32          { return fb.height }
func (fb *Framebuffer) ColorTexture() *Texture { return fb.color }
func (fb *Framebuffer) DepthTexture() *Texture { return fb.depth }
