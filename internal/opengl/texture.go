package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// TextureOptions controls how a 2D texture is stored and sampled. The zero
// value gives an RGBA8 texture with repeat wrapping and trilinear
// filtering.
type TextureOptions struct {
	InternalFormat int32
	Format         uint32
	Type           uint32
	Wrap           int32
	MinFilter      int32
	MagFilter      int32
	NoMipmaps      bool
}

func (o TextureOptions) withDefaults() TextureOptions {
	if o.InternalFormat == 0 {
		o.InternalFormat = gl.RGBA8
	}
	if o.Format == 0 {
		o.Format = gl.RGBA
	}
	if o.Type == 0 {
		o.Type = gl.UNSIGNED_BYTE
	}
	if o.Wrap == 0 {
		o.Wrap = gl.REPEAT
	}
	if o.MinFilter == 0 {
		o.MinFilter = gl.LINEAR_MIPMAP_LINEAR
		if o.NoMipmaps {
			o.MinFilter = gl.LINEAR
		}
	}
	if o.MagFilter == 0 {
		o.MagFilter = gl.LINEAR
	}
	return o
}

// Texture is a 2D GPU texture. Image decoding is the caller's job; the
// texture takes raw pixels laid out per its format.
type Texture struct {
	ctx    *Context
	id     uint32
	width  int32
	height int32
}

// NewTexture2D creates a width×height texture. pixels may be nil to
// allocate storage only (render targets).
func NewTexture2D(ctx *Context, width, height int32, pixels []byte, opts TextureOptions) (*Texture, error) {
	if !ctx.Valid() {
		return nil, ErrNoContext
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidTexture, width, height)
	}
	opts = opts.withDefaults()

	drv, state := ctx.Driver(), ctx.State()
	t := &Texture{ctx: ctx, width: width, height: height}
	t.id = drv.GenTexture()
	state.BindTexture(0, gl.TEXTURE_2D, t.id)

	drv.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, opts.Wrap)
	drv.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, opts.Wrap)
	drv.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, opts.MinFilter)
	drv.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, opts.MagFilter)
	drv.TexImage2D(gl.TEXTURE_2D, 0, opts.InternalFormat, width, height, opts.Format, opts.Type, pixels)
	if !opts.NoMipmaps && len(pixels) > 0 {
		drv.GenerateMipmap(gl.TEXTURE_2D)
	}
	state.BindTexture(0, gl.TEXTURE_2D, 0)

	if !ctx.CheckError("NewTexture2D") {
		state.DeleteTexture(t.id)
		return nil, fmt.Errorf("%w: driver rejected %dx%d image", ErrInvalidTexture, width, height)
	}
	return t, nil
}

// Bind makes the texture current on a texture unit.
func (t *Texture) Bind(unit uint32) bool {
	if t == nil || t.id == 0 || !t.ctx.Valid() {
		return false
	}
	return t.ctx.State().BindTexture(unit, gl.TEXTURE_2D, t.id)
}

// Destroy frees the texture.
func (t *Texture) Destroy() {
	if t == nil || t.id == 0 {
		return
	}
	if t.ctx.Valid() {
		t.ctx.State().DeleteTexture(t.id)
	}
	t.id = 0
}

func (t *Texture) ID() uint32    { return t.id }
func (t *Texture) Width() int32  { return t.width }
func (t *Texture) Height() int32 { return t.height }
