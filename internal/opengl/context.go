package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

// maxErrorDrain bounds CheckError; a lost context can report errors forever.
const maxErrorDrain = 16

// Context bundles the driver, its state cache and the log sink for one
// graphics context. It replaces process-wide singletons: whoever owns the
// render loop creates one and passes it to every GPU resource.
type Context struct {
	drv    Driver
	state  *StateCache
	logger *zap.Logger
}

// NewContext wraps drv. maxTextureUnits <= 0 queries the driver. The state
// cache starts reset.
func NewContext(drv Driver, logger *zap.Logger, maxTextureUnits int) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxTextureUnits <= 0 && drv != nil && drv.HasContext() {
		maxTextureUnits = int(drv.GetInteger(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS))
	}
	if maxTextureUnits <= 0 {
		maxTextureUnits = 16
	}
	c := &Context{drv: drv, logger: logger}
	c.state = NewStateCache(drv, maxTextureUnits, logger.Named("state"))
	return c
}

// Valid reports whether a driver is attached and its context is current.
func (c *Context) Valid() bool {
	return c != nil && c.drv != nil && c.drv.HasContext()
}

func (c *Context) Driver() Driver      { return c.drv }
func (c *Context) State() *StateCache  { return c.state }
func (c *Context) Logger() *zap.Logger { return c.logger }

// Rebind attaches a new driver after the underlying context was recreated.
// Cached state refers to the old context and is reset.
func (c *Context) Rebind(drv Driver) {
	c.drv = drv
	c.state.drv = drv
	c.state.Reset()
	c.logger.Info("graphics context rebound")
}

// CheckError drains the driver error queue, logging each error against op.
// It returns false if any error was pending.
func (c *Context) CheckError(op string) bool {
	if !c.Valid() {
		return false
	}
	clean := true
	for i := 0; i < maxErrorDrain; i++ {
		code := c.drv.GetError()
		if code == gl.NO_ERROR {
			break
		}
		clean = false
		c.logger.Warn("gl error", zap.String("op", op), zap.String("error", errorName(code)))
	}
	return clean
}

func errorName(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	}
	return fmt.Sprintf("0x%X", code)
}
