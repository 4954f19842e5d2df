package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

type textureSlot struct {
	unit   uint32
	target uint32
}

// StateCache remembers the last value of each tracked GL state slot and
// skips driver calls that would not change it. It is an optimization
// layer only: every method returns true if it reached the driver.
//
// A slot that is absent from the cache is unknown, and the next call for
// it always reaches the driver.
type StateCache struct {
	drv      Driver
	logger   *zap.Logger
	maxUnits uint32

	vao          uint32
	buffers      map[uint32]uint32
	activeUnit   uint32
	unitKnown    bool
	textures     map[textureSlot]uint32
	program      uint32
	capabilities map[uint32]bool
	blendSrc     uint32
	blendDst     uint32
	depthFunc    uint32
}

// NewStateCache returns a cache in the Reset state.
func NewStateCache(drv Driver, maxTextureUnits int, logger *zap.Logger) *StateCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &StateCache{drv: drv, logger: logger, maxUnits: uint32(maxTextureUnits)}
	s.Reset()
	return s
}

// SetLogger installs the sink that receives every state change made.
// nil disables logging.
func (s *StateCache) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s.logger = l
}

// Reset returns every slot to the GL defaults of a fresh context. Call it
// after the context is created or replaced. Buffer targets and
// capabilities become unknown.
func (s *StateCache) Reset() {
	s.vao = 0
	s.buffers = map[uint32]uint32{}
	s.activeUnit = 0
	s.unitKnown = true
	s.textures = map[textureSlot]uint32{}
	s.program = 0
	s.capabilities = map[uint32]bool{}
	s.blendSrc, s.blendDst = gl.ONE, gl.ZERO
	s.depthFunc = gl.LESS
}

// MaxTextureUnits is the number of units BindTexture accepts.
func (s *StateCache) MaxTextureUnits() int { return int(s.maxUnits) }

// BindVAO makes vao current and reports whether the driver was called.
func (s *StateCache) BindVAO(vao uint32) bool {
	if s.vao == vao {
		return false
	}
	s.drv.BindVertexArray(vao)
	s.vao = vao
	// The element array binding belongs to the VAO.
	delete(s.buffers, gl.ELEMENT_ARRAY_BUFFER)
	s.logger.Debug("bind vao", zap.Uint32("vao", vao))
	return true
}

// BindBuffer binds buf to target and reports whether the driver was called.
func (s *StateCache) BindBuffer(target, buf uint32) bool {
	if cur, ok := s.buffers[target]; ok && cur == buf {
		return false
	}
	s.drv.BindBuffer(target, buf)
	s.buffers[target] = buf
	s.logger.Debug("bind buffer", zap.Uint32("target", target), zap.Uint32("buffer", buf))
	return true
}

// BindTexture binds tex to target on a texture unit, switching the active
// unit first when needed. Units outside the supported range are refused.
func (s *StateCache) BindTexture(unit, target, tex uint32) bool {
	if unit >= s.maxUnits {
		s.logger.Warn("texture unit out of range",
			zap.Uint32("unit", unit), zap.Uint32("max", s.maxUnits))
		return false
	}
	slot := textureSlot{unit, target}
	if cur, ok := s.textures[slot]; ok && cur == tex {
		return false
	}
	s.setActiveUnit(unit)
	s.drv.BindTexture(target, tex)
	s.textures[slot] = tex
	s.logger.Debug("bind texture",
		zap.Uint32("unit", unit), zap.Uint32("target", target), zap.Uint32("texture", tex))
	return true
}

func (s *StateCache) setActiveUnit(unit uint32) {
	if s.unitKnown && s.activeUnit == unit {
		return
	}
	s.drv.ActiveTexture(unit)
	s.activeUnit = unit
	s.unitKnown = true
}

// UseProgram makes prog current and reports whether the driver was called.
func (s *StateCache) UseProgram(prog uint32) bool {
	if s.program == prog {
		return false
	}
	s.drv.UseProgram(prog)
	s.program = prog
	s.logger.Debug("use program", zap.Uint32("program", prog))
	return true
}

// Program returns the program last made current through the cache.
func (s *StateCache) Program() uint32 { return s.program }

// SetEnabled toggles a capability such as gl.BLEND or gl.DEPTH_TEST.
func (s *StateCache) SetEnabled(capability uint32, enabled bool) bool {
	if cur, ok := s.capabilities[capability]; ok && cur == enabled {
		return false
	}
	if enabled {
		s.drv.Enable(capability)
	} else {
		s.drv.Disable(capability)
	}
	s.capabilities[capability] = enabled
	s.logger.Debug("set capability", zap.Uint32("cap", capability), zap.Bool("enabled", enabled))
	return true
}

// SetBlendFunc sets the blend factors and reports whether the driver was called.
func (s *StateCache) SetBlendFunc(sfactor, dfactor uint32) bool {
	if s.blendSrc == sfactor && s.blendDst == dfactor {
		return false
	}
	s.drv.BlendFunc(sfactor, dfactor)
	s.blendSrc, s.blendDst = sfactor, dfactor
	s.logger.Debug("blend func", zap.Uint32("sfactor", sfactor), zap.Uint32("dfactor", dfactor))
	return true
}

// SetDepthFunc sets the depth comparison and reports whether the driver was called.
func (s *StateCache) SetDepthFunc(fn uint32) bool {
	if s.depthFunc == fn {
		return false
	}
	s.drv.DepthFunc(fn)
	s.depthFunc = fn
	s.logger.Debug("depth func", zap.Uint32("func", fn))
	return true
}

// DeleteBuffer deletes buf and forgets it, so a later bind of a reused
// name is not skipped. GL unbinds a deleted buffer from current targets.
func (s *StateCache) DeleteBuffer(buf uint32) {
	if buf == 0 {
		return
	}
	s.drv.DeleteBuffer(buf)
	for target, cur := range s.buffers {
		if cur == buf {
			s.buffers[target] = 0
		}
	}
}

// DeleteVertexArray deletes vao; if it was current, 0 becomes current and
// the element buffer binding is unknown.
func (s *StateCache) DeleteVertexArray(vao uint32) {
	if vao == 0 {
		return
	}
	s.drv.DeleteVertexArray(vao)
	if s.vao == vao {
		s.vao = 0
		delete(s.buffers, gl.ELEMENT_ARRAY_BUFFER)
	}
}

// DeleteTexture deletes tex and forgets it on every unit it was bound to.
func (s *StateCache) DeleteTexture(tex uint32) {
	if tex == 0 {
		return
	}
	s.drv.DeleteTexture(tex)
	for slot, cur := range s.textures {
		if cur == tex {
			s.textures[slot] = 0
		}
	}
}

// DeleteProgram deletes prog; if it was current, 0 becomes current.
func (s *StateCache) DeleteProgram(prog uint32) {
	if prog == 0 {
		return
	}
	s.drv.DeleteProgram(prog)
	if s.program == prog {
		s.program = 0
	}
}
