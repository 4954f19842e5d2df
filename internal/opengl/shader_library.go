package opengl

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// ShaderLibrary owns named shaders for one context.
type ShaderLibrary struct {
	ctx     *Context
	shaders map[string]*Shader
}

func NewShaderLibrary(ctx *Context) *ShaderLibrary {
	return &ShaderLibrary{ctx: ctx, shaders: map[string]*Shader{}}
}

// Load returns the shader registered as name, loading it from the two
// paths the first time.
func (l *ShaderLibrary) Load(name, vertPath, fragPath string) (*Shader, error) {
	if s, ok := l.shaders[name]; ok {
		return s, nil
	}
	s, err := LoadShader(l.ctx, vertPath, fragPath)
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", name, err)
	}
	l.shaders[name] = s
	l.ctx.Logger().Info("shader loaded", zap.String("name", name))
	return s, nil
}

// Add registers a shader built elsewhere, replacing and destroying any
// shader already using name.
func (l *ShaderLibrary) Add(name string, s *Shader) {
	if old, ok := l.shaders[name]; ok && old != s {
		old.Destroy()
	}
	l.shaders[name] = s
}

func (l *ShaderLibrary) Get(name string) (*Shader, error) {
	s, ok := l.shaders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrShaderNotFound, name)
	}
	return s, nil
}

// Names lists registered shaders in sorted order.
func (l *ShaderLibrary) Names() []string {
	names := make([]string, 0, len(l.shaders))
	for n := range l.shaders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ReloadAll rebuilds every file-backed shader. Shaders that fail keep
// their previous program; the failures are joined into the result.
func (l *ShaderLibrary) ReloadAll() error {
	var errs []error
	for _, name := range l.Names() {
		if err := l.shaders[name].Reload(); err != nil {
			l.ctx.Logger().Warn("shader reload failed", zap.String("name", name), zap.Error(err))
			errs = append(errs, fmt.Errorf("shader %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Destroy deletes every shader and empties the library.
func (l *ShaderLibrary) Destroy() {
	for _, s := range l.shaders {
		s.Destroy()
	}
	l.shaders = map[string]*Shader{}
}
