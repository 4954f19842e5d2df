package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrInvalidConfig is returned by Validate and LoadConfig for out-of-range values.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level engine configuration file.
type Config struct {
	Window     WindowConfig     `json:"window"`
	Graphics   GraphicsConfig   `json:"graphics"`
	Instancing InstancingConfig `json:"instancing"`
	Logging    LoggingConfig    `json:"logging"`
}

// GraphicsConfig controls context creation and the initial pipeline state.
type GraphicsConfig struct {
	GLMajor         int  `json:"glMajor"`
	GLMinor         int  `json:"glMinor"`
	MaxTextureUnits int  `json:"maxTextureUnits"`
	DepthTest       bool `json:"depthTest"`
	CullFace        bool `json:"cullFace"`
}

// InstancingConfig controls instance buffer sizing and culled draws.
type InstancingConfig struct {
	InitialCapacity int  `json:"initialCapacity"`
	FrustumCulling  bool `json:"frustumCulling"`
	// CompactVisible packs the visible subset into a separate buffer before
	// a culled draw. When false the full range is drawn if anything is visible.
	CompactVisible bool `json:"compactVisible"`
}

type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
	Encoding    string `json:"encoding"` // "console" or "json"
}

func DefaultConfig() Config {
	return Config{
		Window: DefaultWindowConfig(),
		Graphics: GraphicsConfig{
			GLMajor:         4,
			GLMinor:         1,
			MaxTextureUnits: 32,
			DepthTest:       true,
			CullFace:        true,
		},
		Instancing: InstancingConfig{
			InitialCapacity: 100,
			FrustumCulling:  true,
			CompactVisible:  true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// LoadConfig reads a JSON config file. Fields absent from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as indented JSON, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %q: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	case c.Graphics.GLMajor < 3 || (c.Graphics.GLMajor == 3 && c.Graphics.GLMinor < 3):
		// instancing divisors and buffer copies need 3.3+
		return fmt.Errorf("%w: OpenGL %d.%d is below 3.3", ErrInvalidConfig, c.Graphics.GLMajor, c.Graphics.GLMinor)
	case c.Graphics.MaxTextureUnits <= 0:
		return fmt.Errorf("%w: maxTextureUnits must be positive", ErrInvalidConfig)
	case c.Instancing.InitialCapacity <= 0:
		return fmt.Errorf("%w: initialCapacity must be positive", ErrInvalidConfig)
	case c.Logging.Encoding != "" && c.Logging.Encoding != "console" && c.Logging.Encoding != "json":
		return fmt.Errorf("%w: unknown log encoding %q", ErrInvalidConfig, c.Logging.Encoding)
	}
	return nil
}
