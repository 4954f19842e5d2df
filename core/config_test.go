package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig: expected valid, got %v", err)
	}
	if cfg.Instancing.InitialCapacity != 100 {
		t.Errorf("InitialCapacity: expected 100, got %d", cfg.Instancing.InitialCapacity)
	}
	if cfg.Graphics.MaxTextureUnits != 32 {
		t.Errorf("MaxTextureUnits: expected 32, got %d", cfg.Graphics.MaxTextureUnits)
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.json")
	src := `{"window": {"width": 640, "height": 480}, "instancing": {"initialCapacity": 8}}`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Window.Width != 640 || cfg.Window.Height != 480 {
		t.Errorf("window: expected 640x480, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Instancing.InitialCapacity != 8 {
		t.Errorf("InitialCapacity: expected 8, got %d", cfg.Instancing.InitialCapacity)
	}
	// untouched sections keep their defaults
	if cfg.Graphics.GLMajor != 4 || cfg.Graphics.GLMinor != 1 {
		t.Errorf("GL version: expected 4.1, got %d.%d", cfg.Graphics.GLMajor, cfg.Graphics.GLMinor)
	}
	if !cfg.Instancing.CompactVisible {
		t.Errorf("CompactVisible: expected default true")
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"zero capacity", `{"instancing": {"initialCapacity": 0}}`},
		{"old GL", `{"graphics": {"glMajor": 3, "glMinor": 2}}`},
		{"no texture units", `{"graphics": {"maxTextureUnits": 0}}`},
		{"bad encoding", `{"logging": {"encoding": "xml"}}`},
		{"bad window", `{"window": {"width": -1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "engine.json")
			if err := os.WriteFile(path, []byte(tt.src), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfig(path)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestSaveConfigThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "engine.json")
	cfg := DefaultConfig()
	cfg.Window.Title = "saved"
	cfg.Instancing.FrustumCulling = false

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got != cfg {
		t.Errorf("expected %+v, got %+v", cfg, got)
	}
}
