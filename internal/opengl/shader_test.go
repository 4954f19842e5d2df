package opengl

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	testVert = "#version 410 core\nlayout(location = 0) in vec3 aPos;\nvoid main() { gl_Position = vec4(aPos, 1.0); }\n"
	testFrag = "#version 410 core\nout vec4 color;\nvoid main() { color = vec4(1.0); }\n"
	badFrag  = "#version 410 core\n#error broken on purpose\n"
)

func writeShaderFiles(t *testing.T, vert, frag string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	v, f := filepath.Join(dir, "s.vert"), filepath.Join(dir, "s.frag")
	if err := os.WriteFile(v, []byte(vert), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f, []byte(frag), 0o644); err != nil {
		t.Fatal(err)
	}
	return v, f
}

func TestNewShader(t *testing.T) {
	drv, ctx, _ := newTestContext(t)
	s, err := NewShader(ctx, testVert, testFrag)
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}
	if _, ok := drv.Programs[s.ID()]; !ok {
		t.Errorf("program %d not linked on the driver", s.ID())
	}
	if len(drv.Shaders) != 0 {
		t.Errorf("stage objects should be deleted after linking, %d left", len(drv.Shaders))
	}
}

func TestNewShaderErrors(t *testing.T) {
	drv, ctx, logs := newTestContext(t)

	_, err := NewShader(ctx, testVert, badFrag)
	if !errors.Is(err, ErrShaderCompile) {
		t.Errorf("bad fragment: expected ErrShaderCompile, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "broken on purpose") {
		t.Errorf("compile error should carry the info log, got %v", err)
	}
	if len(drv.Shaders) != 0 {
		t.Errorf("failed build leaked %d stage objects", len(drv.Shaders))
	}

	drv.FailLink = true
	if _, err := NewShader(ctx, testVert, testFrag); !errors.Is(err, ErrShaderLink) {
		t.Errorf("link failure: expected ErrShaderLink, got %v", err)
	}
	if logs.FilterMessage("shader build failed").Len() != 2 {
		t.Errorf("expected two build failure log entries")
	}

	drv.FailLink = false
	drv.Lost = true
	if _, err := NewShader(ctx, testVert, testFrag); !errors.Is(err, ErrNoContext) {
		t.Errorf("lost context: expected ErrNoContext, got %v", err)
	}
}

func TestShaderUniformsAreCached(t *testing.T) {
	drv, ctx, _ := newTestContext(t)
	s, err := NewShader(ctx, testVert, testFrag)
	if err != nil {
		t.Fatal(err)
	}

	s.SetFloat("time", 1)
	s.SetFloat("time", 2)
	s.SetVec3("tint", mgl32.Vec3{1, 2, 3})
	s.SetMat4("model", mgl32.Translate3D(1, 0, 0))
	s.SetBool("lit", true)

	if drv.LocationQueries != 4 {
		t.Errorf("location queries: expected 4, got %d", drv.LocationQueries)
	}
	if v, _ := drv.Uniform(s.ID(), "time"); v != float32(2) {
		t.Errorf("time: expected 2, got %v", v)
	}
	if v, _ := drv.Uniform(s.ID(), "tint"); v != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("tint: expected (1,2,3), got %v", v)
	}
	if v, _ := drv.Uniform(s.ID(), "lit"); v != int32(1) {
		t.Errorf("lit: expected 1, got %v", v)
	}
	if drv.CurrentProgram != s.ID() {
		t.Errorf("setters should make the program current")
	}
}

func TestShaderSkipsMissingUniforms(t *testing.T) {
	drv, ctx, _ := newTestContext(t)
	drv.MissingUniforms["unused"] = true
	s, err := NewShader(ctx, testVert, testFrag)
	if err != nil {
		t.Fatal(err)
	}
	drv.ResetCalls()
	s.SetFloat("unused", 3)
	if drv.CountCalls("Uniform") != 0 {
		t.Errorf("uniform call issued for a missing location: %v", drv.Calls())
	}
	if s.HasUniform("unused") {
		t.Errorf("HasUniform: expected false")
	}
}

func TestLoadShaderAndReload(t *testing.T) {
	drv, ctx, _ := newTestContext(t)
	v, f := writeShaderFiles(t, testVert, testFrag)

	s, err := LoadShader(ctx, v, f)
	if err != nil {
		t.Fatalf("LoadShader: %v", err)
	}
	first := s.ID()

	if err := os.WriteFile(f, []byte(badFrag), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); !errors.Is(err, ErrShaderCompile) {
		t.Errorf("reload of broken source: expected ErrShaderCompile, got %v", err)
	}
	if s.ID() != first || drv.Programs[first] == nil {
		t.Errorf("failed reload should keep program %d", first)
	}

	if err := os.WriteFile(f, []byte(testFrag), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if s.ID() == first || drv.Programs[first] != nil {
		t.Errorf("successful reload should replace and delete program %d", first)
	}
}

func TestLoadShaderMissingFile(t *testing.T) {
	_, ctx, _ := newTestContext(t)
	_, err := LoadShader(ctx, filepath.Join(t.TempDir(), "none.vert"), "none.frag")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: expected os.ErrNotExist, got %v", err)
	}
}

func TestShaderLibrary(t *testing.T) {
	_, ctx, _ := newTestContext(t)
	lib := NewShaderLibrary(ctx)
	v, f := writeShaderFiles(t, testVert, testFrag)

	a, err := lib.Load("basic", v, f)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, err := lib.Load("basic", "ignored", "ignored")
	if err != nil || a != b {
		t.Errorf("second Load should return the cached shader")
	}
	if got, err := lib.Get("basic"); err != nil || got != a {
		t.Errorf("Get(basic): got %v, %v", got, err)
	}
	if _, err := lib.Get("nope"); !errors.Is(err, ErrShaderNotFound) {
		t.Errorf("Get(nope): expected ErrShaderNotFound, got %v", err)
	}

	if err := os.WriteFile(v, []byte("#error gone\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err = lib.ReloadAll()
	if !errors.Is(err, ErrShaderCompile) || !strings.Contains(err.Error(), `"basic"`) {
		t.Errorf("ReloadAll: expected a compile error naming basic, got %v", err)
	}

	lib.Destroy()
	if len(lib.Names()) != 0 || a.ID() != 0 {
		t.Errorf("Destroy should empty the library and delete programs")
	}
}
