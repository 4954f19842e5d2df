package opengl

import (
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"silent-forge/internal/opengl/fakegl"
	"silent-forge/scene"
)

var _ Driver = (*fakegl.Driver)(nil)

func newTestContext(t *testing.T) (*fakegl.Driver, *Context, *observer.ObservedLogs) {
	t.Helper()
	drv := fakegl.New()
	obs, logs := observer.New(zap.DebugLevel)
	return drv, NewContext(drv, zap.New(obs), 0), logs
}

func newTestMesh(t *testing.T, ctx *Context, src *scene.Mesh) *Mesh {
	t.Helper()
	m, err := NewMesh(ctx, src)
	if err != nil {
		t.Fatalf("NewMesh(%s): %v", src.Name, err)
	}
	return m
}

func translations(xs ...float32) []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(xs))
	for i, x := range xs {
		out[i] = mgl32.Translate3D(x, 0, 0)
	}
	return out
}

func readMatrices(b []byte, n int) []mgl32.Mat4 {
	if n == 0 || len(b) < n*mat4Size {
		return nil
	}
	out := make([]mgl32.Mat4, n)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), n*mat4Size), b)
	return out
}

func equalMatrices(a, b []mgl32.Mat4) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
