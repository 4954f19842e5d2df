package opengl

import (
	"testing"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"silent-forge/internal/opengl/fakegl"
)

func TestContextValid(t *testing.T) {
	var nilCtx *Context
	if nilCtx.Valid() {
		t.Errorf("nil context should not be valid")
	}
	drv, ctx, _ := newTestContext(t)
	if !ctx.Valid() {
		t.Errorf("context with a current driver should be valid")
	}
	drv.Lost = true
	if ctx.Valid() {
		t.Errorf("context whose driver lost its context should not be valid")
	}
}

func TestContextQueriesTextureUnits(t *testing.T) {
	drv := fakegl.New()
	drv.MaxTextureUnits = 6
	ctx := NewContext(drv, nil, 0)
	if got := ctx.State().MaxTextureUnits(); got != 6 {
		t.Errorf("texture units: expected 6, got %d", got)
	}
	if got := NewContext(drv, nil, 3).State().MaxTextureUnits(); got != 3 {
		t.Errorf("explicit texture units: expected 3, got %d", got)
	}
}

func TestContextCheckErrorLogs(t *testing.T) {
	drv, ctx, logs := newTestContext(t)
	if !ctx.CheckError("noop") {
		t.Errorf("CheckError with no pending errors: expected true")
	}
	drv.InjectError(gl.INVALID_VALUE)
	drv.InjectError(gl.OUT_OF_MEMORY)
	if ctx.CheckError("upload") {
		t.Errorf("CheckError with pending errors: expected false")
	}
	entries := logs.FilterMessage("gl error").All()
	if len(entries) != 2 {
		t.Fatalf("gl error entries: expected 2, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["error"]; got != "GL_INVALID_VALUE" {
		t.Errorf("first error: expected GL_INVALID_VALUE, got %v", got)
	}
	if got := entries[1].ContextMap()["op"]; got != "upload" {
		t.Errorf("op field: expected upload, got %v", got)
	}
}

func TestContextRebindResetsState(t *testing.T) {
	drv, ctx, _ := newTestContext(t)
	vao := drv.GenVertexArray()
	ctx.State().BindVAO(vao)

	next := fakegl.New()
	next.GenVertexArray()
	ctx.Rebind(next)
	if ctx.Driver() != Driver(next) {
		t.Fatalf("Rebind did not install the new driver")
	}
	if !ctx.State().BindVAO(vao) {
		t.Errorf("bind after Rebind: expected change")
	}
	if next.BoundVAO != vao {
		t.Errorf("new driver VAO: expected %d, got %d", vao, next.BoundVAO)
	}
}
