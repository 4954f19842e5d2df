package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCameraDefaultLooksDownNegativeZ(t *testing.T) {
	cam := NewCamera(mgl32.DegToRad(90), 1, 0.1, 100)
	f := cam.Frustum()
	if !f.IsPointInside(mgl32.Vec3{0, 0, -10}) {
		t.Errorf("point in front of the camera should be visible")
	}
	if f.IsPointInside(mgl32.Vec3{0, 0, 10}) {
		t.Errorf("point behind the camera should not be visible")
	}
	if !cam.GetForward().ApproxEqual(mgl32.Vec3{0, 0, -1}) {
		t.Errorf("forward: expected (0,0,-1), got %v", cam.GetForward())
	}
}

func TestCameraMovesFrustum(t *testing.T) {
	cam := NewCamera(mgl32.DegToRad(90), 1, 0.1, 100)
	cam.SetPosition(mgl32.Vec3{0, 0, 20})
	if !cam.Frustum().IsPointInside(mgl32.Vec3{0, 0, 10}) {
		t.Errorf("after moving back, z=10 should be in view")
	}

	vp := cam.GetViewProjectionMatrix()
	want := cam.GetProjectionMatrix().Mul4(cam.GetViewMatrix())
	if !vp.ApproxEqual(want) {
		t.Errorf("view-projection: expected %v, got %v", want, vp)
	}
}

func TestCameraLookAt(t *testing.T) {
	cam := NewCamera(mgl32.DegToRad(60), 1, 0.1, 100)
	cam.SetPosition(mgl32.Vec3{0, 0, 5})
	cam.LookAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	if !cam.GetForward().ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-5) {
		t.Errorf("forward: expected (0,0,-1), got %v", cam.GetForward())
	}
	if !cam.Frustum().IsPointInside(mgl32.Vec3{}) {
		t.Errorf("look-at target should be visible")
	}
}
