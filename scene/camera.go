package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective view camera. FOV is in radians.
type Camera struct {
	Position    mgl32.Vec3
	Rotation    mgl32.Quat
	FOV         float32
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32

	// Cached matrices
	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4
	viewProjMatrix   mgl32.Mat4
	frustum          Frustum
	dirty            bool
}

func NewCamera(fov, aspectRatio, nearPlane, farPlane float32) *Camera {
	return &Camera{
		Rotation:    mgl32.QuatIdent(),
		FOV:         fov,
		AspectRatio: aspectRatio,
		NearPlane:   nearPlane,
		FarPlane:    farPlane,
		dirty:       true,
	}
}

func (c *Camera) UpdateAspectRatio(width, height float32) {
	if height > 0 {
		c.AspectRatio = width / height
		c.dirty = true
	}
}

func (c *Camera) SetPosition(pos mgl32.Vec3) {
	c.Position = pos
	c.dirty = true
}

func (c *Camera) SetRotation(rot mgl32.Quat) {
	c.Rotation = rot
	c.dirty = true
}

func (c *Camera) Translate(delta mgl32.Vec3) {
	c.Position = c.Position.Add(delta)
	c.dirty = true
}

func (c *Camera) Rotate(axis mgl32.Vec3, angle float32) {
	c.Rotation = c.Rotation.Mul(mgl32.QuatRotate(angle, axis)).Normalize()
	c.dirty = true
}

// LookAt orients the camera toward target. QuatLookAtV yields the view
// rotation, so it is inverted to get the camera orientation.
func (c *Camera) LookAt(target, up mgl32.Vec3) {
	c.Rotation = mgl32.QuatLookAtV(c.Position, target, up).Inverse()
	c.dirty = true
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewMatrix
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.projectionMatrix
}

func (c *Camera) GetViewProjectionMatrix() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewProjMatrix
}

// Frustum returns the view frustum for the current camera state.
func (c *Camera) Frustum() *Frustum {
	if c.dirty {
		c.updateMatrices()
	}
	return &c.frustum
}

// GetForward returns the direction the camera looks along (-Z in view space).
func (c *Camera) GetForward() mgl32.Vec3 {
	return c.Rotation.Rotate(mgl32.Vec3{0, 0, -1})
}

func (c *Camera) GetRight() mgl32.Vec3 {
	return c.Rotation.Rotate(mgl32.Vec3{1, 0, 0})
}

func (c *Camera) GetUp() mgl32.Vec3 {
	return c.Rotation.Rotate(mgl32.Vec3{0, 1, 0})
}

func (c *Camera) updateMatrices() {
	// view = R^-1 * T(-p)
	rotation := c.Rotation.Conjugate().Mat4()
	translation := mgl32.Translate3D(-c.Position.X(), -c.Position.Y(), -c.Position.Z())
	c.viewMatrix = rotation.Mul4(translation)

	c.projectionMatrix = mgl32.Perspective(c.FOV, c.AspectRatio, c.NearPlane, c.FarPlane)
	c.viewProjMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
	c.frustum = FrustumFromVP(c.viewProjMatrix)

	c.dirty = false
}
