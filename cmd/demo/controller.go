package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"silent-forge/core"
	"silent-forge/scene"
)

// CameraController flies the camera with WASD and turns it with the arrow
// keys.
type CameraController struct {
	moveSpeed float32
	turnSpeed float32 // degrees per second
	yaw       float32
}

func NewCameraController() *CameraController {
	return &CameraController{
		moveSpeed: 8.0,
		turnSpeed: 90.0,
		yaw:       -90.0,
	}
}

func (cc *CameraController) Update(window *core.Window, camera *scene.Camera, deltaTime float32) {
	// Cap deltaTime to avoid huge steps after a hitch
	if deltaTime > 0.05 {
		deltaTime = 0.05
	}

	if window.IsKeyPressed(core.KeyLeft) {
		cc.yaw -= cc.turnSpeed * deltaTime
	}
	if window.IsKeyPressed(core.KeyRight) {
		cc.yaw += cc.turnSpeed * deltaTime
	}

	yawRad := float64(mgl32.DegToRad(cc.yaw))
	forward := mgl32.Vec3{float32(math.Cos(yawRad)), 0, float32(math.Sin(yawRad))}.Normalize()
	right := forward.Cross(mgl32.Vec3{0, 1, 0}).Normalize()

	move := mgl32.Vec3{}
	if window.IsKeyPressed(core.KeyW) {
		move = move.Add(forward)
	}
	if window.IsKeyPressed(core.KeyS) {
		move = move.Sub(forward)
	}
	if window.IsKeyPressed(core.KeyD) {
		move = move.Add(right)
	}
	if window.IsKeyPressed(core.KeyA) {
		move = move.Sub(right)
	}
	if move.Len() > 0 {
		move = move.Normalize().Mul(cc.moveSpeed * deltaTime)
	}

	pos := camera.Position.Add(move)
	camera.SetPosition(pos)
	camera.LookAt(pos.Add(forward), mgl32.Vec3{0, 1, 0})
}
