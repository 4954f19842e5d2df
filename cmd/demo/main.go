package main

import (
	"flag"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"silent-forge/core"
	"silent-forge/internal/opengl"
	"silent-forge/scene"
)

const (
	fieldSize    = 40 // cubes per side of the culled field
	fieldSpacing = 3.0
)

func main() {
	configPath := flag.String("config", "", "path to a JSON engine config")
	shaderDir := flag.String("shaders", filepath.Join("cmd", "demo", "shaders"), "directory holding the demo shaders")
	flag.Parse()

	cfg := core.DefaultConfig()
	if *configPath != "" {
		loaded, err := core.LoadConfig(*configPath)
		if err != nil {
			// No logger yet; the default one is good enough to report this.
			zap.NewExample().Fatal("config load failed", zap.String("path", *configPath), zap.Error(err))
		}
		cfg = loaded
	}

	logger, err := core.NewLogger(cfg.Logging)
	if err != nil {
		zap.NewExample().Fatal("logger setup failed", zap.Error(err))
	}
	defer logger.Sync()

	if err := run(cfg, *shaderDir, logger); err != nil {
		logger.Error("demo exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg core.Config, shaderDir string, logger *zap.Logger) error {
	window, err := core.NewWindow(cfg.Window, cfg.Graphics)
	if err != nil {
		return err
	}
	defer window.Destroy()

	drv, err := opengl.NewGLDriver()
	if err != nil {
		return err
	}
	logger.Info("graphics context ready", zap.String("version", drv.Version()))

	ctx := opengl.NewContext(drv, logger, cfg.Graphics.MaxTextureUnits)

	shaders := opengl.NewShaderLibrary(ctx)
	defer shaders.Destroy()
	instancedShader, err := shaders.Load("instanced",
		filepath.Join(shaderDir, "instanced.vert"), filepath.Join(shaderDir, "lit.frag"))
	if err != nil {
		return err
	}
	basicShader, err := shaders.Load("basic",
		filepath.Join(shaderDir, "basic.vert"), filepath.Join(shaderDir, "lit.frag"))
	if err != nil {
		return err
	}

	renderer := opengl.NewRenderer(ctx, cfg)
	if err := renderer.Initialize(); err != nil {
		return err
	}
	defer renderer.Shutdown()
	renderer.SetClearColor(core.Color{R: 0.08, G: 0.09, B: 0.12, A: 1})

	quad, err := opengl.NewMesh(ctx, scene.CreateQuad())
	if err != nil {
		return err
	}
	defer quad.Release()
	cube, err := opengl.NewMesh(ctx, scene.CreateCube(1))
	if err != nil {
		return err
	}
	defer cube.Release()
	sphere, err := opengl.NewMesh(ctx, scene.CreateSphere(0.6, 24, 12))
	if err != nil {
		return err
	}
	defer sphere.Release()
	ground, err := opengl.NewMesh(ctx, groundMesh())
	if err != nil {
		return err
	}
	defer ground.Release()

	// Three quads side by side, drawn straight through an instanced mesh.
	quads := opengl.NewInstancedMesh(ctx, quad,
		opengl.WithLogger(logger),
		opengl.WithInitialCapacity(cfg.Instancing.InitialCapacity))
	defer quads.Destroy()
	for _, x := range []float32{-2, 0, 2} {
		tr := core.NewTransform()
		tr.Position = mgl32.Vec3{x, 1.5, -6}
		tr.Rotation = mgl32.QuatRotate(mgl32.DegToRad(x*10), mgl32.Vec3{0, 1, 0})
		m := tr.GetMatrix()
		quads.AddInstance(m, quad.Bounds().Transform(m))
	}

	quadMaterial := opengl.NewMaterial(instancedShader)
	quadMaterial.CullFace = false
	quadMaterial.Set("lightDir", opengl.Vec3Uniform{0, 0, -1})
	quadMaterial.Set("tint", opengl.Vec4Uniform(core.ColorYellow.Vec4()))

	field := cubeField()
	ring := sphereRing(24, 12)

	camera := scene.NewCamera(mgl32.DegToRad(60), aspect(window), 0.1, 200)
	camera.SetPosition(mgl32.Vec3{0, 2, 8})
	controller := NewCameraController()

	var (
		last       = time.Now()
		lastReport = last
		frames     int
		cullHeld   bool
	)
	for !window.ShouldClose() {
		window.PollEvents()
		if window.IsKeyPressed(core.KeyEscape) {
			break
		}

		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		// C toggles culling on key release.
		if held := window.IsKeyPressed(core.KeyC); held != cullHeld {
			cullHeld = held
			if !held {
				renderer.SetFrustumCulling(!renderer.FrustumCulling())
				logger.Info("frustum culling toggled", zap.Bool("enabled", renderer.FrustumCulling()))
			}
		}

		w, h := window.GetFramebufferSize()
		camera.UpdateAspectRatio(float32(w), float32(h))
		renderer.SetViewport(core.Viewport{Width: int32(w), Height: int32(h)})
		controller.Update(window, camera, dt)

		view, proj := camera.GetViewMatrix(), camera.GetProjectionMatrix()
		renderer.Clear()

		if err := renderer.BeginFrame(view, proj); err != nil {
			return err
		}
		instancedShader.Use()
		instancedShader.SetVec3("lightDir", mgl32.Vec3{-0.4, -1, -0.3})
		instancedShader.SetVec4("tint", core.Color{R: 0.55, G: 0.7, B: 0.9, A: 1}.Vec4())
		if err := renderer.Submit(cube, instancedShader, field...); err != nil {
			return err
		}
		if err := renderer.Submit(sphere, instancedShader, ring...); err != nil {
			return err
		}
		if err := renderer.Submit(ground, basicShader, mgl32.Translate3D(0, -0.5, 0)); err != nil {
			return err
		}
		if err := renderer.EndFrame(); err != nil {
			return err
		}

		if err := quadMaterial.Bind(); err != nil {
			return err
		}
		instancedShader.SetMat4("view", view)
		instancedShader.SetMat4("projection", proj)
		quads.DrawInstanced(-1)

		window.SwapBuffers()
		frames++

		if now.Sub(lastReport) >= time.Second {
			s := renderer.Statistics()
			logger.Info("frame stats",
				zap.Int("fps", frames),
				zap.Int("draw_calls", s.DrawCalls),
				zap.Int("batches", s.Batches),
				zap.Int("instances", s.Instances),
				zap.Int("culled", s.Culled),
				zap.Int("vertices", s.Vertices))
			frames = 0
			lastReport = now
		}
	}

	ctx.CheckError("shutdown")
	return nil
}

func cubeField() []mgl32.Mat4 {
	out := make([]mgl32.Mat4, 0, fieldSize*fieldSize)
	half := float32(fieldSize-1) * fieldSpacing / 2
	for i := 0; i < fieldSize; i++ {
		for j := 0; j < fieldSize; j++ {
			x := float32(i)*fieldSpacing - half
			z := float32(j)*fieldSpacing - half
			out = append(out, mgl32.Translate3D(x, 0, z))
		}
	}
	return out
}

func sphereRing(n int, radius float32) []mgl32.Mat4 {
	out := make([]mgl32.Mat4, n)
	for i := range out {
		a := float64(i) * 2 * math.Pi / float64(n)
		out[i] = mgl32.Translate3D(radius*float32(math.Cos(a)), 3, radius*float32(math.Sin(a)))
	}
	return out
}

// groundMesh is a flat plane without indices, so the renderer draws it
// with a per-draw model uniform instead of an instance buffer.
func groundMesh() *scene.Mesh {
	src := scene.CreateQuad()
	vertices := make([]core.Vertex, 0, len(src.Indices))
	for _, i := range src.Indices {
		v := src.Vertices[i]
		// Lay the quad flat in XZ facing up.
		v.Position = mgl32.Vec3{v.Position.X() * 200, 0, -v.Position.Y() * 200}
		v.Normal = mgl32.Vec3{0, 1, 0}
		v.TexCoord = v.TexCoord.Mul(50)
		vertices = append(vertices, v)
	}
	return scene.CreateMeshFromData("Ground", vertices, nil)
}

func aspect(window *core.Window) float32 {
	w, h := window.GetFramebufferSize()
	if h == 0 {
		return 1
	}
	return float32(w) / float32(h)
}
