package opengl

import "errors"

var (
	// ErrNoContext means no current graphics context exists.
	ErrNoContext = errors.New("no active graphics context")
	// ErrEmptyMesh is returned when a mesh has no vertices to upload.
	ErrEmptyMesh = errors.New("mesh has no vertices")

	ErrShaderCompile  = errors.New("shader compile failed")
	ErrShaderLink     = errors.New("shader link failed")
	ErrShaderNotFound = errors.New("shader not found")

	ErrFramebufferIncomplete = errors.New("framebuffer incomplete")
	ErrInvalidTexture        = errors.New("invalid texture")

	ErrNotInitialized    = errors.New("renderer not initialized")
	ErrInvalidSubmission = errors.New("invalid draw submission")
	ErrNilShader         = errors.New("nil shader")
)
