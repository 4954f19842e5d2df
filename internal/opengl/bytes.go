package opengl

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"silent-forge/core"
)

const (
	mat4Size   = int(unsafe.Sizeof(mgl32.Mat4{}))
	vertexSize = int(unsafe.Sizeof(core.Vertex{}))
)

// The views below alias the Go slices; the driver copies the bytes before
// returning, so nothing outlives the call.

func matrixBytes(ms []mgl32.Mat4) []byte {
	if len(ms) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&ms[0])), len(ms)*mat4Size)
}

func vertexBytes(vs []core.Vertex) []byte {
	if len(vs) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vs[0])), len(vs)*vertexSize)
}

func indexBytes(idx []uint32) []byte {
	if len(idx) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&idx[0])), len(idx)*4)
}
