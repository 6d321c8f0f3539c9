package render

import "github.com/go-gl/mathgl/mgl32"

// gameToGPUMatrix flips Y (the game's Y goes down) and remaps the clip
// Z range from GL's [-1, 1] to WebGPU's [0, 1]. Column-major.
var gameToGPUMatrix = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// OrthographicProjection builds the projection used everywhere in the
// engine, in the game's coordinate convention.
func OrthographicProjection(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	return gameToGPUMatrix.Mul4(mgl32.Ortho(left, right, bottom, top, near, far))
}

// CanvasProjection is the projection of the full virtual canvas with
// the origin at its center.
func CanvasProjection() mgl32.Mat4 {
	return OrthographicProjection(
		-VirtualCanvasWidth/2, VirtualCanvasWidth/2,
		VirtualCanvasHeight/2, -VirtualCanvasHeight/2,
		-1, 1,
	)
}

// TopLeftProjection maps coordinates with the origin in the top-left
// corner of the virtual canvas, as used by offscreen targets.
func TopLeftProjection() mgl32.Mat4 {
	return OrthographicProjection(0, VirtualCanvasWidth, VirtualCanvasHeight, 0, -1, 1)
}
