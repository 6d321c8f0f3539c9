package layer

import (
	"github.com/gogpu/wgpu/hal"

	"github.com/DCNick3/shin-sub001/pkg/render"
	"github.com/DCNick3/shin-sub001/pkg/tick"
)

// UpdateContext is passed down the scene graph once per tick.
type UpdateContext struct {
	Delta tick.Ticks
	// Cleared while a layer load is in flight so partially loaded
	// frames are not animated.
	AreAnimationsAllowed bool
}

// Layer is a scene graph node. Rendering happens in two walks: a
// pre-render that resolves offscreen passes and a main walk that
// issues draws for the requested pass kind.
type Layer interface {
	Properties() *Properties
	Update(ctx *UpdateContext)
	FastForward()
	PreRender(ctx *PreRenderContext, parent *TransformParams) error
	Render(pass *render.RenderPass, parent *TransformParams, stencilRef uint8, passKind render.PassKind) error
	// StencilBump is the number of stencil references the node's
	// subtree consumes during a frame.
	StencilBump() uint8
	// RenderClone returns an independently mutable deep copy for
	// snapshot rendering. GPU resources are shared, animation state is
	// copied by value and offscreen targets are not carried over.
	RenderClone() Layer
}

// PreRenderContext carries the GPU state needed to run offscreen
// passes before the main walk.
type PreRenderContext struct {
	Device    hal.Device
	Queue     hal.Queue
	Encoder   hal.CommandEncoder
	Pipelines *render.PipelineStorage
	Dynamic   *render.DynamicBuffer
	Pool      *RenderTexturePool

	// Bind groups created by finished passes, destroyed after submit.
	bindGroups []hal.BindGroup
}

// BeginPass starts an offscreen render pass into target.
func (c *PreRenderContext) BeginPass(target render.TextureTarget, label string) *render.RenderPass {
	return render.BeginRenderPass(c.Device, c.Encoder, c.Pipelines, c.Dynamic, target, label)
}

// EndPass finishes a pass and keeps its transient bind groups alive
// until the frame is submitted.
func (c *PreRenderContext) EndPass(pass *render.RenderPass) error {
	groups, err := pass.End()
	if err != nil {
		return err
	}
	c.bindGroups = append(c.bindGroups, groups...)
	return nil
}

// TakeBindGroups hands out the accumulated transient bind groups and
// resets the list.
func (c *PreRenderContext) TakeBindGroups() []hal.BindGroup {
	groups := c.bindGroups
	c.bindGroups = nil
	return groups
}

// RenderTexturePool reuses canvas-sized offscreen targets between
// nodes and frames.
type RenderTexturePool struct {
	device hal.Device
	free   []*render.RenderTexture
}

// NewRenderTexturePool makes an empty pool allocating from device.
func NewRenderTexturePool(device hal.Device) *RenderTexturePool {
	return &RenderTexturePool{device: device}
}

// Acquire returns a canvas-sized render texture, allocating when the
// free list is empty.
func (p *RenderTexturePool) Acquire() (*render.RenderTexture, error) {
	if n := len(p.free); n > 0 {
		tex := p.free[n-1]
		p.free = p.free[:n-1]
		return tex, nil
	}
	return render.NewRenderTexture(
		p.device,
		render.VirtualCanvasWidth, render.VirtualCanvasHeight,
		"pool_render_texture")
}

// Release returns a texture to the free list.
func (p *RenderTexturePool) Release(tex *render.RenderTexture) {
	if tex != nil {
		p.free = append(p.free, tex)
	}
}

// Destroy frees every pooled texture.
func (p *RenderTexturePool) Destroy() {
	for _, tex := range p.free {
		tex.Destroy(p.device)
	}
	p.free = nil
}
