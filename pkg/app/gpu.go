package app

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/DCNick3/shin-sub001/pkg/layer"
	"github.com/DCNick3/shin-sub001/pkg/render"
)

// copyPitchAlignment is the BytesPerRow alignment texture-to-buffer
// copies require.
const copyPitchAlignment = 256

// GpuContext owns the GPU device and the per-frame resources of the
// renderer. Frames are rendered into an offscreen canvas and read back
// for presentation, so the windowing library never has to share a
// device with the layer renderer.
type GpuContext struct {
	instance hal.Instance
	Device   hal.Device
	Queue    hal.Queue

	Pipelines *render.PipelineStorage
	Dynamic   *render.DynamicBuffer
	Pool      *layer.RenderTexturePool

	canvas  *render.RenderTexture
	staging hal.Buffer

	alignedBytesPerRow uint32
	readback           []byte
	tight              []byte
}

// NewGpuContext acquires a device and allocates the frame resources.
func NewGpuContext() (*GpuContext, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	device, queue := openDev.Device, openDev.Queue

	g := &GpuContext{
		instance: instance,
		Device:   device,
		Queue:    queue,
	}
	if err := g.initResources(); err != nil {
		g.Destroy()
		return nil, err
	}
	return g, nil
}

func (g *GpuContext) initResources() error {
	pipelines, err := render.NewPipelineStorage(g.Device)
	if err != nil {
		return fmt.Errorf("create pipelines: %w", err)
	}
	g.Pipelines = pipelines
	g.Dynamic = render.NewDynamicBuffer(g.Device, g.Queue)
	g.Pool = layer.NewRenderTexturePool(g.Device)

	g.canvas, err = render.NewReadbackRenderTexture(g.Device,
		render.VirtualCanvasWidth, render.VirtualCanvasHeight, "present_canvas")
	if err != nil {
		return fmt.Errorf("create present canvas: %w", err)
	}

	bytesPerRow := uint32(render.VirtualCanvasWidth * 4)
	g.alignedBytesPerRow = (bytesPerRow + copyPitchAlignment - 1) &^ uint32(copyPitchAlignment-1)
	stagingSize := uint64(g.alignedBytesPerRow) * render.VirtualCanvasHeight

	g.staging, err = g.Device.CreateBuffer(&hal.BufferDescriptor{
		Label: "present_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	g.readback = make([]byte, stagingSize)
	g.tight = make([]byte, uint64(bytesPerRow)*render.VirtualCanvasHeight)
	return nil
}

// RenderFrame renders the layer tree into the canvas and returns the
// frame as tightly packed RGBA rows. The returned slice is reused by
// the next call.
func (g *GpuContext) RenderFrame(root *layer.RootLayerGroup) ([]byte, error) {
	encoder, err := g.Device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "frame_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("frame"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	ctx := &layer.PreRenderContext{
		Device:    g.Device,
		Queue:     g.Queue,
		Encoder:   encoder,
		Pipelines: g.Pipelines,
		Dynamic:   g.Dynamic,
		Pool:      g.Pool,
	}
	transform := layer.NewTransformParams()
	if err := root.PreRender(ctx, &transform); err != nil {
		encoder.DiscardEncoding()
		return nil, err
	}

	pass := ctx.BeginPass(g.canvas.Target(), "present")
	clearColor := render.FloatColor4{A: 1}
	clearDepth := float32(0)
	clearStencil := uint8(0)
	if err := pass.Clear(&clearColor, &clearDepth, &clearStencil); err != nil {
		encoder.DiscardEncoding()
		return nil, err
	}
	if err := root.Render(pass, &transform, 1, render.PassOpaque); err != nil {
		encoder.DiscardEncoding()
		return nil, err
	}
	if err := root.Render(pass, &transform, 1, render.PassTransparent); err != nil {
		encoder.DiscardEncoding()
		return nil, err
	}
	if err := ctx.EndPass(pass); err != nil {
		encoder.DiscardEncoding()
		return nil, err
	}

	// The canvas leaves the pass as a render attachment; the copy wants
	// a transfer source. Transition there and back so the next frame's
	// pass sees the expected state.
	colorTex := g.canvas.ColorTexture()
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(colorTex, g.staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  g.alignedBytesPerRow,
			RowsPerImage: render.VirtualCanvasHeight,
		},
		TextureBase: hal.ImageCopyTexture{Texture: colorTex, MipLevel: 0},
		Size: hal.Extent3D{
			Width:              render.VirtualCanvasWidth,
			Height:             render.VirtualCanvasHeight,
			DepthOrArrayLayers: 1,
		},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer g.Device.FreeCommandBuffer(cmdBuf)

	fence, err := g.Device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer g.Device.DestroyFence(fence)

	if err := g.Queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit frame: %w", err)
	}
	ok, err := g.Device.Wait(fence, 1, 5*time.Second)
	if err != nil || !ok {
		return nil, fmt.Errorf("wait for frame: ok=%v err=%w", ok, err)
	}

	for _, group := range ctx.TakeBindGroups() {
		g.Device.DestroyBindGroup(group)
	}
	g.Dynamic.Recall()

	if err := g.Queue.ReadBuffer(g.staging, 0, g.readback); err != nil {
		return nil, fmt.Errorf("read frame back: %w", err)
	}

	bytesPerRow := int(render.VirtualCanvasWidth * 4)
	if int(g.alignedBytesPerRow) == bytesPerRow {
		copy(g.tight, g.readback)
	} else {
		for row := 0; row < render.VirtualCanvasHeight; row++ {
			src := row * int(g.alignedBytesPerRow)
			dst := row * bytesPerRow
			copy(g.tight[dst:dst+bytesPerRow], g.readback[src:src+bytesPerRow])
		}
	}
	return g.tight, nil
}

// Destroy releases every GPU resource the context owns.
func (g *GpuContext) Destroy() {
	if g.staging != nil {
		g.Device.DestroyBuffer(g.staging)
		g.staging = nil
	}
	if g.canvas != nil {
		g.canvas.Destroy(g.Device)
		g.canvas = nil
	}
	if g.Pool != nil {
		g.Pool.Destroy()
		g.Pool = nil
	}
	if g.Dynamic != nil {
		g.Dynamic.Destroy()
		g.Dynamic = nil
	}
	if g.Pipelines != nil {
		g.Pipelines.Destroy()
		g.Pipelines = nil
	}
	if g.instance != nil {
		g.instance.Destroy()
		g.instance = nil
	}
}
