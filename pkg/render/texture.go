package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// TextureTargetKind distinguishes a draw to the swapchain from a draw
// to an offscreen texture. The two need differently configured
// pipelines, so the kind is part of the pipeline key.
type TextureTargetKind int

const (
	TargetScreen TextureTargetKind = iota
	TargetRenderTexture
)

func (k TextureTargetKind) String() string {
	if k == TargetScreen {
		return "screen"
	}
	return "render_texture"
}

// TextureSamplerKind selects one of the two shared samplers.
type TextureSamplerKind int

const (
	SamplerLinear TextureSamplerKind = iota
	SamplerNearest
)

// TextureTarget is a color and depth-stencil attachment pair a pass
// renders into.
type TextureTarget struct {
	Kind             TextureTargetKind
	ColorView        hal.TextureView
	DepthStencilView hal.TextureView
	Width            uint32
	Height           uint32
}

// TextureSource is a texture view bound for sampling, with the sampler
// to use.
type TextureSource struct {
	View    hal.TextureView
	Sampler TextureSamplerKind
}

// Texture is a static sampled texture, uploaded once.
type Texture struct {
	texture       hal.Texture
	view          hal.TextureView
	width         uint32
	height        uint32
	bytesPerPixel uint32
	label         string
}

// NewTexture allocates a sampled RGBA texture of the given size.
func NewTexture(device hal.Device, width, height uint32, label string) (*Texture, error) {
	return NewTextureWithFormat(device, width, height, TextureFormat, 4, label)
}

// NewTextureWithFormat allocates a sampled texture with an explicit
// format, for single- and dual-channel video plane uploads.
func NewTextureWithFormat(device hal.Device, width, height uint32,
	format gputypes.TextureFormat, bytesPerPixel uint32, label string) (*Texture, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: label + "_view",
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view %q: %w", label, err)
	}
	return &Texture{
		texture:       tex,
		view:          view,
		width:         width,
		height:        height,
		bytesPerPixel: bytesPerPixel,
		label:         label,
	}, nil
}

// NewTextureFromRGBA allocates a texture and uploads the pixel data.
// The data is tightly packed RGBA rows.
func NewTextureFromRGBA(device hal.Device, queue hal.Queue, width, height uint32, data []byte, label string) (*Texture, error) {
	t, err := NewTexture(device, width, height, label)
	if err != nil {
		return nil, err
	}
	t.Write(queue, data)
	return t, nil
}

// Write replaces the whole texture contents.
func (t *Texture) Write(queue hal.Queue, data []byte) {
	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.texture, MipLevel: 0},
		data,
		&hal.ImageDataLayout{BytesPerRow: t.width * t.bytesPerPixel, RowsPerImage: t.height},
		&hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	)
}

// Source returns the texture bound for linear sampling.
func (t *Texture) Source() TextureSource {
	return TextureSource{View: t.view, Sampler: SamplerLinear}
}

// Width returns the texture width in pixels.
func (t *Texture) Width() uint32 { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() uint32 { return t.height }

// Destroy releases the GPU resources.
func (t *Texture) Destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.texture != nil {
		device.DestroyTexture(t.texture)
		t.texture = nil
	}
}

// RenderTexture is an offscreen canvas-sized target that can also be
// sampled. Each one carries its own depth-stencil attachment.
type RenderTexture struct {
	color        hal.Texture
	colorView    hal.TextureView
	depthStencil hal.Texture
	dsView       hal.TextureView
	width        uint32
	height       uint32
	label        string
}

// NewRenderTexture allocates an offscreen target of the given size.
func NewRenderTexture(device hal.Device, width, height uint32, label string) (*RenderTexture, error) {
	return newRenderTexture(device, width, height, 0, label)
}

// NewReadbackRenderTexture allocates an offscreen target whose color
// attachment can additionally be copied into a buffer, for hosts that
// present frames through the CPU.
func NewReadbackRenderTexture(device hal.Device, width, height uint32, label string) (*RenderTexture, error) {
	return newRenderTexture(device, width, height, gputypes.TextureUsageCopySrc, label)
}

func newRenderTexture(device hal.Device, width, height uint32,
	extraUsage gputypes.TextureUsage, label string) (*RenderTexture, error) {
	size := hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}

	color, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label + "_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        TextureFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding | extraUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("create render texture %q: %w", label, err)
	}
	colorView, err := device.CreateTextureView(color, &hal.TextureViewDescriptor{
		Label: label + "_color_view",
	})
	if err != nil {
		device.DestroyTexture(color)
		return nil, fmt.Errorf("create render texture view %q: %w", label, err)
	}

	depthStencil, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label + "_depth_stencil",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        DepthStencilFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		device.DestroyTextureView(colorView)
		device.DestroyTexture(color)
		return nil, fmt.Errorf("create depth stencil %q: %w", label, err)
	}
	dsView, err := device.CreateTextureView(depthStencil, &hal.TextureViewDescriptor{
		Label: label + "_depth_stencil_view",
	})
	if err != nil {
		device.DestroyTexture(depthStencil)
		device.DestroyTextureView(colorView)
		device.DestroyTexture(color)
		return nil, fmt.Errorf("create depth stencil view %q: %w", label, err)
	}

	return &RenderTexture{
		color:        color,
		colorView:    colorView,
		depthStencil: depthStencil,
		dsView:       dsView,
		width:        width,
		height:       height,
		label:        label,
	}, nil
}

// Target returns the texture as a render destination.
func (t *RenderTexture) Target() TextureTarget {
	return TextureTarget{
		Kind:             TargetRenderTexture,
		ColorView:        t.colorView,
		DepthStencilView: t.dsView,
		Width:            t.width,
		Height:           t.height,
	}
}

// Source returns the texture bound for linear sampling.
func (t *RenderTexture) Source() TextureSource {
	return TextureSource{View: t.colorView, Sampler: SamplerLinear}
}

// ColorTexture exposes the raw color attachment for buffer copies.
func (t *RenderTexture) ColorTexture() hal.Texture {
	return t.color
}

// Destroy releases the GPU resources.
func (t *RenderTexture) Destroy(device hal.Device) {
	if t.dsView != nil {
		device.DestroyTextureView(t.dsView)
		t.dsView = nil
	}
	if t.depthStencil != nil {
		device.DestroyTexture(t.depthStencil)
		t.depthStencil = nil
	}
	if t.colorView != nil {
		device.DestroyTextureView(t.colorView)
		t.colorView = nil
	}
	if t.color != nil {
		device.DestroyTexture(t.color)
		t.color = nil
	}
}
