package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// RenderPass records draws into one target. It owns the hal pass
// encoder and builds pipelines, uniform slices and bind groups for
// every request.
type RenderPass struct {
	device    hal.Device
	pipelines *PipelineStorage
	dynamic   *DynamicBuffer
	target    TextureTarget
	encoder   hal.RenderPassEncoder

	// Bind groups created this pass; released after submission.
	bindGroups []hal.BindGroup

	lastStencilRef uint8
	stencilRefSet  bool
}

// BeginRenderPass starts recording into a target. The attachments are
// loaded, not cleared; use Clear for an explicit clear.
func BeginRenderPass(
	device hal.Device,
	encoder hal.CommandEncoder,
	pipelines *PipelineStorage,
	dynamic *DynamicBuffer,
	target TextureTarget,
	label string,
) *RenderPass {
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    target.ColorView,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:           target.DepthStencilView,
			DepthLoadOp:    gputypes.LoadOpLoad,
			DepthStoreOp:   gputypes.StoreOpStore,
			StencilLoadOp:  gputypes.LoadOpLoad,
			StencilStoreOp: gputypes.StoreOpStore,
		},
	})
	return &RenderPass{
		device:    device,
		pipelines: pipelines,
		dynamic:   dynamic,
		target:    target,
		encoder:   rp,
	}
}

// Run records one draw request.
func (p *RenderPass) Run(req RenderRequest) error {
	pipelineState, stencilRef := req.DepthStencil.PipelineParts()
	key := PipelineStorageKey{
		TargetKind:   p.target.Kind,
		Primitive:    req.Primitive,
		CullFace:     req.CullFace,
		BlendType:    req.ColorBlend,
		DepthStencil: pipelineState,
	}
	pipeline, err := p.pipelines.Get(req.Invocation.Program, key)
	if err != nil {
		return err
	}

	uniform, vertices, textures, err := encodeInvocation(&req.Invocation)
	if err != nil {
		return err
	}

	uniformSlice, err := p.dynamic.Push(uniform)
	if err != nil {
		return err
	}
	vertexSlice, err := p.dynamic.Push(vertices)
	if err != nil {
		return err
	}
	if !p.dynamic.Holds(uniformSlice) || !p.dynamic.Holds(vertexSlice) {
		return fmt.Errorf("dynamic buffer slice outlived its frame")
	}

	entries := []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.BufferBinding{
			Buffer: uniformSlice.Buffer.NativeHandle(),
			Offset: uniformSlice.Offset,
			Size:   uniformSlice.Size,
		}},
	}
	for i, tex := range textures {
		entries = append(entries,
			gputypes.BindGroupEntry{
				Binding: uint32(2*i + 1),
				Resource: gputypes.TextureViewBinding{
					TextureView: tex.View.NativeHandle(),
				},
			},
			gputypes.BindGroupEntry{
				Binding: uint32(2*i + 2),
				Resource: gputypes.SamplerBinding{
					Sampler: p.pipelines.Sampler(tex.Sampler).NativeHandle(),
				},
			},
		)
	}
	bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "pass_bind",
		Layout:  p.pipelines.BindGroupLayout(req.Invocation.Program),
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	p.bindGroups = append(p.bindGroups, bindGroup)

	p.encoder.SetPipeline(pipeline)
	if !p.stencilRefSet || stencilRef != p.lastStencilRef {
		p.encoder.SetStencilReference(uint32(stencilRef))
		p.lastStencilRef = stencilRef
		p.stencilRefSet = true
	}
	p.encoder.SetBindGroup(0, bindGroup, nil)
	p.encoder.SetVertexBuffer(0, vertexSlice.Buffer, vertexSlice.Offset)
	p.encoder.Draw(uint32(req.Invocation.VertexCount()), 1, 0, 0)
	return nil
}

// Clear overwrites the selected aspects of the whole target with a
// fullscreen triangle. Nil arguments leave their aspect untouched.
func (p *RenderPass) Clear(color *FloatColor4, depth *float32, stencil *uint8) error {
	z := float32(1)
	if depth != nil {
		z = *depth + *depth - 1
	}
	vertices := []PosVertex{
		{Position: mgl32.Vec3{-1, -1, z}},
		{Position: mgl32.Vec3{3, -1, z}},
		{Position: mgl32.Vec3{-1, 3, z}},
	}

	blend := BlendNoColor
	clearColor := ColorBlack
	if color != nil {
		blend = BlendOpaque
		clearColor = *color
	}

	state := DefaultDepthStencilState()
	if depth != nil {
		state.Depth.WriteEnable = true
	}
	if stencil != nil {
		state.Stencil.Pipeline.PassOperation = StencilReplace
		state.Stencil.Reference = *stencil
	}

	req := NewRenderRequestBuilder().
		DepthStencil(state).
		ColorBlendType(blend).
		Build(ProgramInvocation{
			Program: ProgramClear,
			Clear: &ClearProgram{
				Vertices: VertexData(vertices),
				Color:    clearColor,
			},
		}, PrimitiveTriangles)
	return p.Run(req)
}

// End finishes recording. The returned bind groups must be destroyed
// after the command buffer is submitted.
func (p *RenderPass) End() ([]hal.BindGroup, error) {
	p.encoder.End()
	groups := p.bindGroups
	p.bindGroups = nil
	return groups, nil
}

func appendVec4(dst []byte, v mgl32.Vec4) []byte {
	return appendF32(dst, v.X(), v.Y(), v.Z(), v.W())
}

func appendMat4(dst []byte, m mgl32.Mat4) []byte {
	for _, v := range m {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

func appendU32Vec4(dst []byte, x, y, z, w uint32) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, x)
	dst = binary.LittleEndian.AppendUint32(dst, y)
	dst = binary.LittleEndian.AppendUint32(dst, z)
	dst = binary.LittleEndian.AppendUint32(dst, w)
	return dst
}

// encodeInvocation flattens a program invocation into its uniform
// bytes, vertex bytes and texture bindings, matching the WGSL uniform
// struct layouts.
func encodeInvocation(inv *ProgramInvocation) (uniform, vertices []byte, textures []TextureSource, err error) {
	switch inv.Program {
	case ProgramClear:
		a := inv.Clear
		uniform = appendVec4(nil, a.Color.Vec4())
		vertices = a.Vertices.Bytes()

	case ProgramFill:
		a := inv.Fill
		uniform = appendMat4(nil, a.Transform)
		vertices = a.Vertices.Bytes()

	case ProgramSprite:
		a := inv.Sprite
		uniform = appendMat4(nil, a.Transform)
		vertices = a.Vertices.Bytes()
		textures = []TextureSource{a.Sprite}

	case ProgramButton:
		a := inv.Button
		uniform = appendMat4(nil, a.Transform)
		vertices = a.Vertices.Bytes()
		textures = []TextureSource{a.Texture}

	case ProgramFont:
		a := inv.Font
		uniform = appendMat4(nil, a.Transform)
		uniform = appendVec4(uniform, a.Color1)
		uniform = appendVec4(uniform, a.Color2)
		vertices = a.Vertices.Bytes()
		textures = []TextureSource{a.Glyph}

	case ProgramFontBorder:
		a := inv.FontBorder
		uniform = appendMat4(nil, a.Transform)
		for i := 0; i < 8; i += 2 {
			uniform = appendF32(uniform,
				a.Distances[i].X(), a.Distances[i].Y(),
				a.Distances[i+1].X(), a.Distances[i+1].Y())
		}
		uniform = appendVec4(uniform, a.Color)
		vertices = a.Vertices.Bytes()
		textures = []TextureSource{a.Glyph}

	case ProgramBlend:
		a := inv.Blend
		uniform = appendMat4(nil, a.Transform)
		uniform = appendF32(uniform, a.BlendRate, 0, 0, 0)
		vertices = a.Vertices.Bytes()
		textures = []TextureSource{a.Texture1, a.Texture2}

	case ProgramLayer:
		a := inv.Layer
		uniform = appendMat4(nil, a.Transform)
		uniform = appendVec4(uniform, a.ColorMultiplier)
		uniform = appendVec4(uniform, a.FragmentShaderParam)
		uniform = appendU32Vec4(uniform, uint32(a.FragmentShader), uint32(a.OutputKind), 0, 0)
		vertices = a.Vertices.Bytes()
		textures = []TextureSource{a.Texture}

	case ProgramMask:
		a := inv.Mask
		uniform = appendMat4(nil, a.Transform)
		uniform = appendVec4(uniform, a.ColorMultiplier)
		uniform = appendVec4(uniform, a.FragmentShaderParam)
		uniform = appendU32Vec4(uniform, uint32(a.FragmentShader), 0, 0, 0)
		uniform = appendF32(uniform, a.MinValue, a.MaxValue, 0, 0)
		vertices = a.Vertices.Bytes()
		textures = []TextureSource{a.Texture, a.Mask}

	case ProgramMovie:
		a := inv.Movie
		uniform = appendMat4(nil, a.Transform)
		uniform = appendVec4(uniform, a.ColorBias)
		for _, row := range a.ColorTransform {
			uniform = appendVec4(uniform, row)
		}
		vertices = a.Vertices.Bytes()
		textures = []TextureSource{a.TextureLuma, a.TextureChroma}

	case ProgramWiperDefault:
		a := inv.WiperDefault
		uniform = appendMat4(nil, a.Transform)
		uniform = appendF32(uniform, a.Alpha, 0, 0, 0)
		vertices = a.Vertices.Bytes()
		textures = []TextureSource{a.TextureSource, a.TextureTarget}

	case ProgramWiperMask:
		a := inv.WiperMask
		uniform = appendMat4(nil, a.Transform)
		uniform = appendF32(uniform, a.MinValue, a.MaxValue, 0, 0)
		vertices = a.Vertices.Bytes()
		textures = []TextureSource{a.TextureSource, a.TextureTarget, a.TextureMask}

	default:
		err = fmt.Errorf("render program %d not implemented", inv.Program)
	}
	return uniform, vertices, textures, err
}
