package render

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/clear.wgsl
var clearShaderSource string

//go:embed shaders/fill.wgsl
var fillShaderSource string

//go:embed shaders/sprite.wgsl
var spriteShaderSource string

//go:embed shaders/font.wgsl
var fontShaderSource string

//go:embed shaders/font_border.wgsl
var fontBorderShaderSource string

//go:embed shaders/blend.wgsl
var blendShaderSource string

//go:embed shaders/layer.wgsl
var layerShaderSource string

//go:embed shaders/mask.wgsl
var maskShaderSource string

//go:embed shaders/movie.wgsl
var movieShaderSource string

//go:embed shaders/wiper_default.wgsl
var wiperDefaultShaderSource string

//go:embed shaders/wiper_mask.wgsl
var wiperMaskShaderSource string

// PipelineStorageKey identifies one concrete pipeline configuration of
// a program. Pipelines are created lazily and cached per key.
type PipelineStorageKey struct {
	TargetKind   TextureTargetKind
	Primitive    DrawPrimitive
	CullFace     CullFace
	BlendType    ColorBlendType
	DepthStencil DepthStencilPipelineState
}

type pipelineCacheKey struct {
	Program RenderProgramID
	Key     PipelineStorageKey
}

type programDescription struct {
	label        string
	source       *string
	vertexFormat VertexFormat
	textureCount int
	uniformSize  uint64
}

// programTable maps each implemented program to its shader module and
// binding shape. Programs that share a fragment operation share the
// module.
var programTable = map[RenderProgramID]programDescription{
	ProgramClear:        {"clear", &clearShaderSource, FormatPos, 0, 16},
	ProgramFill:         {"fill", &fillShaderSource, FormatPosCol, 0, 64},
	ProgramSprite:       {"sprite", &spriteShaderSource, FormatPosColTex, 1, 64},
	ProgramButton:       {"button", &spriteShaderSource, FormatPosColTex, 1, 64},
	ProgramFont:         {"font", &fontShaderSource, FormatText, 1, 96},
	ProgramFontBorder:   {"font_border", &fontBorderShaderSource, FormatText, 1, 144},
	ProgramBlend:        {"blend", &blendShaderSource, FormatPosColTex, 2, 80},
	ProgramLayer:        {"layer", &layerShaderSource, FormatPosTex, 1, 112},
	ProgramMask:         {"mask", &maskShaderSource, FormatMask, 2, 128},
	ProgramMovie:        {"movie", &movieShaderSource, FormatPosTex, 2, 128},
	ProgramWiperDefault: {"wiper_default", &wiperDefaultShaderSource, FormatPosTex, 2, 80},
	ProgramWiperMask:    {"wiper_mask", &wiperMaskShaderSource, FormatPosTex, 3, 80},
}

type programResources struct {
	module          hal.ShaderModule
	bindGroupLayout hal.BindGroupLayout
	pipelineLayout  hal.PipelineLayout
	description     programDescription
}

// PipelineStorage compiles each program's shader module once and
// creates render pipelines on demand, one per storage key.
type PipelineStorage struct {
	device   hal.Device
	programs map[RenderProgramID]*programResources
	cache    map[pipelineCacheKey]hal.RenderPipeline
	samplers [2]hal.Sampler
}

// NewPipelineStorage compiles all shader modules and creates the shared
// samplers and bind group layouts.
func NewPipelineStorage(device hal.Device) (*PipelineStorage, error) {
	s := &PipelineStorage{
		device:   device,
		programs: make(map[RenderProgramID]*programResources, len(programTable)),
		cache:    make(map[pipelineCacheKey]hal.RenderPipeline),
	}

	linear, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "sampler_linear",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
	})
	if err != nil {
		return nil, fmt.Errorf("create linear sampler: %w", err)
	}
	s.samplers[SamplerLinear] = linear

	nearest, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "sampler_nearest",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
	})
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("create nearest sampler: %w", err)
	}
	s.samplers[SamplerNearest] = nearest

	for id, desc := range programTable {
		res, err := s.createProgram(id, desc)
		if err != nil {
			s.Destroy()
			return nil, err
		}
		s.programs[id] = res
	}
	return s, nil
}

func (s *PipelineStorage) createProgram(id RenderProgramID, desc programDescription) (*programResources, error) {
	module, err := s.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.label + "_shader",
		Source: hal.ShaderSource{WGSL: *desc.source},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", desc.label, err)
	}

	entries := []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		},
	}
	for i := 0; i < desc.textureCount; i++ {
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{
				Binding:    uint32(2*i + 1),
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			gputypes.BindGroupLayoutEntry{
				Binding:    uint32(2*i + 2),
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		)
	}

	bindGroupLayout, err := s.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.label + "_bind_layout",
		Entries: entries,
	})
	if err != nil {
		s.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("create %s bind group layout: %w", desc.label, err)
	}

	pipelineLayout, err := s.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindGroupLayout},
	})
	if err != nil {
		s.device.DestroyBindGroupLayout(bindGroupLayout)
		s.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("create %s pipeline layout: %w", desc.label, err)
	}

	return &programResources{
		module:          module,
		bindGroupLayout: bindGroupLayout,
		pipelineLayout:  pipelineLayout,
		description:     desc,
	}, nil
}

// Get returns the pipeline for a program under the given configuration,
// creating and caching it on first use.
func (s *PipelineStorage) Get(program RenderProgramID, key PipelineStorageKey) (hal.RenderPipeline, error) {
	cacheKey := pipelineCacheKey{Program: program, Key: key}
	if p, ok := s.cache[cacheKey]; ok {
		return p, nil
	}

	res, ok := s.programs[program]
	if !ok {
		return nil, fmt.Errorf("render program %d not implemented", program)
	}

	blend := key.BlendType.BlendState()
	pipeline, err := s.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  res.description.label + "_pipeline",
		Layout: res.pipelineLayout,
		Vertex: hal.VertexState{
			Module:     res.module,
			EntryPoint: "vs_main",
			Buffers:    []gputypes.VertexBufferLayout{res.description.vertexFormat.layout()},
		},
		Fragment: &hal.FragmentState{
			Module:     res.module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    TextureFormat,
					Blend:     &blend,
					WriteMask: key.BlendType.WriteMask(),
				},
			},
		},
		DepthStencil: depthStencilDescriptor(key.DepthStencil),
		Multisample:  gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Primitive: gputypes.PrimitiveState{
			Topology: key.Primitive.topology(),
			CullMode: key.CullFace.cullMode(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s pipeline: %w", res.description.label, err)
	}
	s.cache[cacheKey] = pipeline
	return pipeline, nil
}

// BindGroupLayout returns the bind group layout of a program.
func (s *PipelineStorage) BindGroupLayout(program RenderProgramID) hal.BindGroupLayout {
	if res, ok := s.programs[program]; ok {
		return res.bindGroupLayout
	}
	return nil
}

// Sampler returns one of the two shared samplers.
func (s *PipelineStorage) Sampler(kind TextureSamplerKind) hal.Sampler {
	return s.samplers[kind]
}

// UniformSize returns the uniform buffer size of a program.
func (s *PipelineStorage) UniformSize(program RenderProgramID) uint64 {
	if res, ok := s.programs[program]; ok {
		return res.description.uniformSize
	}
	return 0
}

func depthStencilDescriptor(state DepthStencilPipelineState) *hal.DepthStencilState {
	face := hal.StencilFaceState{
		Compare:     state.Stencil.Function.compare(),
		FailOp:      state.Stencil.StencilFailOperation.halOp(),
		DepthFailOp: state.Stencil.DepthFailOperation.halOp(),
		PassOp:      state.Stencil.PassOperation.halOp(),
	}
	return &hal.DepthStencilState{
		Format:            DepthStencilFormat,
		DepthWriteEnabled: state.Depth.WriteEnable,
		DepthCompare:      state.Depth.Function.compare(),
		StencilFront:      face,
		StencilBack:       face,
		StencilReadMask:   uint32(state.Stencil.ReadMask),
		StencilWriteMask:  uint32(state.Stencil.WriteMask),
	}
}

func (o StencilOperation) halOp() hal.StencilOperation {
	switch o {
	case StencilZero:
		return hal.StencilOperationZero
	case StencilReplace:
		return hal.StencilOperationReplace
	case StencilIncrement:
		return hal.StencilOperationIncrementClamp
	case StencilDecrement:
		return hal.StencilOperationDecrementClamp
	case StencilInvert:
		return hal.StencilOperationInvert
	case StencilIncrementWrap:
		return hal.StencilOperationIncrementWrap
	case StencilDecrementWrap:
		return hal.StencilOperationDecrementWrap
	default:
		return hal.StencilOperationKeep
	}
}

// Destroy releases every compiled module, layout, sampler and cached
// pipeline.
func (s *PipelineStorage) Destroy() {
	for _, p := range s.cache {
		s.device.DestroyRenderPipeline(p)
	}
	s.cache = map[pipelineCacheKey]hal.RenderPipeline{}
	for _, res := range s.programs {
		s.device.DestroyPipelineLayout(res.pipelineLayout)
		s.device.DestroyBindGroupLayout(res.bindGroupLayout)
		s.device.DestroyShaderModule(res.module)
	}
	s.programs = map[RenderProgramID]*programResources{}
	for i, sampler := range s.samplers {
		if sampler != nil {
			s.device.DestroySampler(sampler)
			s.samplers[i] = nil
		}
	}
}
