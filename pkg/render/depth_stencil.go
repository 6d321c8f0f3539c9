package render

// DepthFunction is a depth-test compare function.
type DepthFunction int

const (
	DepthAlways DepthFunction = iota
	DepthNever
	DepthLess
	DepthEqual
	DepthLessOrEqual
	DepthGreater
	DepthNotEqual
	DepthGreaterOrEqual
)

// StencilFunction is a stencil-test compare function.
type StencilFunction int

const (
	StencilAlways StencilFunction = iota
	StencilNever
	StencilLess
	StencilEqual
	StencilLessOrEqual
	StencilGreater
	StencilNotEqual
	StencilGreaterOrEqual
)

// StencilOperation is applied to the stencil buffer after a test.
type StencilOperation int

const (
	StencilKeep StencilOperation = iota
	StencilZero
	StencilReplace
	StencilIncrement
	StencilDecrement
	StencilInvert
	StencilIncrementWrap
	StencilDecrementWrap
)

// StencilMask restricts which stencil bits tests read and writes touch.
type StencilMask uint8

const (
	StencilMaskAll      StencilMask = 0xff
	StencilMaskSignOnly StencilMask = 0x80
)

// DepthState is the depth half of a pipeline's depth-stencil state.
type DepthState struct {
	Function    DepthFunction
	WriteEnable bool
}

// StencilPipelineState is the baked-into-the-pipeline part of the
// stencil state. The reference value stays dynamic.
type StencilPipelineState struct {
	Function             StencilFunction
	StencilFailOperation StencilOperation
	DepthFailOperation   StencilOperation
	PassOperation        StencilOperation
	ReadMask             StencilMask
	WriteMask            StencilMask
}

// DefaultStencilPipelineState keeps the buffer untouched and always
// passes.
func DefaultStencilPipelineState() StencilPipelineState {
	return StencilPipelineState{
		ReadMask:  StencilMaskAll,
		WriteMask: StencilMaskAll,
	}
}

// StencilState pairs the pipeline state with the dynamic reference.
type StencilState struct {
	Pipeline  StencilPipelineState
	Reference uint8
}

// DepthStencilState is the full per-request depth-stencil description.
type DepthStencilState struct {
	Depth   DepthState
	Stencil StencilState
}

// DefaultDepthStencilState neither tests nor writes.
func DefaultDepthStencilState() DepthStencilState {
	return DepthStencilState{
		Stencil: StencilState{Pipeline: DefaultStencilPipelineState()},
	}
}

// DepthStencilShorthand builds the state the layer compositor uses:
// replace the stencil with the reference where the test passes, and
// optionally depth-test without writing.
func DepthStencilShorthand(stencilRef uint8, allowEqStencil, testDepth bool) DepthStencilState {
	var depth DepthState
	if testDepth {
		depth = DepthState{Function: DepthLess, WriteEnable: false}
	}
	function := StencilGreater
	if allowEqStencil {
		function = StencilGreaterOrEqual
	}
	pipeline := DefaultStencilPipelineState()
	pipeline.Function = function
	pipeline.PassOperation = StencilReplace
	return DepthStencilState{
		Depth:   depth,
		Stencil: StencilState{Pipeline: pipeline, Reference: stencilRef},
	}
}

// DepthStencilPipelineState is the pipeline-key part of a
// DepthStencilState, with the dynamic reference stripped.
type DepthStencilPipelineState struct {
	Depth   DepthState
	Stencil StencilPipelineState
}

// PipelineParts splits the state into its pipeline key and the dynamic
// stencil reference.
func (s DepthStencilState) PipelineParts() (DepthStencilPipelineState, uint8) {
	return DepthStencilPipelineState{
		Depth:   s.Depth,
		Stencil: s.Stencil.Pipeline,
	}, s.Stencil.Reference
}
