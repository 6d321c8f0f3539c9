package layer

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/DCNick3/shin-sub001/pkg/format/font"
	"github.com/DCNick3/shin-sub001/pkg/layout"
	"github.com/DCNick3/shin-sub001/pkg/render"
	"github.com/DCNick3/shin-sub001/pkg/tick"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// MessageFlags is the packed flags argument of MSGSET.
type MessageFlags uint32

const (
	// MessageIgnoreInput makes the message run without waiting for
	// clicks and refuse all input.
	MessageIgnoreInput MessageFlags = 0x2
)

// MsgsetParams carries the per-message arguments of MSGSET.
type MsgsetParams struct {
	Flags          MessageFlags
	MessageboxType vm.MessageboxType
	TextLayout     vm.MessageTextLayout
	MessageID      uint32
}

// VoicePlayer plays the voice clips referenced by @v escapes.
// Segments are in milliseconds from the start of the clip; a zero
// duration plays to the end.
type VoicePlayer interface {
	Play(filename string, volume float32, lipsync bool, segmentStart, segmentDuration int32) bool
	Stop()
	WaitStatus() vm.AudioWaitStatus
}

// MessageListener observes message completion. The last wait of a
// message notifies it when the user (or autoplay) advances past it.
type MessageListener interface {
	OnMessageDone()
}

// MessageboxTextures are the messagebox frames loaded from the
// "msgtex" texture archive.
type MessageboxTextures struct {
	// Two 30x30 keywait frames side by side: regular on the left,
	// message-final on the right.
	Keywait        *render.Texture
	Select         *render.Texture
	SelectCursor   *render.Texture
	MessageWindow1 *render.Texture
	MessageWindow2 *render.Texture
	MessageWindow3 *render.Texture
}

func (t *MessageboxTextures) window(ty vm.MessageboxType) *render.Texture {
	switch ty {
	case vm.MessageboxNeutral:
		return t.MessageWindow1
	case vm.MessageboxWitchSpace:
		return t.MessageWindow2
	case vm.MessageboxUshiromiya:
		return t.MessageWindow3
	default:
		return nil
	}
}

type waitKind int

const (
	waitNone waitKind = iota
	waitRegular
	waitLast
	waitAutoClick
)

type blockKind int

const (
	blockVoice blockKind = iota
	blockWait
	blockSection
	blockSync
	blockVoiceSync
	blockVoiceWait
)

// messageBlock is one pause point of the message timeline. Chars flow
// freely; blocks gate the clock.
type messageBlock struct {
	time float32
	kind blockKind

	// blockVoice
	filename        string
	volume          float32
	lipsyncEnabled  bool
	segmentDuration int32

	// blockWait
	waitAutoDelay float32
	isLastWait    bool
	isAutoClick   bool

	// blockSection and blockSync
	index uint32

	// blockVoiceSync
	segmentStart int32
}

// messageChar is one glyph with its reveal animation state.
type messageChar struct {
	time            float32
	lineIndex       int
	isRubi          bool
	position        layout.Vec2
	width           float32
	horizontalScale float32
	verticalScale   float32
	color           layout.Color
	// Fade-in progress gained per tick; 1 means instant.
	progressRate    float32
	currentProgress float32
	// The block the char belongs to; chars past the current block do
	// not advance.
	blockIndex      int
	borderDistances [8]mgl32.Vec2
	glyph           *GpuGlyph
}

// slidingOutMessagebox animates the old box away when MSGSET switches
// the messagebox type mid-scene.
type slidingOutMessagebox struct {
	ty       vm.MessageboxType
	slideOut slideInterpolator
	height   float32
}

const verticesPerCharacter = 4

// MessageLayer renders the dialogue: the messagebox window, the
// progressively revealed text and the keywait icon. It owns the
// message clock and the voice playback driven by it.
type MessageLayer struct {
	props *Properties

	textures   *MessageboxTextures
	fontNormal *GpuFont
	fontBold   *GpuFont
	voice      VoicePlayer
	listener   MessageListener

	// Slide driven by showing and hiding the messagebox.
	naturalSlide slideInterpolator
	// Slide driven by modal overlays like the backlog; while it is
	// below 1 the message clock is paused.
	modalSlide slideInterpolator
	height     heightInterpolator

	messageFlags   MessageFlags
	messageboxType vm.MessageboxType
	textLayout     vm.MessageTextLayout
	messageID      uint32

	chars       []messageChar
	slidingOut  []slidingOutMessagebox
	blocks      []messageBlock
	lines       []layout.LineInfo
	lineVisible []bool
	vertices    []render.TextVertex
	messageSize layout.Vec2

	currentTime       float32
	currentBlockIndex int

	waitKind           waitKind
	timeToSkipWait     countdown
	autoplayVoiceDelay countdown
	ticksSinceLastWait tick.Ticks

	completedSections uint32
	receivedSyncs     uint32

	isVoicePlaying  bool
	disableVoice    bool
	voiceBlockIndex int
	voiceCounter    int

	cursorPosition layout.Vec2

	autoplayRequested bool
}

func NewMessageLayer(textures *MessageboxTextures, fontNormal, fontBold *GpuFont,
	voice VoicePlayer, listener MessageListener) *MessageLayer {
	return &MessageLayer{
		props:      NewProperties(),
		textures:   textures,
		fontNormal: fontNormal,
		fontBold:   fontBold,
		voice:      voice,
		listener:   listener,

		naturalSlide: newSlideInterpolator(0, slideDecreasing),
		modalSlide:   newSlideInterpolator(1, slideIncreasing),
		height:       newHeightInterpolator(0),

		voiceCounter: -1,
	}
}

// RequestAutoplay asks the layer to advance the pending wait as soon
// as its auto delay and voice allow. Consumed on the next update.
func (l *MessageLayer) RequestAutoplay() { l.autoplayRequested = true }

// SetModalShown slides the message away (and pauses its clock) while
// a modal overlay is up.
func (l *MessageLayer) SetModalShown(modalShown bool) {
	if modalShown {
		l.modalSlide.SetDirection(slideDecreasing)
	} else {
		l.modalSlide.SetDirection(slideIncreasing)
	}
}

func (l *MessageLayer) resetMessage() {
	l.chars = nil
	l.blocks = nil
	l.lines = nil
	l.lineVisible = nil
	l.vertices = nil
}

// OnMsgset starts displaying a new message. When the messagebox type
// changes while the old box is still visible, the old box is animated
// out alongside the new one.
func (l *MessageLayer) OnMsgset(message string, params MsgsetParams, dontFFSlide bool) error {
	if params.MessageboxType != l.messageboxType && l.naturalSlide.Value() > 0 {
		l.slidingOut = append(l.slidingOut, slidingOutMessagebox{
			ty:       l.messageboxType,
			slideOut: newSlideInterpolator(l.naturalSlide.Value(), slideDecreasing),
			height:   l.height.Value(),
		})
		l.naturalSlide.SetValue(0)
	}
	l.resetMessage()

	l.messageFlags = params.Flags
	l.messageboxType = params.MessageboxType
	l.textLayout = params.TextLayout
	l.messageID = params.MessageID

	l.naturalSlide.SetDirection(slideIncreasing)

	l.currentBlockIndex = 0
	l.currentTime = 0

	l.waitKind = waitNone
	l.timeToSkipWait.SetTimeLeft(0)
	l.autoplayVoiceDelay.SetTimeLeft(0)
	l.isVoicePlaying = false
	l.disableVoice = false

	l.completedSections = 0
	l.receivedSyncs = 0
	l.ticksSinceLastWait = 0

	l.cursorPosition = layout.Vec2{}

	l.voiceBlockIndex = 0
	l.voiceCounter = -1

	if l.messageboxType == vm.MessageboxNovel {
		l.height.SetTarget(render.VirtualCanvasHeight)
		l.height.SetValue(render.VirtualCanvasHeight)
	} else {
		if l.naturalSlide.Value() == 0 {
			l.height.SetValue(defaultMessageboxHeight)
		}
		l.height.SetTarget(defaultMessageboxHeight)
	}

	if err := l.setMessage(message); err != nil {
		return err
	}
	l.rebuildVertices()

	if !dontFFSlide {
		l.naturalSlide.SetValue(1)
	}
	return nil
}

const defaultMessageboxHeight = 357.0

func (l *MessageLayer) setMessage(message string) error {
	params := layout.LayoutParams{
		LayoutWidth:             1500,
		TextAlignment:           l.textLayout,
		LinePaddingAbove:        0,
		LinePaddingBelow:        0,
		LinePaddingBetween:      4,
		RubiSize:                20,
		TextSize:                50,
		BaseFontHorizontalScale: 0.9697,
		FollowKinsokuShoriRules: true,
		AlwaysLeaveSpaceForRubi: true,
		PerformSoftBreaks:       true,
	}
	drawSpeed := int32(80)
	if l.messageboxType == vm.MessageboxNoText {
		drawSpeed = 100
	}
	defaults := layout.Defaults{
		Color:     999,
		DrawSpeed: drawSpeed,
		Fade:      200,
	}

	layouter := layout.NewMessageLayerLayouter(
		l.fontNormal.Metrics(), l.fontBold.Metrics(),
		l.messageboxType, params, defaults)
	if err := layout.NewMessageTextParser(message).ParseInto(layouter); err != nil {
		return fmt.Errorf("message %d: %w", l.messageID, err)
	}
	commands, lines, size := layouter.Finish()

	var waitAutoDelay float32
	for _, command := range commands {
		switch c := command.(type) {
		case *layout.Char:
			font := l.fontNormal
			if c.Bold {
				font = l.fontBold
			}
			glyph, err := font.Glyph(c.Codepoint)
			if err != nil {
				return fmt.Errorf("message %d: %w", l.messageID, err)
			}

			if !c.IsRubi {
				waitAutoDelay += 0.05
			}

			progressRate := float32(1)
			if c.Fade != 0 {
				progressRate = 1 / c.Fade / tick.TicksPerSecond
			}

			l.chars = append(l.chars, messageChar{
				time:            c.Time(),
				lineIndex:       c.LineIndex(),
				isRubi:          c.IsRubi,
				position:        c.Position,
				width:           c.Width,
				horizontalScale: c.HorizontalScale,
				verticalScale:   c.Scale,
				color:           c.Color,
				progressRate:    progressRate,
				blockIndex:      len(l.blocks),
				borderDistances: borderDistances(glyph.Info(), c.HorizontalScale, c.Scale),
				glyph:           glyph,
			})
		case *layout.Section:
			l.blocks = append(l.blocks, messageBlock{
				time:  c.Time(),
				kind:  blockSection,
				index: c.Index,
			})
		case *layout.Sync:
			l.blocks = append(l.blocks, messageBlock{
				time:  c.Time(),
				kind:  blockSync,
				index: c.Index,
			})
		case *layout.Voice:
			l.blocks = append(l.blocks, messageBlock{
				time:            c.Time(),
				kind:            blockVoice,
				filename:        c.Filename,
				volume:          c.Volume,
				lipsyncEnabled:  c.LipsyncEnabled,
				segmentDuration: c.TimeToFirstSync,
			})
		case *layout.VoiceSync:
			l.blocks = append(l.blocks, messageBlock{
				time:            c.Time(),
				kind:            blockVoiceSync,
				segmentStart:    c.TargetInstant,
				segmentDuration: c.TimeToNextSync,
			})
		case *layout.VoiceWait:
			l.blocks = append(l.blocks, messageBlock{
				time: c.Time(),
				kind: blockVoiceWait,
			})
		case *layout.Wait:
			l.blocks = append(l.blocks, messageBlock{
				time:          c.Time(),
				kind:          blockWait,
				waitAutoDelay: waitAutoDelay,
				isLastWait:    c.IsLastWait,
				isAutoClick:   c.IsAutoClick,
			})
			waitAutoDelay = 0
		}
	}

	l.lines = lines
	l.lineVisible = make([]bool, len(lines))
	l.messageSize = size
	return nil
}

// borderDistances prepares the eight sampling displacements of the
// outline shader, scaled so the outline is 1.5 pixels in screen space
// regardless of the glyph scale.
func borderDistances(info font.GlyphInfo, horizontalScale, verticalScale float32) [8]mgl32.Vec2 {
	normW := float32(info.ActualWidth) / float32(info.TextureWidth)
	normH := float32(info.ActualHeight) / float32(info.TextureHeight)
	vDistance := 1.5 / verticalScale / float32(info.ActualHeight) * normH
	hDistance := 1.5 / horizontalScale / float32(info.ActualWidth) * normW

	directions := [8]mgl32.Vec2{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}
	var out [8]mgl32.Vec2
	for i, d := range directions {
		d = d.Mul(1 / d.Len())
		out[i] = mgl32.Vec2{d.X() * hDistance, d.Y() * vDistance}
	}
	return out
}

// rebuildVertices bakes a quad per char. Each quad overdraws 2 pixels
// on every side so the outline shader has room to sample.
func (l *MessageLayer) rebuildVertices() {
	l.vertices = make([]render.TextVertex, 0, verticesPerCharacter*len(l.chars))

	for i := range l.chars {
		c := &l.chars[i]
		info := c.glyph.Info()

		scaledW := c.horizontalScale * float32(info.ActualWidth)
		scaledH := c.verticalScale * float32(info.ActualHeight)

		topLeftX := c.horizontalScale*float32(info.BearingX) - 2
		topLeftY := c.verticalScale*float32(-info.BearingY) - 2
		bottomRightX := topLeftX + scaledW + 4
		bottomRightY := topLeftY + scaledH + 4

		left := c.position.X + topLeftX
		top := c.position.Y + topLeftY
		right := c.position.X + bottomRightX
		bottom := c.position.Y + bottomRightY

		overdrawX := ((bottomRightX - topLeftX) / scaledW) - 1
		overdrawY := ((bottomRightY - topLeftY) / scaledH) - 1
		overdrawX /= 2
		overdrawY /= 2

		normW := float32(info.ActualWidth) / float32(info.TextureWidth)
		normH := float32(info.ActualHeight) / float32(info.TextureHeight)
		texLeft := -normW * overdrawX
		texTop := -normH * overdrawY
		texRight := normW * (overdrawX + 1)
		texBottom := normH * (overdrawY + 1)

		white := mgl32.Vec3{1, 1, 1}
		l.vertices = append(l.vertices,
			render.TextVertex{Position: mgl32.Vec2{left, top}, TexturePosition: mgl32.Vec2{texLeft, texTop}, Color: white},
			render.TextVertex{Position: mgl32.Vec2{right, top}, TexturePosition: mgl32.Vec2{texRight, texTop}, Color: white},
			render.TextVertex{Position: mgl32.Vec2{left, bottom}, TexturePosition: mgl32.Vec2{texLeft, texBottom}, Color: white},
			render.TextVertex{Position: mgl32.Vec2{right, bottom}, TexturePosition: mgl32.Vec2{texRight, texBottom}, Color: white},
		)
	}
}

// Close slides the messagebox away and drops the message.
func (l *MessageLayer) Close(dontFFSlide bool) {
	l.naturalSlide.SetDirection(slideDecreasing)
	if !dontFFSlide {
		l.naturalSlide.SetValue(0)
	}
	l.resetMessage()
}

// IsInterestedInInput reports whether a click would do anything.
func (l *MessageLayer) IsInterestedInInput() bool {
	if l.naturalSlide.Direction() == slideDecreasing {
		return false
	}
	if l.naturalSlide.Value() < 1 {
		return false
	}
	if l.currentBlockIndex >= len(l.blocks) {
		return false
	}
	if l.messageFlags&MessageIgnoreInput != 0 {
		return false
	}
	if l.messageboxType == vm.MessageboxNoText && l.waitKind == waitAutoClick {
		return false
	}
	return true
}

func (l *MessageLayer) playVoice(voiceIndex int, segmentStart, segmentDuration int32) {
	block := &l.blocks[voiceIndex]
	if block.kind != blockVoice {
		return
	}
	if l.disableVoice || l.voice == nil {
		return
	}

	l.isVoicePlaying = l.voice.Play(
		block.filename, block.volume, block.lipsyncEnabled,
		segmentStart, segmentDuration)

	if l.isVoicePlaying {
		l.autoplayVoiceDelay.SetTimeLeft(0.5)
	} else {
		l.autoplayVoiceDelay.SetTimeLeft(0)
	}
}

func (l *MessageLayer) stopVoice() {
	if l.voice != nil {
		l.voice.Stop()
	}
	l.isVoicePlaying = false
	l.autoplayVoiceDelay.SetTimeLeft(0)
}

func (l *MessageLayer) voicePlayerBusy() bool {
	return l.voice != nil && l.voice.WaitStatus()&vm.AudioStatusPlaying != 0
}

func (l *MessageLayer) notifyMessageDone() {
	if l.listener != nil {
		l.listener.OnMessageDone()
	}
}

// TryAdvance handles a click: it fast-forwards the fading chars of the
// current section, then consumes the pending wait, then interrupts the
// voice. Returns false when the click should fall through.
func (l *MessageLayer) TryAdvance() bool {
	if !l.modalSlide.IsFullyAt(slideIncreasing) ||
		!l.naturalSlide.IsFullyAt(slideIncreasing) ||
		l.currentBlockIndex >= len(l.blocks) ||
		l.messageFlags&MessageIgnoreInput != 0 {
		return false
	}

	anyCharFastForwarded := false
	for i := range l.chars {
		c := &l.chars[i]
		if c.blockIndex > l.currentBlockIndex {
			continue
		}
		if c.currentProgress < 1 {
			c.currentProgress = 1
			anyCharFastForwarded = true
		}
	}
	if anyCharFastForwarded {
		l.currentTime = l.blocks[l.currentBlockIndex].time
		return true
	}

	if l.waitKind != waitNone {
		l.stopVoice()
		if l.waitKind == waitLast || l.waitKind == waitAutoClick {
			l.notifyMessageDone()
		}
		l.waitKind = waitNone
		l.currentBlockIndex++
		return true
	}

	switch block := &l.blocks[l.currentBlockIndex]; block.kind {
	case blockVoice, blockVoiceWait:
		// Stop the voice so the wait can begin.
		l.stopVoice()
	case blockVoiceSync:
		l.playVoice(l.voiceBlockIndex, block.segmentStart, block.segmentDuration)
		l.currentBlockIndex++
	}
	return true
}

// RecvSyncIsWaiting reports whether MSGWAIT on signal should keep
// blocking. A negative signal waits for the whole message.
func (l *MessageLayer) RecvSyncIsWaiting(signal int32) bool {
	if l.currentBlockIndex >= len(l.blocks) {
		return false
	}
	if signal < 0 {
		return true
	}
	return l.completedSections <= uint32(signal)
}

// SendSync releases one @y sync point.
func (l *MessageLayer) SendSync() {
	l.receivedSyncs++
}

// VoiceCounter returns how many voice clips have started, -1 before
// the first one.
func (l *MessageLayer) VoiceCounter() int { return l.voiceCounter }

func (l *MessageLayer) Properties() *Properties { return l.props }

func (l *MessageLayer) Update(ctx *UpdateContext) {
	dt := ctx.Delta

	autoplayRequested := l.autoplayRequested
	l.autoplayRequested = false

	l.props.Update(dt)

	// While a modal overlay dims the message, its clock is paused.
	if l.modalSlide.Update(dt) < 1 {
		return
	}

	l.naturalSlide.Update(dt)

	kept := l.slidingOut[:0]
	for i := range l.slidingOut {
		if l.slidingOut[i].slideOut.Update(dt) > 0 {
			kept = append(kept, l.slidingOut[i])
		}
	}
	l.slidingOut = kept

	if l.naturalSlide.Value() < 1 {
		return
	}

	if l.isVoicePlaying && !l.voicePlayerBusy() {
		l.isVoicePlaying = false
	}

	if l.waitKind != waitNone {
		l.timeToSkipWait.Update(dt)

		autoplayEffective := l.waitKind == waitAutoClick ||
			autoplayRequested && l.messageFlags&MessageIgnoreInput == 0

		if !autoplayEffective {
			if !l.isVoicePlaying {
				l.autoplayVoiceDelay.SetTimeLeft(0.5)
			}
		} else if l.timeToSkipWait.IsDone() && !l.isVoicePlaying &&
			l.autoplayVoiceDelay.Update(dt) {
			if l.waitKind == waitLast || l.waitKind == waitAutoClick {
				l.notifyMessageDone()
			}
			l.waitKind = waitNone
			l.currentBlockIndex++
		}
	}

	if l.waitKind == waitNone {
		l.runBlocks()
	}

	for i := range l.chars {
		c := &l.chars[i]
		if c.blockIndex > l.currentBlockIndex || c.time > l.currentTime {
			continue
		}

		c.currentProgress = min(1, c.currentProgress+c.progressRate*float32(dt))

		line := &l.lines[c.lineIndex]
		l.height.SetMinTarget(c.position.Y + line.LineAdvance)

		candidate := layout.Vec2{X: c.position.X + c.width, Y: c.position.Y}
		if candidate.Y > l.cursorPosition.Y ||
			candidate.Y == l.cursorPosition.Y && candidate.X > l.cursorPosition.X {
			l.cursorPosition = candidate
		}

		l.lineVisible[c.lineIndex] = true
	}

	l.height.Update(dt)

	if l.currentBlockIndex < len(l.blocks) {
		blockTime := l.blocks[l.currentBlockIndex].time
		l.currentTime = min(blockTime, l.currentTime+dt.Seconds())
	}

	l.ticksSinceLastWait += dt
}

// runBlocks advances the block cursor until a block gates the clock.
func (l *MessageLayer) runBlocks() {
	for l.currentBlockIndex < len(l.blocks) {
		block := &l.blocks[l.currentBlockIndex]
		if block.time > l.currentTime {
			return
		}
		switch block.kind {
		case blockVoice:
			if l.isVoicePlaying {
				return
			}
			l.playVoice(l.currentBlockIndex, 0, block.segmentDuration)
			l.voiceBlockIndex = l.currentBlockIndex
			l.voiceCounter++

		case blockWait:
			if l.height.IsInterpolating() {
				return
			}
			for i := range l.chars {
				c := &l.chars[i]
				if c.currentProgress < 1 && c.blockIndex <= l.currentBlockIndex {
					return
				}
			}

			if l.messageFlags&MessageIgnoreInput == 0 {
				switch {
				case block.isAutoClick:
					l.waitKind = waitAutoClick
				case block.isLastWait:
					l.waitKind = waitLast
				default:
					l.waitKind = waitRegular
				}
				l.ticksSinceLastWait = 0
				const skipSpeed = 80
				l.timeToSkipWait.SetTimeLeft(block.waitAutoDelay * (100 - skipSpeed) * 0.01)
				return
			}
			if l.voicePlayerBusy() {
				return
			}
			if block.isLastWait {
				l.notifyMessageDone()
			}

		case blockSection:
			l.completedSections = block.index

		case blockSync:
			if l.receivedSyncs <= block.index {
				return
			}

		case blockVoiceSync:
			l.playVoice(l.voiceBlockIndex, block.segmentStart, block.segmentDuration)

		case blockVoiceWait:
			if l.isVoicePlaying {
				return
			}
		}
		l.currentBlockIndex++
	}
}

func (l *MessageLayer) FastForward() {
	l.props.FastForward()
}

func (l *MessageLayer) PreRender(_ *PreRenderContext, _ *TransformParams) error {
	return nil
}

func (l *MessageLayer) Render(pass *render.RenderPass, parent *TransformParams,
	stencilRef uint8, passKind render.PassKind) error {
	if passKind != render.PassTransparent {
		return nil
	}

	selfTransform := l.props.ComposedTransformParams(parent)
	transform := selfTransform.FinalTransform().
		Mul4(mgl32.Translate3D(-render.VirtualCanvasWidth/2, -render.VirtualCanvasHeight/2, 0))

	builder := render.NewRenderRequestBuilder().
		DepthStencilShorthand(stencilRef, true, false)
	for i := range l.slidingOut {
		box := &l.slidingOut[i]
		if err := l.renderMessagebox(pass, builder, transform,
			box.ty, box.slideOut.Value(), box.height); err != nil {
			return err
		}
	}
	if err := l.renderMessagebox(pass, builder, transform,
		l.messageboxType, l.naturalSlide.Value(), l.height.Value()); err != nil {
		return err
	}

	// Text and keywait only show once the box is fully in place.
	if l.naturalSlide.Value()*l.modalSlide.Value() < 1 {
		return nil
	}
	if len(l.vertices) == 0 {
		return nil
	}

	var positionY float32
	if l.messageboxType == vm.MessageboxNovel {
		positionY = max(32, (render.VirtualCanvasHeight-l.messageSize.Y)*0.35)
	} else {
		positionY = (1-l.naturalSlide.Value())*64 +
			(render.VirtualCanvasHeight - l.height.Value()) - 32
	}

	if l.waitKind == waitRegular || l.waitKind == waitLast {
		if err := l.renderKeywait(pass, transform, positionY); err != nil {
			return err
		}
	}

	if l.messageboxType == vm.MessageboxNoText {
		return nil
	}

	return l.renderText(pass, transform, stencilRef, positionY)
}

// renderMessagebox draws one messagebox window at its slide position.
// The window texture stretches vertically to the measured text height.
func (l *MessageLayer) renderMessagebox(pass *render.RenderPass,
	builder render.RenderRequestBuilder, transform mgl32.Mat4,
	ty vm.MessageboxType, slide, height float32) error {
	if slide <= 0 {
		return nil
	}
	builder = builder.ColorBlendType(render.BlendLayer1)
	color := render.FloatColor4{R: 1, G: 1, B: 1, A: slide}

	if ty == vm.MessageboxNovel {
		// Novel mode dims the whole scene instead of drawing a window.
		dim := render.FloatColor4{A: 0.8 * slide}
		quad := render.NewQuadVertices().
			WithBox(0, 0, render.VirtualCanvasWidth, render.VirtualCanvasHeight)
		return pass.Run(builder.Build(render.ProgramInvocation{
			Program: render.ProgramFill,
			Fill: &render.FillProgram{
				Vertices:  render.VertexData(quad.IntoPosCol(dim.Unorm())),
				Transform: transform,
			},
		}, render.PrimitiveTrianglesStrip))
	}

	window := l.textures.window(ty)
	if window == nil {
		return nil
	}

	top := (1-slide)*64 + (render.VirtualCanvasHeight - height) - 64
	quad := render.NewQuadVertices().
		WithBox(0, top, render.VirtualCanvasWidth, top+height+64)
	return pass.Run(builder.Build(render.ProgramInvocation{
		Program: render.ProgramSprite,
		Sprite: &render.SpriteProgram{
			Vertices:  render.VertexData(quad.IntoPosColTex(color.Unorm())),
			Sprite:    window.Source(),
			Transform: transform,
		},
	}, render.PrimitiveTrianglesStrip))
}

func (l *MessageLayer) renderKeywait(pass *render.RenderPass,
	transform mgl32.Mat4, positionY float32) error {
	builder := render.NewRenderRequestBuilder().
		ColorBlendType(render.BlendLayer1)

	atlasPosX := float32(0)
	if l.waitKind == waitLast {
		atlasPosX = 0.5
	}

	alphaWiggle := float32(math.Sin(float64(l.ticksSinceLastWait.Seconds()) * math.Pi))
	color := render.FloatColor4{R: 1, G: 1, B: 1, A: alphaWiggle*0.4 + 0.6}

	var position mgl32.Vec2
	if l.messageboxType == vm.MessageboxNoText {
		position = mgl32.Vec2{1870, 1030}
	} else {
		position = mgl32.Vec2{
			l.cursorPosition.X + 210,
			l.cursorPosition.Y + positionY - 30,
		}
	}

	quad := render.NewQuadVertices().
		WithBox(0, 0, 30, 30).
		WithTexBox(atlasPosX, 0, atlasPosX+0.5, 1)
	return pass.Run(builder.Build(render.ProgramInvocation{
		Program: render.ProgramSprite,
		Sprite: &render.SpriteProgram{
			Vertices:  render.VertexData(quad.IntoPosColTex(color.Unorm())),
			Sprite:    l.textures.Keywait.Source(),
			Transform: transform.Mul4(mgl32.Translate3D(position.X(), position.Y(), 0)),
		},
	}, render.PrimitiveTrianglesStrip))
}

func (l *MessageLayer) renderText(pass *render.RenderPass,
	transform mgl32.Mat4, stencilRef uint8, positionY float32) error {
	transform = transform.Mul4(mgl32.Translate3D(210, positionY, 0))

	builder := render.NewRenderRequestBuilder().
		ColorBlendType(render.BlendLayer1).
		DepthStencilShorthand(saturatingAddU8(stencilRef, 2), true, true)

	// Borders first so glyph bodies paint over their neighbors'
	// outlines.
	for i := range l.chars {
		c := &l.chars[i]
		vertices := l.vertices[i*verticesPerCharacter : (i+1)*verticesPerCharacter]
		if err := pass.Run(builder.Build(render.ProgramInvocation{
			Program: render.ProgramFontBorder,
			FontBorder: &render.FontBorderProgram{
				Vertices:  render.VertexData(vertices),
				Glyph:     c.glyph.Source(),
				Transform: transform,
				Distances: c.borderDistances,
				Color:     mgl32.Vec4{0, 0, 0, c.currentProgress},
			},
		}, render.PrimitiveTrianglesStrip)); err != nil {
			return err
		}
	}

	for i := range l.chars {
		c := &l.chars[i]
		vertices := l.vertices[i*verticesPerCharacter : (i+1)*verticesPerCharacter]
		color := mgl32.Vec4{c.color.R, c.color.G, c.color.B, c.currentProgress}
		if err := pass.Run(builder.Build(render.ProgramInvocation{
			Program: render.ProgramFont,
			Font: &render.FontProgram{
				Vertices:  render.VertexData(vertices),
				Glyph:     c.glyph.Source(),
				Transform: transform,
				Color1:    color,
				Color2:    color,
			},
		}, render.PrimitiveTrianglesStrip)); err != nil {
			return err
		}
	}
	return nil
}

func (l *MessageLayer) StencilBump() uint8 { return 3 }

// RenderClone shares the fonts, textures and voice player; the clone
// only needs to draw the same frame the original would.
func (l *MessageLayer) RenderClone() Layer {
	c := *l
	c.props = l.props.Clone()
	c.chars = append([]messageChar(nil), l.chars...)
	c.blocks = append([]messageBlock(nil), l.blocks...)
	c.lines = append([]layout.LineInfo(nil), l.lines...)
	c.lineVisible = append([]bool(nil), l.lineVisible...)
	c.vertices = append([]render.TextVertex(nil), l.vertices...)
	c.slidingOut = append([]slidingOutMessagebox(nil), l.slidingOut...)
	return &c
}
