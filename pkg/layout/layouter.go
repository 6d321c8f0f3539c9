package layout

import (
	"sort"
	"strings"

	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// LayoutParams controls line geometry and wrapping behavior.
type LayoutParams struct {
	LayoutWidth   float32
	TextAlignment vm.MessageTextLayout

	// Space above the line.
	LinePaddingAbove float32
	// Space below the line.
	LinePaddingBelow float32
	// Space between consecutive lines.
	LinePaddingBetween float32

	RubiSize                float32
	TextSize                float32
	BaseFontHorizontalScale float32
	FollowKinsokuShoriRules bool
	AlwaysLeaveSpaceForRubi bool
	PerformSoftBreaks       bool
}

// DefaultLayoutParams returns the parameters used outside the message
// layer, mostly by tooling.
func DefaultLayoutParams() LayoutParams {
	return LayoutParams{
		LayoutWidth:             640,
		TextAlignment:           vm.MessageLayoutLeft,
		TextSize:                20,
		BaseFontHorizontalScale: 1,
		FollowKinsokuShoriRules: true,
		PerformSoftBreaks:       true,
	}
}

// Defaults carries the state the @z, @c, @s and @a escapes reset to,
// in raw unparsed form.
type Defaults struct {
	Color     int32
	DrawSpeed int32
	Fade      int32
}

func parseColor(color int32) Color {
	return ColorFromDecimal(color)
}

func parseDrawSpeed(speed int32) float32 {
	speed = min(max(speed, 0), 100)
	return float32(100-speed) * 0.0001 * 0.25
}

func parseFade(fade int32) float32 {
	return float32(max(fade, 0)) * 0.001
}

func parseFontScale(scale int32) float32 {
	return float32(min(max(scale, 10), 200)) * 0.01
}

func parseVoiceVolume(volume int32) float32 {
	return float32(min(max(volume, 0), 100)) * 0.01
}

// layouterMixin lets the message layer hook character-name and
// quotation handling into the base layouter.
type layouterMixin interface {
	onChar(s *layouterState, codepoint rune)
	onNewline(s *layouterState)
	onVoice(s *layouterState, voicePath string)
	finalizeUpTo(s *layouterState, finalizeIndex int, isHardBreak bool)
}

type layouterState struct {
	commands   []Command
	lines      []LineInfo
	fontNormal FontMetrics
	fontBold   FontMetrics
	params     LayoutParams

	defaultFontScale float32
	defaultColor     Color
	defaultDrawSpeed float32
	defaultFade      float32

	finalizedCommandCount int
	position              Vec2

	currentTime    float32
	blockStartTime float32
	blockMaxTime   float32

	fontScale float32
	color     Color
	drawSpeed float32
	fade      float32

	isInsideInstantText bool
	autoClick           bool
	lipsyncEnabled      bool
	voiceVolume         float32

	lastVoiceOrVoiceSyncIndex int
	rubiText                  string
	rubiOpen                  bool
	rubiStartCmdIndex         int
	rubiStartX                float32
	rubiStartTime             float32

	isBold         bool
	sectionCounter uint32
	syncCounter    uint32

	size Vec2
}

func newLayouterState(fontNormal, fontBold FontMetrics, params LayoutParams, defaults Defaults) layouterState {
	if params.RubiSize == 0 {
		params.RubiSize = params.TextSize * 0.4
	}
	return layouterState{
		fontNormal:       fontNormal,
		fontBold:         fontBold,
		params:           params,
		defaultFontScale: 1,
		defaultColor:     parseColor(defaults.Color),
		defaultDrawSpeed: parseDrawSpeed(defaults.DrawSpeed),
		defaultFade:      parseFade(defaults.Fade),
	}
}

func (s *layouterState) blockEndTime() float32 {
	return max(s.currentTime, s.blockMaxTime)
}

func (s *layouterState) onMessageStart() {
	s.commands = s.commands[:0]
	s.lines = s.lines[:0]
	s.finalizedCommandCount = 0
	s.position = Vec2{}

	s.currentTime = 0
	s.blockStartTime = 0
	s.blockMaxTime = 0
	s.fontScale = 1
	s.color = s.defaultColor
	s.drawSpeed = s.defaultDrawSpeed
	s.fade = s.defaultFade
	s.isInsideInstantText = false
	s.autoClick = false
	s.lipsyncEnabled = true
	s.voiceVolume = 1
	s.lastVoiceOrVoiceSyncIndex = 0

	// rubiText is deliberately kept
	s.rubiOpen = false
	s.rubiStartCmdIndex = 0
	s.rubiStartX = 0
	s.rubiStartTime = 0
	s.isBold = false

	// unlike the sync counter, the section counter starts at 1
	s.sectionCounter = 1
	s.syncCounter = 0
	s.size = Vec2{}
}

func (s *layouterState) onMessageEnd(m layouterMixin) {
	s.onRubiBaseEnd()

	cmd := &Wait{
		commandBase: commandBase{time: s.blockEndTime()},
		IsLastWait:  true,
		IsAutoClick: s.autoClick,
	}

	s.blockMaxTime = 0
	s.currentTime += 0.001
	s.blockStartTime = s.currentTime

	s.commands = append(s.commands, cmd)

	m.onNewline(s)

	sort.SliceStable(s.commands, func(i, j int) bool {
		return s.commands[i].Time() < s.commands[j].Time()
	})
}

const (
	shouldNotStartALine = ")>]―’”‥…─♪、。々〉》」』】〕〟ぁぃぅぇぉっゃゅょゎんゝゞァィゥェォッャュョヮヵヶ・ーヽヾ！）：；？｝～"
	shouldNotEndALine   = "(<[‘“〈《「『【〔〝（｛"
)

func (s *layouterState) onChar(codepoint rune) {
	cantBeAtLineStart := strings.ContainsRune(shouldNotStartALine, codepoint)
	cantBeAtLineEnd := strings.ContainsRune(shouldNotEndALine, codepoint)

	if !s.params.FollowKinsokuShoriRules {
		cantBeAtLineStart = false
		cantBeAtLineEnd = false
	}

	font := s.fontNormal
	if s.isBold {
		font = s.fontBold
	}

	glyphInfo, ok := font.GlyphInfo(codepoint)
	if !ok {
		return
	}

	scale := s.params.TextSize / float32(font.Ascent()+font.Descent()) * s.fontScale
	horizontalScale := scale * s.params.BaseFontHorizontalScale
	width := horizontalScale * float32(glyphInfo.AdvanceWidth)
	height := s.params.TextSize * s.fontScale

	if s.rubiOpen {
		// once past the start of the rubi base, line breaks would
		// detach the base from its rubi
		cantBeAtLineStart = s.rubiStartX != s.position.X
	}

	cmd := &Char{
		commandBase:       commandBase{time: s.currentTime},
		Codepoint:         codepoint,
		Bold:              s.isBold,
		CantBeAtLineStart: cantBeAtLineStart,
		CantBeAtLineEnd:   cantBeAtLineEnd,
		HasRubi:           s.rubiOpen,
		Width:             width,
		Height:            height,
		Position:          s.position,
		HorizontalScale:   horizontalScale,
		Scale:             scale,
		Color:             s.color,
		Fade:              s.fade,
	}

	if s.isInsideInstantText {
		cmd.Fade = 0
	} else {
		s.currentTime += cmd.Width * s.drawSpeed

		var punctDelay float32
		switch codepoint {
		case '。':
			punctDelay = 4
		case '、':
			punctDelay = 2
		}
		// not folded into the line above: the float rounding differs
		s.currentTime += s.params.TextSize * punctDelay * s.drawSpeed
	}
	s.position.X += cmd.Width

	s.commands = append(s.commands, cmd)
}

func (s *layouterState) onNewline(m layouterMixin) {
	s.onRubiBaseEnd()

	var newCharIndices []int
	for i := s.finalizedCommandCount; i < len(s.commands); i++ {
		if char, ok := s.commands[i].(*Char); ok && !char.IsRubi {
			// rubi characters do not participate in line breaking
			newCharIndices = append(newCharIndices, i)
		}
	}

	for w := 1; w < len(newCharIndices); w++ {
		prev := s.commands[newCharIndices[w-1]].(*Char)
		current := s.commands[newCharIndices[w]].(*Char)

		// propagate the prohibition rules across neighbors
		if current.CantBeAtLineStart {
			prev.CantBeAtLineEnd = true
		} else if prev.CantBeAtLineEnd {
			current.CantBeAtLineStart = true
		}
	}

	if len(newCharIndices) > 0 {
		// the edge characters have no choice
		s.commands[newCharIndices[0]].(*Char).CantBeAtLineStart = false
		s.commands[newCharIndices[len(newCharIndices)-1]].(*Char).CantBeAtLineEnd = false
	}

	if s.params.PerformSoftBreaks {
		for len(newCharIndices) > 0 {
			validLineEnd := len(newCharIndices)
			charIt := len(newCharIndices)
			for indexIdx, cmdIdx := range newCharIndices {
				char := s.commands[cmdIdx].(*Char)
				// the layout width can change inside finalizeUpTo
				layoutWidth := s.params.LayoutWidth
				if char.Position.X >= layoutWidth ||
					char.rightBorder() > layoutWidth+layoutWidth*0.05 {
					// a soft break is needed before this character
					if validLineEnd != len(newCharIndices) {
						charIt = validLineEnd
					} else {
						charIt = indexIdx
					}
					break
				}

				charIt = indexIdx + 1
				if char.CantBeAtLineEnd {
					charIt = validLineEnd
				}
				validLineEnd = charIt
			}

			if charIt == len(newCharIndices) {
				break
			}

			m.finalizeUpTo(s, newCharIndices[charIt], false)

			newCharIndices = newCharIndices[charIt:]
		}
	}

	m.finalizeUpTo(s, len(s.commands), true)
	s.position.X = 0
}

func (s *layouterState) onClickWait() {
	s.onRubiBaseEnd()

	cmd := &Wait{commandBase: commandBase{time: s.blockEndTime()}}

	s.blockMaxTime = 0
	s.currentTime += 0.001
	s.blockStartTime = s.currentTime

	s.commands = append(s.commands, cmd)
}

func (s *layouterState) onAutoClick() {
	s.autoClick = true
}

func (s *layouterState) onSetFontScale(scale int32) {
	if scale < 0 {
		s.fontScale = s.defaultFontScale
	} else {
		s.fontScale = parseFontScale(scale)
	}
}

func (s *layouterState) onSetColor(color int32) {
	if color < 0 {
		s.color = s.defaultColor
	} else {
		s.color = parseColor(color)
	}
}

func (s *layouterState) onSetDrawSpeed(speed int32) {
	if speed < 0 {
		s.drawSpeed = s.defaultDrawSpeed
	} else {
		s.drawSpeed = parseDrawSpeed(speed)
	}
}

func (s *layouterState) onSetFade(fade int32) {
	if fade < 0 {
		s.fade = s.defaultFade
	} else {
		s.fade = parseFade(fade)
	}
}

func (s *layouterState) onWait(delay int32) {
	s.currentTime += float32(delay) * 0.001
}

func (s *layouterState) onStartParallel() {
	if s.blockMaxTime < s.currentTime {
		s.blockMaxTime = s.currentTime
	}
	s.currentTime = s.blockStartTime
}

func (s *layouterState) onSection() {
	cmd := &Section{
		commandBase: commandBase{time: s.blockEndTime()},
		Index:       s.sectionCounter,
	}

	s.sectionCounter++

	s.currentTime = cmd.time
	s.blockStartTime = s.currentTime
	s.blockMaxTime = 0

	s.commands = append(s.commands, cmd)
}

func (s *layouterState) onSync() {
	s.onRubiBaseEnd()

	cmd := &Sync{
		commandBase: commandBase{time: s.blockEndTime()},
		Index:       s.syncCounter,
	}

	s.syncCounter++

	s.currentTime = cmd.time + 0.001
	s.blockStartTime = s.currentTime
	s.blockMaxTime = 0

	s.commands = append(s.commands, cmd)
}

func (s *layouterState) onInstantStart() {
	s.onRubiBaseEnd()
	s.isInsideInstantText = true
}

func (s *layouterState) onInstantEnd() {
	s.onRubiBaseEnd()
	s.isInsideInstantText = false
}

func (s *layouterState) onSetVoiceVolume(volume int32) {
	if volume < 0 {
		s.voiceVolume = 1
	} else {
		s.voiceVolume = parseVoiceVolume(volume)
	}
}

func (s *layouterState) onVoice(voicePath string) {
	s.onRubiBaseEnd()

	cmd := &Voice{
		commandBase:    commandBase{time: s.currentTime},
		Filename:       voicePath,
		Volume:         s.voiceVolume,
		LipsyncEnabled: s.lipsyncEnabled,
	}

	s.blockStartTime = s.currentTime
	s.blockMaxTime = 0

	s.lastVoiceOrVoiceSyncIndex = len(s.commands)

	s.commands = append(s.commands, cmd)
}

func (s *layouterState) onVoiceSync(targetInstant int32) {
	s.onRubiBaseEnd()

	cmd := &VoiceSync{
		commandBase:   commandBase{time: s.blockEndTime()},
		TargetInstant: targetInstant,
	}

	if s.lastVoiceOrVoiceSyncIndex < len(s.commands) {
		switch prev := s.commands[s.lastVoiceOrVoiceSyncIndex].(type) {
		case *Voice:
			prev.TimeToFirstSync = targetInstant
		case *VoiceSync:
			prev.TimeToNextSync = targetInstant - prev.TargetInstant
		}
	}

	s.currentTime = cmd.time
	s.blockStartTime = s.currentTime
	s.blockMaxTime = 0

	s.lastVoiceOrVoiceSyncIndex = len(s.commands)

	s.commands = append(s.commands, cmd)
}

func (s *layouterState) onVoiceWait() {
	cmd := &VoiceWait{commandBase: commandBase{time: s.blockEndTime()}}

	s.currentTime = cmd.time + 0.001
	s.blockStartTime = s.currentTime
	s.blockMaxTime = 0

	s.commands = append(s.commands, cmd)
}

func (s *layouterState) onRubiContent(content string) {
	s.rubiText = content
}

func (s *layouterState) onRubiBaseStart() {
	if s.rubiOpen {
		return
	}

	s.rubiOpen = true
	s.rubiStartCmdIndex = len(s.commands)
	s.rubiStartX = s.position.X
	s.rubiStartTime = s.currentTime
}

// reflowChars spreads extra width and time evenly between the
// characters of the narrower of the rubi and base runs.
func reflowChars(chars []*Char, extraWidth, extraTime float32) {
	widthForEach := extraWidth / float32(len(chars)+1)
	timeForEach := extraTime / float32(len(chars)+1)
	posX := widthForEach
	time := timeForEach

	for _, char := range chars {
		char.Position.X += posX
		char.time += time

		posX += widthForEach
		time += timeForEach
	}
}

func (s *layouterState) onRubiBaseEnd() {
	if !s.rubiOpen {
		return
	}

	if s.rubiText == "" || s.rubiStartX == s.position.X {
		s.rubiOpen = false
		return
	}

	baseChars := make([]*Char, 0, len(s.commands)-s.rubiStartCmdIndex)
	for _, cmd := range s.commands[s.rubiStartCmdIndex:] {
		if char, ok := cmd.(*Char); ok {
			baseChars = append(baseChars, char)
		}
	}

	font := s.fontNormal
	scale := s.params.RubiSize / float32(font.Ascent()+font.Descent())
	horizontalScale := scale * s.params.BaseFontHorizontalScale

	var rubiChars []*Char
	var rubiPosX, rubiTime float32

	for _, codepoint := range s.rubiText {
		glyphInfo, ok := font.GlyphInfo(codepoint)
		if !ok {
			continue
		}

		width := horizontalScale * float32(glyphInfo.AdvanceWidth)

		cmd := &Char{
			commandBase:     commandBase{time: s.rubiStartTime + rubiTime},
			Codepoint:       codepoint,
			IsRubi:          true,
			Width:           width,
			Height:          s.params.RubiSize,
			Position:        Vec2{X: s.rubiStartX + rubiPosX, Y: s.position.Y},
			HorizontalScale: horizontalScale,
			Scale:           scale,
			Color:           s.color,
			// instant text keeps the fade here, matching the game
			Fade: s.fade,
		}

		rubiChars = append(rubiChars, cmd)

		if !s.isInsideInstantText {
			rubiTime += width * s.drawSpeed
		}
		rubiPosX += width
	}

	rubiWidth := rubiPosX
	baseWidth := s.position.X - s.rubiStartX
	baseTime := s.currentTime - s.rubiStartTime

	if rubiWidth <= baseWidth {
		// spread out the narrower rubi text, cursor stays put
		reflowChars(rubiChars, baseWidth-rubiWidth, baseTime-rubiTime)
	} else {
		reflowChars(baseChars, rubiWidth-baseWidth, rubiTime-baseTime)

		s.position.X = s.rubiStartX + rubiWidth
		s.currentTime = s.rubiStartTime + rubiTime
	}

	for _, cmd := range rubiChars {
		s.commands = append(s.commands, cmd)
	}

	s.rubiOpen = false
}

func (s *layouterState) onBoldStart() {
	s.isBold = true
}

func (s *layouterState) onBoldEnd() {
	s.isBold = false
}

func (s *layouterState) finalizeUpTo(finalizeIndex int, isHardBreak bool) {
	newCommands := s.commands[s.finalizedCommandCount:finalizeIndex]

	var maxWidth, lineHeight, rubiHeight float32
	charCount := 0
	for _, cmd := range newCommands {
		char, ok := cmd.(*Char)
		if !ok {
			continue
		}
		if char.IsRubi {
			rubiHeight = s.params.RubiSize
			maxWidth = max(maxWidth, char.Position.X+char.Width)
		} else {
			lineHeight = max(lineHeight, char.Height)
			maxWidth = max(maxWidth, char.Position.X+char.Width)

			if s.params.AlwaysLeaveSpaceForRubi {
				rubiHeight = s.params.RubiSize
			}

			charCount++
		}
	}

	if charCount == 0 {
		lineHeight = s.params.TextSize * s.fontScale
		if s.params.AlwaysLeaveSpaceForRubi {
			// rubi height is not scaled
			rubiHeight = s.params.RubiSize
		}
	}

	layoutWidth := s.params.LayoutWidth
	lineWidth := maxWidth

	ascent := float32(s.fontNormal.Ascent())
	descent := float32(s.fontNormal.Descent())

	baselineHeight := lineHeight
	if charCount == 0 {
		// the baseline of an empty line ignores the font scale
		baselineHeight = s.params.TextSize
	}
	ascentScaled := baselineHeight / (ascent + descent) * ascent
	rubiAscentScaled := rubiHeight / (ascent + descent) * ascent

	if charCount > 0 {
		if maxWidth >= layoutWidth {
			// overflow is at most 5%, squish the line to fit
			squish := layoutWidth / maxWidth
			for _, cmd := range newCommands {
				if char, ok := cmd.(*Char); ok {
					char.Position.X *= squish
					char.Width *= squish
					char.HorizontalScale *= squish
				}
			}
			lineWidth = layoutWidth
		} else if !isHardBreak && s.isJustified() &&
			layoutWidth-maxWidth < layoutWidth*0.05 {
			// stretch a nearly-full non-final line to the margin
			for _, cmd := range newCommands {
				if char, ok := cmd.(*Char); ok {
					xPos := char.Position.X
					char.Position.X = (s.params.LayoutWidth - char.Width) *
						(xPos / (xPos + (maxWidth - (xPos + char.Width))))
				}
			}
			lineWidth = layoutWidth
		}

		var xOffset float32
		switch s.params.TextAlignment {
		case vm.MessageLayoutCenter:
			xOffset = (layoutWidth - lineWidth) / 2
		case vm.MessageLayoutRight:
			xOffset = layoutWidth - lineWidth
		}

		for _, cmd := range newCommands {
			if char, ok := cmd.(*Char); ok {
				char.Position.X += xOffset
				char.Position.Y += s.params.LinePaddingAbove
				if char.IsRubi {
					char.Position.Y += rubiAscentScaled
				} else {
					char.Position.Y += rubiHeight + ascentScaled
				}
			}
		}
	}

	for _, cmd := range newCommands {
		cmd.setLineIndex(len(s.lines))
	}

	lineAdvance := s.params.LinePaddingAbove + rubiHeight + lineHeight + s.params.LinePaddingBelow
	s.lines = append(s.lines, LineInfo{
		Width:       lineWidth,
		YPosition:   s.position.Y,
		LineAdvance: lineAdvance,
		TotalHeight: s.params.LinePaddingAbove + rubiHeight + ascentScaled,
		RubiHeight:  rubiHeight,
	})

	s.size.X = max(s.size.X, lineWidth)

	lineAdvanceFinal := lineAdvance + s.params.LinePaddingBetween

	s.size.Y = s.position.Y + lineAdvance

	// move the characters after the finalized ones onto the next line
	isFirstCharacter := true
	// the shift uses the virtual line width from before any overflow
	// or justification correction
	negativeOffset := maxWidth
	for _, cmd := range s.commands[finalizeIndex:] {
		char, ok := cmd.(*Char)
		if !ok {
			continue
		}
		// eat an ideographic space at the start of the new line
		if isFirstCharacter && !char.HasRubi && char.Codepoint == '　' {
			negativeOffset += char.Width
			char.Width = 0
			char.HorizontalScale = 0
		}
		isFirstCharacter = false

		char.Position.X -= negativeOffset
		char.Position.Y += lineAdvanceFinal
	}

	// the eaten space is deliberately not subtracted here
	s.position.X -= maxWidth
	s.position.Y += lineAdvanceFinal
	s.finalizedCommandCount = finalizeIndex
}

func (s *layouterState) isJustified() bool {
	switch s.params.TextAlignment {
	case vm.MessageLayoutLeft, vm.MessageLayoutLayout1:
		return true
	}
	return false
}
