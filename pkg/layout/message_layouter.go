package layout

import "github.com/DCNick3/shin-sub001/pkg/vm"

// MessageTextLayouter lays out message text. Behavior is extended by a
// mixin: the plain layouter is used by tooling, the message layer
// variant adds character-name and quotation handling.
type MessageTextLayouter struct {
	state layouterState
	mixin layouterMixin
}

// NewMessageTextLayouter builds the plain layouter.
func NewMessageTextLayouter(fontNormal, fontBold FontMetrics, params LayoutParams, defaults Defaults) *MessageTextLayouter {
	return &MessageTextLayouter{
		state: newLayouterState(fontNormal, fontBold, params, defaults),
		mixin: noMixin{},
	}
}

// NewMessageLayerLayouter builds the layouter used by the message
// layer, with the character name line and quotation indent logic.
func NewMessageLayerLayouter(fontNormal, fontBold FontMetrics, messageboxType vm.MessageboxType, params LayoutParams, defaults Defaults) *MessageTextLayouter {
	return &MessageTextLayouter{
		state: newLayouterState(fontNormal, fontBold, params, defaults),
		mixin: &messageLayerMixin{messageboxType: messageboxType},
	}
}

// Finish returns the laid-out commands, the per-line geometry and the
// total size of the text block.
func (l *MessageTextLayouter) Finish() ([]Command, []LineInfo, Vec2) {
	return l.state.commands, l.state.lines, l.state.size
}

func (l *MessageTextLayouter) OnMessageStart() {
	l.state.onMessageStart()
	if m, ok := l.mixin.(*messageLayerMixin); ok {
		m.reset()
	}
}

func (l *MessageTextLayouter) OnMessageEnd()         { l.state.onMessageEnd(l.mixin) }
func (l *MessageTextLayouter) OnChar(codepoint rune) { l.mixin.onChar(&l.state, codepoint) }
func (l *MessageTextLayouter) OnNewline()            { l.mixin.onNewline(&l.state) }
func (l *MessageTextLayouter) OnClickWait()          { l.state.onClickWait() }
func (l *MessageTextLayouter) OnAutoClick()          { l.state.onAutoClick() }

func (l *MessageTextLayouter) OnSetFontScale(scale int32) { l.state.onSetFontScale(scale) }
func (l *MessageTextLayouter) OnSetColor(color int32)     { l.state.onSetColor(color) }
func (l *MessageTextLayouter) OnSetDrawSpeed(speed int32) { l.state.onSetDrawSpeed(speed) }
func (l *MessageTextLayouter) OnSetFade(fade int32)       { l.state.onSetFade(fade) }
func (l *MessageTextLayouter) OnWait(delay int32)         { l.state.onWait(delay) }
func (l *MessageTextLayouter) OnStartParallel()           { l.state.onStartParallel() }
func (l *MessageTextLayouter) OnSection()                 { l.state.onSection() }
func (l *MessageTextLayouter) OnSync()                    { l.state.onSync() }
func (l *MessageTextLayouter) OnInstantStart()            { l.state.onInstantStart() }
func (l *MessageTextLayouter) OnInstantEnd()              { l.state.onInstantEnd() }
func (l *MessageTextLayouter) OnLipsyncEnabled()          { l.state.lipsyncEnabled = true }
func (l *MessageTextLayouter) OnLipsyncDisabled()         { l.state.lipsyncEnabled = false }

func (l *MessageTextLayouter) OnSetVoiceVolume(volume int32) { l.state.onSetVoiceVolume(volume) }
func (l *MessageTextLayouter) OnVoice(voicePath string)      { l.mixin.onVoice(&l.state, voicePath) }
func (l *MessageTextLayouter) OnVoiceSync(target int32)      { l.state.onVoiceSync(target) }
func (l *MessageTextLayouter) OnVoiceWait()                  { l.state.onVoiceWait() }

func (l *MessageTextLayouter) OnRubiContent(content string) { l.state.onRubiContent(content) }
func (l *MessageTextLayouter) OnRubiBaseStart()             { l.state.onRubiBaseStart() }
func (l *MessageTextLayouter) OnRubiBaseEnd()               { l.state.onRubiBaseEnd() }
func (l *MessageTextLayouter) OnBoldStart()                 { l.state.onBoldStart() }
func (l *MessageTextLayouter) OnBoldEnd()                   { l.state.onBoldEnd() }

// noMixin passes everything straight through.
type noMixin struct{}

func (noMixin) onChar(s *layouterState, codepoint rune) { s.onChar(codepoint) }
func (m noMixin) onNewline(s *layouterState)            { s.onNewline(m) }
func (noMixin) onVoice(s *layouterState, path string)   { s.onVoice(path) }
func (noMixin) finalizeUpTo(s *layouterState, finalizeIndex int, isHardBreak bool) {
	s.finalizeUpTo(finalizeIndex, isHardBreak)
}

type quotationState int

const (
	quotationIgnored quotationState = -1
	quotationUninit  quotationState = 0
	quotationOpen    quotationState = 1
)

// messageLayerMixin renders the first line as the character name and
// indents continuation lines of quoted speech.
type messageLayerMixin struct {
	messageboxType  vm.MessageboxType
	lineIndex       int
	quotationState  quotationState
	quotationOpener rune
	quotationLevel  int32
	quotationIndent float32
}

const (
	characterNameFontSize = 90
	characterNameWidth    = 360.0
)

func (m *messageLayerMixin) reset() {
	m.lineIndex = 0
	m.quotationState = quotationUninit
	m.quotationOpener = 0
	m.quotationLevel = 0
	m.quotationIndent = 0
}

func (m *messageLayerMixin) onChar(s *layouterState, codepoint rune) {
	if m.lineIndex == 0 {
		// the first line carries the character name
		if m.messageboxType == vm.MessageboxNovel {
			// novel mode does not render it
			return
		}
		s.fontScale = parseFontScale(characterNameFontSize)
		s.isInsideInstantText = true
	}
	s.onChar(codepoint)
}

func (m *messageLayerMixin) onNewline(s *layouterState) {
	if m.lineIndex == 0 {
		if m.messageboxType != vm.MessageboxNovel {
			oldLeaveSpaceForRubi := s.params.AlwaysLeaveSpaceForRubi
			s.params.AlwaysLeaveSpaceForRubi = true
			s.fontScale = parseFontScale(characterNameFontSize)
			// bypass the mixin: quotation handling must not see the
			// character name
			s.finalizeUpTo(len(s.commands), true)

			lineInfo := &s.lines[0]
			if lineInfo.Width > 0 {
				var xOffset float32
				if lineInfo.Width < characterNameWidth {
					// center the name in its slot
					xOffset = (characterNameWidth - lineInfo.Width) / 2
					lineInfo.Width = characterNameWidth
				}

				for _, cmd := range s.commands {
					char, ok := cmd.(*Char)
					if !ok {
						continue
					}
					char.Position.X += xOffset
					if !char.IsRubi {
						char.Position.Y -= s.params.RubiSize
					}
				}
			}

			s.fontScale = s.defaultFontScale
			s.position.Y -= s.params.LinePaddingBetween + s.params.RubiSize - 20
			s.isInsideInstantText = false
			s.params.AlwaysLeaveSpaceForRubi = oldLeaveSpaceForRubi
		}
	} else {
		s.onNewline(m)
		if m.quotationState == quotationIgnored {
			m.quotationState = quotationUninit
		}
	}
	m.lineIndex++
}

func (m *messageLayerMixin) onVoice(s *layouterState, voicePath string) {
	s.onVoice(voicePath)
}

func (m *messageLayerMixin) finalizeUpTo(s *layouterState, finalizeIndex int, isHardBreak bool) {
	// the call below advances finalizedCommandCount, remember the old
	// value for the quotation scan
	finalizedCommandCount := s.finalizedCommandCount
	s.finalizeUpTo(finalizeIndex, isHardBreak)

	switch m.quotationState {
	case quotationUninit:
		for _, cmd := range s.commands[finalizedCommandCount:finalizeIndex] {
			char, ok := cmd.(*Char)
			if !ok || char.IsRubi {
				continue
			}
			if char.Codepoint != '「' && char.Codepoint != '（' && char.Codepoint != '『' {
				m.quotationState = quotationIgnored
				return
			}
			s.params.LayoutWidth += m.quotationIndent
			m.quotationState = quotationOpen
			m.quotationIndent = char.Width
			m.quotationOpener = char.Codepoint
			m.quotationLevel = 0
			s.params.LayoutWidth -= m.quotationIndent
			break
		}
	case quotationOpen:
		for _, cmd := range s.commands[finalizedCommandCount:finalizeIndex] {
			if char, ok := cmd.(*Char); ok {
				char.Position.X += m.quotationIndent
			}
		}
	case quotationIgnored:
		return
	}

	for _, cmd := range s.commands[finalizedCommandCount:finalizeIndex] {
		char, ok := cmd.(*Char)
		if !ok || char.IsRubi {
			continue
		}
		if char.Codepoint == m.quotationOpener {
			m.quotationLevel++
		} else if char.Codepoint == m.quotationOpener+1 {
			m.quotationLevel--
		}
	}

	if m.quotationLevel < 1 {
		s.params.LayoutWidth += m.quotationIndent
		m.quotationIndent = 0
		m.quotationState = quotationUninit
	}
}
