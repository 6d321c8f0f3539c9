// Package layout turns message strings with inline @-escapes into
// time-stamped draw commands.
package layout

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TextLayouter receives the parsed message events in order.
type TextLayouter interface {
	OnMessageStart()
	OnMessageEnd()
	OnChar(codepoint rune)
	OnNewline()
	OnClickWait()
	OnAutoClick()
	OnSetFontScale(scale int32)
	OnSetColor(color int32)
	OnSetDrawSpeed(speed int32)
	OnSetFade(fade int32)
	OnWait(delay int32)
	OnStartParallel()
	OnSection()
	OnSync()
	OnInstantStart()
	OnInstantEnd()
	OnLipsyncEnabled()
	OnLipsyncDisabled()
	OnSetVoiceVolume(volume int32)
	OnVoice(voicePath string)
	OnVoiceSync(targetInstant int32)
	OnVoiceWait()
	OnRubiContent(content string)
	OnRubiBaseStart()
	OnRubiBaseEnd()
	OnBoldStart()
	OnBoldEnd()
}

// MessageTextParser walks a message string and drives a TextLayouter.
type MessageTextParser struct {
	message string
}

func NewMessageTextParser(message string) *MessageTextParser {
	return &MessageTextParser{message: message}
}

func (p *MessageTextParser) readArgument() (string, error) {
	end := strings.IndexByte(p.message, '.')
	if end < 0 {
		return "", fmt.Errorf("unterminated escape argument %q", p.message)
	}
	arg := p.message[:end]
	p.message = p.message[end+1:]
	return arg, nil
}

// readIntArgument parses a decimal argument. An empty argument selects
// the layouter default, encoded as -1.
func (p *MessageTextParser) readIntArgument() (int32, error) {
	arg, err := p.readArgument()
	if err != nil {
		return 0, err
	}
	if arg == "" {
		return -1, nil
	}
	v, err := strconv.ParseUint(arg, 10, 31)
	if err != nil {
		return 0, fmt.Errorf("parsing escape argument %q: %w", arg, err)
	}
	return int32(v), nil
}

// ParseInto feeds the message to the layouter, including the start and
// end events.
func (p *MessageTextParser) ParseInto(l TextLayouter) error {
	l.OnMessageStart()
	for len(p.message) > 0 {
		if err := p.step(l); err != nil {
			return err
		}
	}
	l.OnMessageEnd()
	return nil
}

func (p *MessageTextParser) step(l TextLayouter) error {
	first, size := utf8.DecodeRuneInString(p.message)
	if first != '@' {
		p.message = p.message[size:]
		l.OnChar(first)
		return nil
	}
	command, commandSize := utf8.DecodeRuneInString(p.message[size:])
	if commandSize == 0 {
		return fmt.Errorf("dangling @ at the end of the message")
	}
	p.message = p.message[size+commandSize:]

	switch command {
	case '+':
		l.OnLipsyncEnabled()
	case '-':
		l.OnLipsyncDisabled()
	case 'b':
		arg, err := p.readArgument()
		if err != nil {
			return err
		}
		l.OnRubiContent(arg)
	case '<':
		l.OnRubiBaseStart()
	case '>':
		l.OnRubiBaseEnd()
	case 'a':
		return p.intEscape(l.OnSetFade)
	case 'c':
		return p.intEscape(l.OnSetColor)
	case 'e':
		l.OnAutoClick()
	case 'k':
		l.OnClickWait()
	case 'o':
		return p.intEscape(l.OnSetVoiceVolume)
	case 'r':
		l.OnNewline()
	case 's':
		return p.intEscape(l.OnSetDrawSpeed)
	case 't':
		l.OnStartParallel()
	case 'u':
		l.OnVoiceWait()
	case 'v':
		arg, err := p.readArgument()
		if err != nil {
			return err
		}
		l.OnVoice(arg)
	case 'w':
		return p.intEscape(l.OnWait)
	case 'x':
		return p.intEscape(l.OnVoiceSync)
	case 'y':
		l.OnSync()
	case 'z':
		return p.intEscape(l.OnSetFontScale)
	case '|':
		l.OnSection()
	case '[':
		l.OnInstantStart()
	case ']':
		l.OnInstantEnd()
	case '{':
		l.OnBoldStart()
	case '}':
		l.OnBoldEnd()
	case 'U':
		arg, err := p.readArgument()
		if err != nil {
			return err
		}
		codepoint, err := strconv.ParseUint(arg, 16, 32)
		if err != nil {
			return fmt.Errorf("parsing codepoint escape %q: %w", arg, err)
		}
		l.OnChar(rune(codepoint))
	default:
		return fmt.Errorf("unknown layouter escape @%c", command)
	}
	return nil
}

func (p *MessageTextParser) intEscape(event func(int32)) error {
	v, err := p.readIntArgument()
	if err != nil {
		return err
	}
	event(v)
	return nil
}
