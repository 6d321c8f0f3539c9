package layout

// Vec2 is a position in messagebox units.
type Vec2 struct {
	X, Y float32
}

// Color is normalized RGB.
type Color struct {
	R, G, B float32
}

// ColorFromDecimal expands the three-digit decimal notation used by
// the @c escape: each digit maps 0..9 onto 0..1.
func ColorFromDecimal(v int32) Color {
	return Color{
		R: float32(v/100%10) / 9,
		G: float32(v/10%10) / 9,
		B: float32(v%10) / 9,
	}
}

// Command is one element of a laid-out message, ordered by Time.
type Command interface {
	Time() float32
	setLineIndex(int)
}

type commandBase struct {
	time      float32
	lineIndex int
}

func (c *commandBase) Time() float32        { return c.time }
func (c *commandBase) setLineIndex(idx int) { c.lineIndex = idx }
func (c *commandBase) LineIndex() int       { return c.lineIndex }

// Char draws one glyph.
type Char struct {
	commandBase
	Codepoint         rune
	Bold              bool
	IsRubi            bool
	CantBeAtLineStart bool
	CantBeAtLineEnd   bool
	HasRubi           bool
	Width             float32
	Height            float32
	Position          Vec2
	HorizontalScale   float32
	Scale             float32
	Color             Color
	Fade              float32
}

func (c *Char) rightBorder() float32 {
	return c.Position.X + c.Width
}

// Section marks a point where the scenario can observe message
// progress.
type Section struct {
	commandBase
	Index uint32
}

// Sync suspends the message until the scenario signals.
type Sync struct {
	commandBase
	Index uint32
}

// Voice starts voice playback.
type Voice struct {
	commandBase
	Filename        string
	Volume          float32
	LipsyncEnabled  bool
	TimeToFirstSync int32
}

// VoiceSync aligns text drawing with a point inside the voice clip.
type VoiceSync struct {
	commandBase
	TargetInstant  int32
	TimeToNextSync int32
}

// VoiceWait blocks until voice playback finishes.
type VoiceWait struct {
	commandBase
}

// Wait blocks for a click (or for the auto-click timer).
type Wait struct {
	commandBase
	IsLastWait  bool
	IsAutoClick bool
}

// LineInfo describes one finalized line.
type LineInfo struct {
	Width     float32
	YPosition float32
	// Distance from YPosition to the next line's YPosition, without
	// the between-line padding.
	LineAdvance float32
	// Distance from YPosition to the baseline of the base text.
	TotalHeight float32
	RubiHeight  float32
}
