package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/DCNick3/shin-sub001/pkg/format/font"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// fakeFont gives every glyph the same advance so positions are easy to
// compute by hand.
type fakeFont struct {
	advance uint8
}

func (f fakeFont) Ascent() int  { return 20 }
func (f fakeFont) Descent() int { return 5 }

func (f fakeFont) GlyphInfo(codepoint rune) (font.GlyphInfo, bool) {
	return font.GlyphInfo{AdvanceWidth: f.advance}, true
}

func testParams(width float32) LayoutParams {
	return LayoutParams{
		LayoutWidth:             width,
		TextAlignment:           vm.MessageLayoutLeft,
		TextSize:                25,
		BaseFontHorizontalScale: 1,
		FollowKinsokuShoriRules: true,
		PerformSoftBreaks:       true,
	}
}

func testDefaults() Defaults {
	return Defaults{Color: 999, DrawSpeed: 100, Fade: 0}
}

func layoutPlain(t *testing.T, message string, params LayoutParams, defaults Defaults) ([]Command, []LineInfo, Vec2) {
	t.Helper()
	l := NewMessageTextLayouter(fakeFont{advance: 20}, fakeFont{advance: 20}, params, defaults)
	if err := NewMessageTextParser(message).ParseInto(l); err != nil {
		t.Fatalf("ParseInto: %v", err)
	}
	return l.Finish()
}

func chars(commands []Command) []*Char {
	var out []*Char
	for _, cmd := range commands {
		if char, ok := cmd.(*Char); ok {
			out = append(out, char)
		}
	}
	return out
}

func charString(cs []*Char) string {
	var out []rune
	for _, c := range cs {
		out = append(out, c.Codepoint)
	}
	return string(out)
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestHardNewlineGeometry(t *testing.T) {
	commands, lines, size := layoutPlain(t, "AB@rCD", testParams(1000), testDefaults())

	cs := chars(commands)
	if charString(cs) != "ABCD" {
		t.Fatalf("chars = %q", charString(cs))
	}
	// the glyph advance is 20 at text size 25, the baseline sits at
	// the scaled ascent
	for i, want := range []Vec2{{0, 20}, {20, 20}, {0, 45}, {20, 45}} {
		if !near(cs[i].Position.X, want.X) || !near(cs[i].Position.Y, want.Y) {
			t.Errorf("char %d at %+v, want %+v", i, cs[i].Position, want)
		}
	}
	if cs[0].LineIndex() != 0 || cs[2].LineIndex() != 1 {
		t.Errorf("line indices = %d, %d", cs[0].LineIndex(), cs[2].LineIndex())
	}
	if len(lines) != 2 || !near(lines[0].Width, 40) {
		t.Errorf("lines = %+v", lines)
	}
	if !near(size.X, 40) || !near(size.Y, 50) {
		t.Errorf("size = %+v", size)
	}

	last := commands[len(commands)-1]
	wait, ok := last.(*Wait)
	if !ok || !wait.IsLastWait {
		t.Errorf("last command = %#v, want the terminal wait", last)
	}
}

func TestSoftWrap(t *testing.T) {
	commands, lines, _ := layoutPlain(t, "ABCD", testParams(50), testDefaults())

	cs := chars(commands)
	if cs[1].LineIndex() != 0 || cs[2].LineIndex() != 1 {
		t.Fatalf("wrap put chars on lines %d/%d, want 0/1", cs[1].LineIndex(), cs[2].LineIndex())
	}
	if !near(cs[2].Position.X, 0) || !near(cs[3].Position.X, 20) {
		t.Errorf("wrapped chars at x=%v, %v", cs[2].Position.X, cs[3].Position.X)
	}
	if len(lines) != 2 {
		t.Errorf("lines = %d, want 2", len(lines))
	}
}

func TestKinsokuShori(t *testing.T) {
	commands, _, _ := layoutPlain(t, "AB。C", testParams(50), testDefaults())

	// the full stop cannot start a line, so B moves with it
	cs := chars(commands)
	wantLines := []int{0, 1, 1, 2}
	for i, want := range wantLines {
		if cs[i].LineIndex() != want {
			t.Errorf("char %c on line %d, want %d", cs[i].Codepoint, cs[i].LineIndex(), want)
		}
	}
}

func TestKinsokuDisabled(t *testing.T) {
	params := testParams(50)
	params.FollowKinsokuShoriRules = false
	commands, _, _ := layoutPlain(t, "AB。C", params, testDefaults())

	cs := chars(commands)
	if cs[1].LineIndex() != 0 || cs[2].LineIndex() != 1 {
		t.Errorf("lines = %d/%d, want plain wrap 0/1", cs[1].LineIndex(), cs[2].LineIndex())
	}
}

func TestOverflowSquish(t *testing.T) {
	params := testParams(50)
	params.PerformSoftBreaks = false
	commands, lines, _ := layoutPlain(t, "ABC@r", params, testDefaults())

	cs := chars(commands)
	squish := float32(50.0 / 60.0)
	for i, c := range cs {
		if !near(c.Width, 20*squish) || !near(c.Position.X, float32(i)*20*squish) {
			t.Errorf("char %d = width %v at x=%v", i, c.Width, c.Position.X)
		}
	}
	if !near(lines[0].Width, 50) {
		t.Errorf("line width = %v, want the layout width", lines[0].Width)
	}
}

func TestJustify(t *testing.T) {
	commands, _, _ := layoutPlain(t, "ABCD", testParams(62), testDefaults())

	// the first line misses the margin by less than 5% and gets
	// stretched to it
	cs := chars(commands)
	if !near(cs[0].Position.X, 0) || !near(cs[1].Position.X, 21) || !near(cs[2].Position.X, 42) {
		t.Errorf("justified positions = %v, %v, %v, want 0, 21, 42",
			cs[0].Position.X, cs[1].Position.X, cs[2].Position.X)
	}
}

func TestCenterAlignment(t *testing.T) {
	params := testParams(100)
	params.TextAlignment = vm.MessageLayoutCenter
	commands, _, _ := layoutPlain(t, "AB@r", params, testDefaults())

	cs := chars(commands)
	if !near(cs[0].Position.X, 30) || !near(cs[1].Position.X, 50) {
		t.Errorf("centered positions = %v, %v, want 30, 50", cs[0].Position.X, cs[1].Position.X)
	}
}

func TestRubiNarrowerThanBase(t *testing.T) {
	commands, _, _ := layoutPlain(t, "@bふり.@<漢@>", testParams(1000), testDefaults())

	cs := chars(commands)
	if charString(cs) != "漢ふり" {
		t.Fatalf("chars = %q", charString(cs))
	}
	base, rubi1, rubi2 := cs[0], cs[1], cs[2]
	if rubi1.IsRubi != true || base.IsRubi {
		t.Fatal("rubi flags are wrong")
	}
	// rubi size defaults to 10, so rubi glyphs are 8 wide; the 4 units
	// of slack spread into thirds
	if !near(rubi1.Position.X, 4.0/3) || !near(rubi2.Position.X, 8+2*4.0/3) {
		t.Errorf("rubi at x=%v, %v", rubi1.Position.X, rubi2.Position.X)
	}
	// the base line leaves room for the rubi above it
	if !near(base.Position.Y, 10+20) || !near(rubi1.Position.Y, 8) {
		t.Errorf("y positions = %v, %v", base.Position.Y, rubi1.Position.Y)
	}
}

func TestRubiWiderThanBase(t *testing.T) {
	commands, _, _ := layoutPlain(t, "@bふりが.@<漢@>X", testParams(1000), testDefaults())

	cs := chars(commands)
	var base, next *Char
	for _, c := range cs {
		switch c.Codepoint {
		case '漢':
			base = c
		case 'X':
			next = c
		}
	}
	// three rubi glyphs are 24 wide over a 20 wide base: the base is
	// re-centered and the cursor moves past the rubi
	if !near(base.Position.X, 2) {
		t.Errorf("base at x=%v, want 2", base.Position.X)
	}
	if !near(next.Position.X, 24) {
		t.Errorf("following char at x=%v, want 24", next.Position.X)
	}
}

func TestWaitTiming(t *testing.T) {
	commands, _, _ := layoutPlain(t, "A@w100.B", testParams(1000), testDefaults())

	// draw speed 100 parses to 0.0025 per unit, chars are 20 wide
	perChar := float32(0.0025 * 20)
	cs := chars(commands)
	if !near(cs[0].Time(), 0) || !near(cs[1].Time(), perChar+0.1) {
		t.Errorf("char times = %v, %v", cs[0].Time(), cs[1].Time())
	}

	wait := commands[len(commands)-1].(*Wait)
	if !near(wait.Time(), 2*perChar+0.1) {
		t.Errorf("terminal wait at %v, want %v", wait.Time(), 2*perChar+0.1)
	}
}

func TestInstantTextHasNoFadeOrDelay(t *testing.T) {
	defaults := testDefaults()
	defaults.Fade = 200
	commands, _, _ := layoutPlain(t, "@[AB@]C", testParams(1000), defaults)

	cs := chars(commands)
	if cs[0].Fade != 0 || cs[1].Fade != 0 {
		t.Error("instant text kept its fade")
	}
	if !near(cs[1].Time(), 0) {
		t.Errorf("instant char at time %v, want 0", cs[1].Time())
	}
	if cs[2].Fade == 0 {
		t.Error("fade did not come back after @]")
	}
}

func layoutMessageLayer(t *testing.T, boxType vm.MessageboxType, message string) ([]Command, []LineInfo, Vec2) {
	t.Helper()
	params := testParams(1000)
	params.RubiSize = 10
	l := NewMessageLayerLayouter(fakeFont{advance: 20}, fakeFont{advance: 20}, boxType, params, testDefaults())
	if err := NewMessageTextParser(message).ParseInto(l); err != nil {
		t.Fatalf("ParseInto: %v", err)
	}
	return l.Finish()
}

func TestCharacterNameCentering(t *testing.T) {
	commands, lines, _ := layoutMessageLayer(t, vm.MessageboxUshiromiya, "名前@rAB")

	cs := chars(commands)
	if charString(cs) != "名前AB" {
		t.Fatalf("chars = %q", charString(cs))
	}
	// two name glyphs at 90% scale are 36 wide, centered in the
	// 360-unit name slot
	if !near(cs[0].Position.X, 162) || !near(cs[1].Position.X, 180) {
		t.Errorf("name at x=%v, %v, want 162, 180", cs[0].Position.X, cs[1].Position.X)
	}
	if !near(lines[0].Width, 360) {
		t.Errorf("name line width = %v, want 360", lines[0].Width)
	}
	if cs[2].LineIndex() != 1 || !near(cs[2].Position.X, 0) {
		t.Errorf("body starts at line %d x=%v", cs[2].LineIndex(), cs[2].Position.X)
	}
	if !near(cs[2].Scale, 1) {
		t.Errorf("body scale = %v, want the default", cs[2].Scale)
	}
}

func TestNovelModeSkipsCharacterName(t *testing.T) {
	commands, _, _ := layoutMessageLayer(t, vm.MessageboxNovel, "名前@rAB")

	if got := charString(chars(commands)); got != "AB" {
		t.Errorf("chars = %q, want the name dropped", got)
	}
}

func TestQuotationIndent(t *testing.T) {
	commands, _, _ := layoutMessageLayer(t, vm.MessageboxUshiromiya, "@r「AB@rCD")

	cs := chars(commands)
	if charString(cs) != "「ABCD" {
		t.Fatalf("chars = %q", charString(cs))
	}
	// continuation lines of an open quote are indented by the bracket
	// width
	if !near(cs[0].Position.X, 0) {
		t.Errorf("bracket at x=%v, want 0", cs[0].Position.X)
	}
	if !near(cs[3].Position.X, 20) || !near(cs[4].Position.X, 40) {
		t.Errorf("continuation at x=%v, %v, want 20, 40", cs[3].Position.X, cs[4].Position.X)
	}
}

func TestQuotationCloses(t *testing.T) {
	commands, _, _ := layoutMessageLayer(t, vm.MessageboxUshiromiya, "@r「A」@rB")

	cs := chars(commands)
	last := cs[len(cs)-1]
	if last.Codepoint != 'B' || !near(last.Position.X, 0) {
		t.Errorf("char after a closed quote at x=%v, want 0", last.Position.X)
	}
}

// recordingLayouter captures parser events as strings.
type recordingLayouter struct {
	events []string
}

func (r *recordingLayouter) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recordingLayouter) OnMessageStart()              { r.add("start") }
func (r *recordingLayouter) OnMessageEnd()                { r.add("end") }
func (r *recordingLayouter) OnChar(c rune)                { r.add("char %c", c) }
func (r *recordingLayouter) OnNewline()                   { r.add("newline") }
func (r *recordingLayouter) OnClickWait()                 { r.add("click-wait") }
func (r *recordingLayouter) OnAutoClick()                 { r.add("auto-click") }
func (r *recordingLayouter) OnSetFontScale(v int32)       { r.add("font-scale %d", v) }
func (r *recordingLayouter) OnSetColor(v int32)           { r.add("color %d", v) }
func (r *recordingLayouter) OnSetDrawSpeed(v int32)       { r.add("draw-speed %d", v) }
func (r *recordingLayouter) OnSetFade(v int32)            { r.add("fade %d", v) }
func (r *recordingLayouter) OnWait(v int32)               { r.add("wait %d", v) }
func (r *recordingLayouter) OnStartParallel()             { r.add("parallel") }
func (r *recordingLayouter) OnSection()                   { r.add("section") }
func (r *recordingLayouter) OnSync()                      { r.add("sync") }
func (r *recordingLayouter) OnInstantStart()              { r.add("instant-start") }
func (r *recordingLayouter) OnInstantEnd()                { r.add("instant-end") }
func (r *recordingLayouter) OnLipsyncEnabled()            { r.add("lipsync-on") }
func (r *recordingLayouter) OnLipsyncDisabled()           { r.add("lipsync-off") }
func (r *recordingLayouter) OnSetVoiceVolume(v int32)     { r.add("voice-volume %d", v) }
func (r *recordingLayouter) OnVoice(path string)          { r.add("voice %s", path) }
func (r *recordingLayouter) OnVoiceSync(v int32)          { r.add("voice-sync %d", v) }
func (r *recordingLayouter) OnVoiceWait()                 { r.add("voice-wait") }
func (r *recordingLayouter) OnRubiContent(content string) { r.add("rubi %s", content) }
func (r *recordingLayouter) OnRubiBaseStart()             { r.add("rubi-start") }
func (r *recordingLayouter) OnRubiBaseEnd()               { r.add("rubi-end") }
func (r *recordingLayouter) OnBoldStart()                 { r.add("bold-start") }
func (r *recordingLayouter) OnBoldEnd()                   { r.add("bold-end") }

func TestParserEvents(t *testing.T) {
	var rec recordingLayouter
	err := NewMessageTextParser("@r@v00/a6042.@|@y「@c900.@[あ@]@c.」").ParseInto(&rec)
	if err != nil {
		t.Fatalf("ParseInto: %v", err)
	}

	want := []string{
		"start", "newline", "voice 00/a6042", "section", "sync",
		"char 「", "color 900", "instant-start", "char あ",
		"instant-end", "color -1", "char 」", "end",
	}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v", rec.events)
	}
	for i, w := range want {
		if rec.events[i] != w {
			t.Errorf("event %d = %q, want %q", i, rec.events[i], w)
		}
	}
}

func TestParserFurigana(t *testing.T) {
	var rec recordingLayouter
	if err := NewMessageTextParser("@bかな.@<漢字@>").ParseInto(&rec); err != nil {
		t.Fatalf("ParseInto: %v", err)
	}

	want := []string{"start", "rubi かな", "rubi-start", "char 漢", "char 字", "rubi-end", "end"}
	for i, w := range want {
		if rec.events[i] != w {
			t.Errorf("event %d = %q, want %q", i, rec.events[i], w)
		}
	}
}

func TestParserErrors(t *testing.T) {
	for _, message := range []string{"@v00/unterminated", "@q", "a@"} {
		if err := NewMessageTextParser(message).ParseInto(&recordingLayouter{}); err == nil {
			t.Errorf("ParseInto(%q) succeeded", message)
		}
	}
}
