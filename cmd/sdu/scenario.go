package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/DCNick3/shin-sub001/pkg/format/font"
	"github.com/DCNick3/shin-sub001/pkg/format/scenario"
	"github.com/DCNick3/shin-sub001/pkg/layout"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

func runScenario(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: scenario dump-info|trace|char-frequency|test-layouter <main.snr> ...")
	}
	action := args[0]

	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	scn, err := scenario.New(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[1], err)
	}

	switch action {
	case "dump-info":
		return scenarioDumpInfo(scn)
	case "trace":
		initVal, err := parseInitVal(args[2:])
		if err != nil {
			return err
		}
		return scenarioTrace(scn, initVal)
	case "char-frequency":
		initVal, err := parseInitVal(args[2:])
		if err != nil {
			return err
		}
		return scenarioCharFrequency(scn, initVal)
	case "test-layouter":
		return scenarioTestLayouter(scn, args[2:])
	default:
		return fmt.Errorf("unknown scenario action %q", action)
	}
}

// parseInitVal reads the optional scenario init value, the number the
// game passes to the VM at startup.
func parseInitVal(args []string) (int32, error) {
	if len(args) == 0 {
		return 0, nil
	}
	v, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad init value %q: %w", args[0], err)
	}
	return int32(v), nil
}

func scenarioDumpInfo(scn *scenario.Scenario) error {
	tables := scn.InfoTables()

	fmt.Printf("entrypoint: %v\n\n", scn.Entrypoint())

	fmt.Printf("masks: %d\n", len(tables.MaskInfo))
	fmt.Printf("pictures: %d\n", len(tables.PictureInfo))
	for _, p := range tables.PictureInfo {
		fmt.Printf("  %-24s cg=%d\n", p.Path(), p.LinkedCgID)
	}
	fmt.Printf("bustups: %d\n", len(tables.BustupInfo))
	for _, b := range tables.BustupInfo {
		fmt.Printf("  %-24s emotion=%s character=%d\n", b.Path(), b.Emotion, b.CharacterID)
	}
	fmt.Printf("bgm tracks: %d\n", len(tables.BgmInfo))
	for _, b := range tables.BgmInfo {
		fmt.Printf("  %-24s %s\n", b.Path(), b.DisplayName)
	}
	fmt.Printf("sound effects: %d\n", len(tables.SeInfo))
	fmt.Printf("movies: %d\n", len(tables.MovieInfo))
	for _, m := range tables.MovieInfo {
		fmt.Printf("  %s\n", m.Name)
	}
	fmt.Printf("voice mappings: %d\n", len(tables.VoiceMappingInfo))
	fmt.Printf("tips: %d\n", len(tables.TipsInfo))
	return nil
}

// scenarioWalk drives the scripter from the entrypoint until it exits,
// answering the interactive commands with fixed values so the walk is
// deterministic. Choices always pick the first variant.
func scenarioWalk(scn *scenario.Scenario, initVal int32, visit func(n int, cmd vm.Command) error) error {
	scripter := vm.NewScripter(scn, initVal, 0)
	slots := make(map[int32]int32)

	result := vm.ResultNone()
	for n := 0; ; n++ {
		cmd, err := scripter.RunToCommand(result)
		if err != nil {
			return fmt.Errorf("at command %d: %w", n, err)
		}
		if visit != nil {
			if err := visit(n, cmd); err != nil {
				return err
			}
		}

		result = vm.ResultNone()
		switch c := cmd.(type) {
		case *vm.ExitCommand:
			return nil
		case *vm.SGetCommand:
			result = vm.ResultWrite(c.Dest, slots[c.SlotNumber])
		case *vm.SSetCommand:
			slots[c.SlotNumber] = c.Value
		case *vm.SelectCommand:
			result = vm.ResultWrite(c.Dest, 0)
		case *vm.QuizCommand:
			result = vm.ResultWrite(c.Dest, 0)
		}
	}
}

func scenarioTrace(scn *scenario.Scenario, initVal int32) error {
	return scenarioWalk(scn, initVal, func(n int, cmd vm.Command) error {
		fmt.Printf("%8d  %s\n", n, commandString(cmd))
		return nil
	})
}

func commandString(cmd vm.Command) string {
	name := strings.TrimPrefix(fmt.Sprintf("%T", cmd), "*vm.")
	name = strings.TrimSuffix(name, "Command")

	switch c := cmd.(type) {
	case *vm.MsgSetCommand:
		return fmt.Sprintf("%s id=%d %q", name, c.MsgID, c.Text)
	case *vm.SelectCommand:
		return fmt.Sprintf("%s %q %q", name, c.Title, c.Variants)
	case *vm.BgmPlayCommand:
		return fmt.Sprintf("%s id=%d", name, c.BgmDataID)
	case *vm.LayerLoadCommand:
		return fmt.Sprintf("%s layer=%d type=%d param=%d", name, c.LayerID, c.LayerType, c.Params[0])
	case *vm.DebugOutCommand:
		return fmt.Sprintf("%s %q", name, c.Format)
	default:
		return name
	}
}

// collectMessages gathers every MSGSET text in scenario order.
func collectMessages(scn *scenario.Scenario, initVal int32) ([]string, error) {
	var messages []string
	err := scenarioWalk(scn, initVal, func(n int, cmd vm.Command) error {
		if c, ok := cmd.(*vm.MsgSetCommand); ok {
			messages = append(messages, c.Text)
		}
		return nil
	})
	return messages, err
}

func scenarioCharFrequency(scn *scenario.Scenario, initVal int32) error {
	messages, err := collectMessages(scn, initVal)
	if err != nil {
		return err
	}

	counter := &charCounter{counts: make(map[rune]int)}
	for _, message := range messages {
		if err := layout.NewMessageTextParser(message).ParseInto(counter); err != nil {
			return err
		}
	}

	type entry struct {
		char  rune
		count int
	}
	entries := make([]entry, 0, len(counter.counts))
	for char, count := range counter.counts {
		entries = append(entries, entry{char, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].char < entries[j].char
	})

	fmt.Printf("%d messages, %d distinct characters\n", len(messages), len(entries))
	for _, e := range entries {
		fmt.Printf("%8d  %q\n", e.count, e.char)
	}
	return nil
}

func scenarioTestLayouter(scn *scenario.Scenario, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: scenario test-layouter <main.snr> <normal.fnt> [bold.fnt] [init-val]")
	}
	fontNormal, err := loadFont(args[0])
	if err != nil {
		return err
	}
	args = args[1:]
	fontBold := fontNormal
	if len(args) > 0 {
		if _, numErr := strconv.ParseInt(args[0], 10, 32); numErr != nil {
			if fontBold, err = loadFont(args[0]); err != nil {
				return err
			}
			args = args[1:]
		}
	}
	initVal, err := parseInitVal(args)
	if err != nil {
		return err
	}

	messages, err := collectMessages(scn, initVal)
	if err != nil {
		return err
	}

	params := layout.DefaultLayoutParams()
	defaults := layout.Defaults{Color: 999, DrawSpeed: 80, Fade: 200}

	totalCommands := 0
	var maxSize layout.Vec2
	for i, message := range messages {
		layouter := layout.NewMessageLayerLayouter(
			layout.Metrics{Font: fontNormal}, layout.Metrics{Font: fontBold},
			vm.MessageboxNeutral, params, defaults)
		if err := layout.NewMessageTextParser(message).ParseInto(layouter); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		commands, _, size := layouter.Finish()
		totalCommands += len(commands)
		if size.X > maxSize.X {
			maxSize.X = size.X
		}
		if size.Y > maxSize.Y {
			maxSize.Y = size.Y
		}
	}

	fmt.Printf("laid out %d messages, %d commands, max block %gx%g\n",
		len(messages), totalCommands, maxSize.X, maxSize.Y)
	return nil
}

func loadFont(path string) (*font.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := font.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// charCounter tallies displayed characters, ignoring layout control.
type charCounter struct {
	noopLayouter
	counts map[rune]int
}

func (c *charCounter) OnChar(codepoint rune) { c.counts[codepoint]++ }

type noopLayouter struct{}

func (noopLayouter) OnMessageStart()        {}
func (noopLayouter) OnMessageEnd()          {}
func (noopLayouter) OnChar(rune)            {}
func (noopLayouter) OnNewline()             {}
func (noopLayouter) OnClickWait()           {}
func (noopLayouter) OnAutoClick()           {}
func (noopLayouter) OnSetFontScale(int32)   {}
func (noopLayouter) OnSetColor(int32)       {}
func (noopLayouter) OnSetDrawSpeed(int32)   {}
func (noopLayouter) OnSetFade(int32)        {}
func (noopLayouter) OnWait(int32)           {}
func (noopLayouter) OnStartParallel()       {}
func (noopLayouter) OnSection()             {}
func (noopLayouter) OnSync()                {}
func (noopLayouter) OnInstantStart()        {}
func (noopLayouter) OnInstantEnd()          {}
func (noopLayouter) OnLipsyncEnabled()      {}
func (noopLayouter) OnLipsyncDisabled()     {}
func (noopLayouter) OnSetVoiceVolume(int32) {}
func (noopLayouter) OnVoice(string)         {}
func (noopLayouter) OnVoiceSync(int32)      {}
func (noopLayouter) OnVoiceWait()           {}
func (noopLayouter) OnRubiContent(string)   {}
func (noopLayouter) OnRubiBaseStart()       {}
func (noopLayouter) OnRubiBaseEnd()         {}
func (noopLayouter) OnBoldStart()           {}
func (noopLayouter) OnBoldEnd()             {}
