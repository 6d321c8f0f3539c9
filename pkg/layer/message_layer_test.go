package layer

import (
	"testing"

	"github.com/DCNick3/shin-sub001/pkg/format/font"
	"github.com/DCNick3/shin-sub001/pkg/layout"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

type recordingVoicePlayer struct {
	playing  bool
	played   []string
	stops    int
	lastSeg  [2]int32
	declined bool
}

func (p *recordingVoicePlayer) Play(filename string, _ float32, _ bool, segmentStart, segmentDuration int32) bool {
	p.played = append(p.played, filename)
	p.lastSeg = [2]int32{segmentStart, segmentDuration}
	if p.declined {
		return false
	}
	p.playing = true
	return true
}

func (p *recordingVoicePlayer) Stop() {
	p.stops++
	p.playing = false
}

func (p *recordingVoicePlayer) WaitStatus() vm.AudioWaitStatus {
	if p.playing {
		return vm.AudioStatusPlaying
	}
	return 0
}

type doneCounter struct{ count int }

func (d *doneCounter) OnMessageDone() { d.count++ }

// shownMessageLayer returns a layer in the state right after the
// messagebox finished sliding in, with hand-built blocks.
func shownMessageLayer(voice VoicePlayer, listener MessageListener, blocks ...messageBlock) *MessageLayer {
	l := NewMessageLayer(&MessageboxTextures{}, nil, nil, voice, listener)
	l.naturalSlide = newSlideInterpolator(1, slideIncreasing)
	l.modalSlide = newSlideInterpolator(1, slideIncreasing)
	l.blocks = blocks
	return l
}

func TestMessageLayerWaitBlocksClock(t *testing.T) {
	l := shownMessageLayer(nil, nil,
		messageBlock{time: 0, kind: blockWait},
		messageBlock{time: 0, kind: blockSection, index: 1},
	)

	l.Update(&UpdateContext{Delta: 1})
	if l.waitKind != waitRegular {
		t.Fatalf("waitKind = %v, want regular", l.waitKind)
	}
	if l.currentBlockIndex != 0 {
		t.Fatalf("block index advanced through the wait: %d", l.currentBlockIndex)
	}

	if !l.TryAdvance() {
		t.Fatal("TryAdvance refused a pending wait")
	}
	if l.waitKind != waitNone || l.currentBlockIndex != 1 {
		t.Fatalf("wait not consumed: kind %v, index %d", l.waitKind, l.currentBlockIndex)
	}

	l.Update(&UpdateContext{Delta: 1})
	if l.completedSections != 1 {
		t.Errorf("section not completed after the wait: %d", l.completedSections)
	}
}

func TestMessageLayerLastWaitNotifiesListener(t *testing.T) {
	done := &doneCounter{}
	l := shownMessageLayer(nil, done,
		messageBlock{time: 0, kind: blockWait, isLastWait: true},
	)

	l.Update(&UpdateContext{Delta: 1})
	if l.waitKind != waitLast {
		t.Fatalf("waitKind = %v, want last", l.waitKind)
	}
	if !l.TryAdvance() {
		t.Fatal("TryAdvance refused the last wait")
	}
	if done.count != 1 {
		t.Errorf("listener notified %d times, want 1", done.count)
	}
}

func TestMessageLayerAutoClickAdvancesWithoutInput(t *testing.T) {
	done := &doneCounter{}
	l := shownMessageLayer(nil, done,
		messageBlock{time: 0, kind: blockWait, isAutoClick: true},
	)

	l.Update(&UpdateContext{Delta: 1})
	if l.waitKind != waitAutoClick {
		t.Fatalf("waitKind = %v, want auto click", l.waitKind)
	}
	// no voice, no skip delay: the next update advances on its own
	l.Update(&UpdateContext{Delta: 1})
	if l.waitKind != waitNone || l.currentBlockIndex != 1 {
		t.Errorf("auto click wait not consumed: kind %v, index %d", l.waitKind, l.currentBlockIndex)
	}
	if done.count != 1 {
		t.Errorf("listener notified %d times, want 1", done.count)
	}
}

func TestMessageLayerIgnoreInput(t *testing.T) {
	l := shownMessageLayer(nil, nil,
		messageBlock{time: 0, kind: blockWait},
	)
	l.messageFlags = MessageIgnoreInput

	if l.IsInterestedInInput() {
		t.Error("interested in input with IGNORE_INPUT set")
	}
	if l.TryAdvance() {
		t.Error("TryAdvance accepted input with IGNORE_INPUT set")
	}

	// the wait is skipped entirely instead of gating
	l.Update(&UpdateContext{Delta: 1})
	if l.currentBlockIndex != 1 {
		t.Errorf("wait should be skipped, index = %d", l.currentBlockIndex)
	}
}

func TestMessageLayerCharFastForward(t *testing.T) {
	l := shownMessageLayer(nil, nil,
		messageBlock{time: 10, kind: blockWait},
	)
	l.chars = []messageChar{
		{time: 0, progressRate: 0.01, blockIndex: 0},
		{time: 1, progressRate: 0.01, blockIndex: 0},
	}
	l.lines = []layout.LineInfo{{}}
	l.lineVisible = []bool{false}

	l.Update(&UpdateContext{Delta: 1})
	if l.chars[0].currentProgress >= 1 {
		t.Fatal("char completed too early")
	}

	if !l.TryAdvance() {
		t.Fatal("TryAdvance refused to fast-forward chars")
	}
	for i := range l.chars {
		if l.chars[i].currentProgress != 1 {
			t.Errorf("char %d progress = %v", i, l.chars[i].currentProgress)
		}
	}
	if l.currentTime != 10 {
		t.Errorf("clock not moved to the gating block: %v", l.currentTime)
	}
}

func TestMessageLayerVoiceBlocks(t *testing.T) {
	player := &recordingVoicePlayer{}
	l := shownMessageLayer(player, nil,
		messageBlock{time: 0, kind: blockVoice, filename: "v/001", volume: 0.9, segmentDuration: 100},
		messageBlock{time: 0, kind: blockVoiceWait},
	)

	l.Update(&UpdateContext{Delta: 1})
	if len(player.played) != 1 || player.played[0] != "v/001" {
		t.Fatalf("played = %v", player.played)
	}
	if l.voiceCounter != 0 {
		t.Errorf("voice counter = %d, want 0", l.voiceCounter)
	}
	// voice wait gates while the clip plays
	if l.currentBlockIndex != 1 {
		t.Fatalf("block index = %d, want 1", l.currentBlockIndex)
	}

	player.playing = false
	l.Update(&UpdateContext{Delta: 1})
	l.Update(&UpdateContext{Delta: 1})
	if l.currentBlockIndex != 2 {
		t.Errorf("voice wait did not release: index %d", l.currentBlockIndex)
	}
}

func TestMessageLayerSyncBlocks(t *testing.T) {
	l := shownMessageLayer(nil, nil,
		messageBlock{time: 0, kind: blockSync, index: 0},
		messageBlock{time: 0, kind: blockSection, index: 1},
	)

	l.Update(&UpdateContext{Delta: 1})
	if l.currentBlockIndex != 0 {
		t.Fatal("sync did not gate")
	}
	if !l.RecvSyncIsWaiting(-1) {
		t.Error("whole-message wait not reported")
	}
	if !l.RecvSyncIsWaiting(1) {
		t.Error("section 1 wait not reported")
	}

	l.SendSync()
	l.Update(&UpdateContext{Delta: 1})
	if l.currentBlockIndex != 2 {
		t.Errorf("sync did not release: index %d", l.currentBlockIndex)
	}
	if l.RecvSyncIsWaiting(-1) {
		t.Error("still waiting after all blocks")
	}
}

func TestMessageLayerModalSlidePausesClock(t *testing.T) {
	l := shownMessageLayer(nil, nil,
		messageBlock{time: 0, kind: blockSection, index: 1},
	)
	l.SetModalShown(true)

	l.Update(&UpdateContext{Delta: 1})
	if l.completedSections != 0 {
		t.Error("clock advanced while a modal overlay is up")
	}

	l.SetModalShown(false)
	l.Update(&UpdateContext{Delta: 100})
	l.Update(&UpdateContext{Delta: 1})
	if l.completedSections != 1 {
		t.Error("clock did not resume after the modal overlay")
	}
}

func TestBorderDistancesGeometry(t *testing.T) {
	info := font.GlyphInfo{
		ActualWidth:   20,
		ActualHeight:  40,
		TextureWidth:  32,
		TextureHeight: 64,
	}
	d := borderDistances(info, 1, 1)

	// axis-aligned displacements keep the full per-axis distance
	if !nearlyEqual(d[1].Y(), -1.5/40*(40.0/64)) {
		t.Errorf("top displacement = %v", d[1])
	}
	if d[1].X() != 0 {
		t.Errorf("top displacement has x component: %v", d[1])
	}
	// diagonals shrink by 1/sqrt(2) per axis
	if !nearlyEqual(d[0].X()/d[3].X(), 1/float32(1.4142135)) {
		t.Errorf("diagonal ratio = %v", d[0].X()/d[3].X())
	}
}
