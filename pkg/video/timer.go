package video

import (
	"github.com/DCNick3/shin-sub001/pkg/logger"
	"github.com/DCNick3/shin-sub001/pkg/tick"
)

// positionSource reports the playback position of the audio track a
// movie is synchronized to. *audio.Handle implements it.
type positionSource interface {
	PositionMillis() uint32
}

// maxDriftSeconds is how far the frame clock may wander from the audio
// clock before it snaps back.
const maxDriftSeconds = 0.3

// timer tracks presentation time in track time-base units. With an
// audio source attached it re-synchronizes against the audio position,
// since the audio device clock and the game clock drift apart.
type timer struct {
	timeBase uint32
	time     uint64
	audio    positionSource
}

func newIndependentTimer(timeBase uint32) *timer {
	return &timer{timeBase: timeBase}
}

func newAudioTiedTimer(timeBase uint32, audio positionSource) *timer {
	return &timer{timeBase: timeBase, audio: audio}
}

func (t *timer) Update(delta tick.Ticks) uint64 {
	t.time += uint64(float64(delta.Seconds()) * float64(t.timeBase))

	if t.audio != nil {
		audioSeconds := float64(t.audio.PositionMillis()) / 1000
		timerSeconds := float64(t.time) / float64(t.timeBase)
		if drift := audioSeconds - timerSeconds; drift > maxDriftSeconds || drift < -maxDriftSeconds {
			logger.GetLogger().Warn("movie clock drifted from audio, resetting",
				"drift_seconds", drift)
			t.time = uint64(audioSeconds * float64(t.timeBase))
		}
	}
	return t.time
}

func (t *timer) Time() uint64 {
	return t.time
}
