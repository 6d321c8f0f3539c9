package vm

import (
	"fmt"

	"github.com/DCNick3/shin-sub001/pkg/tick"
)

// Engine-wide capacity limits.
const (
	LayerbankCount = 0x30
	LayerCount     = 0x100
	PlaneCount     = 4
)

// Volume is an audio volume in [0.0, 1.0].
type Volume float32

// VolumeFromNumber converts a scenario fixed-point number (thousandths)
// to a volume, clamping to the valid range.
func VolumeFromNumber(v int32) Volume {
	return Volume(clamp(float32(v)/1000.0, 0, 1))
}

// Pan positions audio between hard left (-1.0) and hard right (1.0).
type Pan float32

// PanFromNumber converts a scenario fixed-point number to a pan value.
func PanFromNumber(v int32) Pan {
	return Pan(clamp(float32(v)/1000.0, -1, 1))
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TicksFromNumber converts a scenario number to a tick duration.
func TicksFromNumber(v int32) tick.Ticks {
	return tick.Ticks(float32(v))
}

// LayerType tells LAYERLOAD what kind of layer to construct.
type LayerType int32

const (
	LayerTypeNull LayerType = iota
	LayerTypeTile
	LayerTypePicture
	LayerTypeBustup
	LayerTypeAnimation
	LayerTypeEffect
	LayerTypeMovie
	LayerTypeFocusLine
	LayerTypeRain
	LayerTypeQuiz
)

func (t LayerType) String() string {
	names := [...]string{
		"Null", "Tile", "Picture", "Bustup", "Animation",
		"Effect", "Movie", "FocusLine", "Rain", "Quiz",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return fmt.Sprintf("LayerType(%d)", int32(t))
}

// MessageboxType selects the messagebox artwork.
type MessageboxType int32

const (
	MessageboxNeutral MessageboxType = iota
	MessageboxWitchSpace
	MessageboxUshiromiya
	MessageboxTransparent
	MessageboxNovel
	MessageboxNoText
)

// MessageTextLayout selects the text alignment inside the messagebox.
type MessageTextLayout int32

const (
	MessageLayoutLeft MessageTextLayout = iota
	// Behaves the same as left alignment.
	MessageLayoutLayout1
	MessageLayoutCenter
	MessageLayoutRight
)

// MessageboxStyle is the packed argument of MSGINIT: messagebox type in
// the low nibble, text layout in the next one.
type MessageboxStyle struct {
	Type   MessageboxType
	Layout MessageTextLayout
}

func MessageboxStyleFromNumber(v int32) MessageboxStyle {
	return MessageboxStyle{
		Type:   MessageboxType(v & 0xf),
		Layout: MessageTextLayout(v >> 4 & 0xf),
	}
}

// AudioWaitStatus is a bit set of conditions an audio wait command
// blocks on.
type AudioWaitStatus int32

const (
	AudioStatusFading AudioWaitStatus = 1 << iota
	AudioStatusPlaying
	AudioStatusVolumeTweening
	AudioStatusPanningTweening
	AudioStatusPlaySpeedTweening
)

// LayerCtrlFlags is the packed flags word of LAYERCTRL.
type LayerCtrlFlags int32

func (f LayerCtrlFlags) Easing() int32             { return int32(f) & 0x3f }
func (f LayerCtrlFlags) ScaleTime() bool           { return f&(1<<6) != 0 }
func (f LayerCtrlFlags) Delta() bool               { return f&(1<<7) != 0 }
func (f LayerCtrlFlags) FastForwardToCurrent() bool { return f&(1<<8) != 0 }
func (f LayerCtrlFlags) FastForwardToTarget() bool { return f&(1<<9) != 0 }
func (f LayerCtrlFlags) ProhibitFastForward() bool { return f&(1<<12) != 0 }
func (f LayerCtrlFlags) IgnoreWait() bool          { return f&(1<<16) != 0 }

// MaskFlags modifies MASKLOAD behavior.
type MaskFlags int32

const (
	MaskFlipX      MaskFlags = 0x0001
	MaskFlipY      MaskFlags = 0x0002
	MaskFlipMinMax MaskFlags = 0x0004
	MaskScale      MaskFlags = 0x0010
)

// LayerLoadFlags modifies LAYERLOAD behavior.
type LayerLoadFlags int32

const (
	LoadDontBlockAnimations    LayerLoadFlags = 1 << iota
	LoadKeepPreviousProperties
	LoadAutoWipe
	LoadSharePropsDuringWipe
)

// WipeFlags modifies WIPE behavior.
type WipeFlags int32

const (
	WipeDontBlockAnimations WipeFlags = 1 << iota
	WipeDontWait
)

// LayerID addresses a real layer slot on a plane.
type LayerID uint32

// VLayerID addresses either a real layer or one of the virtual
// aggregate targets layer commands accept.
type VLayerID int32

// Virtual layer targets.
const (
	VLayerRootGroup  VLayerID = -1
	VLayerScreen     VLayerID = -2
	VLayerPage       VLayerID = -3
	VLayerPlaneGroup VLayerID = -4
	VLayerSelected   VLayerID = -5
)

// NewVLayerID validates a raw id from the scenario.
func NewVLayerID(v int32) (VLayerID, error) {
	if v < int32(VLayerSelected) || v >= LayerCount {
		return 0, fmt.Errorf("layer id out of range: %d", v)
	}
	return VLayerID(v), nil
}

// Layer returns the real layer id, or false for a virtual target.
func (id VLayerID) Layer() (LayerID, bool) {
	if id < 0 {
		return 0, false
	}
	return LayerID(id), true
}
