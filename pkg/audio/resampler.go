package audio

// audioFrame is one stereo sample pair at the source's native rate.
type audioFrame struct {
	left, right float32
}

type recentFrame struct {
	frame audioFrame
	index uint32
}

// resampler converts from the decoder's native rate to the output rate
// by linear interpolation over a short frame history. It keeps four
// frames so the current position always has a neighbor on both sides
// and so silence detection has a window to look at.
type resampler struct {
	frames [4]recentFrame
}

// push shifts the history left and appends the new frame.
func (r *resampler) push(f audioFrame, index uint32) {
	copy(r.frames[:3], r.frames[1:])
	r.frames[3] = recentFrame{frame: f, index: index}
}

// get interpolates between the two middle frames of the history.
func (r *resampler) get(fraction float64) audioFrame {
	a := r.frames[1].frame
	b := r.frames[2].frame
	t := float32(fraction)
	return audioFrame{
		left:  a.left + (b.left-a.left)*t,
		right: a.right + (b.right-a.right)*t,
	}
}

// currentFrameIndex is the source position of the frame currently
// being output.
func (r *resampler) currentFrameIndex() uint32 {
	return r.frames[1].index
}

// outputtingSilence reports whether the history has drained to zero.
// A stopped sound is only torn down once this is true, otherwise the
// cutoff would click.
func (r *resampler) outputtingSilence() bool {
	for _, f := range r.frames {
		if f.frame.left != 0 || f.frame.right != 0 {
			return false
		}
	}
	return true
}
