package tick

// queued is a tween waiting for its turn in a Tweener.
type queued struct {
	target float32
	tween  Tween
}

// Tweener animates a single scalar through a queue of tweens.
//
// At any instant the tweener is either idle, holding a resting value,
// or mid-tween between two values. Completed tween time overflows into
// the next queued tween so back-to-back animations stay on schedule.
type Tweener struct {
	value float32

	active bool
	from   float32
	target float32
	time   Ticks
	tween  Tween

	queue []queued
}

// NewTweener returns an idle tweener resting at value.
func NewTweener(value float32) Tweener {
	return Tweener{value: value}
}

// Value returns the current, possibly mid-tween, value.
func (t *Tweener) Value() float32 {
	return t.value
}

// Target returns the value the tweener will rest at once all queued
// tweens complete.
func (t *Tweener) Target() float32 {
	if len(t.queue) > 0 {
		return t.queue[len(t.queue)-1].target
	}
	if t.active {
		return t.target
	}
	return t.value
}

// Clone returns an independent copy, pending queue included.
func (t *Tweener) Clone() Tweener {
	c := *t
	c.queue = append([]queued(nil), t.queue...)
	return c
}

// IsIdle reports whether no tween is in flight and none are queued.
func (t *Tweener) IsIdle() bool {
	return !t.active && len(t.queue) == 0
}

// Enqueue appends a tween towards target. It starts immediately if the
// tweener is idle.
func (t *Tweener) Enqueue(target float32, tween Tween) {
	if !t.active {
		t.start(target, tween)
		return
	}
	t.queue = append(t.queue, queued{target: target, tween: tween})
}

// EnqueueNow drops the in-flight tween and queue, then tweens from the
// current value towards target.
func (t *Tweener) EnqueueNow(target float32, tween Tween) {
	t.active = false
	t.queue = t.queue[:0]
	t.start(target, tween)
}

// FastForward jumps to the final queued target and goes idle.
func (t *Tweener) FastForward() {
	t.value = t.Target()
	t.active = false
	t.queue = t.queue[:0]
}

// FastForwardTo discards all animation state and rests at value.
func (t *Tweener) FastForwardTo(value float32) {
	t.value = value
	t.active = false
	t.queue = t.queue[:0]
}

// Update advances the tweener by dt ticks.
func (t *Tweener) Update(dt Ticks) {
	if !t.active {
		return
	}
	t.time += dt
	for t.active && t.time >= t.tween.Duration {
		remaining := t.time - t.tween.Duration
		t.value = t.target
		t.active = false
		if len(t.queue) > 0 {
			next := t.queue[0]
			t.queue = t.queue[1:]
			t.start(next.target, next.tween)
			t.time = remaining
		}
	}
	if t.active {
		t.value = t.tween.Value(t.from, t.target, t.time)
	}
}

func (t *Tweener) start(target float32, tween Tween) {
	// Zero-duration tweens jump and hand over to the next queued one,
	// so the queue never strands behind an inactive tweener.
	for tween.Duration <= 0 {
		t.value = target
		t.active = false
		if len(t.queue) == 0 {
			return
		}
		next := t.queue[0]
		t.queue = t.queue[1:]
		target, tween = next.target, next.tween
	}
	t.active = true
	t.from = t.value
	t.target = target
	t.time = 0
	t.tween = tween
}
