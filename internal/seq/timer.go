package seq

import "time"

// Default tempo/timebase, matching the historical OSS sequencer driver's
// power-on defaults (60 BPM, 100 ticks/beat).
const (
	defaultTempo = 60
	defaultBase  = 100

	tempoMin, tempoMax = 8, 360
	baseMin, baseMax   = 1, 1000
)

// timer is the tempo/tick clock a handle's TIMING records and
// SNDCTL_TMR_* ioctls drive. now is overridable so tests can run the clamp
// and wait-duration math without a real sleep.
type timer struct {
	tempo int
	base  int

	running  bool
	start    time.Time
	stopDiff time.Duration

	now   func() time.Time
	sleep func(time.Duration)
}

func newTimer() *timer {
	return &timer{
		tempo: defaultTempo,
		base:  defaultBase,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ticksToDuration implements spec.md §4.4's
// ticks_to_ns(t) = t * 60 * 1e9 / (tempo * base).
func (t *timer) ticksToDuration(ticks uint32) time.Duration {
	num := int64(ticks) * 60 * int64(time.Second)
	den := int64(t.tempo) * int64(t.base)
	if den == 0 {
		return 0
	}
	return time.Duration(num / den)
}

// elapsed reports ticks-equivalent elapsed time for SNDCTL_SEQ_GETTIME,
// truncated per spec.md §6. This mirrors the original vm_time_get, which
// scales elapsed time by base alone — tempo plays no part.
func (t *timer) elapsedTicks() int32 {
	var d time.Duration
	if t.running {
		d = t.now().Sub(t.start)
	} else {
		d = t.stopDiff
	}
	num := int64(d) * int64(t.base)
	den := int64(time.Second)
	return int32(num / den)
}

// applySubOp executes one TIMING sub-operation (spec.md §4.4's table),
// sleeping via t.sleep when the op is a wait. Restartable-on-signal
// sleeping is t.sleep's (time.Sleep's) responsibility at the syscall
// layer; Go's runtime already retries interrupted nanosleeps internally,
// so no explicit EINTR loop is needed here.
func (t *timer) applySubOp(sub int, param uint32) {
	switch sub {
	case subWaitRel:
		t.sleep(t.ticksToDuration(param))

	case subWaitAbs:
		if t.start.IsZero() {
			return // timer never started: no-op
		}
		target := t.start.Add(t.ticksToDuration(param))
		if d := target.Sub(t.now()); d > 0 {
			t.sleep(d)
		}

	case subStop:
		if t.running {
			t.stopDiff = t.now().Sub(t.start)
			t.running = false
		}

	case subStart:
		t.start = t.now()
		t.stopDiff = 0
		t.running = true

	case subContinue:
		if !t.running {
			t.start = t.now().Add(-t.stopDiff)
			t.stopDiff = 0
			t.running = true
		}

	case subTempo:
		t.tempo = clamp(int(param), tempoMin, tempoMax)

	case subTimerbase:
		t.base = clamp(int(param), baseMin, baseMax)
	}
}

// TIMING sub-opcodes, spec.md §4.4.
const (
	subWaitRel   = 1
	subWaitAbs   = 2
	subStop      = 3
	subStart     = 4
	subContinue  = 5
	subTempo     = 6
	subTimerbase = 15
)
