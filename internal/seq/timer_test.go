package seq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTempoClamping(t *testing.T) {
	tm := newTimer()

	tm.applySubOp(subTempo, 2)
	assert.Equal(t, tempoMin, tm.tempo)

	tm.applySubOp(subTempo, 9000)
	assert.Equal(t, tempoMax, tm.tempo)

	tm.applySubOp(subTempo, 200)
	assert.Equal(t, 200, tm.tempo)
}

func TestTimerbaseClamping(t *testing.T) {
	tm := newTimer()

	tm.applySubOp(subTimerbase, 0)
	assert.Equal(t, baseMin, tm.base)

	tm.applySubOp(subTimerbase, 5000)
	assert.Equal(t, baseMax, tm.base)
}

func TestTicksToDuration(t *testing.T) {
	tm := newTimer()
	tm.tempo = 120
	tm.base = 100

	// ticks_to_ns(t) = t * 60e9 / (tempo*base); for tempo=120, base=100,
	// one tick is 5ms.
	got := tm.ticksToDuration(200)
	assert.Equal(t, time.Second, got)
}

func TestStartStopContinue(t *testing.T) {
	tm := newTimer()
	fakeNow := time.Unix(1000, 0)
	tm.now = func() time.Time { return fakeNow }

	tm.applySubOp(subStart, 0)
	assert.True(t, tm.running)

	fakeNow = fakeNow.Add(3 * time.Second)
	tm.applySubOp(subStop, 0)
	assert.False(t, tm.running)
	assert.Equal(t, 3*time.Second, tm.stopDiff)

	fakeNow = fakeNow.Add(10 * time.Second)
	tm.applySubOp(subContinue, 0)
	assert.True(t, tm.running)
	// start should be set so elapsed-so-far resumes from stopDiff.
	assert.Equal(t, fakeNow.Add(-3*time.Second), tm.start)
}

func TestContinueWithoutStopIsNoop(t *testing.T) {
	tm := newTimer()
	fakeNow := time.Unix(2000, 0)
	tm.now = func() time.Time { return fakeNow }

	tm.applySubOp(subStart, 0)
	start := tm.start

	tm.applySubOp(subContinue, 0)
	assert.Equal(t, start, tm.start)
}

func TestWaitAbsNoopWhenNeverStarted(t *testing.T) {
	tm := newTimer()
	slept := false
	tm.sleep = func(time.Duration) { slept = true }

	tm.applySubOp(subWaitAbs, 100)
	assert.False(t, slept)
}

func TestWaitRelSleepsTicksToDuration(t *testing.T) {
	tm := newTimer()
	tm.tempo = 120
	tm.base = 100

	var got time.Duration
	tm.sleep = func(d time.Duration) { got = d }

	tm.applySubOp(subWaitRel, 200)
	assert.Equal(t, time.Second, got)
}

func TestElapsedTicksWhileRunning(t *testing.T) {
	tm := newTimer()
	tm.tempo = 60
	tm.base = 100

	fakeNow := time.Unix(5000, 0)
	tm.now = func() time.Time { return fakeNow }
	tm.applySubOp(subStart, 0)

	fakeNow = fakeNow.Add(time.Second)
	assert.Equal(t, int32(100), tm.elapsedTicks())
}

// TestElapsedTicksIndependentOfTempo matches spec.md §8's STOP/CONTINUE
// property: elapsed ticks scale with base alone, never tempo, mirroring
// the original vm_time_get.
func TestElapsedTicksIndependentOfTempo(t *testing.T) {
	tm := newTimer()
	tm.tempo = 360
	tm.base = 100

	fakeNow := time.Unix(6000, 0)
	tm.now = func() time.Time { return fakeNow }
	tm.applySubOp(subStart, 0)

	fakeNow = fakeNow.Add(time.Second)
	assert.Equal(t, int32(100), tm.elapsedTicks())
}

// TestElapsedTicksWhileStopped exercises spec.md §8's "200ms * base / 1s"
// STOP/CONTINUE property directly.
func TestElapsedTicksWhileStopped(t *testing.T) {
	tm := newTimer()
	tm.base = 100

	fakeNow := time.Unix(7000, 0)
	tm.now = func() time.Time { return fakeNow }
	tm.applySubOp(subStart, 0)

	fakeNow = fakeNow.Add(200 * time.Millisecond)
	tm.applySubOp(subStop, 0)

	assert.Equal(t, int32(20), tm.elapsedTicks())
}
