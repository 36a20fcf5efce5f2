package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextProgressDecaysAndClamps(t *testing.T) {
	assert.Equal(t, 2.0, nextProgress(0))
	assert.Equal(t, 50.0, nextProgress(48))
	assert.InDelta(t, 50.8, nextProgress(50), 1e-9)
	assert.InDelta(t, 80.3, nextProgress(80), 1e-9)
	assert.Equal(t, 95.0, nextProgress(94.9))
	assert.Equal(t, 95.0, nextProgress(95))

	p := 0.0
	for i := 0; i < 10000; i++ {
		p = nextProgress(p)
	}
	assert.Equal(t, progressCeiling, p, "never reaches completion on its own")
}

func TestProgressRunAdvancesUntilComplete(t *testing.T) {
	run := NewProgressEstimator(time.Millisecond).Start()

	assert.Eventually(t, func() bool { return run.Value() > 0 }, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return run.Value() == progressCeiling }, 5*time.Second, time.Millisecond)
	assert.False(t, run.Stopped())

	run.Complete()
	assert.True(t, run.Stopped())
	assert.Equal(t, 100.0, run.Value())

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 100.0, run.Value(), "no ticks after completion")
}

func TestProgressRunStopResets(t *testing.T) {
	run := NewProgressEstimator(time.Millisecond).Start()
	assert.Eventually(t, func() bool { return run.Value() > 10 }, time.Second, time.Millisecond)

	run.Stop()
	run.Stop()
	assert.True(t, run.Stopped())
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 0.0, run.Value())
}

func TestProgressRunNilSafe(t *testing.T) {
	var run *ProgressRun
	assert.NotPanics(t, func() {
		run.Complete()
		run.Stop()
	})
	assert.Equal(t, 0.0, run.Value())
	assert.True(t, run.Stopped())
}

func TestProgressStep(t *testing.T) {
	assert.Equal(t, "Loading sources", ProgressStep(0))
	assert.Equal(t, "Mapping statute", ProgressStep(20))
	assert.Equal(t, "Syncing case law", ProgressStep(79))
	assert.Equal(t, "Consolidating study sheet", ProgressStep(95))
	assert.Equal(t, "Consolidating study sheet", ProgressStep(100))
}
