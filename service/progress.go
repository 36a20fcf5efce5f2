package service

import (
	"math"
	"sync"
	"time"
)

const (
	progressCeiling  = 95.0
	progressComplete = 100.0
)

var progressSteps = []string{
	"Loading sources",
	"Mapping statute",
	"Filtering thematic doctrine",
	"Syncing case law",
	"Consolidating study sheet",
}

// ProgressEstimator produces cosmetic progress runs. Runs advance on a timer
// and are not driven by the request they accompany.
type ProgressEstimator struct {
	interval time.Duration
}

// NewProgressEstimator creates an estimator ticking every interval
func NewProgressEstimator(interval time.Duration) *ProgressEstimator {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &ProgressEstimator{interval: interval}
}

// Start begins a run with its own ticker goroutine. The caller must end it
// with Complete or Stop.
func (e *ProgressEstimator) Start() *ProgressRun {
	r := &ProgressRun{
		ticker: time.NewTicker(e.interval),
		done:   make(chan struct{}),
	}
	go r.loop()
	return r
}

// ProgressRun is one in-flight progress indicator
type ProgressRun struct {
	mu       sync.RWMutex
	value    float64
	stopped  bool
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func (r *ProgressRun) loop() {
	for {
		select {
		case <-r.done:
			return
		case <-r.ticker.C:
			r.mu.Lock()
			if !r.stopped {
				r.value = nextProgress(r.value)
			}
			r.mu.Unlock()
		}
	}
}

// nextProgress advances quickly at first and slows near the ceiling
func nextProgress(p float64) float64 {
	if p >= progressCeiling {
		return p
	}
	inc := 0.3
	switch {
	case p < 50:
		inc = 2
	case p < 80:
		inc = 0.8
	}
	return math.Min(p+inc, progressCeiling)
}

// Value returns the current percentage
func (r *ProgressRun) Value() float64 {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Complete stops the ticker and reports 100%
func (r *ProgressRun) Complete() {
	r.halt(progressComplete)
}

// Stop stops the ticker and resets the run to 0
func (r *ProgressRun) Stop() {
	r.halt(0)
}

// Stopped reports whether the ticker has been released
func (r *ProgressRun) Stopped() bool {
	if r == nil {
		return true
	}
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *ProgressRun) halt(final float64) {
	if r == nil {
		return
	}
	r.stopOnce.Do(func() {
		r.ticker.Stop()
		close(r.done)
	})
	r.mu.Lock()
	r.stopped = true
	r.value = final
	r.mu.Unlock()
}

// ProgressStep returns the label shown for a percentage
func ProgressStep(p float64) string {
	i := int(math.Floor(p / 100 * float64(len(progressSteps))))
	if i >= len(progressSteps) {
		i = len(progressSteps) - 1
	}
	if i < 0 {
		i = 0
	}
	return progressSteps[i]
}
