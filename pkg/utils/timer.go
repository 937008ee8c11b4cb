package utils

import (
	"sync"
	"time"
)

// TimerOutput receives the lines printed by Timer.PrintSummary.
type TimerOutput interface {
	Output(format string, args ...interface{})
}

// LoggerOutput adapts Logger to TimerOutput. Lines are logged at debug level.
type LoggerOutput struct {
	Logger Logger
}

// Output implements TimerOutput using Logger.Debug.
func (o *LoggerOutput) Output(format string, args ...interface{}) {
	if o.Logger != nil {
		o.Logger.Debug(format, args...)
	}
}

// Phase is one timed step.
type Phase struct {
	Name      string
	StartTime time.Time
	Duration  time.Duration
	completed bool
}

// PhaseTimer stops a phase started with Timer.Start.
type PhaseTimer struct {
	timer *Timer
	phase *Phase
}

// Stop records the phase duration. Only the first call has effect.
func (pt *PhaseTimer) Stop() time.Duration {
	return pt.timer.stop(pt.phase)
}

// Timer records sequential phases of a run. It is safe for concurrent use.
type Timer struct {
	mu        sync.Mutex
	name      string
	startTime time.Time
	phases    []*Phase
	output    TimerOutput
	clock     Clock
}

// TimerOption configures a Timer instance.
type TimerOption func(*Timer)

// WithOutput sets where PrintSummary writes.
func WithOutput(output TimerOutput) TimerOption {
	return func(t *Timer) {
		t.output = output
	}
}

// WithLogger makes PrintSummary write to logger at debug level.
func WithLogger(logger Logger) TimerOption {
	return func(t *Timer) {
		if logger != nil {
			t.output = &LoggerOutput{Logger: logger}
		}
	}
}

// WithClock sets the clock used for all measurements.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// NewTimer creates a new Timer with the given name and options.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{
		name:  name,
		clock: NewRealClock(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.startTime = t.clock.Now()
	return t
}

// Start begins a phase. Phases keep their start order.
func (t *Timer) Start(name string) *PhaseTimer {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := &Phase{Name: name, StartTime: t.clock.Now()}
	t.phases = append(t.phases, p)
	return &PhaseTimer{timer: t, phase: p}
}

func (t *Timer) stop(p *Phase) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !p.completed {
		p.Duration = t.clock.Since(p.StartTime)
		p.completed = true
	}
	return p.Duration
}

// Duration returns the duration of the first completed phase called name.
func (t *Timer) Duration(name string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range t.phases {
		if p.Name == name {
			return p.Duration
		}
	}
	return 0
}

// TotalDuration returns the time elapsed since the timer was created.
func (t *Timer) TotalDuration() time.Duration {
	return t.clock.Since(t.startTime)
}

// Phases returns copies of all phases in start order.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Phase, len(t.phases))
	for i, p := range t.phases {
		out[i] = *p
	}
	return out
}

// PrintSummary writes one line per phase and the total to the output.
func (t *Timer) PrintSummary() {
	if t.output == nil {
		return
	}

	t.output.Output("=== %s timings ===", t.name)
	for i, p := range t.Phases() {
		t.output.Output("Phase %d - %s: %v", i+1, p.Name, p.Duration)
	}
	t.output.Output("Total: %v", t.TotalDuration())
}

// ToMap returns the timings in a JSON friendly form.
func (t *Timer) ToMap() map[string]interface{} {
	recorded := t.Phases()
	phases := make([]map[string]interface{}, 0, len(recorded))
	for _, p := range recorded {
		phases = append(phases, map[string]interface{}{
			"name":     p.Name,
			"duration": p.Duration.String(),
			"ms":       p.Duration.Milliseconds(),
		})
	}

	total := t.TotalDuration()
	return map[string]interface{}{
		"name":           t.name,
		"total_duration": total.String(),
		"total_ms":       total.Milliseconds(),
		"phases":         phases,
	}
}
