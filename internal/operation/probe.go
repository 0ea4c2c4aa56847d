package operation

import (
	"context"
	"sync"
	"time"
)

// ProbeStatus is the connectivity indicator state.
type ProbeStatus string

const (
	ProbeIdle    ProbeStatus = "idle"
	ProbeTesting ProbeStatus = "testing"
	ProbeSuccess ProbeStatus = "success"
	ProbeError   ProbeStatus = "error"
)

// ProbeState is a consistent copy of a Probe.
type ProbeState struct {
	Status    ProbeStatus `json:"status"`
	Message   string      `json:"message,omitempty"`
	CheckedAt time.Time   `json:"checked_at,omitzero"`
}

// Busy reports whether the indicator is showing anything but idle.
func (s ProbeState) Busy() bool {
	return s.Status != ProbeIdle
}

// Probe is a connectivity indicator that returns to idle a fixed window
// after each result. The reset timer belongs to the check that scheduled it:
// a newer check stops it, so a stale reset never clobbers a newer status.
type Probe struct {
	mu     sync.Mutex
	window time.Duration
	gen    uint64
	cancel context.CancelFunc
	timer  *time.Timer
	state  ProbeState
}

// NewProbe creates an idle probe whose results are shown for window.
func NewProbe(window time.Duration) *Probe {
	return &Probe{
		window: window,
		state:  ProbeState{Status: ProbeIdle},
	}
}

// Begin moves the probe to testing, superseding any check in flight and any
// pending reset.
func (p *Probe) Begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.supersede()
	p.cancel = cancel
	p.state = ProbeState{Status: ProbeTesting}
	return ctx, p.gen
}

// Succeed records a healthy result for gen.
func (p *Probe) Succeed(gen uint64) bool {
	return p.finish(gen, ProbeSuccess, "")
}

// Fail records an unhealthy result for gen.
func (p *Probe) Fail(gen uint64, message string) bool {
	return p.finish(gen, ProbeError, message)
}

// Snapshot returns a copy of the current state.
func (p *Probe) Snapshot() ProbeState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Stop cancels any check in flight and any pending reset, leaving the probe
// idle.
func (p *Probe) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.supersede()
	p.state = ProbeState{Status: ProbeIdle}
}

func (p *Probe) finish(gen uint64, status ProbeStatus, message string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen || p.state.Status != ProbeTesting {
		return false
	}

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}

	p.state = ProbeState{Status: status, Message: message, CheckedAt: time.Now()}
	p.timer = time.AfterFunc(p.window, func() { p.expire(gen) })
	return true
}

func (p *Probe) expire(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		return
	}
	p.timer = nil
	p.state = ProbeState{Status: ProbeIdle}
}

func (p *Probe) supersede() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.gen++
}
