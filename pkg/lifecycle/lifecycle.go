// Package lifecycle coordinates startup, background work and graceful
// shutdown of the process.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Phase is the coarse state of the process.
type Phase int32

const (
	Starting Phase = iota
	Running
	Draining
	Stopped
)

func (p Phase) String() string {
	switch p {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Coordinator runs startup hooks, owns the context background work is bound
// to, and waits for shutdown hooks when the process stops.
type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	startupWg  sync.WaitGroup
	shutdownWg sync.WaitGroup
	phase      atomic.Int32

	stopOnce sync.Once
	stopErr  error
}

// New creates a Coordinator in the Starting phase.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// Phase reports the current phase.
func (c *Coordinator) Phase() Phase {
	return Phase(c.phase.Load())
}

// OnStartup runs fn concurrently; WaitForStartup waits for it.
func (c *Coordinator) OnStartup(fn func()) {
	c.startupWg.Go(fn)
}

// OnShutdown runs fn concurrently; Shutdown waits for it. Hooks block on
// <-c.Context().Done() before cleaning up.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(fn)
}

// Tick runs fn every interval until shutdown. The loop counts as a shutdown
// hook.
func (c *Coordinator) Tick(interval time.Duration, fn func()) {
	c.shutdownWg.Go(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	})
}

// Ready reports whether the process is Running. It turns false as soon as
// Shutdown begins so load balancers stop routing during the drain.
func (c *Coordinator) Ready() bool {
	return c.Phase() == Running
}

// WaitForStartup blocks until every startup hook returned, then moves to
// Running unless shutdown already began.
func (c *Coordinator) WaitForStartup() {
	c.startupWg.Wait()
	c.phase.CompareAndSwap(int32(Starting), int32(Running))
}

// Shutdown cancels the context and waits up to timeout for the shutdown
// hooks. Later calls return the first call's result.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.stopOnce.Do(func() {
		c.phase.Store(int32(Draining))
		c.cancel()

		done := make(chan struct{})
		go func() {
			c.shutdownWg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(timeout):
			c.stopErr = fmt.Errorf("shutdown timeout after %v", timeout)
		}
		c.phase.Store(int32(Stopped))
	})
	return c.stopErr
}
