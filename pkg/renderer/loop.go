package renderer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Loop renders passes on a dedicated goroutine. Callers trigger a pass and
// read the front buffer, which only changes when a complete pass is swapped
// in; the pass itself is rendered into a private back buffer.
type Loop struct {
	renderer *Renderer
	logger   func(format string, args ...any)

	mu        sync.Mutex
	cond      *sync.Cond
	front     *Image
	back      *Image
	triggered bool
	busy      bool
	done      bool
	stopped   bool
	passes    int
	elapsed   time.Duration
	err       error

	exited chan struct{}
}

// NewLoop starts the render goroutine. It idles until Trigger is called.
func NewLoop(r *Renderer) *Loop {
	l := &Loop{
		renderer: r,
		front:    r.NewImage(),
		back:     r.NewImage(),
		exited:   make(chan struct{}),
	}
	l.cond = sync.NewCond(&l.mu)
	if r.logger != nil {
		l.logger = r.logger.Printf
	} else {
		l.logger = func(string, ...any) {}
	}

	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.exited)

	for {
		l.mu.Lock()
		for !l.triggered && !l.stopped {
			l.cond.Wait()
		}
		if l.stopped {
			l.mu.Unlock()
			return
		}
		l.triggered = false
		l.busy = true
		pass := l.passes + 1
		l.mu.Unlock()

		// front only changes under the lock on this goroutine, so reading it here is safe
		start := time.Now()
		err := l.back.CopyFrom(l.front)
		if err == nil {
			err = l.renderer.RenderPass(context.Background(), l.back)
		}
		elapsed := time.Since(start)

		l.mu.Lock()
		if err == nil {
			l.front, l.back = l.back, l.front
			l.passes = pass
			l.elapsed += elapsed
			l.logger("Pass %d completed in %v\n", pass, elapsed)
		}
		l.err = err
		l.busy = false
		l.done = !l.triggered
		l.cond.Broadcast()
		l.mu.Unlock()
	}
}

// Trigger requests one more pass. Triggers that arrive while a pass is
// pending collapse into one.
func (l *Loop) Trigger() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.triggered = true
	l.done = false
	l.cond.Broadcast()
}

// Wait blocks until the triggered pass is done and returns its error
func (l *Loop) Wait() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for !l.done && !l.stopped {
		l.cond.Wait()
	}
	if !l.done {
		return fmt.Errorf("waiting for pass %d: %w", l.passes+1, ErrInterrupted)
	}
	return l.err
}

// Step triggers a pass and waits for it
func (l *Loop) Step() error {
	l.Trigger()
	return l.Wait()
}

// Front returns a copy of the last complete image
func (l *Loop) Front() *Image {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.front.Clone()
}

// Passes returns the number of completed passes and the time spent rendering them
func (l *Loop) Passes() (int, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.passes, l.elapsed
}

// Reset discards the accumulated image. It waits for a running pass to finish
// so that the discarded samples are not swapped back in.
func (l *Loop) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.busy {
		l.cond.Wait()
	}
	l.front.Reset()
	l.passes = 0
	l.elapsed = 0
}

// Stop asks the goroutine to exit after the current pass and waits for it
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.cond.Broadcast()
	l.mu.Unlock()
	<-l.exited
}
