package main

import (
	"fmt"
	"sync/atomic"
	"time"
)

const (
	progressUpdateInterval = 250 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// progressPrinter displays the current phase of a collection round with
// elapsed time, rewriting one terminal line.
//
// A progressPrinter is single-use: Start at most once, Stop exactly once.
// Callers skip it entirely when stdout is not a terminal.
type progressPrinter struct {
	prefix    string
	phase     atomic.Value // string
	startTime time.Time
	stopChan  chan struct{}
	done      chan struct{}
	started   atomic.Bool
}

func newProgressPrinter(prefix, phase string) *progressPrinter {
	p := &progressPrinter{
		prefix:   prefix,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	p.phase.Store(phase)
	return p
}

// SetPhase updates the displayed phase name.
func (p *progressPrinter) SetPhase(phase string) {
	p.phase.Store(phase)
}

// Start launches the render goroutine. Calling Start twice is a no-op.
func (p *progressPrinter) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.startTime = time.Now()

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(progressUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stopChan:
				fmt.Print(clearLineSequence)
				return
			case <-ticker.C:
				elapsed := time.Since(p.startTime).Round(time.Second)
				fmt.Printf("%s%s %s (%s)", clearLineSequence, p.prefix, p.phase.Load(), elapsed)
			}
		}
	}()
}

// Stop clears the progress line and terminates the render goroutine.
func (p *progressPrinter) Stop() {
	if !p.started.Load() {
		return
	}
	close(p.stopChan)
	<-p.done
}
