// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"context"
	"sync/atomic"
	"time"
)

// progressReporter is a monotonic, coalescing sink for apply-side percent
// updates: it forwards a call only when percent has advanced past the last
// value it forwarded.
type progressReporter struct {
	onProgress func(int)
	last       int64
}

// newProgressReporter wraps onProgress, tolerating a nil callback.
func newProgressReporter(onProgress func(int)) *progressReporter {
	return &progressReporter{onProgress: onProgress, last: -1}
}

// report forwards percent to the callback only if it is greater than the
// last forwarded value.
func (r *progressReporter) report(percent int) {
	if r == nil || r.onProgress == nil {
		return
	}

	for {
		last := atomic.LoadInt64(&r.last)
		if int64(percent) <= last {
			return
		}

		if atomic.CompareAndSwapInt64(&r.last, last, int64(percent)) {
			r.onProgress(percent)
			return
		}
	}
}

// counterPoller wakes on a fixed interval during build and emits a snapshot
// via onProgress only when the Processed counter has advanced since the
// last emission. It is distinct from progressReporter: build progress is
// counter-based, not a uniform percent stream (see design notes on why the
// two are never unified).
type counterPoller struct {
	counters   *atomicCounters
	onProgress func(BuildCounters)
	interval   time.Duration
}

// newCounterPoller constructs a poller over counters, tolerating a nil callback.
func newCounterPoller(counters *atomicCounters, interval time.Duration, onProgress func(BuildCounters)) *counterPoller {
	return &counterPoller{counters: counters, interval: interval, onProgress: onProgress}
}

// run blocks until ctx is done, waking every interval to emit a snapshot
// when the processed count has advanced. Intended to run on its own
// goroutine alongside the build worker pool.
func (p *counterPoller) run(ctx context.Context) {
	if p.onProgress == nil {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var lastProcessed int64 = -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshot := p.counters.snapshot()
			if snapshot.Processed == lastProcessed {
				continue
			}

			lastProcessed = snapshot.Processed
			p.onProgress(snapshot)
		}
	}
}

// atomicCounters holds the build's shared mutable progress counters as
// individual atomic integers, read concurrently by the poller and updated
// by workers via load-only-consistent increments.
type atomicCounters struct {
	processed int64
	new       int64
	changed   int64
	same      int64
	removed   int64
	warnings  int64
}

func (c *atomicCounters) incProcessed()      { atomic.AddInt64(&c.processed, 1) }
func (c *atomicCounters) incNew()            { atomic.AddInt64(&c.new, 1) }
func (c *atomicCounters) incChanged()        { atomic.AddInt64(&c.changed, 1) }
func (c *atomicCounters) incSame()           { atomic.AddInt64(&c.same, 1) }
func (c *atomicCounters) addRemoved(n int64) { atomic.AddInt64(&c.removed, n) }
func (c *atomicCounters) incWarnings()       { atomic.AddInt64(&c.warnings, 1) }

// snapshot returns a consistent-enough point-in-time read of every counter.
func (c *atomicCounters) snapshot() BuildCounters {
	return BuildCounters{
		Processed: atomic.LoadInt64(&c.processed),
		New:       atomic.LoadInt64(&c.new),
		Changed:   atomic.LoadInt64(&c.changed),
		Same:      atomic.LoadInt64(&c.same),
		Removed:   atomic.LoadInt64(&c.removed),
		Warnings:  atomic.LoadInt64(&c.warnings),
	}
}
