// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parallel implements the bounded worker pool that drives many
// scripts concurrently (C4): a JobQueue feeding W workers, each producing
// WorkerMessages that are reassembled back into sequence order. Grounded on
// suite/throughput.go's pool (the teacher's own bounded-concurrency worker
// pool for load generation), generalized from "spawn threads to hit a QPS
// target" to "run N scripts with W workers", and backed by
// golang.org/x/sync/semaphore instead of the teacher's hand-rolled
// thread-count channel, since the concern here is a simple concurrency
// bound rather than throughput pacing.
package parallel

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/vdobler/hurlgo/ast"
	"github.com/vdobler/hurlgo/runner"
	"github.com/vdobler/hurlgo/template"
)

// Job is one script to execute, identified by a stable UUID (for
// cross-referencing WorkerMessages) and an ordering Seq (for result
// reassembly, since workers complete out of order).
type Job struct {
	ID     uuid.UUID
	Seq    int
	Script *ast.Script
	Vars   *template.VariableSet
}

// JobQueue is a FIFO of Jobs, optionally repeating. Repeat < 0 means cycle
// forever (the caller is expected to cancel the run's context); Repeat == 0
// means run the job list exactly once; Repeat > 0 means run the full list
// that many extra times (Repeat+1 passes in all).
type JobQueue struct {
	mu      sync.Mutex
	scripts []*ast.Script
	newVars func() *template.VariableSet
	repeat  int
	round   int
	idx     int
	seq     int
}

// NewJobQueue returns a queue over scripts, calling newVars once per Job to
// give each run its own VariableSet (captures must not leak between runs).
func NewJobQueue(scripts []*ast.Script, repeat int, newVars func() *template.VariableSet) *JobQueue {
	return &JobQueue{scripts: scripts, repeat: repeat, newVars: newVars}
}

// Next pops the next Job, or reports done when every round has been
// delivered.
func (q *JobQueue) Next() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.scripts) == 0 {
		return Job{}, false
	}
	if q.idx >= len(q.scripts) {
		q.idx = 0
		q.round++
	}
	if q.repeat >= 0 && q.round > q.repeat {
		return Job{}, false
	}
	script := q.scripts[q.idx]
	q.idx++
	q.seq++
	return Job{ID: uuid.New(), Seq: q.seq, Script: script, Vars: q.newVars()}, true
}

// MessageKind enumerates a worker's progress reports for one Job, the
// shape §4.8's parallel runner output needs to render a progress bar and a
// stable, sequence-ordered summary once every job has finished.
type MessageKind int

const (
	Running MessageKind = iota
	Completed
	IOError
	ParsingError
)

// Message is a single worker progress report.
type Message struct {
	Kind   MessageKind
	JobID  uuid.UUID
	Seq    int
	Result *runner.HurlResult
	Err    error
}

// Pool runs Jobs from a JobQueue across Workers concurrent goroutines,
// bounded by a weighted semaphore the way golang.org/x/sync/semaphore is
// meant to be used for a fixed concurrency budget.
type Pool struct {
	Workers int
	Runner  *runner.FileRunner
}

// NewPool returns a Pool of workers concurrent workers sharing runner r.
func NewPool(workers int, r *runner.FileRunner) *Pool {
	if workers < 1 {
		workers = 1
	}
	if r == nil {
		r = runner.NewFileRunner()
	}
	return &Pool{Workers: workers, Runner: r}
}

// Run drains queue, sending one Message per state transition per Job to
// the returned channel. The channel is closed once every job (across every
// repeat round) has been drained, ctx is cancelled, or a worker reports
// IOError/ParsingError — per §4.9, the dispatcher stops submitting new
// jobs the moment one of those kinds is seen, rather than draining the
// whole (possibly infinite, repeat=-1) queue regardless of outcome.
func (p *Pool) Run(ctx context.Context, queue *JobQueue) <-chan Message {
	out := make(chan Message, p.Workers)
	sem := semaphore.NewWeighted(int64(p.Workers))
	var wg sync.WaitGroup
	var stop atomic.Bool

	go func() {
		defer close(out)
		for {
			if ctx.Err() != nil || stop.Load() {
				break
			}
			job, ok := queue.Next()
			if !ok {
				break
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			if stop.Load() {
				// A job acquired while we were waiting for a permit already
				// tripped the stop signal; don't launch another.
				sem.Release(1)
				break
			}
			wg.Add(1)
			go func(j Job) {
				defer sem.Release(1)
				defer wg.Done()
				if p.runJob(ctx, j, out) {
					stop.Store(true)
				}
			}(job)
		}
		wg.Wait()
	}()

	return out
}

// runJob executes one Job and reports its outcome, returning true when the
// outcome should stop the dispatcher from submitting further jobs
// (ParsingError, or a HurlResult whose failure was transport/setup-level
// rather than an ordinary failing assert — §4.9's IOError kind exists
// specifically to signal that, so a ordinary failed test must not be
// tagged with it).
func (p *Pool) runJob(ctx context.Context, j Job, out chan<- Message) bool {
	select {
	case out <- Message{Kind: Running, JobID: j.ID, Seq: j.Seq}:
	case <-ctx.Done():
		return false
	}

	if j.Script == nil {
		send(ctx, out, Message{Kind: ParsingError, JobID: j.ID, Seq: j.Seq})
		return true
	}

	result := p.Runner.Run(ctx, j.Script, j.Vars)
	kind := Completed
	if result.IOFailure {
		kind = IOError
	}
	send(ctx, out, Message{Kind: kind, JobID: j.ID, Seq: j.Seq, Result: result})
	return kind == IOError
}

func send(ctx context.Context, out chan<- Message, m Message) {
	select {
	case out <- m:
	case <-ctx.Done():
	}
}

// Collect re-sequences ch into Seq order and streams it out incrementally,
// holding a completion back only while an earlier Seq is still
// outstanding. This is deliberately not a buffer-then-sort: repeat=-1
// (§4.9's infinite/cyclic mode) never closes ch, so a Collect that waited
// for the channel to close would never emit anything; a pending-map
// sequencer lets each job's result go out as soon as it's this result's
// turn, while still giving the caller a stable, sequence-ordered stream.
func Collect(ch <-chan Message) <-chan Message {
	out := make(chan Message)
	go func() {
		defer close(out)
		pending := map[int]Message{}
		next := 1
		for m := range ch {
			switch m.Kind {
			case Completed, IOError, ParsingError:
			default:
				continue
			}
			pending[m.Seq] = m
			for {
				msg, ok := pending[next]
				if !ok {
					break
				}
				out <- msg
				delete(pending, next)
				next++
			}
		}
	}()
	return out
}
