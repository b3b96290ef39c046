// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Handler executes one task. It must honor ctx cancellation.
type Handler func(ctx context.Context, task *Task) (interface{}, error)

// =============================================================================
// TASK RUNNER
// =============================================================================

// Runner executes queued tasks with bounded concurrency.
type Runner struct {
	queue         *Queue
	handlers      map[string]Handler
	wg            sync.WaitGroup
	stop          chan struct{}
	stopped       atomic.Bool
	stopOnce      sync.Once
	mu            sync.RWMutex
	maxConcurrent int
	semaphore     chan struct{}
	taskTimeout   time.Duration // 0 = no timeout
	pollInterval  time.Duration
	baseCtx       context.Context
}

// NewRunner creates a new task runner for the given queue.
// Uses default concurrency limit of 5 and default timeout of 30 minutes.
func NewRunner(queue *Queue) *Runner {
	return NewRunnerWithOptions(queue, 5, 30*time.Minute)
}

// NewRunnerWithOptions creates a new task runner with custom settings.
// maxConcurrent: maximum number of tasks to run concurrently (default: 5)
// taskTimeout: timeout for each task (0 = no timeout)
func NewRunnerWithOptions(queue *Queue, maxConcurrent int, taskTimeout time.Duration) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &Runner{
		queue:         queue,
		handlers:      make(map[string]Handler),
		stop:          make(chan struct{}),
		maxConcurrent: maxConcurrent,
		semaphore:     make(chan struct{}, maxConcurrent),
		taskTimeout:   taskTimeout,
		pollInterval:  100 * time.Millisecond,
		baseCtx:       context.Background(),
	}
}

// Register binds a handler to a task kind, replacing any previous one.
func (r *Runner) Register(kind string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

func (r *Runner) handler(kind string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// =============================================================================
// RUNNER LIFECYCLE
// =============================================================================

// Start begins processing tasks from the queue. Task contexts derive from ctx.
func (r *Runner) Start(ctx context.Context) {
	if ctx != nil {
		r.baseCtx = ctx
	}
	go r.processLoop()
}

// Stop stops accepting work and waits for running tasks to finish.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.stopped.Store(true)
		close(r.stop)
	})
	r.wg.Wait()
}

// =============================================================================
// TASK PROCESSING
// =============================================================================

// processLoop dispatches queued tasks when woken by the queue or on each poll.
func (r *Runner) processLoop() {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-r.baseCtx.Done():
			return
		case <-r.queue.wake:
		case <-ticker.C:
		}

		if !r.dispatch() {
			return
		}
	}
}

// dispatch starts as many queued tasks as the semaphore allows.
// Returns false once the runner is stopping.
func (r *Runner) dispatch() bool {
	for {
		if r.stopped.Load() {
			return false
		}

		select {
		case r.semaphore <- struct{}{}:
		case <-r.stop:
			return false
		}

		task := r.queue.Next()
		if task == nil {
			<-r.semaphore
			return true
		}

		r.wg.Add(1)
		go r.executeTask(task)
	}
}

// executeTask runs a claimed task through its handler.
func (r *Runner) executeTask(task *Task) {
	defer r.wg.Done()
	defer func() { <-r.semaphore }()

	var ctx context.Context
	var cancel context.CancelFunc
	if r.taskTimeout > 0 {
		ctx, cancel = context.WithTimeout(r.baseCtx, r.taskTimeout)
	} else {
		ctx, cancel = context.WithCancel(r.baseCtx)
	}
	task.SetCancelFunc(cancel)
	defer cancel()

	// Canceled between claim and SetCancelFunc
	if task.IsComplete() {
		r.queue.MarkCanceled(task)
		return
	}

	result, err := r.run(ctx, task)

	switch {
	case err == nil:
		r.queue.MarkComplete(task, result)
	case errors.Is(ctx.Err(), context.Canceled):
		r.queue.MarkCanceled(task)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		r.queue.MarkFailed(task, fmt.Errorf("task timeout after %v: %w", r.taskTimeout, err))
	default:
		r.queue.MarkFailed(task, err)
	}
}

// run invokes the handler, converting panics into task failures.
func (r *Runner) run(ctx context.Context, task *Task) (result interface{}, err error) {
	h, ok := r.handler(task.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, task.Kind)
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("TASK_PANIC | task=%s kind=%s panic=%v", task.ID, task.Kind, rec)
			result, err = nil, fmt.Errorf("task panicked: %v", rec)
		}
	}()

	return h(ctx, task)
}
