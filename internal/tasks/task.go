// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors.
var (
	// ErrCanceled is returned by Wait for tasks canceled before they finished.
	ErrCanceled = errors.New("task canceled")

	// ErrNotFound is returned for unknown task IDs.
	ErrNotFound = errors.New("task not found")

	// ErrQueueFull is returned when the queue has reached its size limit.
	ErrQueueFull = errors.New("queue is full")

	// ErrUnknownKind fails tasks whose kind has no registered handler.
	ErrUnknownKind = errors.New("no handler registered for task kind")
)

// =============================================================================
// TASK STATUS
// =============================================================================

// TaskStatus represents the current state of a background task.
type TaskStatus string

const (
	// TaskStatusQueued indicates the task is waiting to be executed
	TaskStatusQueued TaskStatus = "Queued"

	// TaskStatusRunning indicates the task is currently executing
	TaskStatusRunning TaskStatus = "Running"

	// TaskStatusComplete indicates the task finished successfully
	TaskStatusComplete TaskStatus = "Complete"

	// TaskStatusFailed indicates the task encountered an error
	TaskStatusFailed TaskStatus = "Failed"

	// TaskStatusCanceled indicates the task was canceled before finishing
	TaskStatusCanceled TaskStatus = "Canceled"
)

// String returns the string representation of the task status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusComplete || s == TaskStatusFailed || s == TaskStatusCanceled
}

// =============================================================================
// TASK STRUCTURE
// =============================================================================

// Task is a unit of background work dispatched by kind to a registered Handler.
type Task struct {
	// ID is a unique identifier for this task
	ID string

	// Kind selects the handler (e.g., "verify")
	Kind string

	// Description is a human-readable description of what this task does
	Description string

	// Input is the handler's argument
	Input interface{}

	// Status is the current state of the task
	Status TaskStatus

	// CreatedAt is when the task was queued
	CreatedAt time.Time

	// StartTime is when the task started running
	StartTime time.Time

	// EndTime is when the task completed, failed or was canceled
	EndTime time.Time

	// Result is the handler's return value on success
	Result interface{}

	// Output collects progress notes from the handler
	Output string

	// Error is the error message if the task failed
	Error string

	// Progress is an optional progress percentage (0-100)
	Progress int

	// Metadata stores additional task-specific data
	Metadata map[string]interface{}

	err    error
	cancel context.CancelFunc
	done   chan struct{}

	mu sync.RWMutex
}

// =============================================================================
// TASK CREATION
// =============================================================================

// NewTask creates a queued task of the given kind.
func NewTask(kind, description string, input interface{}) *Task {
	return &Task{
		ID:          uuid.New().String(),
		Kind:        kind,
		Description: description,
		Input:       input,
		Status:      TaskStatusQueued,
		CreatedAt:   time.Now(),
		Metadata:    make(map[string]interface{}),
		done:        make(chan struct{}),
	}
}

// =============================================================================
// TASK METHODS
// =============================================================================

// SetStatus updates the task status (thread-safe).
// Valid transitions: Queued -> Running -> Complete/Failed/Canceled,
// and Queued -> Canceled.
func (t *Task) SetStatus(status TaskStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !isValidTransition(t.Status, status) {
		return fmt.Errorf("invalid status transition from %s to %s", t.Status, status)
	}

	t.Status = status
	if status.IsTerminal() {
		t.finishLocked()
	}
	return nil
}

func isValidTransition(from, to TaskStatus) bool {
	if from == to {
		return true
	}

	switch from {
	case TaskStatusQueued:
		return to == TaskStatusRunning || to == TaskStatusCanceled
	case TaskStatusRunning:
		return to == TaskStatusComplete || to == TaskStatusFailed || to == TaskStatusCanceled
	default:
		return false
	}
}

// GetStatus returns the current task status (thread-safe).
func (t *Task) GetStatus() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// SetProgress updates the task progress, clamped to 0-100 (thread-safe).
func (t *Task) SetProgress(progress int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Progress = min(max(progress, 0), 100)
}

// GetProgress returns the current progress (thread-safe).
func (t *Task) GetProgress() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Progress
}

// AppendOutput appends a progress note (thread-safe).
func (t *Task) AppendOutput(output string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Output += output
}

// GetOutput returns the collected progress notes (thread-safe).
func (t *Task) GetOutput() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Output
}

// GetError returns the error message (thread-safe).
func (t *Task) GetError() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Error
}

// GetResult returns the handler result (thread-safe).
func (t *Task) GetResult() interface{} {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Result
}

// SetMetadata stores a metadata value (thread-safe).
func (t *Task) SetMetadata(key string, value interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Metadata[key] = value
}

// MarkStarted moves a queued task to running.
// Returns false if the task already left the queued state.
func (t *Task) MarkStarted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Status != TaskStatusQueued {
		return false
	}
	t.Status = TaskStatusRunning
	t.StartTime = time.Now()
	return true
}

// MarkComplete records a successful result. Terminal tasks are left unchanged.
func (t *Task) MarkComplete(result interface{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Status.IsTerminal() {
		return false
	}
	t.Status = TaskStatusComplete
	t.Result = result
	t.Progress = 100
	t.finishLocked()
	return true
}

// MarkFailed records err. Terminal tasks are left unchanged.
func (t *Task) MarkFailed(err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Status.IsTerminal() || err == nil {
		return false
	}
	t.Status = TaskStatusFailed
	t.err = err
	t.Error = err.Error()
	t.finishLocked()
	return true
}

// MarkCanceled marks the task canceled. Terminal tasks are left unchanged.
func (t *Task) MarkCanceled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Status.IsTerminal() {
		return false
	}
	t.Status = TaskStatusCanceled
	t.err = ErrCanceled
	t.Error = ErrCanceled.Error()
	t.finishLocked()
	return true
}

// finishLocked stamps the end time and releases waiters (lock held).
func (t *Task) finishLocked() {
	if t.EndTime.IsZero() {
		t.EndTime = time.Now()
	}
	if t.err == nil && t.Status == TaskStatusCanceled {
		t.err = ErrCanceled
	}
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}

// SetCancelFunc stores the context cancel function for this task.
// Must be called once, before the handler runs.
func (t *Task) SetCancelFunc(cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel = cancel
}

// Cancel cancels the task if it's queued or running.
// Returns true if the task was canceled, false if it had already finished.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Status.IsTerminal() {
		return false
	}

	if t.cancel != nil {
		t.cancel()
	}

	t.Status = TaskStatusCanceled
	t.err = ErrCanceled
	t.Error = ErrCanceled.Error()
	t.finishLocked()
	return true
}

// Done is closed once the task reaches a terminal state.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends, and returns the handler's
// result or error. Canceled tasks return ErrCanceled.
func (t *Task) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.err != nil {
		return nil, t.err
	}
	return t.Result, nil
}

// Duration returns how long the task has been running or took to complete.
func (t *Task) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.StartTime.IsZero() {
		return 0
	}
	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// IsRunning returns true if the task is currently running.
func (t *Task) IsRunning() bool {
	return t.GetStatus() == TaskStatusRunning
}

// IsComplete returns true if the task has finished (success, failure, or canceled).
func (t *Task) IsComplete() bool {
	return t.GetStatus().IsTerminal()
}

// Summary returns a one-line summary of the task.
func (t *Task) Summary() string {
	status := t.GetStatus()
	duration := t.Duration()

	summary := fmt.Sprintf("[%s] %s - %s", t.ID[:8], t.Description, status)
	if duration > 0 {
		summary += fmt.Sprintf(" (%.1fs)", duration.Seconds())
	}
	return summary
}

// Clone creates a copy of the task for reading.
// Metadata is copied one level deep. The clone shares Done with the original.
func (t *Task) Clone() *Task {
	t.mu.RLock()
	defer t.mu.RUnlock()

	metadata := make(map[string]interface{}, len(t.Metadata))
	for k, v := range t.Metadata {
		metadata[k] = v
	}

	return &Task{
		ID:          t.ID,
		Kind:        t.Kind,
		Description: t.Description,
		Input:       t.Input,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		Result:      t.Result,
		Output:      t.Output,
		Error:       t.Error,
		Progress:    t.Progress,
		Metadata:    metadata,
		err:         t.err,
		done:        t.done,
	}
}
