// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// notifyBuffer is the capacity of the notification channel.
const notifyBuffer = 100

// =============================================================================
// TASK QUEUE
// =============================================================================

// Queue holds pending and finished tasks in submission order.
//
// Finished tasks stay queryable until more than maxHistory have
// accumulated; the oldest are then evicted. Pending tasks are never evicted.
type Queue struct {
	mu sync.RWMutex

	order []*Task
	byID  map[string]*Task

	// running is the number of claimed, unfinished tasks
	running int

	maxHistory   int
	maxQueueSize int

	notifyChan chan TaskNotification

	// wake nudges the runner when a task is added
	wake chan struct{}
}

// TaskNotification reports a task reaching a terminal state.
type TaskNotification struct {
	TaskID      string
	Kind        string
	Description string
	Status      TaskStatus
	Error       string
	Duration    time.Duration
	Input       interface{}
	// Result is set for completed tasks
	Result interface{}
}

// Stats counts tasks by state.
type Stats struct {
	Queued   int `json:"queued"`
	Running  int `json:"running"`
	Complete int `json:"complete"`
	Failed   int `json:"failed"`
	Canceled int `json:"canceled"`
}

// Pending is the number of tasks not yet finished.
func (s Stats) Pending() int {
	return s.Queued + s.Running
}

// String formats the counts on one line.
func (s Stats) String() string {
	return fmt.Sprintf("Running: %d | Queued: %d | Completed: %d | Failed: %d | Canceled: %d",
		s.Running, s.Queued, s.Complete, s.Failed, s.Canceled)
}

// NewQueue creates a queue keeping at most maxHistory finished tasks
// (0 = unlimited).
func NewQueue(maxHistory int) *Queue {
	return NewQueueWithOptions(maxHistory, 0)
}

// NewQueueWithOptions also bounds the number of queued tasks
// (maxQueueSize 0 = unlimited).
func NewQueueWithOptions(maxHistory, maxQueueSize int) *Queue {
	return &Queue{
		byID:         make(map[string]*Task),
		maxHistory:   maxHistory,
		maxQueueSize: maxQueueSize,
		notifyChan:   make(chan TaskNotification, notifyBuffer),
		wake:         make(chan struct{}, 1),
	}
}

// =============================================================================
// SUBMISSION AND LOOKUP
// =============================================================================

// Add queues task. Returns ErrQueueFull once maxQueueSize tasks are waiting.
func (q *Queue) Add(task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, dup := q.byID[task.ID]; dup {
		return fmt.Errorf("tasks: duplicate task id %s", task.ID)
	}
	if q.maxQueueSize > 0 {
		if queued := q.countLocked(TaskStatusQueued); queued >= q.maxQueueSize {
			return fmt.Errorf("%w: %d queued tasks (max: %d)", ErrQueueFull, queued, q.maxQueueSize)
		}
	}
	if err := task.SetStatus(TaskStatusQueued); err != nil {
		return err
	}

	q.order = append(q.order, task)
	q.byID[task.ID] = task

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Get returns a snapshot of the task with id, or nil.
func (q *Queue) Get(id string) *Task {
	if task := q.lookup(id); task != nil {
		return task.Clone()
	}
	return nil
}

func (q *Queue) lookup(id string) *Task {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.byID[id]
}

// Wait blocks until the task finishes and returns its result or error.
// A task evicted from history while waiting still resolves.
func (q *Queue) Wait(ctx context.Context, id string) (interface{}, error) {
	task := q.lookup(id)
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return task.Wait(ctx)
}

// Cancel cancels a queued or running task.
// Returns false if the task is unknown or already finished.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.byID[id]
	if !ok {
		return false
	}
	wasRunning := task.IsRunning()
	if !task.Cancel() {
		return false
	}
	if wasRunning {
		q.running--
	}
	q.notify(notificationFor(task))
	q.evictLocked()
	return true
}

// =============================================================================
// RUNNER HOOKS
// =============================================================================

// Next claims the oldest queued task and marks it running, or returns nil.
func (q *Queue) Next() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, task := range q.order {
		if task.MarkStarted() {
			q.running++
			return task
		}
	}
	return nil
}

// MarkComplete finishes a claimed task with result.
func (q *Queue) MarkComplete(task *Task, result interface{}) {
	q.finish(task, func() bool { return task.MarkComplete(result) })
}

// MarkFailed finishes a claimed task with err.
func (q *Queue) MarkFailed(task *Task, err error) {
	q.finish(task, func() bool { return task.MarkFailed(err) })
}

// MarkCanceled finishes a claimed task as canceled.
func (q *Queue) MarkCanceled(task *Task) {
	q.finish(task, task.MarkCanceled)
}

// finish applies mark under the queue lock. A false return means Cancel
// already finished the task and adjusted the running count.
func (q *Queue) finish(task *Task, mark func() bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !mark() {
		return
	}
	q.running--
	q.notify(notificationFor(task))
	q.evictLocked()
}

func notificationFor(task *Task) TaskNotification {
	return TaskNotification{
		TaskID:      task.ID,
		Kind:        task.Kind,
		Description: task.Description,
		Status:      task.GetStatus(),
		Error:       task.GetError(),
		Duration:    task.Duration(),
		Input:       task.Input,
		Result:      task.GetResult(),
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// All returns snapshots of every known task, oldest first.
func (q *Queue) All() []*Task {
	return q.Filter(nil)
}

// Filter returns snapshots of the tasks keep accepts, oldest first.
// A nil keep accepts everything.
func (q *Queue) Filter(keep func(*Task) bool) []*Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]*Task, 0, len(q.order))
	for _, task := range q.order {
		snap := task.Clone()
		if keep == nil || keep(snap) {
			out = append(out, snap)
		}
	}
	return out
}

// WithMetadata returns snapshots of tasks whose metadata key equals value.
func (q *Queue) WithMetadata(key string, value interface{}) []*Task {
	return q.Filter(func(t *Task) bool {
		v, ok := t.Metadata[key]
		return ok && v == value
	})
}

// Count returns the number of known tasks.
func (q *Queue) Count() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.order)
}

// Stats counts tasks by state.
func (q *Queue) Stats() Stats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var s Stats
	for _, task := range q.order {
		switch task.GetStatus() {
		case TaskStatusQueued:
			s.Queued++
		case TaskStatusRunning:
			s.Running++
		case TaskStatusComplete:
			s.Complete++
		case TaskStatusFailed:
			s.Failed++
		case TaskStatusCanceled:
			s.Canceled++
		}
	}
	return s
}

func (q *Queue) countLocked(status TaskStatus) int {
	n := 0
	for _, task := range q.order {
		if task.GetStatus() == status {
			n++
		}
	}
	return n
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Notifications delivers one TaskNotification per finished task.
// When nobody drains the channel, notifications are dropped and logged.
func (q *Queue) Notifications() <-chan TaskNotification {
	return q.notifyChan
}

// notify must be called with q.mu held.
func (q *Queue) notify(n TaskNotification) {
	select {
	case q.notifyChan <- n:
	default:
		log.Printf("TASK_NOTIFY_DROPPED | task=%s status=%s", n.TaskID, n.Status)
	}
}

// =============================================================================
// HISTORY
// =============================================================================

// evictLocked drops the oldest finished tasks beyond maxHistory, in
// submission order. Must be called with q.mu held.
func (q *Queue) evictLocked() {
	if q.maxHistory <= 0 {
		return
	}

	excess := -q.maxHistory
	for _, task := range q.order {
		if task.IsComplete() {
			excess++
		}
	}
	if excess <= 0 {
		return
	}

	kept := q.order[:0]
	for _, task := range q.order {
		if excess > 0 && task.IsComplete() {
			delete(q.byID, task.ID)
			excess--
			continue
		}
		kept = append(kept, task)
	}
	for i := len(kept); i < len(q.order); i++ {
		q.order[i] = nil
	}
	q.order = kept
}
