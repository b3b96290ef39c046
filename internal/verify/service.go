// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package verify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bionova/seqdiff/internal/tasks"
)

// TaskKind is the task kind verification jobs run under.
const TaskKind = "verify"

// comparisonMetaKey tags tasks with their stored comparison.
const comparisonMetaKey = "comparison_id"

// Record is the outcome of one verification attempt, handed to a Recorder.
type Record struct {
	TaskID       string
	ComparisonID string
	Status       tasks.TaskStatus
	Receipt      *Receipt
	Error        string
	FinishedAt   time.Time
}

// Recorder persists verification outcomes.
type Recorder interface {
	RecordVerification(ctx context.Context, rec Record) error
}

// Request is a submission for the Service.
type Request struct {
	Payload Payload
	// ComparisonID links the outcome to a stored comparison (optional)
	ComparisonID string
	// ApprovalCode is checked when the Service has an enabled Approver
	ApprovalCode string
}

// Status is a snapshot of a verification task.
type Status struct {
	TaskID       string           `json:"task_id"`
	ComparisonID string           `json:"comparison_id,omitempty"`
	State        tasks.TaskStatus `json:"state"`
	Receipt      *Receipt         `json:"receipt,omitempty"`
	Error        string           `json:"error,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
}

// Done reports whether the task reached a terminal state.
func (s Status) Done() bool {
	return s.State.IsTerminal()
}

// Service runs submissions as background tasks: Submit returns a task ID
// immediately, and the caller polls Status, blocks in Wait or calls Cancel.
type Service struct {
	submitter Submitter
	recorder  Recorder
	approver  *Approver
	queue     *tasks.Queue
	runner    *tasks.Runner

	startOnce sync.Once
	stopOnce  sync.Once
	quit      chan struct{}
	// drained is closed when recordLoop returns
	drained chan struct{}
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// Workers bounds concurrent submissions
	Workers int
	// Timeout bounds each submission (0 = none)
	Timeout time.Duration
	// History is how many finished tasks stay queryable
	History int
	// MaxQueued bounds pending submissions (0 = unlimited)
	MaxQueued int
	Recorder  Recorder
	Approver  *Approver
}

// NewService creates a Service around submitter. Call Start before submitting.
func NewService(submitter Submitter, opts ServiceOptions) *Service {
	if opts.History <= 0 {
		opts.History = 256
	}
	queue := tasks.NewQueueWithOptions(opts.History, opts.MaxQueued)
	s := &Service{
		submitter: submitter,
		recorder:  opts.Recorder,
		approver:  opts.Approver,
		queue:     queue,
		runner:    tasks.NewRunnerWithOptions(queue, opts.Workers, opts.Timeout),
		quit:      make(chan struct{}),
		drained:   make(chan struct{}),
	}
	s.runner.Register(TaskKind, s.handle)
	return s
}

// Start begins processing submissions until ctx ends or Stop is called.
func (s *Service) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.recordLoop()
		s.runner.Start(ctx)
	})
}

// Stop waits for in-flight submissions to finish and their outcomes to be
// recorded.
func (s *Service) Stop() {
	s.runner.Stop()
	s.stopOnce.Do(func() { close(s.quit) })

	started := true
	s.startOnce.Do(func() { started = false })
	if started {
		<-s.drained
	}
}

// ApprovalRequired reports whether Submit needs an approval code.
func (s *Service) ApprovalRequired() bool {
	return s.approver.Enabled()
}

// Submit queues a verification and returns its task ID.
func (s *Service) Submit(req Request) (string, error) {
	if err := s.approver.Check(req.ApprovalCode); err != nil {
		return "", err
	}
	if err := req.Payload.Validate(); err != nil {
		return "", err
	}

	task := tasks.NewTask(TaskKind, "Verify comparison "+shortHash(req.Payload.ResultHash), req)
	if req.ComparisonID != "" {
		task.SetMetadata(comparisonMetaKey, req.ComparisonID)
	}
	if err := s.queue.Add(task); err != nil {
		return "", fmt.Errorf("verify: queue submission: %w", err)
	}

	log.Printf("VERIFY_QUEUED | task=%s hash=%s", task.ID, shortHash(req.Payload.ResultHash))
	return task.ID, nil
}

// Status returns a snapshot of a task.
func (s *Service) Status(taskID string) (Status, error) {
	task := s.queue.Get(taskID)
	if task == nil {
		return Status{}, fmt.Errorf("%w: %s", tasks.ErrNotFound, taskID)
	}
	return statusOf(task), nil
}

// Wait blocks until the task finishes and returns the receipt or the failure.
// A canceled task returns tasks.ErrCanceled.
func (s *Service) Wait(ctx context.Context, taskID string) (Receipt, error) {
	result, err := s.queue.Wait(ctx, taskID)
	if err != nil {
		return Receipt{}, err
	}
	receipt, ok := result.(Receipt)
	if !ok {
		return Receipt{}, fmt.Errorf("verify: unexpected task result %T", result)
	}
	return receipt, nil
}

// Cancel stops a queued or running submission.
func (s *Service) Cancel(taskID string) error {
	task := s.queue.Get(taskID)
	if task == nil {
		return fmt.Errorf("%w: %s", tasks.ErrNotFound, taskID)
	}
	if !s.queue.Cancel(taskID) {
		return fmt.Errorf("verify: task %s already finished", taskID)
	}
	log.Printf("VERIFY_CANCEL | task=%s", taskID)
	return nil
}

// List returns snapshots of all known tasks, oldest first.
func (s *Service) List() []Status {
	return statusesOf(s.queue.All())
}

// ForComparison returns the known tasks for a stored comparison, oldest first.
func (s *Service) ForComparison(comparisonID string) []Status {
	return statusesOf(s.queue.WithMetadata(comparisonMetaKey, comparisonID))
}

// Stats counts known tasks by state.
func (s *Service) Stats() tasks.Stats {
	return s.queue.Stats()
}

func statusesOf(all []*tasks.Task) []Status {
	out := make([]Status, 0, len(all))
	for _, task := range all {
		out = append(out, statusOf(task))
	}
	return out
}

// handle is the task handler for TaskKind.
func (s *Service) handle(ctx context.Context, task *tasks.Task) (interface{}, error) {
	req, ok := task.Input.(Request)
	if !ok {
		return nil, fmt.Errorf("verify: unexpected task input %T", task.Input)
	}

	task.AppendOutput("submitting\n")
	start := time.Now()
	receipt, err := s.submitter.Submit(ctx, req.Payload)
	if err != nil {
		if !errors.Is(ctx.Err(), context.Canceled) {
			log.Printf("VERIFY_FAILED | task=%s error=%v", task.ID, err)
		}
		return nil, err
	}

	if ctx.Err() != nil {
		// The network accepted the record but the task is already canceled
		// or timed out; the queue will not mark it complete.
		log.Printf("VERIFY_LATE_RECEIPT | task=%s tx=%s network=%s", task.ID, receipt.TxHash, receipt.Network)
		return nil, ctx.Err()
	}

	task.AppendOutput("confirmed " + receipt.TxHash + "\n")
	log.Printf("VERIFY_SUBMIT | task=%s tx=%s network=%s duration=%s",
		task.ID, receipt.TxHash, receipt.Network, time.Since(start).Round(time.Millisecond))
	return receipt, nil
}

// recordLoop records each finished task once, in the state the queue
// settled on. After quit it flushes what is buffered and returns.
func (s *Service) recordLoop() {
	defer close(s.drained)

	notifications := s.queue.Notifications()
	for {
		select {
		case n := <-notifications:
			s.record(n)
		case <-s.quit:
			for {
				select {
				case n := <-notifications:
					s.record(n)
				default:
					return
				}
			}
		}
	}
}

// record reports an outcome to the Recorder; failures are logged, not returned.
func (s *Service) record(n tasks.TaskNotification) {
	if s.recorder == nil {
		return
	}
	rec := Record{
		TaskID:     n.TaskID,
		Status:     n.Status,
		Error:      n.Error,
		FinishedAt: time.Now().UTC(),
	}
	if req, ok := n.Input.(Request); ok {
		rec.ComparisonID = req.ComparisonID
	}
	if receipt, ok := n.Result.(Receipt); ok {
		rec.Receipt = &receipt
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if recErr := s.recorder.RecordVerification(ctx, rec); recErr != nil {
		log.Printf("VERIFY_RECORD_FAILED | task=%s error=%v", n.TaskID, recErr)
	}
}

func statusOf(task *tasks.Task) Status {
	st := Status{
		TaskID:       task.ID,
		ComparisonID: comparisonIDOf(task),
		State:        task.Status,
		Error:        task.Error,
		CreatedAt:    task.CreatedAt,
	}
	if receipt, ok := task.Result.(Receipt); ok {
		st.Receipt = &receipt
	}
	if !task.EndTime.IsZero() {
		end := task.EndTime
		st.FinishedAt = &end
	}
	return st
}

func comparisonIDOf(task *tasks.Task) string {
	if task == nil {
		return ""
	}
	if req, ok := task.Input.(Request); ok {
		return req.ComparisonID
	}
	return ""
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// IsNotFound reports whether err refers to an unknown task.
func IsNotFound(err error) bool {
	return errors.Is(err, tasks.ErrNotFound)
}
