// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks provides a background task system for long-running operations.
//
// Tasks are dispatched by kind to handlers registered on a Runner, which
// bounds concurrency and applies a per-task timeout. Every task ends in
// exactly one terminal state and Wait returns its result or error.
//
// # Key Types
//
//   - Task: A unit of work with status, progress and result
//   - Queue: Thread-safe task store with history bound and notifications
//   - Runner: Executes tasks with timeout and cancellation support
//   - Handler: The function a task kind runs
//
// # Usage
//
//	queue := tasks.NewQueue(100)
//	runner := tasks.NewRunnerWithOptions(queue, 2, time.Minute)
//	runner.Register("verify", submitHandler)
//	runner.Start(ctx)
//	defer runner.Stop()
//
//	task := tasks.NewTask("verify", "Anchor comparison", payload)
//	queue.Add(task)
//	result, err := queue.Wait(ctx, task.ID)
package tasks
