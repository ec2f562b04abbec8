//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 THL A29 Limited, a Tencent company.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package scheduler provides a task scheduler which never runs its task concurrently
// or reentrantly with itself.
package scheduler

import (
	"go.uber.org/atomic"

	"trpc.group/trpc-go/trpc-flow/executor"
	"trpc.group/trpc-go/trpc-flow/log"
)

// Sequential runs a task on demand. Runs requested while the task is running are
// merged into one more run after the current one returns, so a task triggering
// itself, directly or from another goroutine, never recurses.
// The task must not panic.
type Sequential struct {
	task    func()
	wip     atomic.Int32
	stopped atomic.Bool
}

// New creates a Sequential scheduler for task.
func New(task func()) *Sequential {
	return &Sequential{task: task}
}

// Run runs the task on the calling goroutine, or leaves the run to the loop that is
// already running it.
func (s *Sequential) Run() {
	if s.wip.Inc() == 1 {
		s.drain()
	}
}

// RunOn is the same as Run except that a new loop is started on exec. If exec refuses
// the loop it runs on the calling goroutine.
func (s *Sequential) RunOn(exec executor.Executor) {
	if s.wip.Inc() != 1 {
		return
	}
	if exec == nil || exec == executor.Inline() {
		s.drain()
		return
	}
	if err := exec.Execute(s.drain); err != nil {
		log.Debugf("scheduler: run on caller, executor refused the task: %v", err)
		s.drain()
	}
}

// Stop prevents any further run of the task. A run in progress is not interrupted.
func (s *Sequential) Stop() {
	s.stopped.Store(true)
}

// Stopped reports whether Stop has been called.
func (s *Sequential) Stopped() bool {
	return s.stopped.Load()
}

func (s *Sequential) drain() {
	missed := int32(1)
	for {
		if !s.stopped.Load() {
			s.task()
		}
		if missed = s.wip.Sub(missed); missed == 0 {
			return
		}
	}
}
