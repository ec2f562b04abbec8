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

// Package executor runs the delivery tasks of publishers and transports.
package executor

import (
	"runtime"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-flow/errs"
	"trpc.group/trpc-go/trpc-flow/internal/report"
	"trpc.group/trpc-go/trpc-flow/log"
)

// PanicBufLen is len of buffer used for stack trace logging
// when a task panics, 1024 by default.
var PanicBufLen = 1024

// Executor runs tasks. A task must not assume it runs on the goroutine that submitted it.
type Executor interface {
	// Execute submits task, an error is returned if task will never run.
	Execute(task func()) error
}

// Func is an adapter to allow the use of ordinary functions as Executor.
type Func func(task func()) error

// Execute calls f(task).
func (f Func) Execute(task func()) error {
	return f(task)
}

// run runs task and recovers the panic it raises.
func run(task func()) {
	defer func() {
		if e := recover(); e != nil {
			buf := make([]byte, PanicBufLen)
			buf = buf[:runtime.Stack(buf, false)]
			log.Errorf("[PANIC]%v\n%s\n", e, buf)
			report.ExecutorPanic.Incr()
		}
	}()
	task()
}

// Pool is an executor backed by an ants worker pool.
type Pool struct {
	pool *ants.PoolWithFunc
}

// PoolOption sets the options of Pool.
type PoolOption func(*poolOptions)

type poolOptions struct {
	nonblocking bool
}

// WithNonblocking makes Execute fail with errs.RetExecutorBusy instead of waiting
// for a free worker.
func WithNonblocking() PoolOption {
	return func(o *poolOptions) {
		o.nonblocking = true
	}
}

// NewPool creates a Pool with size workers.
func NewPool(size int, opts ...PoolOption) (*Pool, error) {
	o := &poolOptions{}
	for _, opt := range opts {
		opt(o)
	}
	pool, err := ants.NewPoolWithFunc(size, func(args interface{}) {
		run(args.(func()))
	}, ants.WithNonblocking(o.nonblocking))
	if err != nil {
		return nil, errs.WrapFrameError(err, errs.RetUnknown, "executor: create worker pool")
	}
	return &Pool{pool: pool}, nil
}

// Execute implements Executor.
func (p *Pool) Execute(task func()) error {
	if err := p.pool.Invoke(task); err != nil {
		report.ExecutorBusy.Incr()
		return errs.WrapFrameError(err, errs.RetExecutorBusy, "executor: worker pool refused task")
	}
	return nil
}

// Running returns the number of busy workers.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Release closes the pool, tasks submitted afterwards are refused.
func (p *Pool) Release() {
	p.pool.Release()
}

type goroutine struct{}

// Goroutine returns an executor starting a new goroutine for each task.
func Goroutine() Executor {
	return goroutine{}
}

func (goroutine) Execute(task func()) error {
	go run(task)
	return nil
}

type inline struct{}

// Inline returns an executor running each task synchronously on the calling goroutine.
// it's usually used for testing.
func Inline() Executor {
	return inline{}
}

func (inline) Execute(task func()) error {
	run(task)
	return nil
}

type holder struct {
	Executor
}

var defaultExecutor atomic.Value

func init() {
	defaultExecutor.Store(holder{Inline()})
}

// Default returns the default executor, Inline unless replaced by SetDefault.
func Default() Executor {
	return defaultExecutor.Load().(holder).Executor
}

// SetDefault replaces the default executor. A nil e restores Inline.
func SetDefault(e Executor) {
	if e == nil {
		e = Inline()
	}
	defaultExecutor.Store(holder{e})
}
