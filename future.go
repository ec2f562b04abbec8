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

package flow

import (
	"context"
	"sync"

	"trpc.group/trpc-go/trpc-flow/errs"
)

// Future is the one-shot asynchronous result of a body. The first Complete or Fail wins.
// A failure is wrapped once as errs.RetCompletion and keeps its cause.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	val       T
	err       error
	callbacks []func(T, error)
}

// NewFuture creates a pending Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// CompletedFuture creates a Future completed with v.
func CompletedFuture[T any](v T) *Future[T] {
	f := NewFuture[T]()
	f.Complete(v)
	return f
}

// FailedFuture creates a Future failed with err.
func FailedFuture[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.Fail(err)
	return f
}

// Complete completes f with v, it reports false if f was already done.
func (f *Future[T]) Complete(v T) bool {
	return f.finish(v, nil)
}

// Fail fails f with err, it reports false if f was already done.
func (f *Future[T]) Fail(err error) bool {
	if err == nil {
		err = errs.ErrUnknown
	}
	var zero T
	return f.finish(zero, errs.Completion(err))
}

func (f *Future[T]) finish(v T, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.val, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()
	for _, cb := range callbacks {
		cb(v, err)
	}
	return true
}

// Done returns a channel which is closed once f is done.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether f is done.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get waits until f is done or ctx is done. A ctx failure is returned as errs.RetCanceled.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, errs.WrapFrameError(ctx.Err(), errs.RetCanceled, "wait for body")
	}
}

// TryGet returns the result without waiting, ok is false while f is pending.
func (f *Future[T]) TryGet() (v T, err error, ok bool) {
	select {
	case <-f.done:
		return f.val, f.err, true
	default:
		return v, nil, false
	}
}

// OnDone registers cb to be called with the result once f is done. If f is already
// done cb is called right away on the calling goroutine.
func (f *Future[T]) OnDone(cb func(v T, err error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	cb(f.val, f.err)
}

// MapFuture returns a Future completed with fn applied to the value of f.
// A failure of f, or an error returned by fn, fails the returned Future.
func MapFuture[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	mapped := NewFuture[U]()
	f.OnDone(func(v T, err error) {
		if err != nil {
			mapped.Fail(err)
			return
		}
		u, err := mapFuture(fn, v)
		if err != nil {
			mapped.Fail(err)
			return
		}
		mapped.Complete(u)
	})
	return mapped
}

func mapFuture[T, U any](fn func(T) (U, error), v T) (u U, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.WrapFrameError(errs.FromPanic(r), errs.RetSubscriberFail, "body mapper panicked")
		}
	}()
	return fn(v)
}
