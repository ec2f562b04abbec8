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

// Package emitter signals a downstream Subscriber on behalf of a publisher. It lets
// the terminal signal race with OnNext and still delivers it at most once, after
// the OnNext in progress.
package emitter

import (
	"go.uber.org/atomic"

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/errs"
	"trpc.group/trpc-go/trpc-flow/internal/report"
	"trpc.group/trpc-go/trpc-flow/log"
)

type terminal struct {
	err       error
	cancelled bool
}

var cancelled = &terminal{cancelled: true}

// Emitter wraps the downstream Subscriber of one subscription. OnNext is called by a
// single goroutine at a time; Error, Complete and Stop may be called from anywhere.
// Panics raised by the Subscriber are recovered and returned as errors carrying
// errs.RetSubscriberFail.
type Emitter[T any] struct {
	sub  flow.Subscriber[T]
	wip  atomic.Int32
	term atomic.Pointer[terminal]
	// delivered counts the OnNext calls made.
	delivered atomic.Int64
}

// New creates an Emitter signaling sub.
func New[T any](sub flow.Subscriber[T]) *Emitter[T] {
	return &Emitter[T]{sub: sub}
}

// Subscribe calls OnSubscribe. A panic is returned as an error, the caller is expected
// to cancel its source and report the error with Error.
func (e *Emitter[T]) Subscribe(s flow.Subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = e.fault(r, "OnSubscribe")
		}
	}()
	e.sub.OnSubscribe(s)
	return nil
}

// Next calls OnNext unless a terminal signal has been decided. A panic in OnNext is
// returned, the caller must stop producing and call Error with it.
func (e *Emitter[T]) Next(item T) (err error) {
	if e.term.Load() != nil || !e.wip.CompareAndSwap(0, 1) {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = e.fault(r, "OnNext")
		}
		if !e.wip.CompareAndSwap(1, 0) {
			// a terminal signal arrived during OnNext.
			if terr := e.emit(); err == nil {
				err = terr
			}
		}
	}()
	e.delivered.Inc()
	report.ChunksDelivered.Incr()
	e.sub.OnNext(item)
	return nil
}

// Error signals OnError(err). Only the first terminal signal, or Stop, takes effect.
func (e *Emitter[T]) Error(err error) error {
	if err == nil {
		err = errs.ErrUnknown
	}
	return e.terminate(&terminal{err: err})
}

// Complete signals OnComplete. Only the first terminal signal, or Stop, takes effect.
func (e *Emitter[T]) Complete() error {
	return e.terminate(&terminal{})
}

// Stop ends the emitter silently, as after a Cancel. It reports whether the emitter
// was still active.
func (e *Emitter[T]) Stop() bool {
	if e.term.CompareAndSwap(nil, cancelled) {
		report.StreamsCancelled.Incr()
		return true
	}
	return false
}

// Done reports whether a terminal signal has been decided or the emitter was stopped.
func (e *Emitter[T]) Done() bool {
	return e.term.Load() != nil
}

// Delivered returns the number of OnNext calls made.
func (e *Emitter[T]) Delivered() int64 {
	return e.delivered.Load()
}

// State returns the lifecycle state seen by the Subscriber.
func (e *Emitter[T]) State() flow.State {
	t := e.term.Load()
	switch {
	case t == cancelled:
		return flow.StateCancelled
	case t != nil && t.err != nil:
		return flow.StateErrored
	case t != nil:
		return flow.StateCompleted
	case e.delivered.Load() > 0:
		return flow.StateDelivering
	default:
		return flow.StateSubscribed
	}
}

func (e *Emitter[T]) terminate(t *terminal) error {
	if !e.term.CompareAndSwap(nil, t) {
		return nil
	}
	if e.wip.Inc() == 1 {
		return e.emit()
	}
	// the running Next emits it.
	return nil
}

func (e *Emitter[T]) emit() (err error) {
	t := e.term.Load()
	defer func() {
		if r := recover(); r != nil {
			if t.err != nil {
				err = e.fault(r, "OnError")
			} else {
				err = e.fault(r, "OnComplete")
			}
			log.Errorf("flow: panic in terminal signal: %v", err)
		}
	}()
	if t.err != nil {
		report.StreamsErrored.Incr()
		e.sub.OnError(t.err)
		return nil
	}
	report.StreamsCompleted.Incr()
	e.sub.OnComplete()
	return nil
}

func (e *Emitter[T]) fault(r interface{}, callback string) error {
	report.SubscriberPanic.Incr()
	return errs.WrapFrameError(errs.FromPanic(r), errs.RetSubscriberFail, "subscriber "+callback+" panicked")
}
