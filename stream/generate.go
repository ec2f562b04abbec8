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

package stream

import (
	"io"

	"go.uber.org/atomic"

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/errs"
	"trpc.group/trpc-go/trpc-flow/executor"
	"trpc.group/trpc-go/trpc-flow/internal/demand"
	"trpc.group/trpc-go/trpc-flow/internal/emitter"
	"trpc.group/trpc-go/trpc-flow/internal/report"
	"trpc.group/trpc-go/trpc-flow/internal/scheduler"
	"trpc.group/trpc-go/trpc-flow/log"
)

// Generate creates a publisher which pulls its items from an Iterator. Each
// subscription gets a fresh Iterator from factory.
//
// The next item is fetched before demand is checked, so the subscriber is completed
// as soon as the iterator is exhausted, even without outstanding demand. An iterator
// error or panic is signaled as OnError carrying errs.RetUpstreamFail. A panicking
// subscriber cancels the iterator and gets OnError carrying errs.RetSubscriberFail.
func Generate[T any](factory func() Iterator[T], opts ...Option) flow.Publisher[T] {
	return &generator[T]{factory: factory, opts: newOptions(opts)}
}

type generator[T any] struct {
	factory func() Iterator[T]
	opts    *options
}

// Subscribe implements flow.Publisher.
func (g *generator[T]) Subscribe(sub flow.Subscriber[T]) {
	s := &iterSubscription[T]{
		em:   emitter.New(sub),
		exec: g.opts.executor(),
	}
	s.sched = scheduler.New(s.drain)

	it, err := openIterator(g.factory)
	if err != nil {
		s.sched.Stop()
		if err := s.em.Subscribe(s); err != nil {
			log.Debugf("stream: subscriber failed after a failed iterator: %v", err)
		}
		_ = s.em.Error(err)
		return
	}
	s.it = it
	if err := s.em.Subscribe(s); err != nil {
		s.cancelSource()
		_ = s.em.Error(err)
	}
}

func openIterator[T any](factory func() Iterator[T]) (it Iterator[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.WrapFrameError(errs.FromPanic(r), errs.RetUpstreamFail, "open iterator panicked")
		}
	}()
	if it = factory(); it == nil {
		return nil, errs.NewFrameError(errs.RetUpstreamFail, "iterator factory returned nil")
	}
	return it, nil
}

// iterSubscription is the subscription of one subscriber to a generator. All access
// to the iterator happens in drain, which the scheduler never runs concurrently.
type iterSubscription[T any] struct {
	it    Iterator[T]
	em    *emitter.Emitter[T]
	exec  executor.Executor
	sched *scheduler.Sequential

	demand    demand.Counter
	cancelled atomic.Bool
	badDemand atomic.Bool
	badN      atomic.Int64
	itClosed  bool

	peeked  T
	hasPeek bool
}

// Request implements flow.Subscription.
func (s *iterSubscription[T]) Request(n int64) {
	if n <= 0 {
		if s.badDemand.CompareAndSwap(false, true) {
			s.badN.Store(n)
		}
	} else {
		s.demand.Add(n)
	}
	s.schedule()
}

// Cancel implements flow.Subscription.
func (s *iterSubscription[T]) Cancel() {
	if s.cancelled.CompareAndSwap(false, true) {
		s.em.Stop()
		s.schedule()
	}
}

func (s *iterSubscription[T]) schedule() {
	s.sched.RunOn(s.exec)
}

func (s *iterSubscription[T]) drain() {
	for {
		if s.cancelled.Load() {
			s.finish()
			return
		}
		if s.badDemand.Load() {
			report.IllegalDemand.Incr()
			s.finish()
			_ = s.em.Error(errs.IllegalDemand(s.badN.Load()))
			return
		}
		if !s.hasPeek {
			item, ok, err := s.pull()
			if err != nil {
				s.finish()
				_ = s.em.Error(err)
				return
			}
			if !ok {
				s.finish()
				if err := s.em.Complete(); err != nil {
					log.Debugf("stream: %v", err)
				}
				return
			}
			s.peeked, s.hasPeek = item, true
		}
		if !s.demand.TryDecrement() {
			return
		}
		item := s.peeked
		var zero T
		s.peeked, s.hasPeek = zero, false
		if err := s.em.Next(item); err != nil {
			s.finish()
			_ = s.em.Error(err)
			return
		}
	}
}

func (s *iterSubscription[T]) pull() (item T, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			report.PublisherPanic.Incr()
			err = errs.WrapFrameError(errs.FromPanic(r), errs.RetUpstreamFail, "iterator panicked")
		}
	}()
	item, ok, err = s.it.Next()
	if err != nil {
		err = errs.WrapFrameError(err, errs.RetUpstreamFail, "iterator failed")
	}
	return item, ok, err
}

// finish ends the subscription on the drain goroutine.
func (s *iterSubscription[T]) finish() {
	s.sched.Stop()
	s.closeIterator()
}

// cancelSource is used outside drain, before any Request could have started it.
func (s *iterSubscription[T]) cancelSource() {
	s.cancelled.Store(true)
	s.sched.Run()
}

func (s *iterSubscription[T]) closeIterator() {
	if s.itClosed {
		return
	}
	s.itClosed = true
	var zero T
	s.peeked, s.hasPeek = zero, false
	if c, ok := s.it.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Debugf("stream: close iterator: %v", err)
		}
	}
}
