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

package body

import (
	"go.uber.org/atomic"

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/errs"
	"trpc.group/trpc-go/trpc-flow/internal/demand"
	"trpc.group/trpc-go/trpc-flow/internal/emitter"
	"trpc.group/trpc-go/trpc-flow/internal/report"
	"trpc.group/trpc-go/trpc-flow/internal/scheduler"
	"trpc.group/trpc-go/trpc-flow/log"
)

// Concat creates a body publishing the chunks of bodies one after another.
//
// A body is subscribed only when it becomes the active one, and demand it was granted
// but did not use when it completes carries over to the next body. The first error
// is forwarded and no later body is subscribed. Cancel cancels the active body only.
// The declared length is the sum of the declared lengths, unknown if any of them is
// unknown or the sum does not fit in an int64. Without bodies, Concat is a body of
// length 0 which completes on the first request.
func Concat(bodies ...flow.BodyPublisher) flow.BodyPublisher {
	lengths := make([]int64, len(bodies))
	for i, b := range bodies {
		lengths[i] = b.ContentLength()
	}
	return &concat{
		bodies: bodies,
		length: flow.SumLengths(lengths...),
	}
}

type concat struct {
	bodies []flow.BodyPublisher
	length int64
}

// ContentLength implements flow.BodyPublisher.
func (c *concat) ContentLength() int64 {
	return c.length
}

// Subscribe implements flow.BodyPublisher.
func (c *concat) Subscribe(sub flow.Subscriber[[]byte]) {
	s := &concatSubscription{
		bodies: c.bodies,
		em:     emitter.New(sub),
	}
	s.sched = scheduler.New(s.run)
	if err := s.em.Subscribe(s); err != nil {
		s.abort(err)
	}
}

// concatSubscription forwards the demand of the downstream subscriber to the active
// upstream. index and active are only accessed by run.
type concatSubscription struct {
	bodies []flow.BodyPublisher
	em     *emitter.Emitter[[]byte]
	sched  *scheduler.Sequential

	// pending is the downstream demand not forwarded to an upstream yet.
	pending   demand.Counter
	cancelled atomic.Bool
	badDemand atomic.Bool
	badN      atomic.Int64
	failure   atomic.Error

	index  int
	active *upstream
}

// Request implements flow.Subscription.
func (s *concatSubscription) Request(n int64) {
	if n <= 0 {
		if s.badDemand.CompareAndSwap(false, true) {
			s.badN.Store(n)
		}
	} else {
		s.pending.Add(n)
	}
	s.sched.Run()
}

// Cancel implements flow.Subscription.
func (s *concatSubscription) Cancel() {
	if s.cancelled.CompareAndSwap(false, true) {
		s.em.Stop()
		s.sched.Run()
	}
}

// abort fails the stream with err, the first failure wins.
func (s *concatSubscription) abort(err error) {
	if s.failure.CompareAndSwap(nil, err) {
		s.sched.Run()
	}
}

func (s *concatSubscription) run() {
	for {
		if s.cancelled.Load() {
			s.stop()
			return
		}
		if err := s.failure.Load(); err != nil {
			s.stop()
			_ = s.em.Error(err)
			return
		}
		if s.badDemand.Load() {
			report.IllegalDemand.Incr()
			s.stop()
			_ = s.em.Error(errs.IllegalDemand(s.badN.Load()))
			return
		}

		if a := s.active; a != nil {
			if err := a.err.Load(); err != nil {
				s.active = nil
				s.stop()
				_ = s.em.Error(err)
				return
			}
			if a.completed.Load() {
				if leftover := a.leftover(); leftover > 0 {
					s.pending.Add(leftover)
				}
				s.active = nil
				s.index++
				continue
			}
			sub := a.subscription()
			if sub == nil {
				// waiting for OnSubscribe of the upstream.
				return
			}
			n := s.pending.Take()
			if n == 0 {
				return
			}
			a.granted.Store(demand.SatAdd(a.granted.Load(), n))
			if err := guard(func() { sub.Request(n) }, "Request"); err != nil {
				s.abort(err)
			}
			continue
		}

		if s.index >= len(s.bodies) {
			s.stop()
			if err := s.em.Complete(); err != nil {
				log.Debugf("body: concat: %v", err)
			}
			return
		}
		if s.pending.Load() == 0 {
			return
		}
		a := &upstream{parent: s}
		s.active = a
		body := s.bodies[s.index]
		if err := guard(func() { body.Subscribe(a) }, "Subscribe"); err != nil {
			s.abort(err)
		}
	}
}

// stop cancels the active upstream and prevents any later one from being subscribed.
func (s *concatSubscription) stop() {
	s.sched.Stop()
	a := s.active
	s.active = nil
	if a == nil {
		return
	}
	a.cancel()
}

// guard calls an upstream publisher or subscription, a panic is returned as an error
// carrying errs.RetPublisherFail.
func guard(call func(), method string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			report.PublisherPanic.Incr()
			err = errs.WrapFrameError(errs.FromPanic(r), errs.RetPublisherFail, "upstream body "+method+" panicked")
		}
	}()
	call()
	return nil
}

// upstream is the subscriber concat attaches to one of its bodies.
type upstream struct {
	parent    *concatSubscription
	sub       atomic.Value
	granted   atomic.Int64
	delivered atomic.Int64
	completed atomic.Bool
	err       atomic.Error
	done      atomic.Bool
	cancelled atomic.Bool
}

// cancel ends the upstream, its subscription is cancelled at most once and only
// while it has not terminated.
func (u *upstream) cancel() {
	u.done.Store(true)
	sub := u.subscription()
	if sub == nil || u.completed.Load() || u.err.Load() != nil {
		return
	}
	if !u.cancelled.CompareAndSwap(false, true) {
		return
	}
	if err := guard(sub.Cancel, "Cancel"); err != nil {
		log.Debugf("body: concat: %v", err)
	}
}

type subscriptionHolder struct {
	flow.Subscription
}

func (u *upstream) subscription() flow.Subscription {
	if h, ok := u.sub.Load().(subscriptionHolder); ok {
		return h.Subscription
	}
	return nil
}

// leftover returns the demand granted to the upstream that it did not use.
func (u *upstream) leftover() int64 {
	granted := u.granted.Load()
	if granted == demand.Unbounded {
		return demand.Unbounded
	}
	if left := granted - u.delivered.Load(); left > 0 {
		return left
	}
	return 0
}

func (u *upstream) OnSubscribe(sub flow.Subscription) {
	if u.done.Load() || u.subscription() != nil {
		sub.Cancel()
		return
	}
	u.sub.Store(subscriptionHolder{sub})
	u.parent.sched.Run()
}

// OnNext may run inside the Request call of run, so a downstream cancel or failure
// seen here cancels the upstream directly.
func (u *upstream) OnNext(chunk []byte) {
	if u.done.Load() || u.completed.Load() {
		return
	}
	if u.parent.cancelled.Load() || u.parent.failure.Load() != nil {
		u.cancel()
		return
	}
	delivered := u.delivered.Inc()
	if granted := u.granted.Load(); granted != demand.Unbounded && delivered > granted {
		u.cancel()
		u.parent.abort(errs.NewFrameErrorf(errs.RetPublisherFail,
			"upstream body delivered %d chunks, only %d requested", delivered, granted))
		return
	}
	if err := u.parent.em.Next(chunk); err != nil {
		u.cancel()
		u.parent.abort(err)
		return
	}
	if u.parent.cancelled.Load() {
		u.cancel()
	}
}

func (u *upstream) OnError(err error) {
	if u.done.Load() || u.completed.Load() {
		return
	}
	if err == nil {
		err = errs.ErrUnknown
	}
	if u.err.CompareAndSwap(nil, err) {
		u.parent.sched.Run()
	}
}

func (u *upstream) OnComplete() {
	if u.done.Load() || u.err.Load() != nil {
		return
	}
	if u.completed.CompareAndSwap(false, true) {
		u.parent.sched.Run()
	}
}
