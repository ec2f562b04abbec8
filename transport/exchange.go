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

package transport

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/errs"
	"trpc.group/trpc-go/trpc-flow/executor"
	"trpc.group/trpc-go/trpc-flow/internal/demand"
	"trpc.group/trpc-go/trpc-flow/internal/emitter"
	"trpc.group/trpc-go/trpc-flow/internal/report"
	"trpc.group/trpc-go/trpc-flow/internal/scheduler"
	"trpc.group/trpc-go/trpc-flow/stream"
)

// Exchange sends body through t and reads the echoed chunks with sink. It returns
// the value of the body of sink, or the failure of the exchange.
//
// The request body is cancelled when the exchange fails: when any call into body or
// sink panics, when body does not match its declared length, when sink requests a
// non-positive count, or when ctx is done. The returned error wraps the original
// fault, errs.Root returns it. An error of the request body is forwarded to sink at
// once, the chunks not delivered yet are dropped. A nil t is the Default Transport.
func Exchange[T any](ctx context.Context, t *Transport, body flow.BodyPublisher,
	sink flow.BodySubscriber[T]) (T, error) {
	var zero T
	if t == nil {
		t = Default()
	}
	fut, err := bodyOf(sink)
	if err != nil {
		report.ExchangeFail.Incr()
		t.logger().Debugf("transport: exchange failed: %v", err)
		return zero, errs.Completion(err)
	}

	x := newExchange(t, body.ContentLength(), sink)
	x.stopCtx = context.AfterFunc(ctx, func() { x.fail(canceled(ctx)) })
	x.start(body)

	select {
	case <-fut.Done():
	case <-x.finished:
	case <-ctx.Done():
		err := canceled(ctx)
		x.fail(err)
		return zero, err
	}
	v, err, ok := fut.TryGet()
	if !ok {
		if reason := x.reason.Load(); reason != nil {
			return zero, errs.Completion(reason)
		}
		// completed, the subscriber has not produced its value yet.
		if v, err = fut.Get(ctx); err != nil {
			return zero, err
		}
	}
	if ferr := x.failure.Load(); err == nil && ferr != nil {
		// a fault raised once the body was complete still fails the exchange.
		return zero, errs.Completion(ferr)
	}
	return v, err
}

func bodyOf[T any](sink flow.BodySubscriber[T]) (fut *flow.Future[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			report.SubscriberPanic.Incr()
			err = errs.WrapFrameError(errs.FromPanic(r), errs.RetSubscriberFail, "subscriber Body panicked")
		}
	}()
	if fut = sink.Body(); fut == nil {
		return nil, errs.NewFrameError(errs.RetSubscriberFail, "subscriber returned a nil body")
	}
	return fut, nil
}

func canceled(ctx context.Context) error {
	return errs.WrapFrameError(ctx.Err(), errs.RetCanceled, "exchange cancelled")
}

var errSinkCancelled = errs.NewFrameError(errs.RetCanceled, "response body cancelled by subscriber")

// exchange is the state of one Exchange. It is the subscription given to the response
// subscriber, its pipe subscribes to the request body. Chunks are buffered between
// both, the window bounds the buffer.
type exchange struct {
	t      *Transport
	length flow.Length
	em     *emitter.Emitter[[]byte]
	sched  *scheduler.Sequential
	exec   executor.Executor
	window *stream.Window

	// response side.
	demand    demand.Counter
	cancelled atomic.Bool
	badDemand atomic.Bool
	badN      atomic.Int64
	failure   atomic.Error

	// request side.
	up          atomic.Value
	upCancelled atomic.Bool
	upEnded     atomic.Bool
	upErr       atomic.Error
	upComplete  atomic.Bool
	granted     atomic.Int64 // chunks
	arrived     atomic.Int64 // chunks
	received    atomic.Int64 // bytes
	mu          sync.Mutex
	buf         [][]byte

	// only accessed by drain.
	opened bool

	finished   chan struct{}
	finishOnce sync.Once
	reason     atomic.Error
	stopCtx    func() bool
}

type subscriptionHolder struct {
	flow.Subscription
}

func newExchange(t *Transport, length int64, sink flow.Subscriber[[]byte]) *exchange {
	x := &exchange{
		t:        t,
		exec:     t.executor(),
		length:   flow.LengthOf(length),
		em:       emitter.New(sink),
		finished: make(chan struct{}),
		stopCtx:  func() bool { return false },
	}
	x.sched = scheduler.New(x.drain)
	x.window = stream.NewWindow(t.opts.Window, x.requestUpstream)
	report.TransportWindow.Set(float64(x.window.Size()))
	return x
}

func (x *exchange) start(body flow.BodyPublisher) {
	if err := x.em.Subscribe(x); err != nil {
		x.fail(err)
		return
	}
	if x.em.Done() || x.failure.Load() != nil {
		x.schedule()
		return
	}
	if err := guard(func() { body.Subscribe(&pipe{x: x}) }, "Subscribe"); err != nil {
		x.fail(err)
	}
}

// Request implements flow.Subscription.
func (x *exchange) Request(n int64) {
	if n <= 0 {
		if x.badDemand.CompareAndSwap(false, true) {
			x.badN.Store(n)
		}
	} else {
		x.demand.Add(n)
	}
	x.schedule()
}

// Cancel implements flow.Subscription.
func (x *exchange) Cancel() {
	if x.cancelled.CompareAndSwap(false, true) {
		x.em.Stop()
		x.schedule()
	}
}

// fail ends the exchange with err, the first failure wins.
func (x *exchange) fail(err error) {
	if x.failure.CompareAndSwap(nil, err) {
		x.schedule()
	}
}

func (x *exchange) schedule() {
	x.sched.RunOn(x.exec)
}

func (x *exchange) isFinished() bool {
	select {
	case <-x.finished:
		return true
	default:
		return false
	}
}

func (x *exchange) drain() {
	for {
		if x.cancelled.Load() {
			x.sched.Stop()
			x.cancelUpstream()
			x.finish(errSinkCancelled)
			return
		}
		if err := x.failure.Load(); err != nil {
			x.abort(err)
			return
		}
		if x.badDemand.Load() {
			report.IllegalDemand.Incr()
			x.abort(errs.IllegalDemand(x.badN.Load()))
			return
		}
		if err := x.upErr.Load(); err != nil {
			x.abort(err)
			return
		}
		if !x.opened && x.upstream() != nil {
			x.opened = true
			x.window.Open()
			continue
		}
		if chunk, ok := x.peek(); ok {
			if !x.demand.TryDecrement() {
				return
			}
			x.pop()
			report.ChunkSize.AddSample(float64(len(chunk)))
			if err := x.em.Next(chunk); err != nil {
				x.abort(err)
				return
			}
			if !x.upEnded.Load() && !x.cancelled.Load() {
				x.window.OnRecv(1)
			}
			continue
		}
		if x.upComplete.Load() {
			x.sched.Stop()
			if n := x.received.Load(); x.length.IsKnown() && n < x.length.Int64() {
				x.abort(fmt.Errorf("%w: received %d bytes, declared %d", errs.ErrTooFewBytes, n, x.length.Int64()))
				return
			}
			x.finish(x.em.Complete())
			return
		}
		return
	}
}

// abort cancels the request body, signals err to the response subscriber and ends
// the exchange.
func (x *exchange) abort(err error) {
	x.sched.Stop()
	x.cancelUpstream()
	if serr := x.em.Error(err); serr != nil {
		x.t.logger().Debugf("transport: response subscriber failed on error: %v", serr)
	}
	x.finish(err)
}

// finish ends the exchange, reason is nil for a completed exchange.
func (x *exchange) finish(reason error) {
	x.finishOnce.Do(func() {
		x.stopCtx()
		x.mu.Lock()
		x.buf = nil
		x.mu.Unlock()
		if reason != nil {
			report.ExchangeFail.Incr()
			x.t.logger().Debugf("transport: exchange failed: %v", reason)
			x.reason.Store(reason)
		}
		close(x.finished)
	})
}

func (x *exchange) upstream() flow.Subscription {
	if h, ok := x.up.Load().(subscriptionHolder); ok {
		return h.Subscription
	}
	return nil
}

func (x *exchange) requestUpstream(n int64) {
	sub := x.upstream()
	if sub == nil {
		return
	}
	x.granted.Add(n)
	if err := guard(func() { sub.Request(n) }, "Request"); err != nil {
		x.fail(err)
	}
}

// cancelUpstream cancels the request body once, unless it has ended.
func (x *exchange) cancelUpstream() {
	sub := x.upstream()
	if sub == nil || x.upEnded.Load() {
		return
	}
	if !x.upCancelled.CompareAndSwap(false, true) {
		return
	}
	if err := guard(sub.Cancel, "Cancel"); err != nil {
		x.t.logger().Debugf("transport: %v", err)
	}
}

func (x *exchange) peek() ([]byte, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.buf) == 0 {
		return nil, false
	}
	return x.buf[0], true
}

func (x *exchange) pop() {
	x.mu.Lock()
	x.buf[0] = nil
	x.buf = x.buf[1:]
	x.mu.Unlock()
}

func (x *exchange) push(chunk []byte) {
	x.mu.Lock()
	x.buf = append(x.buf, chunk)
	x.mu.Unlock()
}

// pipe is the subscriber of the request body.
type pipe struct {
	x *exchange
}

func (p *pipe) OnSubscribe(sub flow.Subscription) {
	x := p.x
	if x.upstream() != nil {
		sub.Cancel()
		return
	}
	x.up.Store(subscriptionHolder{sub})
	if x.isFinished() {
		x.cancelUpstream()
		return
	}
	x.schedule()
}

func (p *pipe) OnNext(chunk []byte) {
	x := p.x
	if x.upEnded.Load() || x.isFinished() {
		return
	}
	if arrived := x.arrived.Inc(); arrived > x.granted.Load() {
		x.fail(errs.NewFrameErrorf(errs.RetPublisherFail,
			"request body delivered %d chunks, only %d requested", arrived, x.granted.Load()))
		x.cancelUpstream()
		return
	}
	n := x.received.Add(int64(len(chunk)))
	if x.length.IsKnown() && n > x.length.Int64() {
		x.fail(fmt.Errorf("%w: received %d bytes, declared %d", errs.ErrTooManyBytes, n, x.length.Int64()))
		x.cancelUpstream()
		return
	}
	x.push(chunk)
	x.schedule()
}

func (p *pipe) OnError(err error) {
	x := p.x
	if err == nil {
		err = errs.ErrUnknown
	}
	if x.upEnded.CompareAndSwap(false, true) {
		x.upErr.Store(err)
		x.schedule()
	}
}

func (p *pipe) OnComplete() {
	x := p.x
	if x.upEnded.CompareAndSwap(false, true) {
		x.upComplete.Store(true)
		x.schedule()
	}
}

// guard calls the request body, a panic is returned as an error carrying
// errs.RetPublisherFail.
func guard(call func(), method string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			report.PublisherPanic.Incr()
			err = errs.WrapFrameError(errs.FromPanic(r), errs.RetPublisherFail, "request body "+method+" panicked")
		}
	}()
	call()
	return nil
}
