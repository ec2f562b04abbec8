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
	"go.uber.org/atomic"

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/errs"
	"trpc.group/trpc-go/trpc-flow/internal/emitter"
	"trpc.group/trpc-go/trpc-flow/log"
)

// FromSlice creates a publisher of items.
func FromSlice[T any](items []T, opts ...Option) flow.Publisher[T] {
	return Generate(func() Iterator[T] { return SliceIterator(items) }, opts...)
}

// Empty creates a publisher which completes on the first request without any item.
func Empty[T any](opts ...Option) flow.Publisher[T] {
	return FromSlice[T](nil, opts...)
}

// Fail creates a publisher which signals OnError(err) right after OnSubscribe.
func Fail[T any](err error) flow.Publisher[T] {
	return flow.PublisherFunc[T](func(sub flow.Subscriber[T]) {
		em := emitter.New(sub)
		if serr := em.Subscribe(&flow.SubscriptionFuncs{CancelFunc: func() { em.Stop() }}); serr != nil {
			log.Debugf("stream: subscriber of a failed publisher panicked: %v", serr)
		}
		_ = em.Error(err)
	})
}

// Once turns p into a publisher accepting a single subscriber. Later subscribers
// get OnError carrying errs.RetAlreadySubscribed.
func Once[T any](p flow.Publisher[T]) flow.Publisher[T] {
	return &once[T]{p: p}
}

type once[T any] struct {
	p          flow.Publisher[T]
	subscribed atomic.Bool
}

// Subscribe implements flow.Publisher.
func (o *once[T]) Subscribe(sub flow.Subscriber[T]) {
	if !o.subscribed.CompareAndSwap(false, true) {
		Fail[T](errs.ErrAlreadySubscribed).Subscribe(sub)
		return
	}
	o.p.Subscribe(sub)
}

// Map creates a publisher applying fn to each item of p. An error returned by fn, or
// a panic, cancels p and is signaled as OnError carrying errs.RetUpstreamFail.
func Map[T, U any](p flow.Publisher[T], fn func(T) (U, error)) flow.Publisher[U] {
	return flow.PublisherFunc[U](func(sub flow.Subscriber[U]) {
		p.Subscribe(&mapper[T, U]{fn: fn, down: sub})
	})
}

type mapper[T, U any] struct {
	fn   func(T) (U, error)
	down flow.Subscriber[U]
	up   flow.Subscription
	done atomic.Bool
}

func (m *mapper[T, U]) OnSubscribe(s flow.Subscription) {
	m.up = s
	m.down.OnSubscribe(&flow.SubscriptionFuncs{
		RequestFunc: s.Request,
		CancelFunc: func() {
			m.done.Store(true)
			s.Cancel()
		},
	})
}

func (m *mapper[T, U]) OnNext(item T) {
	if m.done.Load() {
		return
	}
	u, err := m.apply(item)
	if err != nil {
		if m.done.CompareAndSwap(false, true) {
			m.up.Cancel()
			m.down.OnError(err)
		}
		return
	}
	m.down.OnNext(u)
}

func (m *mapper[T, U]) apply(item T) (u U, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.WrapFrameError(errs.FromPanic(r), errs.RetUpstreamFail, "map function panicked")
		}
	}()
	if u, err = m.fn(item); err != nil {
		return u, errs.WrapFrameError(err, errs.RetUpstreamFail, "map function failed")
	}
	return u, nil
}

func (m *mapper[T, U]) OnError(err error) {
	if m.done.CompareAndSwap(false, true) {
		m.down.OnError(err)
	}
}

func (m *mapper[T, U]) OnComplete() {
	if m.done.CompareAndSwap(false, true) {
		m.down.OnComplete()
	}
}
