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

package faultinject

import (
	"go.uber.org/atomic"

	"trpc.group/trpc-go/trpc-flow"
)

// Publisher wraps a body publisher. Subscribe reaches BeforeSubscribe and
// AfterSubscribe, and the subscription handed to the subscriber is wrapped with
// Subscription. A fault thrown at a Before point prevents the call from being
// forwarded, a fault thrown at an After point is thrown once the call returned.
func Publisher(p flow.BodyPublisher, inj Injector) flow.BodyPublisher {
	return &publisher{BodyPublisher: p, inj: inj}
}

type publisher struct {
	flow.BodyPublisher
	inj Injector
}

// Subscribe implements flow.Publisher.
func (p *publisher) Subscribe(s flow.Subscriber[[]byte]) {
	throw(p.inj, BeforeSubscribe)
	p.BodyPublisher.Subscribe(&subscriptionWrapper{Subscriber: s, inj: p.inj})
	throw(p.inj, AfterSubscribe)
}

// subscriptionWrapper hands the wrapped subscription to the subscriber.
type subscriptionWrapper struct {
	flow.Subscriber[[]byte]
	inj Injector
}

func (w *subscriptionWrapper) OnSubscribe(sub flow.Subscription) {
	w.Subscriber.OnSubscribe(Subscription(sub, w.inj))
}

// Subscription wraps a subscription. Request reaches BeforeRequest and AfterRequest,
// plus BeforeFirstRequest and AfterFirstRequest on the first call and
// BeforeNextRequest and AfterNextRequest on later calls. Cancel reaches BeforeCancel
// and AfterCancel.
func Subscription(s flow.Subscription, inj Injector) flow.Subscription {
	return &subscription{sub: s, inj: inj}
}

type subscription struct {
	sub       flow.Subscription
	inj       Injector
	requested atomic.Bool
}

// Request implements flow.Subscription.
func (s *subscription) Request(n int64) {
	before, after := BeforeNextRequest, AfterNextRequest
	if s.requested.CompareAndSwap(false, true) {
		before, after = BeforeFirstRequest, AfterFirstRequest
	}
	throw(s.inj, BeforeRequest)
	throw(s.inj, before)
	s.sub.Request(n)
	throw(s.inj, AfterRequest)
	throw(s.inj, after)
}

// Cancel implements flow.Subscription.
func (s *subscription) Cancel() {
	throw(s.inj, BeforeCancel)
	s.sub.Cancel()
	throw(s.inj, AfterCancel)
}

// Subscriber wraps a subscriber, each callback reaches the point of the same name
// before being forwarded.
func Subscriber[T any](s flow.Subscriber[T], inj Injector) flow.Subscriber[T] {
	return &subscriber[T]{sub: s, inj: inj}
}

type subscriber[T any] struct {
	sub flow.Subscriber[T]
	inj Injector
}

func (s *subscriber[T]) OnSubscribe(sub flow.Subscription) {
	throw(s.inj, OnSubscribe)
	s.sub.OnSubscribe(sub)
}

func (s *subscriber[T]) OnNext(item T) {
	throw(s.inj, OnNext)
	s.sub.OnNext(item)
}

func (s *subscriber[T]) OnError(err error) {
	throw(s.inj, OnError)
	s.sub.OnError(err)
}

func (s *subscriber[T]) OnComplete() {
	throw(s.inj, OnComplete)
	s.sub.OnComplete()
}

// BodySubscriber wraps a body subscriber like Subscriber, Body also reaches GetBody.
func BodySubscriber[T any](s flow.BodySubscriber[T], inj Injector) flow.BodySubscriber[T] {
	return &bodySubscriber[T]{
		subscriber: subscriber[[]byte]{sub: s, inj: inj},
		body:       s,
	}
}

var _ flow.BodySubscriber[string] = (*bodySubscriber[string])(nil)

type bodySubscriber[T any] struct {
	subscriber[[]byte]
	body flow.BodySubscriber[T]
}

// Body implements flow.BodySubscriber.
func (s *bodySubscriber[T]) Body() *flow.Future[T] {
	throw(s.inj, GetBody)
	return s.body.Body()
}
