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
	"trpc.group/trpc-go/trpc-flow/log"
)

// SubscriberFuncs assembles a Subscriber from functions. A nil function does nothing,
// except a nil OnErrorFunc which logs the error.
type SubscriberFuncs[T any] struct {
	OnSubscribeFunc func(Subscription)
	OnNextFunc      func(T)
	OnErrorFunc     func(error)
	OnCompleteFunc  func()
}

// OnSubscribe implements Subscriber.
func (s *SubscriberFuncs[T]) OnSubscribe(sub Subscription) {
	if s.OnSubscribeFunc != nil {
		s.OnSubscribeFunc(sub)
	}
}

// OnNext implements Subscriber.
func (s *SubscriberFuncs[T]) OnNext(item T) {
	if s.OnNextFunc != nil {
		s.OnNextFunc(item)
	}
}

// OnError implements Subscriber.
func (s *SubscriberFuncs[T]) OnError(err error) {
	if s.OnErrorFunc != nil {
		s.OnErrorFunc(err)
		return
	}
	log.Errorf("flow: unhandled stream error: %v", err)
}

// OnComplete implements Subscriber.
func (s *SubscriberFuncs[T]) OnComplete() {
	if s.OnCompleteFunc != nil {
		s.OnCompleteFunc()
	}
}

// SubscriptionFuncs assembles a Subscription from functions, nil functions do nothing.
type SubscriptionFuncs struct {
	RequestFunc func(n int64)
	CancelFunc  func()
}

// Request implements Subscription.
func (s *SubscriptionFuncs) Request(n int64) {
	if s.RequestFunc != nil {
		s.RequestFunc(n)
	}
}

// Cancel implements Subscription.
func (s *SubscriptionFuncs) Cancel() {
	if s.CancelFunc != nil {
		s.CancelFunc()
	}
}

// PublisherFunc is an adapter to allow the use of ordinary functions as Publisher.
type PublisherFunc[T any] func(Subscriber[T])

// Subscribe calls f(s).
func (f PublisherFunc[T]) Subscribe(s Subscriber[T]) {
	f(s)
}
