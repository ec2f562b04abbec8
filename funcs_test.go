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

package flow_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"trpc.group/trpc-go/trpc-flow"
)

func TestSubscriberFuncs(t *testing.T) {
	var (
		sub      flow.Subscription
		items    []int
		err      error
		complete bool
	)
	s := &flow.SubscriberFuncs[int]{
		OnSubscribeFunc: func(s flow.Subscription) { sub = s },
		OnNextFunc:      func(i int) { items = append(items, i) },
		OnErrorFunc:     func(e error) { err = e },
		OnCompleteFunc:  func() { complete = true },
	}
	var requested int64
	cancelled := false
	subscription := &flow.SubscriptionFuncs{
		RequestFunc: func(n int64) { requested += n },
		CancelFunc:  func() { cancelled = true },
	}

	p := flow.PublisherFunc[int](func(s flow.Subscriber[int]) {
		s.OnSubscribe(subscription)
		s.OnNext(1)
		s.OnNext(2)
		s.OnError(errors.New("boom"))
		s.OnComplete()
	})
	p.Subscribe(s)
	sub.Request(3)
	sub.Cancel()

	assert.Equal(t, []int{1, 2}, items)
	assert.EqualError(t, err, "boom")
	assert.True(t, complete)
	assert.Equal(t, int64(3), requested)
	assert.True(t, cancelled)
}

func TestFuncsNil(t *testing.T) {
	s := &flow.SubscriberFuncs[string]{}
	sub := &flow.SubscriptionFuncs{}
	assert.NotPanics(t, func() {
		s.OnSubscribe(sub)
		s.OnNext("x")
		s.OnError(errors.New("logged"))
		s.OnComplete()
		sub.Request(1)
		sub.Cancel()
	})
}
