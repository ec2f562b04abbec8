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
	"sync"
	"testing"
	"time"

	"trpc.group/trpc-go/trpc-flow"
)

// recorder is a subscriber recording every signal it receives.
type recorder struct {
	mu        sync.Mutex
	sub       flow.Subscription
	chunks    [][]byte
	errs      []error
	completes int
	done      chan struct{}
	onNext    func(r *recorder, chunk []byte)
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) OnSubscribe(sub flow.Subscription) {
	r.sub = sub
}

func (r *recorder) OnNext(chunk []byte) {
	r.mu.Lock()
	r.chunks = append(r.chunks, chunk)
	r.mu.Unlock()
	if r.onNext != nil {
		r.onNext(r, chunk)
	}
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	close(r.done)
}

func (r *recorder) OnComplete() {
	r.mu.Lock()
	r.completes++
	r.mu.Unlock()
	close(r.done)
}

func (r *recorder) terminals() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completes + len(r.errs)
}

func (r *recorder) strings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := make([]string, len(r.chunks))
	for i, c := range r.chunks {
		s[i] = string(c)
	}
	return s
}

func (r *recorder) joined() string {
	s := ""
	for _, c := range r.strings() {
		s += c
	}
	return s
}

func (r *recorder) wait(t *testing.T) {
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("no terminal signal")
	}
}

// contentLengthBody only declares a length and never publishes any chunk.
type contentLengthBody struct {
	length int64
}

func (b contentLengthBody) ContentLength() int64 {
	return b.length
}

func (b contentLengthBody) Subscribe(s flow.Subscriber[[]byte]) {
	s.OnSubscribe(&flow.SubscriptionFuncs{})
}

// spyBody records how concat uses it.
type spyBody struct {
	flow.BodyPublisher
	mu         sync.Mutex
	subscribes int
	requests   []int64
	cancels    int
}

func spy(b flow.BodyPublisher) *spyBody {
	return &spyBody{BodyPublisher: b}
}

func (b *spyBody) Subscribe(s flow.Subscriber[[]byte]) {
	b.mu.Lock()
	b.subscribes++
	b.mu.Unlock()
	b.BodyPublisher.Subscribe(&spySubscriber{Subscriber: s, body: b})
}

type spySubscriber struct {
	flow.Subscriber[[]byte]
	body *spyBody
}

func (s *spySubscriber) OnSubscribe(sub flow.Subscription) {
	s.Subscriber.OnSubscribe(&flow.SubscriptionFuncs{
		RequestFunc: func(n int64) {
			s.body.mu.Lock()
			s.body.requests = append(s.body.requests, n)
			s.body.mu.Unlock()
			sub.Request(n)
		},
		CancelFunc: func() {
			s.body.mu.Lock()
			s.body.cancels++
			s.body.mu.Unlock()
			sub.Cancel()
		},
	})
}
