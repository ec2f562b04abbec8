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

// Package flow defines the demand-driven streaming contract of trpc-flow: a Publisher
// pushes items to a Subscriber, never more than the Subscriber asked for through its
// Subscription.
//
// A stream goes through CREATED -> SUBSCRIBED -> DELIVERING* and ends in exactly one
// of COMPLETED, ERRORED or CANCELLED. Terminal states are sticky.
package flow

// UnknownLength is the declared length of a body whose size is not known in advance.
const UnknownLength int64 = -1

// Subscription is the demand accounting handle between one Publisher and one Subscriber.
type Subscription interface {
	// Request asks for n more items. Demand accumulates and saturates at math.MaxInt64,
	// which means unbounded. For n <= 0 the Subscriber receives OnError carrying
	// errs.RetIllegalDemand, Request itself never panics for it.
	Request(n int64)
	// Cancel stops the stream. It is idempotent and may be called after the stream
	// has already terminated. No terminal signal follows a Cancel.
	Cancel()
}

// Subscriber receives at most one OnSubscribe, then OnNext no more often than the
// cumulative demand, then exactly one of OnError or OnComplete.
//
// Signals to a Subscriber are never concurrent. A Subscriber may block inside a
// callback, waiting on some other completion, but then the executor driving the
// Publisher must have enough workers to avoid a deadlock.
type Subscriber[T any] interface {
	OnSubscribe(s Subscription)
	OnNext(item T)
	OnError(err error)
	OnComplete()
}

// Publisher is a demand-gated source of items. Each Subscribe starts an independent
// Subscription unless the Publisher documents that it accepts a single Subscriber.
type Publisher[T any] interface {
	Subscribe(s Subscriber[T])
}

// BodyPublisher is a Publisher of byte chunks which declares its total length.
type BodyPublisher interface {
	Publisher[[]byte]
	// ContentLength returns the declared length in bytes, or UnknownLength.
	// It is side effect free and may be called before and after Subscribe.
	ContentLength() int64
}

// BodySubscriber is a Subscriber of byte chunks which makes a value of the body.
type BodySubscriber[T any] interface {
	Subscriber[[]byte]
	// Body returns the future value of the body.
	Body() *Future[T]
}

// State is the lifecycle state of a subscription.
type State int32

// All states of a subscription.
const (
	StateCreated State = iota
	StateSubscribed
	StateDelivering
	StateCompleted
	StateErrored
	StateCancelled
)

var stateNames = map[State]string{
	StateCreated:    "CREATED",
	StateSubscribed: "SUBSCRIBED",
	StateDelivering: "DELIVERING",
	StateCompleted:  "COMPLETED",
	StateErrored:    "ERRORED",
	StateCancelled:  "CANCELLED",
}

// String returns the name of the state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Terminal reports whether no signal can follow s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateErrored || s == StateCancelled
}
