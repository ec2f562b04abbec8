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

// Package faultinject wraps publishers, subscriptions and subscribers so that a fault
// can be thrown at any point of the stream lifecycle. It is used to check that code
// driving a stream survives misbehaving user callbacks.
package faultinject

import (
	"fmt"
	"strings"
)

// Point is a lifecycle point where a fault can be injected.
type Point uint8

// lifecycle points.
const (
	// publisher side, reached in Publisher.Subscribe.
	BeforeSubscribe Point = iota + 1
	AfterSubscribe

	// publisher side, reached in Subscription.Request. The First and Next points are
	// reached in addition to BeforeRequest and AfterRequest.
	BeforeRequest
	AfterRequest
	BeforeFirstRequest
	AfterFirstRequest
	BeforeNextRequest
	AfterNextRequest

	// publisher side, reached in Subscription.Cancel.
	BeforeCancel
	AfterCancel

	// subscriber side.
	OnSubscribe
	OnNext
	OnComplete
	OnError
	// GetBody is reached when the result of a body subscriber is asked for.
	GetBody
)

var pointNames = map[Point]string{
	BeforeSubscribe:    "BeforeSubscribe",
	AfterSubscribe:     "AfterSubscribe",
	BeforeRequest:      "BeforeRequest",
	AfterRequest:       "AfterRequest",
	BeforeFirstRequest: "BeforeFirstRequest",
	AfterFirstRequest:  "AfterFirstRequest",
	BeforeNextRequest:  "BeforeNextRequest",
	AfterNextRequest:   "AfterNextRequest",
	BeforeCancel:       "BeforeCancel",
	AfterCancel:        "AfterCancel",
	OnSubscribe:        "OnSubscribe",
	OnNext:             "OnNext",
	OnComplete:         "OnComplete",
	OnError:            "OnError",
	GetBody:            "GetBody",
}

// String returns the name of the point.
func (p Point) String() string {
	if name, ok := pointNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Point(%d)", uint8(p))
}

// PublisherPoints returns the points reached by the publisher side wrappers, in
// lifecycle order.
func PublisherPoints() []Point {
	return []Point{
		BeforeSubscribe, AfterSubscribe,
		BeforeRequest, AfterRequest,
		BeforeFirstRequest, AfterFirstRequest,
		BeforeNextRequest, AfterNextRequest,
		BeforeCancel, AfterCancel,
	}
}

// SubscriberPoints returns the points reached by the subscriber side wrappers.
func SubscriberPoints() []Point {
	return []Point{OnSubscribe, OnNext, OnComplete, OnError, GetBody}
}

// Points returns all the points.
func Points() []Point {
	return append(PublisherPoints(), SubscriberPoints()...)
}

// MarshalText encodes the point by name.
func (p Point) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a point name, case insensitively.
func (p *Point) UnmarshalText(text []byte) error {
	q, err := ParsePoint(string(text))
	if err != nil {
		return err
	}
	*p = q
	return nil
}

// ParsePoint returns the point named name, case insensitively.
func ParsePoint(name string) (Point, error) {
	for p, n := range pointNames {
		if strings.EqualFold(n, name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("faultinject: unknown point %q", name)
}

// ParsePoints parses a comma separated list of point names.
func ParsePoints(list string) ([]Point, error) {
	var points []Point
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		p, err := ParsePoint(name)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}
