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

// Package conformance runs a matrix of exchanges with a fault injected at one lifecycle
// point each, and checks that every fault ends its stream cleanly: the exchange
// returns in time, the fault is reported, the subscriber sees at most one terminal
// signal and no chunk after the fault.
package conformance

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/body"
	"trpc.group/trpc-go/trpc-flow/faultinject"
	"trpc.group/trpc-go/trpc-flow/log"
	"trpc.group/trpc-go/trpc-flow/stream"
)

// Side is the side of an exchange a fault is injected on.
type Side uint8

// sides of an exchange.
const (
	SidePublisher Side = iota + 1
	SideSubscriber
)

// String returns the name of the side.
func (s Side) String() string {
	switch s {
	case SidePublisher:
		return "publisher"
	case SideSubscriber:
		return "subscriber"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

// MarshalText encodes the side by name.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a side encoded by MarshalText.
func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "publisher":
		*s = SidePublisher
	case "subscriber":
		*s = SideSubscriber
	default:
		return fmt.Errorf("conformance: unknown side %q", text)
	}
	return nil
}

// SideOf returns the side p belongs to.
func SideOf(p faultinject.Point) Side {
	for _, q := range faultinject.SubscriberPoints() {
		if p == q {
			return SideSubscriber
		}
	}
	return SidePublisher
}

// Case is one exchange of the matrix.
type Case struct {
	Name       string            `json:"name"`
	Point      faultinject.Point `json:"point"`
	Side       Side              `json:"side"`
	Publisher  string            `json:"publisher"`
	Subscriber string            `json:"subscriber"`
}

// Config is the config of a run.
type Config struct {
	// Points are the points to inject faults at, empty for all of them.
	Points []faultinject.Point
	// Timeout bounds a single case.
	Timeout time.Duration
	// Parallelism is the number of cases run at the same time.
	Parallelism int
	// Window is the receive window of the exchanges, small enough for a body to need
	// several requests.
	Window int
	// Logger logs the faults of the exchanges, nil logs to the default Logger.
	Logger log.Logger
}

// default values of Config.
const (
	DefaultTimeout = 2 * time.Second
	DefaultWindow  = 2
)

// ConfigFrom creates a Config from the conformance section of cfg.
func ConfigFrom(cfg *flow.Config) Config {
	c := Config{
		Timeout:     time.Duration(cfg.Conformance.TimeoutMs) * time.Millisecond,
		Parallelism: cfg.Conformance.Parallelism,
	}
	return c.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 1
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if len(c.Points) == 0 {
		c.Points = faultinject.Points()
	}
	return c
}

var (
	errUpstream = errors.New("request body source failed")
	errStop     = errors.New("subscriber stopped reading")
)

const lorem = "Lorem ipsum dolor sit amet, consectetur adipiscing elit"

type publisherFactory struct {
	name string
	new  func() flow.BodyPublisher
}

var publishers = []publisherFactory{
	{"chunks", func() flow.BodyPublisher {
		return body.BytesChunked([]byte(lorem), 8)
	}},
	{"concat", func() flow.BodyPublisher {
		return body.Concat(body.String("Lorem"), body.String(" "), body.NoBody(),
			body.BytesChunked([]byte("ipsum dolor sit amet"), 4))
	}},
	{"reader", func() flow.BodyPublisher {
		return body.Reader(strings.NewReader(lorem), int64(len(lorem)))
	}},
	{"failing", func() flow.BodyPublisher {
		return body.Concat(body.BytesChunked([]byte("Lorem ipsum"), 4),
			body.WithLength(stream.Fail[[]byte](errUpstream), flow.UnknownLength))
	}},
}

type subscriberFactory struct {
	name string
	// blocking subscribers are read after the exchange returned, a fault swallowing
	// their terminal signal leaves the reader blocked.
	blocking bool
	run      func(r *run) error
}

var subscribers = []subscriberFactory{
	{name: "collect", run: func(r *run) error {
		_, err := exchange(r, body.CollectString())
		return err
	}},
	{name: "hash", run: func(r *run) error {
		_, err := exchange(r, body.Hash())
		return err
	}},
	{name: "discard", run: func(r *run) error {
		_, err := exchange(r, body.Discard())
		return err
	}},
	{name: "each", run: func(r *run) error {
		n := 0
		_, err := exchange(r, body.Each(func([]byte) error {
			if n++; n == 2 {
				return errStop
			}
			return nil
		}))
		return err
	}},
	{name: "stream", blocking: true, run: func(r *run) error {
		rc, err := exchange(r, body.Stream())
		if err != nil {
			return err
		}
		defer rc.Close()
		_, err = io.ReadAll(rc)
		return err
	}},
}

// Cases returns the matrix of points, publishers and subscribers.
func Cases(points []faultinject.Point) []Case {
	var cases []Case
	for _, p := range points {
		for _, pub := range publishers {
			for _, sub := range subscribers {
				if sub.blocking && (p == faultinject.OnComplete || p == faultinject.OnError) {
					continue
				}
				cases = append(cases, Case{
					Name:       fmt.Sprintf("%s/%s/%s", p, pub.name, sub.name),
					Point:      p,
					Side:       SideOf(p),
					Publisher:  pub.name,
					Subscriber: sub.name,
				})
			}
		}
	}
	return cases
}

func publisherOf(name string) (publisherFactory, bool) {
	for _, p := range publishers {
		if p.name == name {
			return p, true
		}
	}
	return publisherFactory{}, false
}

func subscriberOf(name string) (subscriberFactory, bool) {
	for _, s := range subscribers {
		if s.name == name {
			return s, true
		}
	}
	return subscriberFactory{}, false
}
