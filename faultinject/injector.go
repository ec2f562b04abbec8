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
	"errors"
	"fmt"
	"sync"
)

// ErrInjected is the error injected by At.
var ErrInjected = errors.New("injected fault")

// Injector decides whether a fault is thrown at a point. A non-nil error is thrown.
type Injector interface {
	Inject(p Point) error
}

// InjectorFunc is an adapter to allow the use of ordinary functions as Injector.
type InjectorFunc func(p Point) error

// Inject calls f(p).
func (f InjectorFunc) Inject(p Point) error {
	return f(p)
}

// Never is the Injector which never throws.
var Never Injector = InjectorFunc(func(Point) error { return nil })

// At returns an Injector throwing ErrInjected each time one of points is reached.
func At(points ...Point) Injector {
	set := make(map[Point]bool, len(points))
	for _, p := range points {
		set[p] = true
	}
	return InjectorFunc(func(p Point) error {
		if set[p] {
			return ErrInjected
		}
		return nil
	})
}

// Fault is the panic value thrown by the wrappers. It records the point and the error
// returned by the Injector.
type Fault struct {
	Point Point
	Err   error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return fmt.Sprintf("fault at %s: %v", f.Point, f.Err)
}

// Unwrap returns the injected error.
func (f *Fault) Unwrap() error {
	return f.Err
}

// throw panics with a *Fault if inj decides so.
func throw(inj Injector, p Point) {
	if err := inj.Inject(p); err != nil {
		panic(&Fault{Point: p, Err: err})
	}
}

// Recorder is an Injector recording the points reached, in order, before asking the
// next Injector.
type Recorder struct {
	next Injector

	mu     sync.Mutex
	points []Point
}

// NewRecorder creates a Recorder asking next, a nil next never throws.
func NewRecorder(next Injector) *Recorder {
	if next == nil {
		next = Never
	}
	return &Recorder{next: next}
}

// Inject implements Injector.
func (r *Recorder) Inject(p Point) error {
	r.mu.Lock()
	r.points = append(r.points, p)
	r.mu.Unlock()
	return r.next.Inject(p)
}

// Points returns the points reached so far.
func (r *Recorder) Points() []Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Point(nil), r.points...)
}

// Count returns how many times p was reached.
func (r *Recorder) Count(p Point) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, q := range r.points {
		if q == p {
			n++
		}
	}
	return n
}

// Reached reports whether p was reached.
func (r *Recorder) Reached(p Point) bool {
	return r.Count(p) > 0
}
