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

package conformance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/errs"
	"trpc.group/trpc-go/trpc-flow/faultinject"
	"trpc.group/trpc-go/trpc-flow/log"
	"trpc.group/trpc-go/trpc-flow/transport"
)

// violations of the stream contract.
var (
	ErrHang           = errors.New("exchange did not end in time")
	ErrMissingFault   = errors.New("injected fault was not reported")
	ErrDoubleTerminal = errors.New("subscriber got more than one terminal signal")
	ErrDataAfterFault = errors.New("subscriber got a chunk after the fault")
)

// Run runs the cases of cfg.Points. The returned error lists the violations of all
// failed cases, the Report is returned in any case.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	cfg = cfg.withDefaults()
	t := transport.New(transport.WithWindow(cfg.Window), transport.WithLogger(cfg.Logger))
	cases := Cases(cfg.Points)
	outcomes := make([]Outcome, len(cases))

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallelism)
	for i := range cases {
		i := i
		g.Go(func() error {
			outcomes[i] = runCase(gctx, t, cases[i], cfg.Timeout)
			return nil
		})
	}
	_ = g.Wait()

	report := newReport(outcomes, time.Since(start))
	var result *multierror.Error
	for _, o := range report.Cases {
		if o.Status == StatusFail {
			result = multierror.Append(result, fmt.Errorf("%s: %s", o.Name, o.violations.Error()))
		}
	}
	if err := ctx.Err(); err != nil {
		result = multierror.Append(result, err)
	}
	return report, result.ErrorOrNil()
}

// RunCase runs a single case.
func RunCase(ctx context.Context, c Case, cfg Config) Outcome {
	cfg = cfg.withDefaults()
	t := transport.New(transport.WithWindow(cfg.Window), transport.WithLogger(cfg.Logger))
	return runCase(ctx, t, c, cfg.Timeout)
}

// run is the environment of the exchange of a case.
type run struct {
	ctx  context.Context
	t    *transport.Transport
	body flow.BodyPublisher
	inj  faultinject.Injector
	obs  *observer
}

func exchange[T any](r *run, s flow.BodySubscriber[T]) (T, error) {
	sink := observe(faultinject.BodySubscriber(s, r.inj), r.obs)
	return transport.Exchange(r.ctx, r.t, r.body, sink)
}

func runCase(ctx context.Context, t *transport.Transport, c Case, timeout time.Duration) Outcome {
	o := Outcome{Case: c}
	pub, ok := publisherOf(c.Publisher)
	if !ok {
		o.fail(fmt.Errorf("unknown publisher %q", c.Publisher))
		return o
	}
	sub, ok := subscriberOf(c.Subscriber)
	if !ok {
		o.fail(fmt.Errorf("unknown subscriber %q", c.Subscriber))
		return o
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	obs := &observer{}
	rec := faultinject.NewRecorder(faultinject.At(c.Point))
	inj := obs.injector(rec)
	r := &run{
		ctx:  ctx,
		t:    t,
		body: faultinject.Publisher(pub.new(), inj),
		inj:  inj,
		obs:  obs,
	}

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- sub.run(r)
	}()
	var err error
	hung := false
	select {
	case err = <-done:
		hung = ctx.Err() != nil && errs.IsCode(err, errs.RetCanceled)
	case <-ctx.Done():
		hung = true
	}
	o.Duration = time.Since(start)
	if err != nil {
		o.Error = err.Error()
	}
	o.evaluate(evidence{
		hung:           hung,
		reached:        rec.Reached(c.Point),
		err:            err,
		terminals:      obs.terminals.Load(),
		nextAfterFault: obs.nextAfterFault.Load(),
	})
	if o.Status == StatusFail {
		log.Debugf("conformance: %s failed: %v", c.Name, o.violations)
	}
	return o
}

// evidence is what a case observed.
type evidence struct {
	hung           bool
	reached        bool
	err            error
	terminals      int32
	nextAfterFault int32
}

func (o *Outcome) evaluate(ev evidence) {
	o.Reached = ev.reached
	if ev.hung {
		o.violations = multierror.Append(o.violations, ErrHang)
	}
	if ev.reached && ev.err == nil && !ev.hung {
		o.violations = multierror.Append(o.violations, ErrMissingFault)
	}
	if ev.terminals > 1 {
		o.violations = multierror.Append(o.violations, ErrDoubleTerminal)
	}
	if ev.nextAfterFault > 0 {
		o.violations = multierror.Append(o.violations, ErrDataAfterFault)
	}
	switch {
	case o.violations.ErrorOrNil() != nil:
		o.Status = StatusFail
		for _, v := range o.violations.Errors {
			o.Violations = append(o.Violations, v.Error())
		}
	case !ev.reached:
		o.Status = StatusUnreached
	default:
		o.Status = StatusPass
	}
}

func (o *Outcome) fail(err error) {
	o.violations = multierror.Append(o.violations, err)
	o.Violations = append(o.Violations, err.Error())
	o.Status = StatusFail
}

// observer watches the signals reaching the subscriber of a case.
type observer struct {
	faulted        atomic.Bool
	terminals      atomic.Int32
	nextAfterFault atomic.Int32
}

// injector marks the observer faulted as soon as inj throws.
func (o *observer) injector(inj faultinject.Injector) faultinject.Injector {
	return faultinject.InjectorFunc(func(p faultinject.Point) error {
		err := inj.Inject(p)
		if err != nil {
			o.faulted.Store(true)
		}
		return err
	})
}

func observe[T any](s flow.BodySubscriber[T], o *observer) flow.BodySubscriber[T] {
	return &observed[T]{BodySubscriber: s, obs: o}
}

type observed[T any] struct {
	flow.BodySubscriber[T]
	obs *observer
}

func (s *observed[T]) OnNext(chunk []byte) {
	if s.obs.faulted.Load() {
		s.obs.nextAfterFault.Inc()
	}
	s.BodySubscriber.OnNext(chunk)
}

func (s *observed[T]) OnError(err error) {
	s.obs.terminals.Inc()
	s.BodySubscriber.OnError(err)
}

func (s *observed[T]) OnComplete() {
	s.obs.terminals.Inc()
	s.BodySubscriber.OnComplete()
}
