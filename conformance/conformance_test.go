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
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/faultinject"
)

func TestCases(t *testing.T) {
	cases := Cases(faultinject.Points())
	names := make(map[string]bool, len(cases))
	for _, c := range cases {
		assert.False(t, names[c.Name], c.Name)
		names[c.Name] = true
		assert.Equal(t, SideOf(c.Point), c.Side)
	}
	// stream is not run with faults swallowing the terminal signal.
	terminal := 2 * len(publishers)
	assert.Len(t, cases, len(faultinject.Points())*len(publishers)*len(subscribers)-terminal)
	assert.True(t, names["OnNext/concat/stream"])
	assert.False(t, names["OnComplete/concat/stream"])

	assert.Equal(t, SidePublisher, SideOf(faultinject.AfterNextRequest))
	assert.Equal(t, SideSubscriber, SideOf(faultinject.GetBody))
	assert.Equal(t, "Side(0)", Side(0).String())
}

func TestRunAllPoints(t *testing.T) {
	report, err := Run(context.Background(), Config{Parallelism: 4, Timeout: 5 * time.Second})
	require.Nil(t, err, "%v", err)
	require.True(t, report.OK())
	assert.Equal(t, len(report.Cases), report.Passed+report.Unreached)
	assert.Greater(t, report.Passed, 0)

	reached := make(map[faultinject.Point]bool)
	for _, o := range report.Cases {
		if o.Reached {
			reached[o.Point] = true
		}
	}
	for _, p := range faultinject.Points() {
		assert.True(t, reached[p], "point %s never reached", p)
	}
}

func TestRunCase(t *testing.T) {
	o := RunCase(context.Background(), Case{
		Name:       "OnNext/chunks/collect",
		Point:      faultinject.OnNext,
		Publisher:  "chunks",
		Subscriber: "collect",
	}, Config{})
	assert.Equal(t, StatusPass, o.Status)
	assert.True(t, o.Reached)
	assert.NotEmpty(t, o.Error)

	o = RunCase(context.Background(), Case{Point: faultinject.OnError, Publisher: "chunks", Subscriber: "collect"}, Config{})
	assert.Equal(t, StatusUnreached, o.Status)
	assert.Empty(t, o.Error)

	o = RunCase(context.Background(), Case{Point: faultinject.OnNext, Publisher: "none", Subscriber: "collect"}, Config{})
	assert.Equal(t, StatusFail, o.Status)
	o = RunCase(context.Background(), Case{Point: faultinject.OnNext, Publisher: "chunks", Subscriber: "none"}, Config{})
	assert.Equal(t, StatusFail, o.Status)
}

func TestEvaluate(t *testing.T) {
	for _, tt := range []struct {
		name string
		ev   evidence
		want []error
	}{
		{"hang", evidence{hung: true, reached: true}, []error{ErrHang}},
		{"missing fault", evidence{reached: true, terminals: 1}, []error{ErrMissingFault}},
		{"double terminal", evidence{reached: true, err: errStop, terminals: 2}, []error{ErrDoubleTerminal}},
		{"data after fault", evidence{reached: true, err: errStop, nextAfterFault: 1}, []error{ErrDataAfterFault}},
		{"all", evidence{reached: true, terminals: 3, nextAfterFault: 2},
			[]error{ErrMissingFault, ErrDoubleTerminal, ErrDataAfterFault}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var o Outcome
			o.evaluate(tt.ev)
			assert.Equal(t, StatusFail, o.Status)
			require.Len(t, o.violations.Errors, len(tt.want))
			for i, want := range tt.want {
				assert.True(t, errors.Is(o.violations.Errors[i], want))
			}
			assert.Len(t, o.Violations, len(tt.want))
		})
	}

	var o Outcome
	o.evaluate(evidence{reached: true, err: errStop, terminals: 1})
	assert.Equal(t, StatusPass, o.Status)
	o = Outcome{}
	o.evaluate(evidence{terminals: 1})
	assert.Equal(t, StatusUnreached, o.Status)
}

func TestObserver(t *testing.T) {
	obs := &observer{}
	inj := obs.injector(faultinject.At(faultinject.OnNext))
	assert.Nil(t, inj.Inject(faultinject.OnSubscribe))
	assert.False(t, obs.faulted.Load())
	assert.NotNil(t, inj.Inject(faultinject.OnNext))
	assert.True(t, obs.faulted.Load())

	s := observe[struct{}](&nopSubscriber{}, obs)
	s.OnNext([]byte("late"))
	s.OnComplete()
	s.OnError(errStop)
	assert.EqualValues(t, 1, obs.nextAfterFault.Load())
	assert.EqualValues(t, 2, obs.terminals.Load())
}

type nopSubscriber struct {
	flow.SubscriberFuncs[[]byte]
}

func (nopSubscriber) Body() *flow.Future[struct{}] {
	return flow.CompletedFuture(struct{}{})
}

func TestReport(t *testing.T) {
	report, err := Run(context.Background(), Config{
		Points: []faultinject.Point{faultinject.OnNext, faultinject.OnError},
	})
	require.Nil(t, err)

	data, err := report.JSON()
	require.Nil(t, err)
	var decoded struct {
		Cases []struct {
			Name   string `json:"name"`
			Point  string `json:"point"`
			Side   string `json:"side"`
			Status string `json:"status"`
		} `json:"cases"`
		Passed    int `json:"passed"`
		Unreached int `json:"unreached"`
	}
	require.Nil(t, jsoniter.Unmarshal(data, &decoded))
	require.Len(t, decoded.Cases, len(report.Cases))
	assert.Equal(t, report.Passed, decoded.Passed)
	assert.Equal(t, report.Unreached, decoded.Unreached)
	assert.Equal(t, "OnNext", decoded.Cases[0].Point)
	assert.Equal(t, "subscriber", decoded.Cases[0].Side)

	var buf bytes.Buffer
	require.Nil(t, report.WriteText(&buf, false))
	assert.Contains(t, buf.String(), "pass")
	assert.Contains(t, buf.String(), "OnNext/chunks/collect")
	assert.NotContains(t, buf.String(), "OnError/chunks/collect")
	buf.Reset()
	require.Nil(t, report.WriteText(&buf, true))
	assert.Contains(t, buf.String(), "OnError/chunks/collect")
}

func TestConfigFrom(t *testing.T) {
	cfg := &flow.Config{}
	cfg.Conformance.TimeoutMs = 250
	cfg.Conformance.Parallelism = 3
	c := ConfigFrom(cfg)
	assert.Equal(t, 250*time.Millisecond, c.Timeout)
	assert.Equal(t, 3, c.Parallelism)
	assert.Equal(t, DefaultWindow, c.Window)
	assert.Equal(t, faultinject.Points(), c.Points)

	c = ConfigFrom(&flow.Config{})
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.Equal(t, 1, c.Parallelism)
}

func TestReportRoundTrip(t *testing.T) {
	report, err := Run(context.Background(), Config{
		Points: []faultinject.Point{faultinject.BeforeSubscribe, faultinject.GetBody},
	})
	require.Nil(t, err)
	data, err := report.JSON()
	require.Nil(t, err)

	var decoded Report
	require.Nil(t, jsoniter.Unmarshal(data, &decoded))
	require.Len(t, decoded.Cases, len(report.Cases))
	for i, o := range decoded.Cases {
		assert.Equal(t, report.Cases[i].Case, o.Case)
		assert.Equal(t, report.Cases[i].Status, o.Status)
	}
	assert.Equal(t, report.Passed, decoded.Passed)
}

func TestSideText(t *testing.T) {
	for _, side := range []Side{SidePublisher, SideSubscriber} {
		text, err := side.MarshalText()
		require.Nil(t, err)
		var got Side
		require.Nil(t, got.UnmarshalText(text))
		assert.Equal(t, side, got)
	}
	var s Side
	assert.Error(t, s.UnmarshalText([]byte("transport")))
}
