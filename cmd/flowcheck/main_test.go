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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/conformance"
	"trpc.group/trpc-go/trpc-flow/faultinject"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := flow.GlobalConfig()
	t.Cleanup(func() { flow.SetGlobalConfig(cfg) })

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"flowcheck"}, args...))
	return out.String(), err
}

func TestPoints(t *testing.T) {
	out, err := runApp(t, "points")
	require.Nil(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(faultinject.Points()))
	assert.True(t, strings.HasPrefix(lines[0], faultinject.BeforeSubscribe.String()))
	assert.Contains(t, lines[len(lines)-1], conformance.SideSubscriber.String())
}

func TestRunJSON(t *testing.T) {
	out, err := runApp(t, "run", "--format", "json", "--points", "OnNext,AfterRequest", "--parallel", "2")
	require.Nil(t, err)

	var report conformance.Report
	require.Nil(t, jsoniter.UnmarshalFromString(out, &report))
	assert.Len(t, report.Cases, len(conformance.Cases([]faultinject.Point{
		faultinject.OnNext, faultinject.AfterRequest,
	})))
	assert.Zero(t, report.Failed)
	assert.NotZero(t, report.Passed)
}

func TestRunText(t *testing.T) {
	out, err := runApp(t, "run", "--points", "BeforeSubscribe", "--timeout", "1s", "--verbose")
	require.Nil(t, err)
	assert.Contains(t, out, "BeforeSubscribe")
}

func TestRunConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.yaml")
	require.Nil(t, os.WriteFile(path, []byte(`
executor:
  type: goroutine
metrics:
  sinks: [prometheus]
conformance:
  timeout_ms: 1000
  parallelism: 2
`), 0o644))
	_, err := runApp(t, "run", "-c", path, "--points", "OnComplete", "--metrics-addr", "127.0.0.1:0")
	require.Nil(t, err)
}

func TestRunBadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"run", "--format", "xml"},
		{"run", "--points", "Nowhere"},
		{"run", "-c", filepath.Join(t.TempDir(), "missing.yaml")},
		{"run", "--metrics-addr", "127.0.0.1:0"},
	} {
		_, err := runApp(t, args...)
		var exit cli.ExitCoder
		require.ErrorAs(t, err, &exit, "%v", args)
		assert.Equal(t, 2, exit.ExitCode(), "%v", args)
	}
}
