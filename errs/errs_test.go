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

package errs_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-flow/errs"
)

func TestErrs(t *testing.T) {
	var err *errs.Error
	assert.Contains(t, err.Error(), "success")

	e := errs.New(111, "inner fail")
	assert.EqualValues(t, 111, errs.Code(e))
	assert.Equal(t, "inner fail", errs.Msg(e))

	err, ok := e.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.ErrorTypeUser, err.Type)
	assert.Contains(t, err.Error(), "user")

	e = errs.NewFrameError(errs.RetUpstreamFail, "source fail")
	assert.Equal(t, errs.RetUpstreamFail, errs.Code(e))
	err, ok = e.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.ErrorTypeFramework, err.Type)
	assert.Contains(t, err.Error(), "framework")

	assert.Equal(t, errs.RetOK, errs.Code(nil))
	assert.Equal(t, "success", errs.Msg(nil))
	assert.Equal(t, errs.RetOK, errs.Code((*errs.Error)(nil)))
	assert.Equal(t, "success", errs.Msg((*errs.Error)(nil)))

	e = errors.New("unknown error")
	assert.Equal(t, errs.RetUnknown, errs.Code(e))
	assert.Equal(t, "unknown error", errs.Msg(e))
}

func TestRetCode(t *testing.T) {
	var code errs.RetCode = errs.Code(errs.New(errs.RetCanceled, "canceled"))
	assert.Equal(t, errs.RetCanceled, code)
	e := &errs.Error{Type: errs.ErrorTypeFramework, Code: errs.RetUpstreamFail, Msg: "literal"}
	assert.True(t, errs.IsCode(e, errs.RetUpstreamFail))
	assert.Equal(t, errs.RetUpstreamFail, errs.Code(fmt.Errorf("wrapped: %w", e)))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, errs.Wrap(nil, errs.RetUpstreamFail, "nil"))
	assert.Nil(t, errs.Wrapf(nil, errs.RetUpstreamFail, "nil %d", 1))
	assert.Nil(t, errs.WrapFrameError(nil, errs.RetUpstreamFail, "nil"))

	e := errs.Wrap(io.ErrUnexpectedEOF, errs.RetUpstreamFail, "read chunk")
	assert.True(t, errors.Is(e, io.ErrUnexpectedEOF))
	assert.Equal(t, errs.RetUpstreamFail, errs.Code(e))
	assert.Contains(t, errs.Msg(e), "caused by")

	e = errs.Wrapf(e, errs.RetSubscriberFail, "on next %d", 3)
	assert.Equal(t, errs.RetSubscriberFail, errs.Code(e))
	assert.True(t, errs.IsCode(e, errs.RetUpstreamFail))
	assert.False(t, errs.IsCode(e, errs.RetCanceled))
	assert.Equal(t, io.ErrUnexpectedEOF, errs.Root(e))
	assert.Nil(t, errs.Root(nil))
}

func TestCompletionWrapsOnce(t *testing.T) {
	root := errors.New("boom")
	c := errs.Completion(root)
	assert.Equal(t, errs.RetCompletion, errs.Code(c))
	assert.Same(t, c, errs.Completion(c))
	assert.Equal(t, root, errs.Root(errs.Completion(c)))
	assert.Nil(t, errs.Completion(nil))
}

func TestIllegalDemand(t *testing.T) {
	e := errs.IllegalDemand(-3)
	assert.Equal(t, errs.RetIllegalDemand, errs.Code(e))
	assert.Contains(t, errs.Msg(e), "-3")
}

func TestFromPanic(t *testing.T) {
	assert.Nil(t, errs.FromPanic(nil))
	assert.Equal(t, io.EOF, errs.FromPanic(io.EOF))
	assert.EqualError(t, errs.FromPanic("oops"), "panic: oops")
}

func TestErrorFormat(t *testing.T) {
	e := errs.Wrap(io.EOF, errs.RetUpstreamFail, "read")
	assert.Equal(t, e.Error(), fmt.Sprintf("%s", e))
	assert.Equal(t, e.Error(), fmt.Sprintf("%v", e))
	assert.Equal(t, fmt.Sprintf("%q", e.Error()), fmt.Sprintf("%q", e))
	assert.Contains(t, fmt.Sprintf("%+v", e), "Cause by EOF")
	assert.Contains(t, fmt.Sprintf("%d", e), "%!d(errs.Error=")
}

func TestTraceable(t *testing.T) {
	errs.SetTraceable(true)
	defer errs.SetTraceable(false)

	e := errs.New(errs.RetUpstreamFail, "traced")
	assert.Contains(t, fmt.Sprintf("%+v", e), "errs_test.go")

	errs.SetTraceableWithContent("no-such-content")
	e = errs.New(errs.RetUpstreamFail, "filtered")
	assert.NotContains(t, fmt.Sprintf("%+v", e), "errs_test.go")
	errs.SetTraceableWithContent("")
}
