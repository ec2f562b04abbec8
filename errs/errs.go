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

// Package errs provides the error type of trpc-flow, which carries an error code,
// an error message and the cause that led to it.
package errs

import (
	"errors"
	"fmt"
	"io"
)

// RetCode is the error code of a stream failure.
type RetCode int32

// stream return codes.
const (
	// RetOK means success.
	RetOK RetCode = 0

	// RetIllegalDemand is reported when Request is called with a non-positive count.
	RetIllegalDemand RetCode = 101
	// RetAlreadySubscribed is reported when a single-use publisher is subscribed twice.
	RetAlreadySubscribed RetCode = 102
	// RetUpstreamFail is reported when the data source of a publisher fails.
	RetUpstreamFail RetCode = 103
	// RetLengthMismatch is reported when a body does not match its declared length.
	RetLengthMismatch RetCode = 104

	// RetSubscriberFail is reported when a subscriber callback panics.
	RetSubscriberFail RetCode = 201
	// RetPublisherFail is reported when Subscribe, Request or Cancel of a publisher panics.
	RetPublisherFail RetCode = 202

	// RetCompletion wraps the failure of an asynchronous result.
	RetCompletion RetCode = 301
	// RetCanceled is reported when the caller cancels an exchange.
	RetCanceled RetCode = 302
	// RetExecutorBusy is reported when no worker accepts a delivery task.
	RetExecutorBusy RetCode = 303

	// RetUnknown is the error code for unspecified errors.
	RetUnknown RetCode = 999
)

// ErrorType is the error type, errors raised by the library itself are framework
// errors, errors raised by caller supplied code are user errors.
const (
	ErrorTypeFramework = 1
	ErrorTypeUser      = 2
)

func typeDesc(t int) string {
	switch t {
	case ErrorTypeFramework:
		return "framework"
	default:
		return "user"
	}
}

const (
	// Success is the success prompt string.
	Success = "success"
)

// Err predefined error values.
var (
	// ErrOK means success.
	ErrOK error

	// ErrAlreadySubscribed is returned to the second subscriber of a single-use publisher.
	ErrAlreadySubscribed = NewFrameError(RetAlreadySubscribed, "publisher already subscribed")
	// ErrTooManyBytes is returned when a body publishes more bytes than it declared.
	ErrTooManyBytes = NewFrameError(RetLengthMismatch, "body exceeds declared content length")
	// ErrTooFewBytes is returned when a body completes before reaching its declared length.
	ErrTooFewBytes = NewFrameError(RetLengthMismatch, "body shorter than declared content length")

	// ErrUnknown is an unknown error.
	ErrUnknown = NewFrameError(RetUnknown, "unknown error")
)

// Error is the error structure which contains error type, code and message.
type Error struct {
	Type int
	Code RetCode
	Msg  string

	cause error      // internal error, form the error chain.
	stack stackTrace // call stack, if the error chain already has a stack, it will not be set.
}

// Error implements the error interface and returns the error description.
func (e *Error) Error() string {
	if e == nil {
		return Success
	}
	if e.cause != nil {
		return fmt.Sprintf("type:%s, code:%d, msg:%s, caused by %s",
			typeDesc(e.Type), e.Code, e.Msg, e.cause.Error())
	}
	return fmt.Sprintf("type:%s, code:%d, msg:%s", typeDesc(e.Type), e.Code, e.Msg)
}

// Format implements the fmt.Formatter interface.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "type:%s, code:%d, msg:%s", typeDesc(e.Type), e.Code, e.Msg)
			if e.stack != nil {
				e.stack.Format(s, verb)
			}
			if e.cause != nil {
				_, _ = fmt.Fprintf(s, "\nCause by %+v", e.cause)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = fmt.Fprintf(s, "%%!%c(errs.Error=%s)", verb, e.Error())
	}
}

// Unwrap support Go 1.13+ error chains.
func (e *Error) Unwrap() error { return e.cause }

// ErrCode permits any integer defined in https://go.dev/ref/spec#Numeric_types
type ErrCode interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~int | ~uintptr
}

func newError[T ErrCode](typ int, code T, msg string, cause error) *Error {
	err := &Error{
		Type:  typ,
		Code:  RetCode(code),
		Msg:   msg,
		cause: cause,
	}
	var e *Error
	// only the first Error in a chain records the stack.
	if traceable && (cause == nil || !errors.As(cause, &e)) {
		err.stack = callers()
	}
	return err
}

// New creates a user error.
func New[T ErrCode](code T, msg string) error {
	return newError(ErrorTypeUser, code, msg, nil)
}

// Newf creates a user error, msg supports format strings.
func Newf[T ErrCode](code T, format string, params ...interface{}) error {
	return newError(ErrorTypeUser, code, fmt.Sprintf(format, params...), nil)
}

// Wrap creates a new user error that contains the input error.
func Wrap[T ErrCode](err error, code T, msg string) error {
	if err == nil {
		return nil
	}
	return newError(ErrorTypeUser, code, msg, err)
}

// Wrapf is the same as Wrap, msg supports format strings.
func Wrapf[T ErrCode](err error, code T, format string, params ...interface{}) error {
	if err == nil {
		return nil
	}
	return newError(ErrorTypeUser, code, fmt.Sprintf(format, params...), err)
}

// NewFrameError creates a framework error.
func NewFrameError[T ErrCode](code T, msg string) error {
	return newError(ErrorTypeFramework, code, msg, nil)
}

// NewFrameErrorf is the same as NewFrameError, msg supports format strings.
func NewFrameErrorf[T ErrCode](code T, format string, params ...interface{}) error {
	return newError(ErrorTypeFramework, code, fmt.Sprintf(format, params...), nil)
}

// WrapFrameError is the same as Wrap, except type is ErrorTypeFramework.
func WrapFrameError[T ErrCode](err error, code T, msg string) error {
	if err == nil {
		return nil
	}
	return newError(ErrorTypeFramework, code, msg, err)
}

// Code gets the error code of the outermost Error in the chain.
func Code(e error) RetCode {
	if e == nil {
		return RetOK
	}
	err, ok := e.(*Error)
	if !ok && !errors.As(e, &err) {
		return RetUnknown
	}
	if err == nil {
		return RetOK
	}
	return err.Code
}

// Msg gets error msg through error.
func Msg(e error) string {
	if e == nil {
		return Success
	}
	err, ok := e.(*Error)
	if !ok && !errors.As(e, &err) {
		return e.Error()
	}
	if err == (*Error)(nil) {
		return Success
	}
	if err.Unwrap() != nil {
		return err.Error()
	}
	return err.Msg
}

// IsCode reports whether any Error in the chain of e carries code.
func IsCode(e error, code RetCode) bool {
	for e != nil {
		if err, ok := e.(*Error); ok && err != nil && err.Code == code {
			return true
		}
		e = errors.Unwrap(e)
	}
	return false
}

// Root returns the innermost error of the chain, the original fault.
func Root(e error) error {
	for e != nil {
		next := errors.Unwrap(e)
		if next == nil {
			return e
		}
		e = next
	}
	return nil
}

// FromPanic converts a recovered panic value into an error.
// An error value is returned as is so that its identity survives the panic.
func FromPanic(v interface{}) error {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", v)
}

// IllegalDemand returns the error for a Request(n) call with n <= 0.
func IllegalDemand(n int64) error {
	return NewFrameErrorf(RetIllegalDemand, "non-positive subscription request: %d", n)
}

// Completion wraps err as the failure of an asynchronous result.
// An error that is already a completion failure is not wrapped again.
func Completion(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok && e.Code == RetCompletion {
		return err
	}
	return WrapFrameError(err, RetCompletion, "completed exceptionally")
}
