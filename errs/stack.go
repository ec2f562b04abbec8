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

package errs

import (
	"fmt"
	"io"
	"path"
	"runtime"
	"strconv"
	"strings"
)

var (
	traceable bool               // if traceable is true, the error has a stack trace.
	content   string             // if content is not empty, only print frames containing it.
	stackSkip = defaultStackSkip // number of stack frames skipped.
)

const defaultStackSkip = 4

// SetTraceable controls whether newly created errors record a stack trace.
func SetTraceable(x bool) {
	traceable = x
}

// SetTraceableWithContent enables stack traces and only prints the frames whose
// function or file contains c.
func SetTraceableWithContent(c string) {
	traceable = true
	content = c
}

// SetStackSkip sets the number of skipped stack frames.
// It is not safe for concurrent use and should be called before any error is created.
func SetStackSkip(skip int) {
	stackSkip = skip
}

// frame is a program counter + 1 inside a stack frame.
type frame uintptr

func (f frame) pc() uintptr { return uintptr(f) - 1 }

func (f frame) fileLine() (string, int) {
	fn := runtime.FuncForPC(f.pc())
	if fn == nil {
		return "unknown", 0
	}
	return fn.FileLine(f.pc())
}

func (f frame) name() string {
	fn := runtime.FuncForPC(f.pc())
	if fn == nil {
		return "unknown"
	}
	return fn.Name()
}

// Format formats the frame.
//
//	%s    source file
//	%d    source line
//	%+v   function name, source file and line
//	%v    source file and line
func (f frame) Format(s fmt.State, verb rune) {
	file, line := f.fileLine()
	switch verb {
	case 's':
		io.WriteString(s, path.Base(file))
	case 'd':
		io.WriteString(s, strconv.Itoa(line))
	case 'v':
		if s.Flag('+') {
			io.WriteString(s, f.name())
			io.WriteString(s, "\n\t")
			io.WriteString(s, file)
		} else {
			io.WriteString(s, path.Base(file))
		}
		io.WriteString(s, ":")
		io.WriteString(s, strconv.Itoa(line))
	}
}

// stackTrace is the stack of frames from innermost (newest) to outermost (oldest).
type stackTrace []frame

// Format prints one frame per line for %+v and a bracketed list otherwise.
func (st stackTrace) Format(s fmt.State, verb rune) {
	if verb != 'v' && verb != 's' {
		return
	}
	if verb == 'v' && s.Flag('+') {
		for _, f := range st {
			line := fmt.Sprintf("%+v", f)
			if !strings.Contains(line, content) {
				continue
			}
			io.WriteString(s, "\n")
			io.WriteString(s, line)
		}
		return
	}
	io.WriteString(s, "[")
	for i, f := range st {
		if i > 0 {
			io.WriteString(s, " ")
		}
		f.Format(s, verb)
	}
	io.WriteString(s, "]")
}

func callers() stackTrace {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(stackSkip, pcs[:])
	st := make(stackTrace, n)
	for i := 0; i < n; i++ {
		st[i] = frame(pcs[i])
	}
	return st
}
