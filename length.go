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

package flow

import (
	"math"
	"strconv"
)

// Length is a declared body length, either a known number of bytes or unknown.
// The zero value is Unknown.
type Length struct {
	n     int64
	known bool
}

// Unknown is the length of a body whose size is not known in advance.
var Unknown = Length{}

// Known returns the known length n. A negative n gives Unknown.
func Known(n int64) Length {
	if n < 0 {
		return Unknown
	}
	return Length{n: n, known: true}
}

// LengthOf converts a declared content length, where UnknownLength and every other
// negative value mean unknown.
func LengthOf(contentLength int64) Length {
	return Known(contentLength)
}

// IsKnown reports whether l is a known length.
func (l Length) IsKnown() bool {
	return l.known
}

// Value returns the number of bytes and whether it is known.
func (l Length) Value() (int64, bool) {
	return l.n, l.known
}

// Int64 returns the length as a content length, UnknownLength if unknown.
func (l Length) Int64() int64 {
	if !l.known {
		return UnknownLength
	}
	return l.n
}

// Add returns l + o. The sum is unknown if either side is unknown or the sum does
// not fit in an int64.
func (l Length) Add(o Length) Length {
	if !l.known || !o.known || l.n > math.MaxInt64-o.n {
		return Unknown
	}
	return Length{n: l.n + o.n, known: true}
}

// String implements fmt.Stringer.
func (l Length) String() string {
	if !l.known {
		return "unknown"
	}
	return strconv.FormatInt(l.n, 10)
}

// SumLengths sums declared content lengths. An empty list sums to zero.
func SumLengths(lengths ...int64) int64 {
	sum := Known(0)
	for _, n := range lengths {
		if sum = sum.Add(LengthOf(n)); !sum.IsKnown() {
			break
		}
	}
	return sum.Int64()
}
