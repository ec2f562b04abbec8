//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package expandenv replaces ${key} and ${key:-default} in config files with
// the environment value of key.
package expandenv

import (
	"bytes"
	"os"
)

// ExpandEnv replaces every ${var} in s by the value of the environment variable var.
// ${var:-def} expands to def when var is unset or empty.
// $var is left untouched, since values such as passwords may contain $.
// A reference whose name contains a space, a new line or a double quote is kept as is,
// and ${} is removed.
func ExpandEnv(s []byte) []byte {
	var out []byte
	last := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] != '$' || s[i+1] != '{' {
			continue
		}
		end, ok := closingBrace(s[i+2:])
		if !ok {
			continue
		}
		if out == nil {
			out = make([]byte, 0, 2*len(s))
		}
		out = append(out, s[last:i]...)
		out = append(out, lookup(s[i+2:i+2+end])...)
		i += 2 + end
		last = i + 1
	}
	if out == nil {
		return s
	}
	return append(out, s[last:]...)
}

// closingBrace returns the index of the '}' ending a reference.
func closingBrace(s []byte) (int, bool) {
	for i, c := range s {
		switch c {
		case ' ', '\n', '"':
			return 0, false
		case '}':
			return i, true
		}
	}
	return 0, false
}

func lookup(ref []byte) []byte {
	name, def := ref, []byte(nil)
	if i := bytes.Index(ref, []byte(":-")); i >= 0 {
		name, def = ref[:i], ref[i+2:]
	}
	if len(name) == 0 {
		return def
	}
	if v := os.Getenv(string(name)); v != "" {
		return []byte(v)
	}
	return def
}
