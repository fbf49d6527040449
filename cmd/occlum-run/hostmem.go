// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"unsafe"

	"github.com/occlum/golibos/libos/boundary"
)

// Helpers that lay out arguments the way the untrusted host runtime does:
// NUL-terminated C strings and nil-terminated pointer arrays. The gateway
// treats these as raw host memory and copies them through the boundary
// marshaler like any other ECall input.

func hostCString(s string) unsafe.Pointer {
	buf := append([]byte(s), 0)
	return unsafe.Pointer(&buf[0])
}

func hostOptionalCString(s string) unsafe.Pointer {
	if s == "" {
		return nil
	}
	return hostCString(s)
}

func hostCStringArray(strs []string) unsafe.Pointer {
	arr := make([]unsafe.Pointer, len(strs)+1)
	for i, s := range strs {
		arr[i] = hostCString(s)
	}
	arr[len(strs)] = nil
	return unsafe.Pointer(&arr[0])
}

func hostStdioPtr(fds *boundary.RawStdioFds) unsafe.Pointer {
	return unsafe.Pointer(fds)
}
