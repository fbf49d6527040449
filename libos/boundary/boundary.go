// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package boundary marshals untrusted host-supplied arguments into owned,
// validated in-enclave values. It is the only package that may dereference a
// raw host pointer; everything it returns is a copy, and no caller ever
// re-reads the original host memory. The ECall bridge guarantees that the
// pointed-to buffers have been copied inside the enclave and are
// NUL-terminated before control reaches this code.
package boundary

import (
	"unicode/utf8"
	"unsafe"

	"github.com/occlum/golibos/libos/errno"
	"golang.org/x/sys/unix"
)

// RawStdioFds mirrors the fixed-layout struct the host passes to
// occlum_ecall_new_process: the three stdio descriptors of the host process
// that the new LibOS process inherits.
type RawStdioFds struct {
	Stdin  int32
	Stdout int32
	Stderr int32
}

// cstring copies the NUL-terminated byte string at p into enclave-owned
// storage. The string conversion is the copy; the returned value holds no
// reference to host memory.
func cstring(p unsafe.Pointer) string {
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}

// CopyString converts a required host C-string into an owned Go string.
// A nil pointer or non-UTF-8 content fails with EINVAL: no non-text byte
// sequence may propagate further as a path or argument.
func CopyString(p unsafe.Pointer, what string) (string, error) {
	if p == nil {
		return "", errno.Newf(unix.EINVAL, "empty %s", what)
	}
	s := cstring(p)
	if !utf8.ValidString(s) {
		return "", errno.Newf(unix.EINVAL, "%s contains invalid utf-8 data", what)
	}
	return s, nil
}

// CopyOptionalString is CopyString for pointers the ABI allows to be nil.
// A nil pointer yields ("", false, nil).
func CopyOptionalString(p unsafe.Pointer, what string) (string, bool, error) {
	if p == nil {
		return "", false, nil
	}
	s, err := CopyString(p, what)
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// CopyStringArray copies a nil-terminated host array of C-strings into an
// owned slice. Every element is copied before any of them is used; a
// malformed entry anywhere in the vector fails the whole call and nothing
// partial is retained.
func CopyStringArray(pp unsafe.Pointer, what string) ([]string, error) {
	if pp == nil {
		return nil, errno.Newf(unix.EINVAL, "empty %s", what)
	}
	var out []string
	for i := 0; ; i++ {
		p := *(*unsafe.Pointer)(unsafe.Add(pp, uintptr(i)*unsafe.Sizeof(pp)))
		if p == nil {
			return out, nil
		}
		s, err := CopyString(p, what)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}

// CopyStdioFds copies the host stdio descriptor struct out of host memory.
// Validation of the descriptor values themselves belongs to the process
// subsystem's constructor; this only guards the pointer.
func CopyStdioFds(p unsafe.Pointer) (RawStdioFds, error) {
	if p == nil {
		return RawStdioFds{}, errno.New(unix.EINVAL, "empty host_stdio_fds")
	}
	return *(*RawStdioFds)(p), nil
}
