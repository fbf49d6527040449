// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package errno provides the error type used across the enclave trust
// boundary. Every failure that may surface through an ECall carries a POSIX
// errno; the gateway returns it to the host as a negative 32-bit status.
package errno

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// Error is an error annotated with the errno it maps to at the ECall boundary.
type Error struct {
	Code unix.Errno
	Msg  string
	Err  error
}

// New returns an error carrying the given errno.
func New(code unix.Errno, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Newf is New with formatting.
func Newf(code unix.Errno, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches an errno to an underlying cause.
func Wrap(code unix.Errno, err error, msg string) *Error {
	return &Error{Code: code, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Msg, unix.ErrnoName(e.Code), e.Err)
	}
	return fmt.Sprintf("%s [%s]", e.Msg, unix.ErrnoName(e.Code))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the errno carried by err. It understands *Error as well as
// raw unix.Errno and syscall.Errno values anywhere in the wrap chain, so
// failures bubbling up from the kernel (e.g. via os/exec) keep their code.
// An error that carries no errno at all is reported as EFAULT: by the time
// such an error reaches the boundary it is indistinguishable from an internal
// fault, and the host must not learn more than that.
func CodeOf(err error) unix.Errno {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var uerr unix.Errno
	if errors.As(err, &uerr) {
		return uerr
	}
	var serr syscall.Errno
	if errors.As(err, &serr) {
		return unix.Errno(serr)
	}
	return unix.EFAULT
}

// Status converts err to the negative ECall status encoding.
func Status(err error) int32 {
	return -int32(CodeOf(err))
}
