// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package process

import (
	"github.com/occlum/golibos/libos/errno"
	"golang.org/x/sys/unix"
)

// HostStdioFds is the validated, owned copy of the host stdio bindings a new
// process inherits. Once constructed it never aliases host memory.
type HostStdioFds struct {
	Stdin  int
	Stdout int
	Stderr int
}

// NewHostStdioFds validates the three host descriptors. Each must be a
// non-negative, currently open descriptor of the host process; anything else
// fails with EBADF.
func NewHostStdioFds(stdin, stdout, stderr int32) (*HostStdioFds, error) {
	fds := []int32{stdin, stdout, stderr}
	for _, fd := range fds {
		if fd < 0 {
			return nil, errno.Newf(unix.EBADF, "host stdio fd %d is negative", fd)
		}
		if _, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); err != nil {
			return nil, errno.Newf(unix.EBADF, "host stdio fd %d is not open", fd)
		}
	}
	return &HostStdioFds{
		Stdin:  int(stdin),
		Stdout: int(stdout),
		Stderr: int(stderr),
	}, nil
}
