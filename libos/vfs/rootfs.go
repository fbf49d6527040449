// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package vfs exposes the handle on the enclave's root filesystem that the
// gateway needs: a sync primitive flushing durable state back to the host.
package vfs

import (
	"fmt"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// RootFS is the durable root filesystem of a LibOS instance.
type RootFS struct {
	fs       afero.Fs
	hostPath string
}

// NewRootFS returns a handle for the root filesystem persisted under
// hostPath. The afero layer lets tests substitute an in-memory filesystem.
func NewRootFS(fs afero.Fs, hostPath string) *RootFS {
	return &RootFS{fs: fs, hostPath: hostPath}
}

// HostPath returns the host directory backing the root filesystem.
func (r *RootFS) HostPath() string { return r.hostPath }

// Sync flushes all dirty root-filesystem state to the host. Syncing is
// filesystem-wide: the backing store is shared by every process of the
// instance, so anything finer would still flush the same data.
func (r *RootFS) Sync() error {
	if _, ok := r.fs.(*afero.OsFs); !ok {
		// In-memory filesystems have no durable state to flush.
		return nil
	}

	fd, err := unix.Open(r.hostPath, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return fmt.Errorf("opening root filesystem %s: %w", r.hostPath, err)
	}
	defer unix.Close(fd)

	if err := unix.Syncfs(fd); err != nil {
		// Older kernels may lack syncfs; fall back to a global sync.
		unix.Sync()
	}
	return nil
}
