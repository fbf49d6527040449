// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// occlum-libos is the enclave image: built with the enclave build tag it
// exposes the three occlum_ecall_* entry points to the untrusted host
// runtime and nothing else.
package main

import (
	"github.com/occlum/golibos/libos/entry"
	"github.com/occlum/golibos/libos/platform"
	"github.com/occlum/golibos/libos/process"
	"github.com/occlum/golibos/libos/vfs"
	"github.com/spf13/afero"
)

// newGateway wires the production collaborators for the given platform
// probe. The root filesystem handle is rooted at the mounted enclave root.
func newGateway(probe platform.Probe) *entry.Gateway {
	enclavefs := afero.NewOsFs()
	return entry.New(entry.Deps{
		Probe:  probe,
		Procs:  process.NewTable(enclavefs),
		Rootfs: vfs.NewRootFS(enclavefs, "/"),
		Fs:     enclavefs,
	})
}
