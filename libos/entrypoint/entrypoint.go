// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package entrypoint gates which enclave-resident binaries the host may
// launch. The check is purely lexical: prefix matching against the configured
// entry points is only sound because parent-directory components are
// categorically rejected first, so the two checks always run together and in
// order.
package entrypoint

import (
	"path"
	"strings"

	"github.com/occlum/golibos/libos/errno"
	"golang.org/x/sys/unix"
)

// Validate checks that programPath may be launched given the configured
// entry-point prefixes. The first failing check wins:
//
//  1. the path must be absolute (EINVAL),
//  2. it must not contain a ".." component anywhere (EINVAL), which would
//     let a disallowed path resolve underneath an allowed prefix after the
//     lexical match,
//  3. some entry point must be a structural prefix of it (EACCES).
func Validate(programPath string, entryPoints []string) error {
	if !path.IsAbs(programPath) {
		return errno.New(unix.EINVAL, "program path must be absolute")
	}
	for _, comp := range strings.Split(programPath, "/") {
		if comp == ".." {
			return errno.New(unix.EINVAL, `program path cannot contain any parent component (i.e., "..")`)
		}
	}
	for _, prefix := range entryPoints {
		if hasPathPrefix(programPath, prefix) {
			return nil
		}
	}
	return errno.New(unix.EACCES, "program path is NOT a valid entry point")
}

// hasPathPrefix reports whether prefix is a whole-component prefix of p:
// "/bin" covers "/bin/sh" but not "/binutils/ld".
func hasPathPrefix(p, prefix string) bool {
	prefix = path.Clean(prefix)
	if prefix == "/" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
