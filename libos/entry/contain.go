// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package entry

import (
	"runtime/debug"

	"github.com/occlum/golibos/libos/errno"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// contained runs op inside the fault-containment boundary. Ordinary failures
// keep their specific errno and are reported with a diagnostic; an
// unexpected internal fault is downgraded to EFAULT here and nowhere else.
// Letting it unwind past the ECall would be undefined behavior inside an
// enclave, and the host must not learn anything about the fault beyond its
// occurrence.
func (g *Gateway) contained(call, failMsg string, op func() (int32, error)) (status int32) {
	defer func() {
		if r := recover(); r != nil {
			g.trustedLog().Error("contained internal fault",
				zap.String("ecall", call),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			hostError("%s: internal fault", failMsg)
			g.deps.Metrics.observeFault(call)
			status = -int32(unix.EFAULT)
		}
	}()

	result, err := op()
	if err != nil {
		hostError("%s: %v", failMsg, err)
		g.trustedLog().Error(failMsg, zap.String("ecall", call), zap.Error(err))
		return errno.Status(err)
	}
	return result
}

// enableSymbolication best-effort roots symbolized fault reports at the
// enclave image before bootstrap or execution runs. Failure to enable it is
// silently ignored; diagnostics are a convenience, not a correctness
// requirement.
func (g *Gateway) enableSymbolication() {
	if g.symbolication.Load() {
		return
	}
	if _, err := g.deps.Fs.Stat(g.state.enclavePath); err != nil {
		return
	}
	if g.symbolication.CompareAndSwap(false, true) {
		debug.SetTraceback("all")
	}
}
