// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package entry

import (
	"path"
	"unsafe"

	"github.com/occlum/golibos/libos/boundary"
	"github.com/occlum/golibos/libos/entrypoint"
	"github.com/occlum/golibos/libos/errno"
	"github.com/occlum/golibos/libos/process"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// spawnRequest is the validated, enclave-owned form of a new_process call.
// It is consumed immediately by the bootstrap path and not retained.
type spawnRequest struct {
	programPath string
	argv        []string
	stdio       *process.HostStdioFds
}

// NewProcess implements occlum_ecall_new_process: it marshals and validates
// the host-supplied path, argument vector and stdio bindings, then creates a
// new LibOS process without running it. Returns the new process id, or
// -(errno).
func (g *Gateway) NewProcess(programPath, argv, hostStdioFds unsafe.Pointer) (status int32) {
	defer func() { g.deps.Metrics.observeCall("new_process", status) }()

	if !g.ready.Load() {
		return -int32(unix.EAGAIN)
	}

	req, err := g.parseSpawnArgs(programPath, argv, hostStdioFds)
	if err != nil {
		hostError("invalid arguments for LibOS: %v", err)
		return errno.Status(err)
	}

	g.enableSymbolication()
	return g.contained("new_process", "failed to boot up LibOS", func() (int32, error) {
		pid, err := g.spawnProcess(req)
		if err != nil {
			return 0, err
		}
		return int32(pid), nil
	})
}

// ExecThread implements occlum_ecall_exec_thread: it runs the initial thread
// of a spawned process under the host-assigned thread identity and returns
// its wait(2)-encoded exit status, or -(errno).
func (g *Gateway) ExecThread(libosPID, hostTID int32) (status int32) {
	defer func() { g.deps.Metrics.observeCall("exec_thread", status) }()

	if !g.ready.Load() {
		return -int32(unix.EAGAIN)
	}

	g.enableSymbolication()
	return g.contained("exec_thread", "failed to execute a process", func() (int32, error) {
		exitStatus, err := g.deps.Procs.ExecThread(libosPID, hostTID)
		if err != nil {
			return 0, err
		}
		// TODO: only sync when the last process of the instance exits.
		if err := g.deps.Rootfs.Sync(); err != nil {
			return 0, errno.Wrap(unix.EIO, err, "syncing root filesystem")
		}
		// The status uses the wait(2) encoding; the gateway reports it to
		// the host unmodified.
		return exitStatus, nil
	})
}

// parseSpawnArgs converts the three host pointers of a new_process call into
// owned values. Failure here never touches the process subsystem, and no
// partially marshaled data survives.
func (g *Gateway) parseSpawnArgs(programPath, argv, hostStdioFds unsafe.Pointer) (*spawnRequest, error) {
	pathStr, err := boundary.CopyString(programPath, "path")
	if err != nil {
		return nil, err
	}
	base := path.Base(pathStr)
	if base == "/" || base == "." || base == "" {
		return nil, errno.New(unix.EINVAL, "invalid path")
	}

	args, err := boundary.CopyStringArray(argv, "argv")
	if err != nil {
		return nil, err
	}

	raw, err := boundary.CopyStdioFds(hostStdioFds)
	if err != nil {
		return nil, err
	}
	stdio, err := process.NewHostStdioFds(raw.Stdin, raw.Stdout, raw.Stderr)
	if err != nil {
		return nil, err
	}

	return &spawnRequest{
		programPath: pathStr,
		argv:        append([]string{base}, args...),
		stdio:       stdio,
	}, nil
}

// spawnProcess gates the program path against the configured entry points
// and delegates creation of the process record to the process subsystem.
// The environment comes from the trusted configuration, never from the call.
func (g *Gateway) spawnProcess(req *spawnRequest) (process.Pid, error) {
	if err := entrypoint.Validate(req.programPath, g.state.config.EntryPoints); err != nil {
		return 0, err
	}

	envp := g.state.config.TrustedEnvp(g.deps.HostEnviron())
	pid, err := g.deps.Procs.SpawnWithoutExec(req.programPath, req.argv, envp, nil, req.stdio, g.deps.Procs.Idle())
	if err != nil {
		return 0, err
	}
	g.trustedLog().Info("new process spawned",
		zap.Int32("pid", pid),
		zap.String("path", req.programPath),
		zap.Int("argc", len(req.argv)),
	)
	return pid, nil
}
