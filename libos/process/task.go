// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"github.com/occlum/golibos/libos/errno"
	"golang.org/x/sys/unix"
)

// ExecThread runs the initial thread of a previously spawned process under
// the host-assigned thread identity and blocks until it exits. The returned
// status uses the wait(2) encoding, not a plain exit code; the gateway passes
// it to the host unmodified.
func (t *Table) ExecThread(libosPID, hostTID Pid) (int32, error) {
	t.mu.Lock()
	p, ok := t.procs[libosPID]
	if !ok {
		t.mu.Unlock()
		return 0, errno.Newf(unix.ESRCH, "no process with pid %d", libosPID)
	}
	if p.state != stateCreated {
		t.mu.Unlock()
		return 0, errno.Newf(unix.EBUSY, "process %d has already been executed", libosPID)
	}
	if len(p.fileActions) != 0 {
		t.mu.Unlock()
		return 0, errno.New(unix.ENOSYS, "initial file actions are not supported")
	}
	p.state = stateRunning
	p.hostTID = hostTID
	t.mu.Unlock()

	status, err := runInitialThread(p)

	t.mu.Lock()
	p.state = stateExited
	p.exitStatus = status
	t.mu.Unlock()

	return status, err
}

// runInitialThread executes the program on the current host thread with the
// process's validated stdio bindings. The bindings are duplicated per
// execution: the Go runtime closes any descriptor it wraps once the wrapper
// is collected, and the originals belong to the host for the whole gateway
// lifetime.
func runInitialThread(p *Process) (int32, error) {
	stdio, err := dupHostStdio(p.stdio)
	if err != nil {
		return 0, err
	}
	defer stdio.close()

	cmd := exec.Command(p.path)
	if len(p.argv) > 0 {
		cmd.Args = append([]string(nil), p.argv...)
	}
	cmd.Env = p.envp
	cmd.Stdin = stdio.in
	cmd.Stdout = stdio.out
	cmd.Stderr = stdio.err

	err = cmd.Run()
	if err == nil {
		return waitStatus(cmd.ProcessState), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The program ran and terminated abnormally or with a non-zero
		// code; that is a result, not a gateway failure.
		return waitStatus(exitErr.ProcessState), nil
	}
	return 0, errno.Wrap(errno.CodeOf(err), err, "starting initial thread")
}

// execStdio holds the duplicated stdio descriptors of one execution. Only
// these duplicates are ever handed to os.NewFile; closing them leaves the
// host's own descriptors open.
type execStdio struct {
	in, out, err *os.File
}

func dupHostStdio(fds *HostStdioFds) (*execStdio, error) {
	var files []*os.File
	for _, fd := range []int{fds.Stdin, fds.Stdout, fds.Stderr} {
		dup, err := unix.Dup(fd)
		if err != nil {
			for _, f := range files {
				_ = f.Close()
			}
			return nil, errno.Wrap(unix.EBADF, err, "duplicating host stdio")
		}
		files = append(files, os.NewFile(uintptr(dup), "host-stdio"))
	}
	return &execStdio{in: files[0], out: files[1], err: files[2]}, nil
}

func (s *execStdio) close() {
	_ = s.in.Close()
	_ = s.out.Close()
	_ = s.err.Close()
}

func waitStatus(state *os.ProcessState) int32 {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok {
		return int32(ws)
	}
	// Fallback to synthesizing the wait encoding from the exit code.
	return int32(state.ExitCode()) << 8
}
