// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package process implements the LibOS process subsystem consumed by the
// ECall gateway: process records, pid allocation, spawn-without-exec and
// execution of a spawned process's initial thread. All cross-process
// serialization lives here; the gateway above requires none.
package process

import (
	"sync"

	"github.com/occlum/golibos/libos/errno"
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// Pid identifies a LibOS process or thread (pid_t).
type Pid = int32

// FileActionOp enumerates the posix_spawn-style file actions.
type FileActionOp int

const (
	FileActionOpen FileActionOp = iota
	FileActionDup2
	FileActionClose
)

// FileAction is one entry of a spawn request's initial file-action list.
type FileAction struct {
	Op    FileActionOp
	Fd    int
	SrcFd int
	Path  string
	Flags int
	Mode  uint32
}

type processState int

const (
	stateCreated processState = iota
	stateRunning
	stateExited
)

// Process is one LibOS-managed process record.
type Process struct {
	pid         Pid
	parent      Pid
	path        string
	argv        []string
	envp        []string
	stdio       *HostStdioFds
	fileActions []FileAction
	hostTID     Pid

	state      processState
	exitStatus int32
}

// Pid returns the process identifier.
func (p *Process) Pid() Pid { return p.pid }

// Path returns the program path the process was spawned from.
func (p *Process) Path() string { return p.path }

// Argv returns the process argument vector.
func (p *Process) Argv() []string { return p.argv }

// Table owns every process record of a LibOS instance.
type Table struct {
	mu      sync.Mutex
	fs      afero.Fs
	procs   map[Pid]*Process
	nextPid Pid
	idle    *Process
}

// NewTable returns a process table rooted at the given filesystem view of the
// enclave image.
func NewTable(fs afero.Fs) *Table {
	idle := &Process{pid: 0, path: "/", state: stateRunning}
	return &Table{
		fs:      fs,
		procs:   map[Pid]*Process{0: idle},
		nextPid: 1,
		idle:    idle,
	}
}

// Idle returns the idle process, the parent context for host-initiated
// spawns.
func (t *Table) Idle() *Process { return t.idle }

// Get looks up a process by pid.
func (t *Table) Get(pid Pid) (*Process, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.procs[pid]
	return p, ok
}

// SpawnWithoutExec creates a new process record without running it. The
// program must exist inside the enclave filesystem; argv and envp are taken
// as-is (the gateway has already synthesized argv[0] and resolved the trusted
// environment). The record stays dormant until ExecThread runs its initial
// thread.
func (t *Table) SpawnWithoutExec(path string, argv, envp []string, fileActions []FileAction, stdio *HostStdioFds, parent *Process) (Pid, error) {
	if stdio == nil {
		return 0, errno.New(unix.EINVAL, "spawn requires host stdio bindings")
	}
	if parent == nil {
		parent = t.idle
	}

	fi, err := t.fs.Stat(path)
	if err != nil {
		return 0, errno.Wrap(unix.ENOENT, err, "program does not exist in the enclave")
	}
	if fi.IsDir() {
		return 0, errno.Newf(unix.EACCES, "program path %s is a directory", path)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	pid := t.nextPid
	t.nextPid++
	t.procs[pid] = &Process{
		pid:         pid,
		parent:      parent.pid,
		path:        path,
		argv:        append([]string(nil), argv...),
		envp:        append([]string(nil), envp...),
		stdio:       stdio,
		fileActions: append([]FileAction(nil), fileActions...),
	}
	return pid, nil
}
