// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package entry implements the ECall gateway, the only externally callable
// surface of the LibOS. Each operation returns a 32-bit status: non-negative
// on success, -(errno) on failure. Everything the host passes in is treated
// as adversarial and goes through the boundary marshaler before it touches
// trusted state.
package entry

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/occlum/golibos/libos/config"
	"github.com/occlum/golibos/libos/exception"
	"github.com/occlum/golibos/libos/log"
	"github.com/occlum/golibos/libos/platform"
	"github.com/occlum/golibos/libos/process"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ProcessService is the slice of the process subsystem the gateway consumes.
type ProcessService interface {
	SpawnWithoutExec(path string, argv, envp []string, fileActions []process.FileAction, stdio *process.HostStdioFds, parent *process.Process) (process.Pid, error)
	ExecThread(libosPID, hostTID process.Pid) (int32, error)
	Idle() *process.Process
}

// Syncer flushes durable root-filesystem state to the host.
type Syncer interface {
	Sync() error
}

// Deps are the collaborators the gateway composes. Probe, Procs and Rootfs
// are required; the rest default to production implementations.
type Deps struct {
	Probe  platform.Probe
	Procs  ProcessService
	Rootfs Syncer

	// Fs is the host filesystem view used for configuration loading and
	// enclave-image checks. Defaults to the OS filesystem.
	Fs afero.Fs
	// Exceptions receives the default handler registrations during init.
	Exceptions *exception.Registry
	// HostEnviron supplies the host environment consulted for untrusted
	// env overrides. Defaults to os.Environ.
	HostEnviron func() []string
	// Metrics is optional; nil disables ECall metrics.
	Metrics *Metrics
}

// instanceState is built exactly once by a successful init and read-only
// afterwards; no other write to it may ever be observed.
type instanceState struct {
	bootID      uuid.UUID
	instanceDir string
	enclavePath string
	config      *config.Config
}

// Boot phases of the one-time initializer, in their fixed order.
const (
	phaseUninitialized int32 = iota
	phaseLoggingReady
	phasePlatformReady
	phaseHandlersReady
	phaseReady
)

// Gateway is the ECall entry layer. A single Gateway serves an enclave for
// its whole lifetime; all its operations are safe for concurrent use from
// arbitrary host threads.
type Gateway struct {
	deps Deps

	initOnce sync.Once
	initErr  error
	ready    atomic.Bool
	phase    atomic.Int32

	// Written inside initOnce only, read after ready is observed true.
	state *instanceState
	log   *zap.Logger
	level log.LevelFilter

	symbolication atomic.Bool
}

// New assembles a gateway from its collaborators. The returned gateway is
// not ready; the host must drive occlum_ecall_init first.
func New(deps Deps) *Gateway {
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Exceptions == nil {
		deps.Exceptions = exception.NewRegistry()
	}
	if deps.HostEnviron == nil {
		deps.HostEnviron = os.Environ
	}
	return &Gateway{deps: deps}
}

// Ready reports whether initialization has fully completed.
func (g *Gateway) Ready() bool {
	return g.ready.Load()
}

// LogLevel returns the effective trusted-log verbosity resolved during init.
// It is Off until init completes, and stays Off on a non-debug enclave no
// matter what level the host requested.
func (g *Gateway) LogLevel() log.LevelFilter {
	if !g.ready.Load() {
		return log.Off
	}
	return g.level
}

// trustedLog returns the trusted logger, which exists once the logging phase
// of init has completed.
func (g *Gateway) trustedLog() *zap.Logger {
	if l := g.log; l != nil {
		return l
	}
	return zap.NewNop()
}

// hostError writes a diagnostic to the host-visible error stream. The
// trusted log may not be configured (or deliberately off) when boundary
// errors occur, so these always go to stderr.
func hostError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "occlum-libos: "+format+"\n", args...)
}
