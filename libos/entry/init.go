// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package entry

import (
	"path/filepath"
	"unsafe"

	"github.com/google/uuid"
	"github.com/occlum/golibos/libos/boundary"
	"github.com/occlum/golibos/libos/config"
	"github.com/occlum/golibos/libos/errno"
	"github.com/occlum/golibos/libos/log"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// enclaveImageRelPath locates the signed enclave image inside an instance
// directory; symbolic fault reports are rooted at it.
const enclaveImageRelPath = "build/lib/libocclum-libos.signed.so"

// Init implements occlum_ecall_init. It brings the LibOS up exactly once:
// concurrent callers deduplicate on the init body, and any call after a
// successful init fails with EEXIST without doing work.
//
// logLevel may be nil (meaning Off). instanceDir must not be nil; a nil
// value is an integration error in the host runtime, not a recoverable
// input, and is asserted.
func (g *Gateway) Init(logLevel, instanceDir unsafe.Pointer) (status int32) {
	defer func() { g.deps.Metrics.observeCall("init", status) }()

	if g.ready.Load() {
		return -int32(unix.EEXIST)
	}
	if instanceDir == nil {
		panic("occlum_ecall_init: instance_dir must not be null")
	}

	levelStr, hasLevel, err := boundary.CopyOptionalString(logLevel, "log_level")
	if err != nil {
		hostError("invalid log level: %v", err)
		return errno.Status(err)
	}
	level := log.Off
	if hasLevel {
		level = log.ParseLevel(levelStr)
	}
	// Honor the requested verbosity only on a debug enclave. A production
	// enclave must never emit trace output, no matter what the host asks.
	if !g.deps.Probe.AllowDebug() {
		level = log.Off
	}

	dir, err := boundary.CopyString(instanceDir, "instance_dir")
	if err != nil {
		hostError("invalid instance dir: %v", err)
		return errno.Status(err)
	}

	g.initOnce.Do(func() {
		g.initErr = g.bootstrap(level, dir)
	})
	if g.initErr != nil {
		hostError("failed to initialize LibOS: %v", g.initErr)
		return errno.Status(g.initErr)
	}
	return 0
}

// bootstrap runs the ordered one-time initialization sequence. Each phase
// depends on the previous one: the trusted log must exist before platform
// bring-up can report anything, and exception handlers are only installed on
// a probed platform. A failure leaves the gateway permanently not ready.
func (g *Gateway) bootstrap(level log.LevelFilter, instanceDir string) error {
	logger, err := log.New(level)
	if err != nil {
		return errno.Wrap(unix.EINVAL, err, "initializing trusted log")
	}
	bootID := uuid.New()
	logger = logger.With(zap.Stringer("boot_id", bootID))
	g.log = logger
	g.level = level
	g.phase.Store(phaseLoggingReady)
	logger.Info("trusted log initialized", zap.Stringer("level", level))

	feats := g.deps.Probe.Features()
	logger.Info("platform probed",
		zap.Bool("debug_allowed", g.deps.Probe.AllowDebug()),
		zap.Uint("security_version", g.deps.Probe.SecurityVersion()),
		zap.Bool("xsave", feats.XSave),
		zap.Bool("avx", feats.AVX),
	)
	g.phase.Store(phasePlatformReady)

	if err := g.deps.Exceptions.RegisterDefault(); err != nil {
		return errno.Wrap(unix.EEXIST, err, "registering exception handlers")
	}
	logger.Info("exception handlers registered", zap.Strings("handlers", g.deps.Exceptions.Registered()))
	g.phase.Store(phaseHandlersReady)

	cfg, err := config.Load(g.deps.Fs, filepath.Join(instanceDir, config.DefaultFileName))
	if err != nil {
		return errno.Wrap(unix.EINVAL, err, "loading LibOS configuration")
	}

	g.state = &instanceState{
		bootID:      bootID,
		instanceDir: instanceDir,
		enclavePath: filepath.Join(instanceDir, enclaveImageRelPath),
		config:      cfg,
	}
	g.ready.Store(true)
	g.phase.Store(phaseReady)
	logger.Info("LibOS initialized",
		zap.String("instance_dir", instanceDir),
		zap.Strings("entry_points", cfg.EntryPoints),
	)
	return nil
}
