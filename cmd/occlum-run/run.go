// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/occlum/golibos/libos/boundary"
	"github.com/occlum/golibos/libos/entry"
	"github.com/occlum/golibos/libos/platform"
	"github.com/occlum/golibos/libos/process"
	"github.com/occlum/golibos/libos/vfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// runHost performs the host side of one LibOS run and returns the process
// exit code.
func runHost(opts hostOptions, program string, args []string, probe platform.Probe) (int, error) {
	instanceDir, err := filepath.Abs(opts.instanceDir)
	if err != nil {
		return 0, err
	}

	// One enclave per instance dir: hold a file lock for the whole run.
	unlock, err := lockInstanceDir(instanceDir)
	if err != nil {
		return 0, err
	}
	defer unlock()

	var metrics *entry.Metrics
	if opts.metricsAddr != "" {
		registry := prometheus.NewRegistry()
		factory := promauto.With(registry)
		metrics = entry.NewMetrics(&factory, "occlum")
		go serveMetrics(opts.metricsAddr, registry)
	}

	hostfs := afero.NewOsFs()
	gw := entry.New(entry.Deps{
		Probe:   probe,
		Procs:   process.NewTable(hostfs),
		Rootfs:  vfs.NewRootFS(hostfs, instanceDir),
		Fs:      hostfs,
		Metrics: metrics,
	})

	if status := gw.Init(hostOptionalCString(opts.logLevel), hostCString(instanceDir)); status < 0 {
		return 0, fmt.Errorf("occlum_ecall_init: %v", unix.Errno(-status))
	}

	stdio := boundary.RawStdioFds{
		Stdin:  int32(os.Stdin.Fd()),
		Stdout: int32(os.Stdout.Fd()),
		Stderr: int32(os.Stderr.Fd()),
	}
	pid := gw.NewProcess(hostCString(program), hostCStringArray(args), hostStdioPtr(&stdio))
	if pid < 0 {
		return 0, fmt.Errorf("occlum_ecall_new_process: %v", unix.Errno(-pid))
	}

	status := gw.ExecThread(pid, int32(unix.Gettid()))
	if status < 0 {
		return 0, fmt.Errorf("occlum_ecall_exec_thread: %v", unix.Errno(-status))
	}

	ws := unix.WaitStatus(status)
	switch {
	case ws.Exited():
		return ws.ExitStatus(), nil
	case ws.Signaled():
		return 128 + int(ws.Signal()), nil
	}
	return 0, nil
}

func lockInstanceDir(instanceDir string) (func(), error) {
	runDir := filepath.Join(instanceDir, "run")
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, err
	}

	fileLock := flock.New(filepath.Join(runDir, "enclave.lock"))
	lockCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	locked, err := fileLock.TryLockContext(lockCtx, time.Second)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("instance dir %s is in use by another enclave", instanceDir)
	}
	return func() { _ = fileLock.Unlock() }, nil
}

func serveMetrics(addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintln(os.Stderr, "metrics server:", err)
	}
}
