// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// occlum-run drives the LibOS gateway exactly as the untrusted host runtime
// would: one init ECall, one new_process ECall, one exec_thread ECall, then
// it exits with the spawned program's status. It runs the gateway in
// simulation mode and exists for development and integration testing of
// enclave instances.
package main

import (
	"fmt"
	"os"

	"github.com/occlum/golibos/libos/platform"
	"github.com/occlum/golibos/util"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts hostOptions

	cmd := &cobra.Command{
		Use:   "occlum-run <program> [args...]",
		Short: "Run a program inside a LibOS instance",
		Long: "occlum-run boots the LibOS for the given instance directory and launches\n" +
			"the requested program through the ECall gateway. The program path must be\n" +
			"one of the instance's configured entry points.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runHost(opts, args[0], args[1:], platform.NewSimProbe())
			if err != nil {
				return err
			}
			os.Exit(code)
			return nil
		},
	}

	addRunFlags(cmd.Flags(), &opts)
	return cmd
}

type hostOptions struct {
	instanceDir string
	logLevel    string
	metricsAddr string
}

func addRunFlags(fs *pflag.FlagSet, o *hostOptions) {
	fs.StringVarP(&o.instanceDir, "instance-dir", "i", ".", "Occlum instance directory")
	fs.StringVarP(&o.logLevel, "log-level", "l", util.Getenv("OCCLUM_LOG_LEVEL", ""), "requested LibOS log level (off|error|warn|info|debug|trace)")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve gateway Prometheus metrics on this address")
}
