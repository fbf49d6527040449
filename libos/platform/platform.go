// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package platform probes the capabilities of the enclave platform the LibOS
// runs on. Enclave builds back the probe with the EGo runtime's self report;
// everything else uses the simulation probe.
package platform

import "golang.org/x/sys/cpu"

// Probe reports platform capabilities queried once during init.
type Probe interface {
	// AllowDebug reports whether the enclave was launched in a mode that
	// permits verbose diagnostic output. On a production enclave this is
	// false and the trusted log must stay off no matter what the host
	// requests.
	AllowDebug() bool
	// Features reports the extended CPU features available inside the
	// enclave.
	Features() Features
	// SecurityVersion is the enclave's ISVSVN, 0 when not attestable.
	SecurityVersion() uint
}

// Features describes the extended instruction-set state the enclave may use.
type Features struct {
	// XSave reports OS-enabled extended processor state management.
	XSave bool
	// AVX reports AVX availability.
	AVX bool
}

func detectFeatures() Features {
	return Features{
		XSave: cpu.X86.HasOSXSAVE,
		AVX:   cpu.X86.HasAVX,
	}
}
