// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package platform

import "os"

// ReleaseEnclaveEnv selects release (non-debug) behavior for the simulation
// probe, matching the variable the host-side Occlum tooling sets.
const ReleaseEnclaveEnv = "OCCLUM_RELEASE_ENCLAVE"

// SimProbe is the probe used outside real enclaves (simulation and tests).
type SimProbe struct {
	Debug bool
}

// NewSimProbe returns a simulation probe. Debug is permitted unless the
// environment marks this a release enclave.
func NewSimProbe() *SimProbe {
	return &SimProbe{Debug: os.Getenv(ReleaseEnclaveEnv) != "1"}
}

// AllowDebug implements Probe.
func (p *SimProbe) AllowDebug() bool { return p.Debug }

// Features implements Probe.
func (p *SimProbe) Features() Features { return detectFeatures() }

// SecurityVersion implements Probe. A simulated enclave has no attestable
// security version.
func (p *SimProbe) SecurityVersion() uint { return 0 }
