// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

//go:build enclave

package platform

import (
	"github.com/edgelesssys/ego/attestation"
	"github.com/edgelesssys/ego/enclave"
)

// EnclaveProbe reads the platform capabilities from the enclave's self
// report. The report is fetched once at construction; capability bits cannot
// change while the enclave is running.
type EnclaveProbe struct {
	report attestation.Report
}

// NewEnclaveProbe queries the enclave runtime for the self report.
func NewEnclaveProbe() (*EnclaveProbe, error) {
	report, err := enclave.GetSelfReport()
	if err != nil {
		return nil, err
	}
	return &EnclaveProbe{report: report}, nil
}

// AllowDebug implements Probe from the report's debug attribute.
func (p *EnclaveProbe) AllowDebug() bool { return p.report.Debug }

// Features implements Probe.
func (p *EnclaveProbe) Features() Features { return detectFeatures() }

// SecurityVersion implements Probe.
func (p *EnclaveProbe) SecurityVersion() uint { return p.report.SecurityVersion }
