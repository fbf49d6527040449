// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package exception registers the in-enclave exception handlers that emulate
// instructions the platform forbids inside an enclave. Registration happens
// once during init, after logging is up and before the gateway reports ready.
package exception

import (
	"fmt"
	"sort"
	"sync"
)

// Handler emulates one forbidden instruction when the corresponding hardware
// exception is reflected into the LibOS.
type Handler func(ctx *Context) error

// Context carries the faulting state handed to a Handler. The register file
// is deliberately minimal; handlers only patch the registers the emulated
// instruction defines.
type Context struct {
	Rax, Rbx, Rcx, Rdx uint64
	Rip                uint64
}

// Registry holds the installed handlers, keyed by instruction mnemonic.
type Registry struct {
	mu       sync.Mutex
	handlers map[string]Handler
}

// NewRegistry returns an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register installs a handler for the given mnemonic. Registering the same
// mnemonic twice is a programming error.
func (r *Registry) Register(mnemonic string, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[mnemonic]; ok {
		return fmt.Errorf("exception handler for %q already registered", mnemonic)
	}
	r.handlers[mnemonic] = h
	return nil
}

// Registered returns the installed mnemonics in sorted order.
func (r *Registry) Registered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterDefault installs the handlers every enclave needs: cpuid and rdtsc
// emulation (both trap inside SGX1 enclaves).
func (r *Registry) RegisterDefault() error {
	if err := r.Register("cpuid", emulateCPUID); err != nil {
		return err
	}
	return r.Register("rdtsc", emulateRDTSC)
}

func emulateCPUID(ctx *Context) error {
	// The enclave cannot execute cpuid itself; report a fixed conservative
	// feature set and let the platform probe supply real capabilities.
	ctx.Rax, ctx.Rbx, ctx.Rcx, ctx.Rdx = 0, 0, 0, 0
	ctx.Rip += 2
	return nil
}

func emulateRDTSC(ctx *Context) error {
	// A monotonic but coarse timestamp: real cycle counters are not
	// available, and leaking them would defeat side-channel hardening.
	ctx.Rax, ctx.Rdx = 0, 0
	ctx.Rip += 2
	return nil
}
