// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

//go:build enclave

package main

import "C"

import (
	"unsafe"

	"github.com/occlum/golibos/libos/entry"
	"github.com/occlum/golibos/libos/platform"
)

var gateway = mustNewEnclaveGateway()

func mustNewEnclaveGateway() *entry.Gateway {
	probe, err := platform.NewEnclaveProbe()
	if err != nil {
		// Without a self report the enclave cannot enforce its debug
		// policy; refuse to come up at all.
		panic(err)
	}
	return newGateway(probe)
}

//export occlum_ecall_init
func occlum_ecall_init(logLevel *C.char, instanceDir *C.char) C.int {
	return C.int(gateway.Init(unsafe.Pointer(logLevel), unsafe.Pointer(instanceDir)))
}

//export occlum_ecall_new_process
func occlum_ecall_new_process(path *C.char, argv **C.char, hostStdioFds unsafe.Pointer) C.int {
	return C.int(gateway.NewProcess(unsafe.Pointer(path), unsafe.Pointer(argv), hostStdioFds))
}

//export occlum_ecall_exec_thread
func occlum_ecall_exec_thread(libosPID, hostTID C.int) C.int {
	return C.int(gateway.ExecThread(int32(libosPID), int32(hostTID)))
}

// The image is loaded as a library; execution only ever enters through the
// exported ECalls.
func main() {}
