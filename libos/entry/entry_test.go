package entry

import (
	"testing"
	"unsafe"

	"github.com/occlum/golibos/libos/boundary"
	"github.com/occlum/golibos/libos/errno"
	"github.com/occlum/golibos/libos/process"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func hostStdio() unsafe.Pointer {
	raw := &boundary.RawStdioFds{Stdin: 0, Stdout: 1, Stderr: 2}
	return unsafe.Pointer(raw)
}

func TestGateOrdering(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, true)

	// Before init nothing is attempted, not even argument validation.
	assert.Equal(-int32(unix.EAGAIN), env.gw.NewProcess(hostBuf("/bin/sh"), hostArray(), hostStdio()))
	assert.Equal(-int32(unix.EAGAIN), env.gw.ExecThread(1, 100))
	assert.Zero(env.procs.spawnCalls.Load())
	assert.Zero(env.procs.execCalls.Load())
}

func TestNewProcess(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	env := newTestEnv(t, true)
	env.mustInit(t, "off")

	var gotPath string
	var gotArgv, gotEnvp []string
	var gotActions []process.FileAction
	var gotStdio *process.HostStdioFds
	var gotParent *process.Process
	env.procs.spawnFn = func(path string, argv, envp []string, fileActions []process.FileAction, stdio *process.HostStdioFds, parent *process.Process) (process.Pid, error) {
		gotPath, gotArgv, gotEnvp, gotActions, gotStdio, gotParent = path, argv, envp, fileActions, stdio, parent
		return 42, nil
	}

	status := env.gw.NewProcess(hostBuf("/bin/busybox"), hostArray("sh", "-c", "echo hi"), hostStdio())
	require.Equal(int32(42), status)

	assert.Equal("/bin/busybox", gotPath)
	// argv[0] is the program's file name, then the host's vector in order.
	assert.Equal([]string{"busybox", "sh", "-c", "echo hi"}, gotArgv)
	// The environment comes from trusted configuration with only listed
	// untrusted names taken from the host.
	assert.Equal([]string{"OCCLUM=yes", "PATH=/bin", "TERM=xterm"}, gotEnvp)
	assert.Empty(gotActions)
	require.NotNil(gotStdio)
	assert.Equal(0, gotStdio.Stdin)
	assert.Same(env.procs.Idle(), gotParent)
}

func TestNewProcessMarshalErrors(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, true)
	env.mustInit(t, "off")

	badBytes := []byte{0xff, 0x01, 0}

	testCases := map[string]struct {
		path, argv, stdio unsafe.Pointer
		want              unix.Errno
	}{
		"nil path":         {nil, hostArray(), hostStdio(), unix.EINVAL},
		"non-utf8 path":    {unsafe.Pointer(&badBytes[0]), hostArray(), hostStdio(), unix.EINVAL},
		"root as path":     {hostBuf("/"), hostArray(), hostStdio(), unix.EINVAL},
		"nil argv":         {hostBuf("/bin/sh"), nil, hostStdio(), unix.EINVAL},
		"non-utf8 argv":    {hostBuf("/bin/sh"), hostArray1(&badBytes[0]), hostStdio(), unix.EINVAL},
		"nil stdio struct": {hostBuf("/bin/sh"), hostArray(), nil, unix.EINVAL},
		"negative fd":      {hostBuf("/bin/sh"), hostArray(), badStdio(), unix.EBADF},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			status := env.gw.NewProcess(tc.path, tc.argv, tc.stdio)
			assert.Equal(-int32(tc.want), status)
		})
	}

	// Marshaling failures never reach the process subsystem.
	assert.Zero(env.procs.spawnCalls.Load())
}

func hostArray1(p *byte) unsafe.Pointer {
	arr := []unsafe.Pointer{unsafe.Pointer(p), nil}
	return unsafe.Pointer(&arr[0])
}

func badStdio() unsafe.Pointer {
	raw := &boundary.RawStdioFds{Stdin: -1, Stdout: 1, Stderr: 2}
	return unsafe.Pointer(raw)
}

func TestNewProcessEntryPointPolicy(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, true)
	env.mustInit(t, "off")

	testCases := map[string]struct {
		path string
		want unix.Errno
	}{
		"relative path":    {"bin/sh", unix.EINVAL},
		"traversal":        {"/bin/../etc/passwd", unix.EINVAL},
		"not allow-listed": {"/sbin/sh", unix.EACCES},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			status := env.gw.NewProcess(hostBuf(tc.path), hostArray(), hostStdio())
			assert.Equal(-int32(tc.want), status)
		})
	}
	assert.Zero(env.procs.spawnCalls.Load())

	// And the allowed prefix does admit programs.
	status := env.gw.NewProcess(hostBuf("/bin/sh"), hostArray(), hostStdio())
	assert.Equal(int32(1), status)
}

func TestNewProcessSpawnErrorPassthrough(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, true)
	env.mustInit(t, "off")
	env.procs.spawnFn = func(string, []string, []string, []process.FileAction, *process.HostStdioFds, *process.Process) (process.Pid, error) {
		return 0, errno.New(unix.ENOMEM, "out of enclave memory")
	}

	status := env.gw.NewProcess(hostBuf("/bin/sh"), hostArray(), hostStdio())
	assert.Equal(-int32(unix.ENOMEM), status)
}

func TestFaultContainment(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, true)
	env.mustInit(t, "off")

	env.procs.spawnFn = func(string, []string, []string, []process.FileAction, *process.HostStdioFds, *process.Process) (process.Pid, error) {
		panic("invariant violated deep inside the spawn path")
	}
	assert.NotPanics(func() {
		status := env.gw.NewProcess(hostBuf("/bin/sh"), hostArray(), hostStdio())
		assert.Equal(-int32(unix.EFAULT), status)
	})

	env.procs.execFn = func(process.Pid, process.Pid) (int32, error) {
		panic(errno.New(unix.EINVAL, "panics are contained even when they carry an errno"))
	}
	assert.NotPanics(func() {
		assert.Equal(-int32(unix.EFAULT), env.gw.ExecThread(1, 100))
	})
}

func TestExecThread(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, true)
	env.mustInit(t, "off")

	// The wait(2)-encoded status passes through unmodified, even when it
	// encodes an abnormal termination.
	const waitStatus = int32(42 << 8)
	var gotPID, gotTID process.Pid
	env.procs.execFn = func(libosPID, hostTID process.Pid) (int32, error) {
		gotPID, gotTID = libosPID, hostTID
		return waitStatus, nil
	}

	assert.Equal(waitStatus, env.gw.ExecThread(7, 7700))
	assert.Equal(process.Pid(7), gotPID)
	assert.Equal(process.Pid(7700), gotTID)
	// Durable state is synced after every thread completion.
	assert.Equal(int32(1), env.syncer.calls.Load())
}

func TestExecThreadErrors(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv(t, true)
	env.mustInit(t, "off")

	env.procs.execFn = func(process.Pid, process.Pid) (int32, error) {
		return 0, errno.Newf(unix.ESRCH, "no process")
	}
	assert.Equal(-int32(unix.ESRCH), env.gw.ExecThread(99, 1))
	// A failed execution syncs nothing.
	assert.Zero(env.syncer.calls.Load())

	env.procs.execFn = nil
	env.syncer.err = errno.New(unix.EIO, "backing store gone")
	assert.Equal(-int32(unix.EIO), env.gw.ExecThread(1, 1))
}

func TestMetrics(t *testing.T) {
	assert := assert.New(t)

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	metrics := NewMetrics(&factory, "occlum")

	env := newTestEnv(t, true)
	env.gw.deps.Metrics = metrics
	env.mustInit(t, "off")

	env.gw.NewProcess(hostBuf("/sbin/sh"), hostArray(), hostStdio()) // EACCES
	env.gw.NewProcess(hostBuf("/bin/sh"), hostArray(), hostStdio())  // ok

	assert.Equal(float64(1), testutil.ToFloat64(metrics.ecalls.WithLabelValues("init", "ok")))
	assert.Equal(float64(1), testutil.ToFloat64(metrics.ecalls.WithLabelValues("new_process", "ok")))
	assert.Equal(float64(1), testutil.ToFloat64(metrics.ecalls.WithLabelValues("new_process", "error")))

	// Nil metrics must be a no-op, not a crash.
	var none *Metrics
	none.observeCall("init", 0)
	none.observeFault("init")
}
