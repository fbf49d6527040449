package errno

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestCodeOf(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(unix.EINVAL, CodeOf(New(unix.EINVAL, "bad input")))
	assert.Equal(unix.EACCES, CodeOf(fmt.Errorf("outer: %w", New(unix.EACCES, "denied"))))
	assert.Equal(unix.ENOENT, CodeOf(fmt.Errorf("stat: %w", unix.ENOENT)))
	assert.Equal(unix.ENOENT, CodeOf(&fs.PathError{Op: "open", Path: "/x", Err: unix.ENOENT}))

	// An error without any errno is indistinguishable from a fault.
	assert.Equal(unix.EFAULT, CodeOf(fmt.Errorf("something went wrong")))
}

func TestStatus(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(-int32(unix.EAGAIN), Status(New(unix.EAGAIN, "not ready")))
	assert.Equal(-int32(unix.EBADF), Status(Wrap(unix.EBADF, unix.EBADF, "fd 7 is not open")))
}

func TestErrorString(t *testing.T) {
	assert := assert.New(t)

	err := Newf(unix.EACCES, "program path %q is NOT a valid entry point", "/sbin/sh")
	assert.Contains(err.Error(), "EACCES")
	assert.Contains(err.Error(), "/sbin/sh")

	wrapped := Wrap(unix.EINVAL, fmt.Errorf("cause"), "loading configuration")
	assert.Contains(wrapped.Error(), "cause")
	assert.ErrorContains(wrapped, "EINVAL")
}
