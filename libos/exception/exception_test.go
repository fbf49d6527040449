package exception

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDefault(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	reg := NewRegistry()
	require.NoError(reg.RegisterDefault())
	assert.Equal([]string{"cpuid", "rdtsc"}, reg.Registered())

	// Double registration is a programming error.
	assert.Error(reg.RegisterDefault())
}

func TestHandlersAdvanceRip(t *testing.T) {
	assert := assert.New(t)

	reg := NewRegistry()
	require.NoError(t, reg.RegisterDefault())

	ctx := &Context{Rax: 7, Rip: 0x1000}
	require.NoError(t, emulateCPUID(ctx))
	assert.Equal(uint64(0x1002), ctx.Rip)
	assert.Zero(ctx.Rax)

	ctx = &Context{Rip: 0x2000}
	require.NoError(t, emulateRDTSC(ctx))
	assert.Equal(uint64(0x2002), ctx.Rip)
}
