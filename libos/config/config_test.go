package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const occlumJSON = `{
	"resource_limits": {
		"kernel_space_heap_size": "32MB",
		"user_space_size": "256MB",
		"max_num_of_threads": 32
	},
	"process": {
		"default_stack_size": "4MB",
		"default_heap_size": "32MB",
		"default_mmap_size": "80MB"
	},
	"entry_points": ["/bin"],
	"env": {
		"default": ["OCCLUM=yes", "PATH=/bin"],
		"untrusted": ["TERM", "EXTRA"]
	},
	"metadata": {
		"product_id": 1,
		"version_number": 3,
		"debuggable": true
	}
}`

func writeConfig(t *testing.T, name, content string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	return fs
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	fs := writeConfig(t, "Occlum.json", occlumJSON)
	cfg, err := Load(fs, "Occlum.json")
	require.NoError(err)

	assert.Equal([]string{"/bin"}, cfg.EntryPoints)
	assert.Equal(uint32(32), cfg.ResourceLimits.MaxNumOfThreads)
	assert.Equal("4MB", cfg.Process.DefaultStackSize)
	assert.True(cfg.Metadata.Debuggable)
	assert.Equal([]string{"TERM", "EXTRA"}, cfg.Env.Untrusted)
}

func TestLoadYAML(t *testing.T) {
	require := require.New(t)

	fs := writeConfig(t, "Occlum.yaml", `
entry_points:
  - /bin
  - /usr/local/occlum
env:
  default:
    - OCCLUM=yes
  untrusted: []
`)
	cfg, err := Load(fs, "Occlum.yaml")
	require.NoError(err)
	require.Equal([]string{"/bin", "/usr/local/occlum"}, cfg.EntryPoints)
}

func TestLoadErrors(t *testing.T) {
	assert := assert.New(t)

	testCases := map[string]struct {
		content string
		wantErr string
	}{
		"not json":             {"entry_points = /bin", "not valid JSON"},
		"missing entry points": {`{"env": {"default": []}}`, "no entry_points"},
		"empty entry points":   {`{"entry_points": []}`, "no entry points defined"},
		"relative entry point": {`{"entry_points": ["bin"]}`, "not an absolute path"},
		"traversal in prefix":  {`{"entry_points": ["/bin/../sbin"]}`, "parent component"},
		"malformed env":        {`{"entry_points": ["/bin"], "env": {"default": ["NOVALUE"]}}`, "KEY=VALUE"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			fs := writeConfig(t, "Occlum.json", tc.content)
			_, err := Load(fs, "Occlum.json")
			assert.Error(err)
			assert.ErrorContains(err, tc.wantErr)
		})
	}

	_, err := Load(afero.NewMemMapFs(), "Occlum.json")
	assert.ErrorContains(err, "reading LibOS configuration")
}

func TestCheckDotsWithinComponent(t *testing.T) {
	// Only a whole ".." component is a parent reference; dots inside a file
	// name are legitimate.
	cfg := &Config{EntryPoints: []string{"/bin/app..v2", "/opt/v1.2"}}
	assert.NoError(t, cfg.Check())

	cfg = &Config{EntryPoints: []string{"/bin/../sbin"}}
	assert.ErrorContains(t, cfg.Check(), "parent component")
}

func TestTrustedEnvp(t *testing.T) {
	cfg := &Config{
		EntryPoints: []string{"/bin"},
		Env: EnvConfig{
			Default:   []string{"OCCLUM=yes", "PATH=/bin", "TERM=dumb"},
			Untrusted: []string{"TERM", "EXTRA"},
		},
	}

	hostEnv := []string{
		"TERM=xterm-256color", // listed untrusted, overrides the default
		"EXTRA=1",             // listed untrusted, appended
		"PATH=/evil",          // not listed, dropped
		"LD_PRELOAD=/evil.so", // not listed, dropped
		"garbage",             // not KEY=VALUE, dropped
	}

	want := []string{"OCCLUM=yes", "PATH=/bin", "TERM=xterm-256color", "EXTRA=1"}
	if diff := cmp.Diff(want, cfg.TrustedEnvp(hostEnv)); diff != "" {
		t.Errorf("TrustedEnvp mismatch (-want +got):\n%s", diff)
	}

	// Without host env the trusted defaults pass through untouched.
	if diff := cmp.Diff(cfg.Env.Default, cfg.TrustedEnvp(nil)); diff != "" {
		t.Errorf("TrustedEnvp mismatch (-want +got):\n%s", diff)
	}
}
