package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zkmips.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
log_modules: witness,kernel
max_cycles: 1000
stack_base: 0x10000
stack_limit: 0x8000
trace_jsonl: out.jsonl
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "witness,kernel", cfg.LogModules)
	assert.Equal(t, uint64(1000), cfg.MaxCycles)
	assert.Equal(t, uint32(0x10000), cfg.StackBase)
	assert.Equal(t, uint32(0x8000), cfg.StackLimit)
	assert.Equal(t, 4, cfg.NumContexts)
	assert.Equal(t, "out.jsonl", cfg.TraceJSONL)
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]string{
		"unknown field":   "bogus: 1\n",
		"bad level":       "log_level: chatty\n",
		"inverted stack":  "stack_base: 0x100\nstack_limit: 0x200\n",
		"unaligned stack": "stack_base: 0x102\nstack_limit: 0x0\n",
		"one context":     "num_contexts: 1\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
