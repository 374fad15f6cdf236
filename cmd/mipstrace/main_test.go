package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/colorfulnotion/zkmips/trace"
	"github.com/colorfulnotion/zkmips/vmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const haltProgram = `
0x24021096 # addiu $v0, $zero, 4246
0x24040000 # addiu $a0, $zero, 0
0x0000000c # syscall
`

func TestRunWritesTraceAndDiffMatches(t *testing.T) {
	dir := t.TempDir()
	prog := filepath.Join(dir, "halt.hex")
	require.NoError(t, os.WriteFile(prog, []byte(haltProgram), 0o644))
	jsonl := filepath.Join(dir, "trace.jsonl")
	db := filepath.Join(dir, "rows")
	chart := filepath.Join(dir, "cycles.html")

	run := newRunCmd()
	run.SetArgs([]string{prog, "--jsonl", jsonl, "--db", db, "--chart", chart, "--log-level", "warn"})
	require.NoError(t, run.Execute())

	html, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.Contains(t, string(html), "BinaryOp")

	recs, err := trace.ReadJSONLFile(jsonl)
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	store, err := trace.NewRowStore(db)
	require.NoError(t, err)
	rows, err := store.Rows()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	var outputs map[string]interface{}
	found, err := store.GetMeta("outputs", &outputs)
	require.NoError(t, err)
	assert.True(t, found)
	require.NoError(t, store.Close())

	diff := newDiffCmd()
	diff.SetArgs([]string{jsonl, jsonl})
	require.NoError(t, diff.Execute())
}

func TestRunMaxCycles(t *testing.T) {
	prog := filepath.Join(t.TempDir(), "loop.hex")
	require.NoError(t, os.WriteFile(prog, []byte("0x08000000\n"), 0o644))

	run := newRunCmd()
	run.SetArgs([]string{prog, "--max-cycles", "5", "--log-level", "error"})
	run.SilenceUsage = true
	assert.Error(t, run.Execute())
}

func TestDecodeRejectsBadWords(t *testing.T) {
	decode := newDecodeCmd()
	decode.SetArgs([]string{"0x00221820", "nothex"})
	decode.SilenceUsage = true
	assert.Error(t, decode.Execute())
}

func TestErrorTag(t *testing.T) {
	err := fmt.Errorf("generation: %w", fmt.Errorf("cycle 5: %w", vmerrors.ErrMaxCyclesExceeded))
	assert.Equal(t, "I4_MaxCyclesExceeded", errorTag(err))
	assert.Equal(t, "error", errorTag(errors.New("interrupted")))
}
