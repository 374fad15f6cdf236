package generation

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/colorfulnotion/zkmips/cpu"
	"github.com/colorfulnotion/zkmips/kernel"
	"github.com/colorfulnotion/zkmips/syscalls"
	"github.com/colorfulnotion/zkmips/trace"
	"github.com/colorfulnotion/zkmips/vmerrors"
	"github.com/colorfulnotion/zkmips/witness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func addiu(rt, imm uint32) uint32 { return 0x09<<26 | rt<<16 | imm&0xffff }
func lui(rt, imm uint32) uint32   { return 0x0f<<26 | rt<<16 | imm&0xffff }
func sw(base, rt, off uint32) uint32 {
	return 0x2b<<26 | base<<21 | rt<<16 | off&0xffff
}

const syscall = 0x0000000c

func halt(code uint32) []uint32 {
	return []uint32{addiu(syscalls.RegV0, syscalls.HALT), addiu(syscalls.RegA0, code), syscall}
}

func newState(t *testing.T, program ...uint32) *witness.GenerationState {
	t.Helper()
	state, err := witness.NewGenerationState(witness.Config{Kernel: kernel.Default()})
	require.NoError(t, err)
	require.NoError(t, state.LoadProgram(witness.DefaultUserContext, program, 0))
	return state
}

func TestGenerateTracesHalts(t *testing.T) {
	state := newState(t, halt(3)...)
	var buf bytes.Buffer
	jsonl := trace.NewJSONLRowWriter(&buf)

	out, err := GenerateTraces(context.Background(), state, Options{Sinks: []trace.RowSink{jsonl}})
	require.NoError(t, err)
	require.NoError(t, jsonl.Close())

	assert.True(t, out.Halted)
	assert.Equal(t, uint32(3), out.ExitCode)
	assert.Equal(t, uint64(3), out.Cycles)
	assert.Equal(t, uint64(0), out.Exceptions)
	assert.Equal(t, trace.DigestRows(state.Traces.CpuRows), out.TraceDigest)

	recs, err := trace.ReadJSONL(&buf)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"Syscall"}, recs[2].Flags)
}

func TestGenerateTracesHelloWorld(t *testing.T) {
	program := []uint32{
		lui(8, 0x6869),
		sw(0, 8, 0x100),
		addiu(syscalls.RegV0, syscalls.WRITE),
		addiu(syscalls.RegA0, syscalls.FdStdout),
		addiu(syscalls.RegA1, 0x100),
		addiu(syscalls.RegA2, 2),
		syscall,
		addiu(syscalls.RegV0, syscalls.COMMIT),
		addiu(syscalls.RegA0, 1),
		addiu(syscalls.RegA1, 42),
		syscall,
	}
	program = append(program, halt(0)...)
	state := newState(t, program...)

	out, err := GenerateTraces(context.Background(), state, Options{})
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), out.Stdout)
	assert.Equal(t, []witness.PublicValue{{Key: 1, Value: 42}}, out.PublicValues)
	assert.Equal(t, uint64(len(program)), out.Cycles)
}

func TestGenerateTracesDeterministic(t *testing.T) {
	a, err := GenerateTraces(context.Background(), newState(t, halt(1)...), Options{})
	require.NoError(t, err)
	b, err := GenerateTraces(context.Background(), newState(t, halt(1)...), Options{})
	require.NoError(t, err)
	assert.Equal(t, a.TraceDigest, b.TraceDigest)

	c, err := GenerateTraces(context.Background(), newState(t, halt(2)...), Options{})
	require.NoError(t, err)
	assert.NotEqual(t, a.TraceDigest, c.TraceDigest)
}

func TestGenerateTracesException(t *testing.T) {
	state := newState(t, 0xfc000000)
	out, err := GenerateTraces(context.Background(), state, Options{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), out.Exceptions)
	assert.Equal(t, uint32(0xff), out.ExitCode)
}

func TestGenerateTracesMaxCycles(t *testing.T) {
	state := newState(t, 0x08000000) // j 0
	out, err := GenerateTraces(context.Background(), state, Options{MaxCycles: 10})
	require.ErrorIs(t, err, vmerrors.ErrMaxCyclesExceeded)
	assert.Equal(t, uint64(10), out.Cycles)
	assert.False(t, out.Halted)
}

func TestGenerateTracesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := GenerateTraces(ctx, newState(t, halt(0)...), Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(0), out.Cycles)
}

func TestGenerateTracesKernelFault(t *testing.T) {
	state, err := witness.NewGenerationState(witness.Config{Kernel: kernel.Default()})
	require.NoError(t, err)
	_, err = GenerateTraces(context.Background(), state, Options{})
	var fault *witness.KernelFaultError
	require.ErrorAs(t, err, &fault)
}

type failingSink struct{}

func (failingSink) WriteRow(*cpu.CpuColumnsView) error { return errors.New("disk full") }

func TestGenerateTracesSinkError(t *testing.T) {
	_, err := GenerateTraces(context.Background(), newState(t, halt(0)...), Options{Sinks: []trace.RowSink{failingSink{}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestGenerateTracesSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	_, err := GenerateTraces(context.Background(), newState(t, halt(5)...), Options{TracerProvider: tp})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GenerateTraces", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("zkmips.exit_code", 5))
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("zkmips.cycles", 3))
}
