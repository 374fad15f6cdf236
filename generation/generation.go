// Package generation drives the interpreter until the program halts and
// collects the traces and outputs of the run.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colorfulnotion/zkmips/log"
	"github.com/colorfulnotion/zkmips/trace"
	"github.com/colorfulnotion/zkmips/vmerrors"
	"github.com/colorfulnotion/zkmips/witness"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/colorfulnotion/zkmips/generation"

// DefaultMaxCycles bounds a run when Options.MaxCycles is zero.
const DefaultMaxCycles = 1 << 24

type Options struct {
	MaxCycles uint64
	// Sinks receive every committed row in clock order.
	Sinks []trace.RowSink
	// TracerProvider defaults to the global otel provider.
	TracerProvider oteltrace.TracerProvider
}

// Outputs summarises a finished run.
type Outputs struct {
	Cycles       uint64                `json:"cycles"`
	Exceptions   uint64                `json:"exceptions"`
	Halted       bool                  `json:"halted"`
	ExitCode     uint32                `json:"exit_code"`
	Stdout       []byte                `json:"stdout"`
	Stderr       []byte                `json:"stderr"`
	PublicValues []witness.PublicValue `json:"public_values"`
	TraceDigest  common.Hash           `json:"trace_digest"`
	Elapsed      time.Duration         `json:"elapsed"`
}

// GenerateTraces runs state to completion. Rows are streamed to the sinks
// as they commit; the returned Outputs are valid even when err is non-nil
// and describe the committed prefix.
func GenerateTraces(ctx context.Context, state *witness.GenerationState, opts Options) (*Outputs, error) {
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	ctx, span := tp.Tracer(tracerName).Start(ctx, "GenerateTraces")
	defer span.End()

	maxCycles := opts.MaxCycles
	if maxCycles == 0 {
		maxCycles = DefaultMaxCycles
	}

	digest := trace.NewDigest()
	sinks := append([]trace.RowSink{digest}, opts.Sinks...)
	start := time.Now()

	err := run(ctx, state, maxCycles, sinks)

	out := &Outputs{
		Cycles:       state.Traces.Clock(),
		Exceptions:   state.ExceptionCount,
		Halted:       state.Registers.Halted,
		ExitCode:     state.Registers.ExitCode,
		Stdout:       state.Stdout,
		Stderr:       state.Stderr,
		PublicValues: state.PublicValues,
		TraceDigest:  digest.Sum(),
		Elapsed:      time.Since(start),
	}
	span.SetAttributes(
		attribute.Int64("zkmips.cycles", int64(out.Cycles)),
		attribute.Int64("zkmips.exceptions", int64(out.Exceptions)),
		attribute.Bool("zkmips.halted", out.Halted),
		attribute.Int64("zkmips.exit_code", int64(out.ExitCode)),
		attribute.String("zkmips.trace_digest", out.TraceDigest.Hex()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, vmerrors.GetErrorName(err))
		log.Warn(log.GenerationMonitoring, "Generation stopped", "cycles", out.Cycles, "err", err)
		return out, err
	}
	log.Info(log.GenerationMonitoring, "Generation finished", "cycles", out.Cycles,
		"exceptions", out.Exceptions, "exit_code", out.ExitCode, "digest", out.TraceDigest, "elapsed", out.Elapsed)
	return out, nil
}

func run(ctx context.Context, state *witness.GenerationState, maxCycles uint64, sinks []trace.RowSink) error {
	for !state.Registers.Halted {
		if err := ctx.Err(); err != nil {
			return err
		}
		if state.Traces.Clock() >= maxCycles {
			return fmt.Errorf("after %d cycles at pc 0x%x: %w", maxCycles, state.Registers.ProgramCounter, vmerrors.ErrMaxCyclesExceeded)
		}

		committed := len(state.Traces.CpuRows)
		if err := witness.Transition(state); err != nil {
			var fault *witness.KernelFaultError
			if errors.As(err, &fault) && log.DebugEnabled(log.KernelMonitoring) {
				log.Debug(log.KernelMonitoring, "Kernel fault report\n"+fault.Report())
			}
			return err
		}
		for i := committed; i < len(state.Traces.CpuRows); i++ {
			row := &state.Traces.CpuRows[i]
			for _, sink := range sinks {
				if err := sink.WriteRow(row); err != nil {
					return fmt.Errorf("writing row %d: %w", i, err)
				}
			}
		}
		if clock := state.Traces.Clock(); clock%(1<<20) == 0 {
			log.Debug(log.GenerationMonitoring, "Progress", "cycles", clock, "pc", fmt.Sprintf("0x%x", state.Registers.ProgramCounter))
		}
	}
	return nil
}
