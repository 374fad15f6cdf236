// mipstrace generates CPU witness traces for MIPS programs.
//
// Usage:
//
//	mipstrace run prog.hex --jsonl trace.jsonl   # run to halt, write rows
//	mipstrace decode 0x00221820 0x0000000c       # show decoded operations
//	mipstrace diff golden.jsonl trace.jsonl      # compare two traces
//	mipstrace step prog.hex                      # interactive stepper
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/colorfulnotion/zkmips/config"
	"github.com/colorfulnotion/zkmips/generation"
	"github.com/colorfulnotion/zkmips/loader"
	log "github.com/colorfulnotion/zkmips/log"
	"github.com/colorfulnotion/zkmips/trace"
	"github.com/colorfulnotion/zkmips/vmerrors"
	"github.com/colorfulnotion/zkmips/witness"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// runFlags are the flags shared by run and step; set flags override the
// config file.
type runFlags struct {
	configPath string
	kernelPath string
	inputsPath string
	maxCycles  uint64
	logLevel   string
	debug      string
	jsonlPath  string
	dbPath     string
	otlp       string
	chartPath  string
	summary    bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "YAML config file")
	cmd.Flags().StringVar(&f.kernelPath, "kernel", "", "YAML kernel image (default: built-in)")
	cmd.Flags().StringVar(&f.inputsPath, "inputs", "", "YAML hints and prover inputs")
	cmd.Flags().Uint64Var(&f.maxCycles, "max-cycles", 0, "cycle limit")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	cmd.Flags().StringVar(&f.debug, "debug", "", "comma separated log modules to enable (witness,kernel,mem,gen,trace or all)")
}

func (f *runFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("kernel") {
		cfg.KernelPath = f.kernelPath
	}
	if flags.Changed("inputs") {
		cfg.InputsPath = f.inputsPath
	}
	if flags.Changed("max-cycles") {
		cfg.MaxCycles = f.maxCycles
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if flags.Changed("debug") {
		cfg.LogModules = f.debug
	}
	if flags.Changed("jsonl") {
		cfg.TraceJSONL = f.jsonlPath
	}
	if flags.Changed("db") {
		cfg.TraceDB = f.dbPath
	}
	if flags.Changed("otlp") {
		cfg.OTLPEndpoint = f.otlp
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	log.InitLogger(cfg.LogLevel)
	log.EnableModules(cfg.LogModules)
	return cfg, nil
}

func newState(cfg config.Config, programPath string) (*witness.GenerationState, error) {
	prog, err := loader.LoadFile(programPath)
	if err != nil {
		return nil, fmt.Errorf("loading program %s: %w", programPath, err)
	}
	return loader.NewState(cfg, prog)
}

func main() {
	var rootCmd = &cobra.Command{
		Use:     "mipstrace",
		Short:   "MIPS witness trace generator",
		Version: fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(newRunCmd(), newDecodeCmd(), newDiffCmd(), newStepCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Run a program to completion and emit its trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			state, err := newState(cfg, args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := generation.Options{MaxCycles: cfg.MaxCycles}
			if cfg.OTLPEndpoint != "" {
				tp, err := newTracerProvider(ctx, cfg.OTLPEndpoint)
				if err != nil {
					return err
				}
				defer tp.Shutdown(context.Background())
				opts.TracerProvider = tp
			}

			var store *trace.RowStore
			if cfg.TraceJSONL != "" {
				w, err := trace.CreateJSONL(cfg.TraceJSONL)
				if err != nil {
					return err
				}
				defer w.Close()
				opts.Sinks = append(opts.Sinks, w)
			}
			if cfg.TraceDB != "" {
				if store, err = trace.NewRowStore(cfg.TraceDB); err != nil {
					return err
				}
				defer store.Close()
				opts.Sinks = append(opts.Sinks, store)
			}

			stats := trace.NewStats()
			opts.Sinks = append(opts.Sinks, stats)

			out, runErr := generation.GenerateTraces(ctx, state, opts)
			os.Stdout.Write(out.Stdout)
			os.Stderr.Write(out.Stderr)
			if store != nil {
				if err := store.PutMeta("outputs", out); err != nil {
					log.Warn(log.TraceMonitoring, "Failed to store outputs", "err", err)
				}
			}
			if f.chartPath != "" {
				if err := writeChart(f.chartPath, stats); err != nil {
					log.Warn(log.TraceMonitoring, "Failed to write chart", "path", f.chartPath, "err", err)
				}
			}
			if runErr != nil {
				var fault *witness.KernelFaultError
				if errors.As(runErr, &fault) {
					fmt.Fprintln(os.Stderr, fault.Report())
				}
				return fmt.Errorf("%s: %w", errorTag(runErr), runErr)
			}
			if f.summary {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			fmt.Fprintf(os.Stderr, "halted after %d cycles (%d exceptions), exit code %d, digest %s\n",
				out.Cycles, out.Exceptions, out.ExitCode, out.TraceDigest.Hex())
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.jsonlPath, "jsonl", "", "write rows as JSON Lines to this file")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "write rows to a LevelDB directory")
	cmd.Flags().StringVar(&f.otlp, "otlp", "", "OTLP/HTTP endpoint (host:port) for run spans")
	cmd.Flags().StringVar(&f.chartPath, "chart", "", "write an HTML chart of cycles per operation class")
	cmd.Flags().BoolVar(&f.summary, "summary", false, "print the run outputs as JSON")
	return cmd
}

// errorTag is "E2_StackUnderflow" style for catalogued faults.
func errorTag(err error) string {
	if tag := vmerrors.GetErrorCodeWithName(err); tag != "" {
		return tag
	}
	return "error"
}

func writeChart(path string, stats *trace.Stats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := stats.RenderChart(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newDecodeCmd() *cobra.Command {
	var kernelMode bool
	cmd := &cobra.Command{
		Use:   "decode <word>...",
		Short: "Decode 0x-prefixed instruction words",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			regs := witness.RegistersState{IsKernel: kernelMode}
			for _, arg := range args {
				word, err := loader.ParseWord(arg)
				if err != nil {
					return err
				}
				op, err := witness.Decode(regs, word)
				if err != nil {
					fmt.Printf("0x%08x  %-14s %s\n", word, "-", vmerrors.GetErrorName(err))
					continue
				}
				fmt.Printf("0x%08x  %-14s %v\n", word, witness.Mnemonic(kernelMode, word), op)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&kernelMode, "kernel-mode", false, "decode with kernel privileges")
	return cmd
}

func newDiffCmd() *cobra.Command {
	var noColor bool
	cmd := &cobra.Command{
		Use:   "diff <expected.jsonl> <actual.jsonl>",
		Short: "Compare two JSONL traces",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expected, err := trace.ReadJSONLFile(args[0])
			if err != nil {
				return err
			}
			actual, err := trace.ReadJSONLFile(args[1])
			if err != nil {
				return err
			}
			diff, modified, err := trace.DiffRecords(expected, actual, !noColor)
			if err != nil {
				return err
			}
			if !modified {
				fmt.Printf("traces match (%d rows)\n", len(expected))
				return nil
			}
			fmt.Println(diff)
			if d, err := trace.FirstDivergence(expected, actual); err == nil && d != nil {
				fmt.Printf("first divergence at row %d (clock %d):\n%s\n", d.Index, d.Clock, d.Report)
			}
			return fmt.Errorf("traces differ: %d expected rows, %d actual rows", len(expected), len(actual))
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI colors")
	return cmd
}
