// Package config holds the run configuration of the witness generator.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/colorfulnotion/zkmips/log"
	"gopkg.in/yaml.v2"
)

type Config struct {
	LogLevel   string `yaml:"log_level"`
	LogModules string `yaml:"log_modules"`

	MaxCycles   uint64 `yaml:"max_cycles"`
	NumContexts int    `yaml:"num_contexts"`
	StackBase   uint32 `yaml:"stack_base"`
	StackLimit  uint32 `yaml:"stack_limit"`
	// MaxBulkBytes caps syscall buffers and Keccak inputs; 0 keeps the
	// generator default.
	MaxBulkBytes uint32 `yaml:"max_bulk_bytes"`

	// KernelPath is a YAML kernel image; empty selects the built-in kernel.
	KernelPath string `yaml:"kernel_path"`
	// InputsPath is a YAML file with hints and prover inputs.
	InputsPath string `yaml:"inputs_path"`

	TraceJSONL string `yaml:"trace_jsonl"`
	TraceDB    string `yaml:"trace_db"`

	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

func Default() Config {
	return Config{
		LogLevel:    "info",
		MaxCycles:   1 << 24,
		NumContexts: 4,
		StackBase:   0x8000_0000,
		StackLimit:  0x7f00_0000,
	}
}

// Load reads path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.MaxCycles == 0 {
		errs = append(errs, errors.New("max_cycles must be positive"))
	}
	if c.NumContexts < 2 {
		errs = append(errs, fmt.Errorf("num_contexts %d: need a kernel and a user context", c.NumContexts))
	}
	if c.StackBase != 0 {
		if c.StackLimit >= c.StackBase {
			errs = append(errs, fmt.Errorf("stack_limit 0x%x must be below stack_base 0x%x", c.StackLimit, c.StackBase))
		}
		if c.StackBase%4 != 0 || c.StackLimit%4 != 0 {
			errs = append(errs, errors.New("stack bounds must be word aligned"))
		}
	}
	return errors.Join(errs...)
}
