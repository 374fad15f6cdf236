// Package loader reads program images and run inputs and builds the initial
// generation state.
package loader

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/colorfulnotion/zkmips/config"
	"github.com/colorfulnotion/zkmips/kernel"
	"github.com/colorfulnotion/zkmips/log"
	"github.com/colorfulnotion/zkmips/witness"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/yaml.v2"
)

// Program is a user code image loaded at address 0.
type Program struct {
	Code  []uint32
	Entry uint32
}

// ParseBinary reads a raw image of big-endian words.
func ParseBinary(data []byte) (*Program, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("image length %d is not a multiple of 4", len(data))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	code := make([]uint32, len(data)/4)
	for i := range code {
		code[i] = binary.BigEndian.Uint32(data[4*i:])
	}
	return &Program{Code: code}, nil
}

// ParseHex reads one or more 0x-prefixed words per line. Text after '#' is
// ignored.
func ParseHex(data []byte) (*Program, error) {
	var code []uint32
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		for _, tok := range strings.Fields(text) {
			w, err := ParseWord(tok)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			code = append(code, w)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	return &Program{Code: code}, nil
}

// ParseWord decodes a single 0x-prefixed 32-bit word.
func ParseWord(tok string) (uint32, error) {
	raw, err := hexutil.Decode(tok)
	if err != nil {
		return 0, fmt.Errorf("word %q: %w", tok, err)
	}
	if len(raw) != 4 {
		return 0, fmt.Errorf("word %q: want 4 bytes, got %d", tok, len(raw))
	}
	return binary.BigEndian.Uint32(raw), nil
}

// LoadFile picks the parser from the extension: .hex and .txt are text
// images, anything else is raw binary.
func LoadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".txt":
		return ParseHex(data)
	default:
		return ParseBinary(data)
	}
}

// Inputs are the hint and prover input streams of a run.
type Inputs struct {
	Hints        []string `yaml:"hints"`
	ProverInputs []uint32 `yaml:"prover_inputs"`
}

func (in Inputs) decodeHints() ([][]byte, error) {
	hints := make([][]byte, len(in.Hints))
	for i, h := range in.Hints {
		b, err := hexutil.Decode(h)
		if err != nil {
			return nil, fmt.Errorf("hint %d: %w", i, err)
		}
		hints[i] = b
	}
	return hints, nil
}

func LoadInputs(path string) (Inputs, error) {
	var in Inputs
	data, err := os.ReadFile(path)
	if err != nil {
		return in, err
	}
	if err := yaml.UnmarshalStrict(data, &in); err != nil {
		return in, fmt.Errorf("parsing inputs %s: %w", path, err)
	}
	return in, nil
}

// NewState builds a generation state for prog: the kernel from cfg (or the
// built-in one) in context 0, prog in the user context, $sp at the stack base
// and the input streams from cfg.InputsPath.
func NewState(cfg config.Config, prog *Program) (*witness.GenerationState, error) {
	k := kernel.Default()
	if cfg.KernelPath != "" {
		var err error
		if k, err = kernel.LoadFile(cfg.KernelPath); err != nil {
			return nil, err
		}
	}
	state, err := witness.NewGenerationState(witness.Config{
		NumContexts:  cfg.NumContexts,
		StackBase:    cfg.StackBase,
		StackLimit:   cfg.StackLimit,
		Kernel:       k,
		MaxBulkBytes: cfg.MaxBulkBytes,
	})
	if err != nil {
		return nil, err
	}
	if err := state.LoadProgram(witness.DefaultUserContext, prog.Code, prog.Entry); err != nil {
		return nil, err
	}
	if cfg.StackBase != 0 {
		state.SetRegister(witness.DefaultUserContext, witness.RegSP, cfg.StackBase)
	}
	if cfg.InputsPath != "" {
		in, err := LoadInputs(cfg.InputsPath)
		if err != nil {
			return nil, err
		}
		hints, err := in.decodeHints()
		if err != nil {
			return nil, err
		}
		state.SetHints(hints)
		state.SetProverInputs(in.ProverInputs)
	}
	log.Debug(log.GenerationMonitoring, "Loaded program", "words", len(prog.Code), "entry", prog.Entry,
		"kernel_words", len(k.Code), "stack_base", cfg.StackBase)
	return state, nil
}
