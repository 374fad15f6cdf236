package kernel

import (
	"embed"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/yaml.v2"
)

//go:embed default.yaml
var defaultFS embed.FS

// YAMLKernel is the on-disk form of a kernel image.
type YAMLKernel struct {
	Code   []string          `yaml:"code"`
	Labels map[string]uint32 `yaml:"labels"`
}

// Parse decodes a YAML kernel; every code entry is a 0x-prefixed 4-byte word.
func Parse(data []byte) (*Kernel, error) {
	var raw YAMLKernel
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("kernel: parse yaml: %w", err)
	}
	code := make([]uint32, len(raw.Code))
	for i, s := range raw.Code {
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("kernel: code[%d] %q: %w", i, s, err)
		}
		if len(b) != 4 {
			return nil, fmt.Errorf("kernel: code[%d] %q is %d bytes, want 4", i, s, len(b))
		}
		code[i] = binary.BigEndian.Uint32(b)
	}
	size := uint32(4 * len(code))
	for name, off := range raw.Labels {
		if off%4 != 0 || off >= size {
			return nil, fmt.Errorf("kernel: label %s at 0x%x is unaligned or outside the image", name, off)
		}
	}
	return New(code, raw.Labels), nil
}

// LoadFile reads a YAML kernel from path.
func LoadFile(path string) (*Kernel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Default returns the built-in kernel: an exception jumptable whose entries
// all point at a handler that halts with exit code 0xff.
func Default() *Kernel {
	data, err := defaultFS.ReadFile("default.yaml")
	if err != nil {
		panic(err)
	}
	k, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return k
}
