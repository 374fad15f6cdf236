// Package console is the scripting surface of the interactive stepper: a
// JavaScript VM with bindings that step the machine and inspect its state.
package console

import (
	"fmt"
	"strings"

	"github.com/colorfulnotion/zkmips/memory"
	"github.com/colorfulnotion/zkmips/trace"
	"github.com/colorfulnotion/zkmips/witness"
	"github.com/dop251/goja"
)

// Console evaluates script lines against one generation state. It is not
// safe for concurrent use.
type Console struct {
	vm    *goja.Runtime
	state *witness.GenerationState
	out   strings.Builder
}

func New(state *witness.GenerationState) (*Console, error) {
	c := &Console{vm: goja.New(), state: state}
	c.vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	bindings := map[string]interface{}{
		"step":   c.step,
		"run":    c.run,
		"pc":     func() uint32 { return state.Registers.ProgramCounter },
		"clock":  func() uint64 { return state.Traces.Clock() },
		"ctx":    func() int { return state.Registers.Context },
		"kernel": func() bool { return state.Registers.IsKernel },
		"halted": func() bool { return state.Registers.Halted },
		"reg":    c.reg,
		"mem":    c.mem,
		"row":    c.row,
		"decode": c.decode,
		"stdout": func() string { return string(state.Stdout) },
		"print": func(args ...goja.Value) {
			for _, arg := range args {
				fmt.Fprintln(&c.out, arg.Export())
			}
		},
	}
	for name, fn := range bindings {
		if err := c.vm.Set(name, fn); err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
	}
	for i, seg := range memory.AllSegments() {
		if err := c.vm.Set(seg.String(), i); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Eval runs one line and returns whatever it printed followed by the value
// of the line.
func (c *Console) Eval(line string) (string, error) {
	c.out.Reset()
	value, err := c.vm.RunString(line)
	if err != nil {
		return c.out.String(), err
	}
	out := c.out.String()
	if value != nil && !goja.IsUndefined(value) {
		out += value.String()
	}
	return out, nil
}

// step executes up to n cycles (default 1) and returns the clock.
func (c *Console) step(n int) (uint64, error) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n && !c.state.Registers.Halted; i++ {
		if err := witness.Transition(c.state); err != nil {
			return c.state.Traces.Clock(), err
		}
	}
	return c.state.Traces.Clock(), nil
}

// run steps until the machine halts or max cycles have executed.
func (c *Console) run(max int) (uint64, error) {
	if max <= 0 {
		max = 1 << 20
	}
	return c.step(max)
}

func (c *Console) reg(n int) (uint32, error) {
	if n < 0 || n >= witness.NumRegisters {
		return 0, fmt.Errorf("register %d out of range", n)
	}
	return c.state.Register(uint8(n)), nil
}

func (c *Console) mem(ctx int, seg int, virt uint32) (uint32, error) {
	if ctx < 0 || ctx >= c.state.Memory.NumContexts() {
		return 0, fmt.Errorf("context %d out of range", ctx)
	}
	s := memory.Segment(seg)
	if !s.Valid() {
		return 0, fmt.Errorf("segment %d out of range", seg)
	}
	return c.state.Memory.Get(memory.NewMemoryAddress(ctx, s, virt)), nil
}

func (c *Console) row(clock int) (trace.RowRecord, error) {
	if clock < 0 || clock >= len(c.state.Traces.CpuRows) {
		return trace.RowRecord{}, fmt.Errorf("no row at clock %d", clock)
	}
	return trace.NewRowRecord(&c.state.Traces.CpuRows[clock]), nil
}

// decode shows the operation at the current pc without executing it.
func (c *Console) decode() (string, error) {
	regs := c.state.Registers
	word := c.state.Memory.Get(memory.NewMemoryAddress(regs.CodeContext(), memory.Code, regs.ProgramCounter))
	op, err := witness.Decode(regs, word)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0x%08x %s", word, op), nil
}
