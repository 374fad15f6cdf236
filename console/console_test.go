package console

import (
	"testing"

	"github.com/colorfulnotion/zkmips/kernel"
	"github.com/colorfulnotion/zkmips/witness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConsole(t *testing.T) *Console {
	t.Helper()
	state, err := witness.NewGenerationState(witness.Config{Kernel: kernel.Default()})
	require.NoError(t, err)
	program := []uint32{
		0x24080005, // addiu $t0, $zero, 5
		0x24021096, // addiu $v0, $zero, 4246
		0x24040009, // addiu $a0, $zero, 9
		0x0000000c, // syscall
	}
	require.NoError(t, state.LoadProgram(witness.DefaultUserContext, program, 0))
	c, err := New(state)
	require.NoError(t, err)
	return c
}

func TestConsoleStepAndInspect(t *testing.T) {
	c := newConsole(t)

	out, err := c.Eval("decode()")
	require.NoError(t, err)
	assert.Contains(t, out, "BinaryArithmeticImm(ADDU")

	out, err = c.Eval("step()")
	require.NoError(t, err)
	assert.Equal(t, "1", out)

	out, err = c.Eval("reg(8)")
	require.NoError(t, err)
	assert.Equal(t, "5", out)

	out, err = c.Eval("pc()")
	require.NoError(t, err)
	assert.Equal(t, "4", out)

	out, err = c.Eval("row(0).flags[0]")
	require.NoError(t, err)
	assert.Equal(t, "BinaryOp", out)

	out, err = c.Eval("mem(1, SEGMENT_REGISTER_FILE, 8)")
	require.NoError(t, err)
	assert.Equal(t, "5", out)
}

func TestConsoleRunToHalt(t *testing.T) {
	c := newConsole(t)
	out, err := c.Eval("run(); print(clock()); halted()")
	require.NoError(t, err)
	assert.Equal(t, "4\ntrue", out)
}

func TestConsoleErrors(t *testing.T) {
	c := newConsole(t)
	for _, line := range []string{"reg(40)", "mem(9, 0, 0)", "mem(0, 12, 0)", "row(3)", "nosuch()", "((("} {
		_, err := c.Eval(line)
		assert.Error(t, err, line)
	}
}
