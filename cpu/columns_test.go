package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInverseWitness(t *testing.T) {
	x := FromUint64(12345)
	inv := Inverse(x)
	var prod F
	prod.Mul(&x, &inv)
	assert.True(t, prod.IsOne())

	zero := Inverse(Zero)
	assert.True(t, zero.IsZero())
}

func TestDiffWrapsInField(t *testing.T) {
	d := Diff(5, 3)
	assert.Equal(t, uint64(2), d.Uint64())

	// 3-5 = p-2
	d = Diff(3, 5)
	two := FromUint64(2)
	var sum F
	sum.Add(&d, &two)
	assert.True(t, sum.IsZero())
}

func TestActiveFlags(t *testing.T) {
	var row CpuColumnsView
	assert.Empty(t, row.Op.ActiveFlags())
	row.Op.Branch = One
	assert.Equal(t, []string{"Branch"}, row.Op.ActiveFlags())
}

func TestColumnsFlattening(t *testing.T) {
	var row CpuColumnsView
	row.ProgramCounter = FromUint32(0x40)
	row.MemChannels[2].Value = FromUint32(7)
	row.General.Exception.ExcCode[3] = One

	cols := row.Columns()
	byName := make(map[string]uint64, len(cols))
	for _, c := range cols {
		byName[c.Name] = c.Value
	}
	require.Equal(t, "Clock", cols[0].Name)
	assert.Equal(t, uint64(0x40), byName["ProgramCounter"])
	assert.Equal(t, uint64(7), byName["MemChannels[2].Value"])
	assert.Equal(t, uint64(1), byName["General.Exception.ExcCode[3]"])

	code, ok := row.General.Exception.ExceptionCode()
	require.True(t, ok)
	assert.Equal(t, uint8(3), code)
}
