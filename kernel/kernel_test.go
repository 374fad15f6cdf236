package kernel

import (
	"testing"

	"github.com/colorfulnotion/zkmips/vmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetName(t *testing.T) {
	k := New(make([]uint32, 16), map[string]uint32{
		"main":       0x10,
		"loop":       0x20,
		"alias_loop": 0x20,
	})
	assert.Equal(t, "0x4", k.OffsetName(0x4))
	assert.Equal(t, "main", k.OffsetName(0x10))
	assert.Equal(t, "main+0x8", k.OffsetName(0x18))
	assert.Equal(t, "alias_loop", k.OffsetName(0x20))
	assert.Equal(t, "alias_loop+0x4", k.OffsetName(0x24))

	_, ok := k.OffsetLabel(0x18)
	assert.False(t, ok)
	name, ok := k.OffsetLabel(0x10)
	require.True(t, ok)
	assert.Equal(t, "main", name)
	assert.Equal(t, uint32(64), k.CodeSize())
}

func TestDefaultKernel(t *testing.T) {
	k := Default()
	table, ok := k.GlobalLabel(ExceptionJumptable)
	require.True(t, ok)
	assert.Equal(t, uint32(0), table)
	require.Len(t, k.Code, vmerrors.NumExceptionCodes+3)
	handler, ok := k.GlobalLabel("exception_handler")
	require.True(t, ok)
	assert.Equal(t, uint32(4*vmerrors.NumExceptionCodes), handler)
	for i := 0; i < vmerrors.NumExceptionCodes; i++ {
		assert.Equal(t, handler, k.Code[i])
	}
	assert.Equal(t, uint32(0x24021096), k.Code[vmerrors.NumExceptionCodes])
	assert.Equal(t, "halt", k.OffsetName(handler+8))
}

func TestParseRejectsBadImages(t *testing.T) {
	_, err := Parse([]byte("code: [\"0x0102\"]\n"))
	require.Error(t, err)

	_, err = Parse([]byte("code: [\"zz\"]\n"))
	require.Error(t, err)

	_, err = Parse([]byte("code: [\"0x00000000\"]\nlabels: {far: 8}\n"))
	require.Error(t, err)
}
