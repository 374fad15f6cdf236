package syscalls

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The values are frozen; a change here breaks compatibility with the prover.
func TestSyscallTableFrozen(t *testing.T) {
	assert.Equal(t, uint32(4246), HALT)
	assert.Equal(t, uint32(4004), WRITE)
	assert.Equal(t, uint32(0x10), COMMIT)
	assert.Equal(t, uint32(0xF0), HINT_LEN)
	assert.Equal(t, uint32(0xF1), HINT_READ)
}

func TestName(t *testing.T) {
	assert.Equal(t, "HALT", Name(HALT))
	assert.Equal(t, "HINT_READ", Name(HINT_READ))
	assert.Equal(t, "UNKNOWN", Name(7))
	assert.True(t, Known(WRITE))
	assert.False(t, Known(0))
}
