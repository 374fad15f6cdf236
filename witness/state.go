package witness

// RegistersState is the small, value-copied part of the machine state.
// General purpose registers live in memory (segment RegisterFile) so that
// they are covered by the memory log.
type RegistersState struct {
	ProgramCounter uint32 `json:"program_counter"`
	Context        int    `json:"context"`
	IsKernel       bool   `json:"is_kernel"`
	Halted         bool   `json:"halted"`
	ExitCode       uint32 `json:"exit_code"`
}

// CodeContext is the context instructions are fetched from: kernel code
// always lives in context 0.
func (r RegistersState) CodeContext() int {
	if r.IsKernel {
		return 0
	}
	return r.Context
}

// MIPS register numbers used by the executors.
const (
	RegZero = 0
	RegSP   = 29
	RegRA   = 31

	NumRegisters = 32
)
