// Package syscalls holds the syscall identifiers understood by the SYSCALL
// instruction. These codes MUST match the proof system's own table.
package syscalls

// Halts the program.
const HALT uint32 = 4246

// Writes to a file descriptor. Currently only used for STDOUT/STDERR.
const WRITE uint32 = 4004

// Executes the COMMIT precompile.
const COMMIT uint32 = 0x00_00_00_10

// Executes HINT_LEN.
const HINT_LEN uint32 = 0x00_00_00_F0

// Executes HINT_READ.
const HINT_READ uint32 = 0x00_00_00_F1

// Register convention used by SYSCALL: the id is read from v0 and the
// arguments from a0..a3; results are returned in v0.
const (
	RegV0 = 2
	RegA0 = 4
	RegA1 = 5
	RegA2 = 6
	RegA3 = 7
)

// File descriptors accepted by WRITE.
const (
	FdStdout = 1
	FdStderr = 2
)

var syscallNames = map[uint32]string{
	HALT:      "HALT",
	WRITE:     "WRITE",
	COMMIT:    "COMMIT",
	HINT_LEN:  "HINT_LEN",
	HINT_READ: "HINT_READ",
}

// Name returns the human-readable name for a syscall id
func Name(id uint32) string {
	if name, ok := syscallNames[id]; ok {
		return name
	}
	return "UNKNOWN"
}

// Known reports whether id is part of the syscall table.
func Known(id uint32) bool {
	_, ok := syscallNames[id]
	return ok
}
