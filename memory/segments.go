package memory

import "fmt"

// Segment partitions a context's address space by purpose. The integer
// values are part of the address encoding and must never be renumbered.
type Segment int

const (
	// Contains program code.
	Code Segment = iota
	// The guest stack window.
	Stack
	// Guest data outside the stack window.
	MainMemory
	// The 32 general purpose registers of a context.
	RegisterFile
	// General purpose kernel memory, used by various kernel routines.
	KernelGeneral
	// Another segment for general purpose kernel use.
	KernelGeneral2
	// Per-context metadata kept by the kernel.
	ContextMetadata
)

// NumSegments is the number of segments in every context.
const NumSegments = 7

var segmentNames = [NumSegments]string{
	Code:            "SEGMENT_CODE",
	Stack:           "SEGMENT_STACK",
	MainMemory:      "SEGMENT_MAIN_MEMORY",
	RegisterFile:    "SEGMENT_REGISTER_FILE",
	KernelGeneral:   "SEGMENT_KERNEL_GENERAL",
	KernelGeneral2:  "SEGMENT_KERNEL_GENERAL_2",
	ContextMetadata: "SEGMENT_CONTEXT_METADATA",
}

// AllSegments lists the segments in address-encoding order.
func AllSegments() []Segment {
	all := make([]Segment, NumSegments)
	for i := range all {
		all[i] = Segment(i)
	}
	return all
}

func (s Segment) Valid() bool {
	return s >= 0 && s < NumSegments
}

func (s Segment) String() string {
	if !s.Valid() {
		return fmt.Sprintf("SEGMENT_INVALID(%d)", int(s))
	}
	return segmentNames[s]
}
