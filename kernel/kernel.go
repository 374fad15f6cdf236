// Package kernel holds the trusted kernel image and its symbol table. The
// symbol table is only consulted for diagnostics and for locating the
// exception jumptable.
package kernel

import (
	"fmt"

	"golang.org/x/exp/slices"
)

const (
	// ExceptionJumptable is the label of the table of handler addresses,
	// one 4-byte entry per exception code.
	ExceptionJumptable = "exception_jumptable"
)

type labelOffset struct {
	offset uint32
	name   string
}

type Kernel struct {
	Code         []uint32
	GlobalLabels map[string]uint32

	// sorted by offset, then name
	offsets []labelOffset
}

func New(code []uint32, labels map[string]uint32) *Kernel {
	k := &Kernel{
		Code:         code,
		GlobalLabels: make(map[string]uint32, len(labels)),
	}
	for name, off := range labels {
		k.GlobalLabels[name] = off
		k.offsets = append(k.offsets, labelOffset{offset: off, name: name})
	}
	slices.SortFunc(k.offsets, func(a, b labelOffset) int {
		if a.offset != b.offset {
			if a.offset < b.offset {
				return -1
			}
			return 1
		}
		if a.name < b.name {
			return -1
		}
		if a.name > b.name {
			return 1
		}
		return 0
	})
	return k
}

// CodeSize is the size of the kernel code in bytes.
func (k *Kernel) CodeSize() uint32 {
	return uint32(4 * len(k.Code))
}

func (k *Kernel) GlobalLabel(name string) (uint32, bool) {
	off, ok := k.GlobalLabels[name]
	return off, ok
}

// OffsetLabel returns the label defined exactly at offset.
func (k *Kernel) OffsetLabel(offset uint32) (string, bool) {
	i, found := slices.BinarySearchFunc(k.offsets, offset, func(l labelOffset, target uint32) int {
		if l.offset < target {
			return -1
		}
		if l.offset > target {
			return 1
		}
		return 0
	})
	if !found {
		return "", false
	}
	return k.offsets[i].name, true
}

// OffsetName renders offset symbolically: "label" when a label sits there,
// "label+0x8" relative to the closest preceding label, or plain hex.
func (k *Kernel) OffsetName(offset uint32) string {
	if name, ok := k.OffsetLabel(offset); ok {
		return name
	}
	i, _ := slices.BinarySearchFunc(k.offsets, offset, func(l labelOffset, target uint32) int {
		if l.offset < target {
			return -1
		}
		return 1
	})
	if i == 0 {
		return fmt.Sprintf("0x%x", offset)
	}
	prev := k.offsets[i-1]
	// pick the first name among labels sharing prev.offset
	for i > 1 && k.offsets[i-2].offset == prev.offset {
		i--
		prev = k.offsets[i-1]
	}
	return fmt.Sprintf("%s+0x%x", prev.name, offset-prev.offset)
}
