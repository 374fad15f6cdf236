package witness

import (
	"fmt"

	"github.com/colorfulnotion/zkmips/cpu"
	"github.com/colorfulnotion/zkmips/memory"
	"github.com/colorfulnotion/zkmips/vmerrors"
)

func memReadWithLog(channel memory.MemoryChannel, address memory.MemoryAddress, state *GenerationState) (uint32, memory.MemoryOp) {
	val := state.Memory.Get(address)
	op := memory.NewMemoryOp(channel, state.Traces.Clock(), address, memory.Read, val)
	return val, op
}

func memWriteLog(channel memory.MemoryChannel, address memory.MemoryAddress, state *GenerationState, val uint32) memory.MemoryOp {
	return memory.NewMemoryOp(channel, state.Traces.Clock(), address, memory.Write, val)
}

func fillChannel(view *cpu.MemoryChannelView, op memory.MemoryOp) {
	view.Used = cpu.One
	view.IsRead = cpu.FromBool(op.Kind == memory.Read)
	view.AddrContext = cpu.FromUint64(uint64(op.Address.Context))
	view.AddrSegment = cpu.FromUint64(uint64(op.Address.Segment))
	view.AddrVirtual = cpu.FromUint32(op.Address.Virt)
	view.Value = cpu.FromUint32(op.Value)
}

func memReadCodeWithLogAndFill(address memory.MemoryAddress, state *GenerationState, row *cpu.CpuColumnsView) (uint32, memory.MemoryOp) {
	val, op := memReadWithLog(memory.CodeChannel, address, state)
	fillChannel(&row.CodeChannel, op)
	return val, op
}

func memReadGpWithLogAndFill(n int, address memory.MemoryAddress, state *GenerationState, row *cpu.CpuColumnsView) (uint32, memory.MemoryOp) {
	val, op := memReadWithLog(memory.GeneralPurpose(n), address, state)
	fillChannel(&row.MemChannels[n], op)
	return val, op
}

func memWriteGpLogAndFill(n int, address memory.MemoryAddress, state *GenerationState, row *cpu.CpuColumnsView, val uint32) memory.MemoryOp {
	op := memWriteLog(memory.GeneralPurpose(n), address, state, val)
	fillChannel(&row.MemChannels[n], op)
	return op
}

// readRegister performs a logged read of reg on channel n.
func readRegister(n int, reg uint8, state *GenerationState, row *cpu.CpuColumnsView) uint32 {
	val, op := memReadGpWithLogAndFill(n, state.registerAddress(reg), state, row)
	state.Traces.PushMemory(op)
	return val
}

// writeRegister performs a logged write of reg on channel n. Writes to $zero
// are dropped.
func writeRegister(n int, reg uint8, val uint32, state *GenerationState, row *cpu.CpuColumnsView) {
	if reg == RegZero {
		return
	}
	op := memWriteGpLogAndFill(n, state.registerAddress(reg), state, row, val)
	state.Traces.PushMemory(op)
}

// writeRegisterUnfilled logs a register write in a bulk slot without
// occupying a row channel.
func writeRegisterUnfilled(reg uint8, val uint32, state *GenerationState) {
	if reg == RegZero {
		return
	}
	state.Traces.PushMemory(memWriteLog(state.nextBulkChannel(), state.registerAddress(reg), state, val))
}

// readBytes reads n bytes of user data memory starting at addr. Words are
// big-endian: byte 0 of a word is its most significant byte. n is bounded by
// MaxBulkBytes.
func readBytes(state *GenerationState, addr uint32, n uint32) ([]byte, error) {
	if err := state.checkBulkLen(n); err != nil {
		return nil, err
	}
	out := make([]byte, 0, n)
	word := uint32(0)
	wordAddr := uint32(0)
	loaded := false
	for i := uint32(0); i < n; i++ {
		a := addr + i
		if !loaded || a&^3 != wordAddr {
			wordAddr = a &^ 3
			address := memory.NewMemoryAddress(state.Registers.Context, state.dataSegment(wordAddr), wordAddr)
			var op memory.MemoryOp
			word, op = memReadWithLog(state.nextBulkChannel(), address, state)
			state.Traces.PushMemory(op)
			loaded = true
		}
		out = append(out, byte(word>>(24-8*(a&3))))
	}
	return out, nil
}

// writeWords writes words to user data memory at an aligned address.
func writeWords(state *GenerationState, addr uint32, words []uint32) error {
	if addr%4 != 0 {
		return fmt.Errorf("write of %d words at 0x%x: %w", len(words), addr, vmerrors.ErrUnalignedAccess)
	}
	if err := state.checkBulkLen(uint32(4 * len(words))); err != nil {
		return err
	}
	for i, w := range words {
		a := addr + uint32(4*i)
		address := memory.NewMemoryAddress(state.Registers.Context, state.dataSegment(a), a)
		state.Traces.PushMemory(memWriteLog(state.nextBulkChannel(), address, state, w))
	}
	return nil
}

// packWords packs bytes big-endian into words, zero padding the last one.
func packWords(data []byte) []uint32 {
	words := make([]uint32, (len(data)+3)/4)
	for i, b := range data {
		words[i/4] |= uint32(b) << (24 - 8*uint(i%4))
	}
	return words
}
