// Package keccak backs the KeccakGeneral precompile.
package keccak

import (
	"encoding/binary"

	"github.com/colorfulnotion/zkmips/memory"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// SpongeOp records one Keccak-256 invocation for the sponge table.
type SpongeOp struct {
	Clock  uint64               `json:"clock"`
	Base   memory.MemoryAddress `json:"base"`
	Input  []byte               `json:"input"`
	Digest common.Hash          `json:"digest"`
}

func Keccak256(data []byte) common.Hash {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	return common.BytesToHash(hash.Sum(nil))
}

func NewSpongeOp(clock uint64, base memory.MemoryAddress, input []byte) SpongeOp {
	in := make([]byte, len(input))
	copy(in, input)
	return SpongeOp{Clock: clock, Base: base, Input: in, Digest: Keccak256(in)}
}

// DigestWords splits a digest into eight big-endian words.
func DigestWords(h common.Hash) [8]uint32 {
	var words [8]uint32
	for i := range words {
		words[i] = binary.BigEndian.Uint32(h[4*i:])
	}
	return words
}
