package trace

import (
	"encoding/binary"
	"hash"

	"github.com/colorfulnotion/zkmips/cpu"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/blake2b"
)

// Digest accumulates a blake2b-256 hash over the canonical values of every
// column of every row it is given. Two runs with equal digests produced the
// same trace.
type Digest struct {
	h    hash.Hash
	rows uint64
}

func NewDigest() *Digest {
	h, err := blake2b.New256(nil)
	if err != nil {
		// only fails for oversized keys
		panic(err)
	}
	return &Digest{h: h}
}

func (d *Digest) WriteRow(row *cpu.CpuColumnsView) error {
	var buf [8]byte
	for _, c := range row.Columns() {
		binary.LittleEndian.PutUint64(buf[:], c.Value)
		d.h.Write(buf[:])
	}
	d.rows++
	return nil
}

func (d *Digest) Rows() uint64 {
	return d.rows
}

func (d *Digest) Sum() common.Hash {
	return common.BytesToHash(d.h.Sum(nil))
}

// DigestRows hashes a complete trace.
func DigestRows(rows []cpu.CpuColumnsView) common.Hash {
	d := NewDigest()
	for i := range rows {
		d.WriteRow(&rows[i])
	}
	return d.Sum()
}
