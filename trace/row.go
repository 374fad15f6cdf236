// Package trace persists and compares CPU trace rows.
package trace

import (
	"github.com/colorfulnotion/zkmips/cpu"
)

// RowSink receives committed rows in clock order.
type RowSink interface {
	WriteRow(row *cpu.CpuColumnsView) error
}

// RowRecord is the sparse, serialisable form of a row: zero columns are
// omitted.
type RowRecord struct {
	Clock   uint64            `json:"clock"`
	Flags   []string          `json:"flags"`
	Columns map[string]uint64 `json:"columns"`
}

func NewRowRecord(row *cpu.CpuColumnsView) RowRecord {
	rec := RowRecord{
		Clock:   row.Clock.Uint64(),
		Flags:   row.Op.ActiveFlags(),
		Columns: make(map[string]uint64),
	}
	for _, c := range row.Columns() {
		if c.Value != 0 {
			rec.Columns[c.Name] = c.Value
		}
	}
	return rec
}
