package trace

import (
	"fmt"
	"io"

	"github.com/colorfulnotion/zkmips/cpu"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"golang.org/x/exp/slices"
)

// Stats counts rows per operation class. It is a RowSink.
type Stats struct {
	Rows         uint64
	KernelRows   uint64
	FlagCounts   map[string]uint64
	ExceptionsBy map[uint8]uint64
}

func NewStats() *Stats {
	return &Stats{
		FlagCounts:   make(map[string]uint64),
		ExceptionsBy: make(map[uint8]uint64),
	}
}

func (s *Stats) WriteRow(row *cpu.CpuColumnsView) error {
	s.Rows++
	if row.IsKernelMode.IsOne() {
		s.KernelRows++
	}
	for _, flag := range row.Op.ActiveFlags() {
		s.FlagCounts[flag]++
	}
	if code, ok := row.General.Exception.ExceptionCode(); ok {
		s.ExceptionsBy[code]++
	}
	return nil
}

// sortedFlags orders flags by descending count, then name.
func (s *Stats) sortedFlags() []string {
	flags := make([]string, 0, len(s.FlagCounts))
	for f := range s.FlagCounts {
		flags = append(flags, f)
	}
	slices.SortFunc(flags, func(a, b string) int {
		if s.FlagCounts[a] != s.FlagCounts[b] {
			if s.FlagCounts[a] > s.FlagCounts[b] {
				return -1
			}
			return 1
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return flags
}

// RenderChart writes an HTML bar chart of the per-class row counts.
func (s *Stats) RenderChart(w io.Writer) error {
	flags := s.sortedFlags()
	items := make([]opts.BarData, 0, len(flags))
	for _, f := range flags {
		items = append(items, opts.BarData{Value: s.FlagCounts[f]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Cycles per operation class",
			Subtitle: fmt.Sprintf("%d rows, %d in kernel mode", s.Rows, s.KernelRows),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(flags).AddSeries("rows", items)
	return bar.Render(w)
}
