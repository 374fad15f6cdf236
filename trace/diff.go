package trace

import (
	"encoding/json"
	"fmt"

	"github.com/nsf/jsondiff"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// DiffJSON compares two JSON documents and renders the differences in the
// ASCII diff format. modified is false when the documents are equal.
func DiffJSON(expected, actual []byte, coloring bool) (diff string, modified bool, err error) {
	differ := gojsondiff.New()
	delta, err := differ.Compare(expected, actual)
	if err != nil {
		return "", false, fmt.Errorf("diffing JSON: %w", err)
	}
	if !delta.Modified() {
		return "", false, nil
	}

	var left interface{}
	if err := json.Unmarshal(expected, &left); err != nil {
		return "", true, err
	}
	cfg := formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       coloring,
	}
	out, err := formatter.NewAsciiFormatter(left, cfg).Format(delta)
	if err != nil {
		return "", true, fmt.Errorf("formatting diff: %w", err)
	}
	return out, true, nil
}

// DiffRecords diffs two row traces, wrapping each in a JSON object so that
// gojsondiff (which compares objects) can walk them.
func DiffRecords(expected, actual []RowRecord, coloring bool) (string, bool, error) {
	left, err := json.Marshal(map[string]interface{}{"rows": expected})
	if err != nil {
		return "", false, err
	}
	right, err := json.Marshal(map[string]interface{}{"rows": actual})
	if err != nil {
		return "", false, err
	}
	return DiffJSON(left, right, coloring)
}

// Divergence describes the first row at which two traces disagree.
type Divergence struct {
	Index  int
	Clock  uint64
	Report string
}

// FirstDivergence walks both traces in lockstep and reports the first row
// that differs. It returns nil when the traces are identical. A missing row
// on either side counts as a divergence.
func FirstDivergence(expected, actual []RowRecord) (*Divergence, error) {
	opts := jsondiff.DefaultConsoleOptions()
	n := len(expected)
	if len(actual) > n {
		n = len(actual)
	}
	for i := 0; i < n; i++ {
		if i >= len(expected) || i >= len(actual) {
			d := &Divergence{Index: i}
			if i < len(actual) {
				d.Clock = actual[i].Clock
				d.Report = "unexpected extra row"
			} else {
				d.Clock = expected[i].Clock
				d.Report = "missing row"
			}
			return d, nil
		}
		left, err := json.Marshal(expected[i])
		if err != nil {
			return nil, err
		}
		right, err := json.Marshal(actual[i])
		if err != nil {
			return nil, err
		}
		diff, report := jsondiff.Compare(left, right, &opts)
		if diff != jsondiff.FullMatch {
			return &Divergence{Index: i, Clock: expected[i].Clock, Report: report}, nil
		}
	}
	return nil, nil
}
