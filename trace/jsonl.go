package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/colorfulnotion/zkmips/cpu"
	"github.com/colorfulnotion/zkmips/log"
)

var ErrRowWriterClosed = errors.New("jsonl row writer is closed")

// JSONLRowWriter streams one sparse RowRecord per line. Writers may be shared
// between goroutines. The first encoding or flush error sticks: every later
// call returns it.
type JSONLRowWriter struct {
	mu   sync.Mutex
	out  *bufio.Writer
	enc  *json.Encoder
	file *os.File

	rows   uint64
	err    error
	closed bool
}

// NewJSONLRowWriter buffers rows into w. Close flushes; w stays open.
func NewJSONLRowWriter(w io.Writer) *JSONLRowWriter {
	out := bufio.NewWriterSize(w, 64<<10)
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	return &JSONLRowWriter{out: out, enc: enc}
}

// CreateJSONL writes rows to a fresh file at path, closed with the writer.
func CreateJSONL(path string) (*JSONLRowWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("jsonl trace: %w", err)
	}
	w := NewJSONLRowWriter(f)
	w.file = f
	return w, nil
}

func (w *JSONLRowWriter) WriteRow(row *cpu.CpuColumnsView) error {
	return w.WriteRecord(NewRowRecord(row))
}

func (w *JSONLRowWriter) WriteRecord(rec RowRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usable(); err != nil {
		return err
	}
	if w.err = w.enc.Encode(rec); w.err != nil {
		return w.err
	}
	w.rows++
	return nil
}

// Rows is the number of records written so far.
func (w *JSONLRowWriter) Rows() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

func (w *JSONLRowWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usable(); err != nil {
		return err
	}
	w.err = w.out.Flush()
	return w.err
}

func (w *JSONLRowWriter) usable() error {
	if w.closed {
		return ErrRowWriterClosed
	}
	return w.err
}

// Close flushes and releases the file, if any. Closing twice is a no-op.
func (w *JSONLRowWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.err
	if err == nil {
		err = w.out.Flush()
	}
	if w.file != nil {
		err = errors.Join(err, w.file.Close())
		log.Debug(log.TraceMonitoring, "JSONL trace closed", "path", w.file.Name(), "rows", w.rows)
	}
	return err
}

// ReadJSONL decodes every record of a JSON Lines trace.
func ReadJSONL(r io.Reader) ([]RowRecord, error) {
	dec := json.NewDecoder(r)
	var recs []RowRecord
	for {
		var rec RowRecord
		err := dec.Decode(&rec)
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(recs), err)
		}
		recs = append(recs, rec)
	}
}

func ReadJSONLFile(path string) ([]RowRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSONL(f)
}
