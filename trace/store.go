package trace

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/zkmips/cpu"
	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	rowPrefix  = []byte("row/")
	metaPrefix = []byte("meta/")
)

// RowStore keeps rows in LevelDB keyed by clock, so a run can be inspected
// one cycle at a time.
type RowStore struct {
	db *leveldb.DB
}

// NewRowStore opens or creates a store at path. An empty path gives an
// in-memory store.
func NewRowStore(path string) (*RowStore, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open row store at %s: %w", path, err)
	}
	return &RowStore{db: db}, nil
}

func rowKey(clock uint64) []byte {
	key := make([]byte, len(rowPrefix)+8)
	copy(key, rowPrefix)
	binary.BigEndian.PutUint64(key[len(rowPrefix):], clock)
	return key
}

func (s *RowStore) WriteRow(row *cpu.CpuColumnsView) error {
	return s.PutRecord(NewRowRecord(row))
}

func (s *RowStore) PutRecord(rec RowRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Put(rowKey(rec.Clock), data, nil)
}

// Row returns the row at clock. Returns (zero, false, nil) if not found.
func (s *RowStore) Row(clock uint64) (RowRecord, bool, error) {
	data, err := s.db.Get(rowKey(clock), nil)
	if err == leveldb.ErrNotFound {
		return RowRecord{}, false, nil
	}
	if err != nil {
		return RowRecord{}, false, fmt.Errorf("Row %d: %w", clock, err)
	}
	var rec RowRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return RowRecord{}, false, fmt.Errorf("Row %d: %w", clock, err)
	}
	return rec, true, nil
}

// Rows returns every stored row in clock order.
func (s *RowStore) Rows() ([]RowRecord, error) {
	iter := s.db.NewIterator(util.BytesPrefix(rowPrefix), nil)
	defer iter.Release()

	var recs []RowRecord
	for iter.Next() {
		var rec RowRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("Rows: key %x: %w", iter.Key(), err)
		}
		recs = append(recs, rec)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("Rows: %w", err)
	}
	return recs, nil
}

// PutMeta stores a JSON encoded value under name.
func (s *RowStore) PutMeta(name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Put(append(append([]byte{}, metaPrefix...), name...), data, nil)
}

// GetMeta decodes the value stored under name into v.
func (s *RowStore) GetMeta(name string, v interface{}) (bool, error) {
	data, err := s.db.Get(append(append([]byte{}, metaPrefix...), name...), nil)
	if err == leveldb.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, v)
}

func (s *RowStore) Close() error {
	return s.db.Close()
}
