package journal

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"broker-ledger/internal/interfaces"
	"broker-ledger/internal/types"
)

// CSV appends ledger rows to a single file. The header is written only when
// the file is created, so runs accumulate in one sheet.
type CSV struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

var _ interfaces.Journal = (*CSV)(nil)

func NewCSV(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Columns); err != nil {
			_ = f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return &CSV{f: f, w: w}, nil
}

func (j *CSV) RecordLedger(_ context.Context, e types.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, r := range e.Ledger.Rows {
		if err := j.w.Write(rowValues(e, r)); err != nil {
			return fmt.Errorf("csv journal: %w", err)
		}
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSV) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.w.Flush()
	if err := j.w.Error(); err != nil {
		_ = j.f.Close()
		return err
	}
	return j.f.Close()
}
