// Package recorder keeps an append-only audit trail of broker activity, one
// JSON line per event in a file per IST trading day.
package recorder

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"broker-ledger/internal/interfaces"
)

var ist = time.FixedZone("IST", 19800)

type Entry struct {
	Time    string `json:"time"`
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

type Recorder struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

var _ interfaces.Recorder = (*Recorder)(nil)

func New(dir string) *Recorder {
	if dir == "" {
		dir = "logs"
	}
	return &Recorder{dir: dir, now: time.Now}
}

func (r *Recorder) Dir() string { return r.dir }

func (r *Recorder) dailyFilepath(t time.Time) string {
	return filepath.Join(r.dir, t.In(ist).Format("2006-01-02")+".txt")
}

// Record appends one event. kind names the event, e.g. "order" or "fill".
func (r *Recorder) Record(kind string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().In(ist)
	b, err := json.Marshal(Entry{Time: now.Format("2006-01-02 15:04:05"), Kind: kind, Payload: payload})
	if err != nil {
		return fmt.Errorf("recorder: encode %s: %w", kind, err)
	}

	p := r.dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips day files last written more than retentionDays ago.
// Files that fail to compress are left in place.
func (r *Recorder) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(r.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		// already compressed on an earlier run
		if gzipIntact(gz) {
			return os.Remove(p)
		}
		if err := gzipFile(p, gz); err != nil {
			return nil
		}
		return os.Remove(p)
	})
}

// gzipIntact reports whether path is a complete gzip stream.
func gzipIntact(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		return false
	}
	_, err = io.Copy(io.Discard, zr)
	return err == nil && zr.Close() == nil
}

// gzipFile writes dst through a temp file so dst is either absent or complete.
func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
