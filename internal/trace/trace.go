// Package trace records consumer trajectories as CBOR records in zstd
// compressed files, one file per hour.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/sasha-s/go-deadlock"
)

// Record is one consumer step.
type Record struct {
	Session  string    `cbor:"session"`
	Episode  int       `cbor:"episode"`
	Step     int       `cbor:"step"`
	UnixMs   int64     `cbor:"t"`
	Action   int32     `cbor:"action"`
	Percent  float32   `cbor:"percent"`
	Hazard   float32   `cbor:"hazard"`
	Solid    float32   `cbor:"solid"`
	Mode     int32     `cbor:"mode"`
	Terminal bool      `cbor:"terminal"`
	Obs      []float32 `cbor:"obs,omitempty"`
}

// Writer appends records to <dir>/<prefix>-YYYY-MM-DD-HH.cbor.zst,
// rotating when the UTC hour changes. Safe for concurrent use.
type Writer struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      deadlock.Mutex
	curHour string
	f       *os.File
	zw      *zstd.Encoder
	w       *bufio.Writer
	enc     *cbor.Encoder
	count   int
}

// NewWriter returns a writer rooted at dir. Files are created lazily.
func NewWriter(dir, prefix string) *Writer {
	if prefix == "" {
		prefix = "trace"
	}
	return &Writer{baseDir: dir, prefix: prefix, now: time.Now}
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("trace: encode: %w", err)
	}
	w.count++
	return nil
}

// Flush pushes buffered records through the compressor to the file.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("trace: flush: %w", err)
	}
	return w.zw.Flush()
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Path returns the current file path, or "" before the first write.
func (w *Writer) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.curHour == "" {
		return ""
	}
	return w.pathForHour(w.curHour)
}

// Close flushes and closes the current file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("trace: create dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("trace: open %s: %w", path, err)
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("trace: zstd: %w", err)
	}
	w.f = f
	w.zw = zw
	w.w = bufio.NewWriterSize(zw, 64*1024)
	w.enc = cbor.NewEncoder(w.w)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		err = w.w.Flush()
	}
	if w.zw != nil {
		err = errors.Join(err, w.zw.Close())
		w.zw = nil
	}
	if w.f != nil {
		err = errors.Join(err, w.f.Close())
		w.f = nil
	}
	w.w = nil
	w.enc = nil
	return err
}

func (w *Writer) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.cbor.zst", w.prefix, hour))
}

// Reader decodes records from a trace file.
type Reader struct {
	f   *os.File
	zr  *zstd.Decoder
	dec *cbor.Decoder
}

// Open opens a trace file for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	zr, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("trace: zstd: %w", err)
	}
	return &Reader{f: f, zr: zr, dec: cbor.NewDecoder(bufio.NewReader(zr))}, nil
}

// Next decodes the next record. It returns io.EOF at the end of the file.
func (r *Reader) Next(rec *Record) error {
	*rec = Record{}
	if err := r.dec.Decode(rec); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("trace: decode: %w", err)
	}
	return nil
}

// Close releases the file.
func (r *Reader) Close() error {
	r.zr.Close()
	return r.f.Close()
}

// ReadAll returns every record in the file.
func ReadAll(path string) ([]Record, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []Record
	for {
		var rec Record
		err := r.Next(&rec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
