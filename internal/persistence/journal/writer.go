package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"liquidsands.ai/internal/rpc"
)

// Prefix names the journal files: <dir>/<Prefix>-<yyyy-mm-dd-hh>.jsonl.zst.
const Prefix = "exchanges"

// Exchange is one journal line.
type Exchange struct {
	TS         string `json:"ts"`
	Kind       string `json:"kind"`
	Request    string `json:"request"`
	Reply      string `json:"reply,omitempty"`
	Err        string `json:"err,omitempty"`
	ErrKind    string `json:"err_kind,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// FromRPC converts a completed client exchange into a journal record.
func FromRPC(ex rpc.Exchange) Exchange {
	return Exchange{
		TS:         ex.Time.UTC().Format(time.RFC3339Nano),
		Kind:       ex.Op,
		Request:    ex.Request,
		Reply:      ex.Reply,
		Err:        ex.Err,
		ErrKind:    ex.ErrKind,
		DurationMS: ex.Duration.Milliseconds(),
	}
}

// Time parses TS; the zero time is returned for malformed stamps.
func (e Exchange) Time() time.Time {
	t, _ := time.Parse(time.RFC3339Nano, e.TS)
	return t
}

// Writer appends exchanges to hourly rotated zstd-compressed JSONL files.
type Writer struct {
	baseDir string

	mu      sync.Mutex
	now     func() time.Time
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir, now: time.Now}
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// Record implements rpc.Recorder.
func (w *Writer) Record(ex rpc.Exchange) error {
	return w.Write(FromRPC(ex))
}

func (w *Writer) Write(ex Exchange) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if w.f == nil || hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}
	b, err := json.Marshal(ex)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	// Flush the buffer into the encoder so the line survives a crash between
	// rotations. The zstd frame itself is only finalized on Close.
	return w.w.Flush()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	path := Path(w.baseDir, hour)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.curHour = hour
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	return nil
}

func (w *Writer) closeLocked() error {
	if w.f == nil {
		return nil
	}
	var firstErr error
	if w.w != nil {
		if err := w.w.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if w.enc != nil {
		if err := w.enc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := w.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	w.f = nil
	w.enc = nil
	w.w = nil
	w.curHour = ""
	return firstErr
}

// Path returns the journal file for one UTC hour ("2006-01-02-15").
func Path(baseDir, hour string) string {
	return filepath.Join(baseDir, fmt.Sprintf("%s-%s.jsonl.zst", Prefix, hour))
}
