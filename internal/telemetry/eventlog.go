// Package telemetry records chunk lifecycle events: a zstd-compressed JSONL
// stream as the durable record, and an optional sqlite index for ad-hoc
// queries. Both sinks are nil-safe and drop rather than block the pipeline.
package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/world"
)

// jsonlZstdWriter appends JSON lines to hour-rotated zstd files.
type jsonlZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func newJSONLZstdWriter(baseDir, prefix string) *jsonlZstdWriter {
	return &jsonlZstdWriter{baseDir: baseDir, prefix: prefix}
}

func (w *jsonlZstdWriter) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *jsonlZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *jsonlZstdWriter) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err
}

func (w *jsonlZstdWriter) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *jsonlZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// eventRow is one line of the event stream.
type eventRow struct {
	Kind string `json:"kind"`
	world.TransitionEntry
	Gauges *world.GaugeEntry `json:"gauges,omitempty"`
}

// EventLog is the durable chunk event stream. Write errors are counted, not
// surfaced: telemetry never fails the streaming pipeline.
type EventLog struct {
	w      *jsonlZstdWriter
	errors atomic.Uint64
}

// NewEventLog writes hour-rotated files under dir.
func NewEventLog(dir string) *EventLog {
	return &EventLog{w: newJSONLZstdWriter(dir, "chunks")}
}

func (l *EventLog) LogTransition(e world.TransitionEntry) {
	if l == nil {
		return
	}
	if err := l.w.write(eventRow{Kind: "transition", TransitionEntry: e}); err != nil {
		l.errors.Add(1)
	}
}

func (l *EventLog) LogGauges(g world.GaugeEntry) {
	if l == nil {
		return
	}
	if err := l.w.write(eventRow{Kind: "gauges", TransitionEntry: world.TransitionEntry{Tick: g.Tick}, Gauges: &g}); err != nil {
		l.errors.Add(1)
	}
}

// WriteErrors reports how many rows were lost to IO errors.
func (l *EventLog) WriteErrors() uint64 { return l.errors.Load() }

func (l *EventLog) Close() error {
	if l == nil {
		return nil
	}
	return l.w.close()
}

// Tee fans one telemetry stream out to several sinks.
type Tee []world.TransitionLogger

func (t Tee) LogTransition(e world.TransitionEntry) {
	for _, s := range t {
		s.LogTransition(e)
	}
}

func (t Tee) LogGauges(g world.GaugeEntry) {
	for _, s := range t {
		s.LogGauges(g)
	}
}
