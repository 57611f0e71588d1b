package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/world"
)

func readRows(t *testing.T, dir string) []eventRow {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var rows []eventRow
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".jsonl.zst") {
			t.Fatalf("unexpected file %s", e.Name())
		}
		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		dec, err := zstd.NewReader(f)
		if err != nil {
			t.Fatalf("zstd: %v", err)
		}
		sc := bufio.NewScanner(dec)
		for sc.Scan() {
			var row eventRow
			if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
				t.Fatalf("bad row %q: %v", sc.Text(), err)
			}
			rows = append(rows, row)
		}
		dec.Close()
		_ = f.Close()
	}
	return rows
}

func TestEventLogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewEventLog(dir)

	l.LogTransition(world.TransitionEntry{
		Tick: 4, X: 1, Y: 0, Z: -2,
		From: "data_pending", To: "data_ready", Ms: 1.5,
	})
	l.LogTransition(world.TransitionEntry{
		Tick: 5, X: 1, Y: 0, Z: -2,
		From: "meshing", To: "mesh_ready", Ms: 0.25,
	})
	l.LogGauges(world.GaugeEntry{Tick: 5, MeshQueue: 3, Active: 27})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if l.WriteErrors() != 0 {
		t.Fatalf("write errors: %d", l.WriteErrors())
	}

	rows := readRows(t, dir)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].Kind != "transition" || rows[0].To != "data_ready" || rows[0].Z != -2 {
		t.Fatalf("first row mangled: %+v", rows[0])
	}
	if rows[2].Kind != "gauges" || rows[2].Gauges == nil || rows[2].Gauges.Active != 27 {
		t.Fatalf("gauge row mangled: %+v", rows[2])
	}
}

func TestEventLogNilSafe(t *testing.T) {
	var l *EventLog
	l.LogTransition(world.TransitionEntry{})
	l.LogGauges(world.GaugeEntry{})
	if err := l.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
