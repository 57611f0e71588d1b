package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/world"
)

// StatsIndex mirrors the event stream into sqlite for ad-hoc SQL. A single
// writer goroutine owns the connection; producers drop entries when the
// channel is full instead of stalling a streaming tick. The JSONL event log
// remains the source of truth.
type StatsIndex struct {
	db *sql.DB

	ch   chan statsReq
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type statsKind int

const (
	kindTransition statsKind = iota + 1
	kindGauges
)

type statsReq struct {
	kind       statsKind
	transition world.TransitionEntry
	gauges     world.GaugeEntry
}

// OpenStatsIndex opens (creating if needed) the sqlite index at path and
// starts the writer goroutine.
func OpenStatsIndex(path string) (*StatsIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &StatsIndex{
		db: db,
		ch: make(chan statsReq, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-only write pattern.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transitions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			tick INTEGER NOT NULL,
			cx INTEGER NOT NULL,
			cy INTEGER NOT NULL,
			cz INTEGER NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			ms REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_pos ON transitions(cx, cy, cz);`,
		`CREATE TABLE IF NOT EXISTS gauges (
			tick INTEGER PRIMARY KEY,
			data_queue INTEGER NOT NULL,
			mesh_queue INTEGER NOT NULL,
			regen_queue INTEGER NOT NULL,
			active INTEGER NOT NULL,
			resident INTEGER NOT NULL,
			renderable INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *StatsIndex) LogTransition(e world.TransitionEntry) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- statsReq{kind: kindTransition, transition: e}:
	default:
		s.dropped.Add(1)
	}
}

func (s *StatsIndex) LogGauges(g world.GaugeEntry) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- statsReq{kind: kindGauges, gauges: g}:
	default:
		s.dropped.Add(1)
	}
}

// Dropped reports how many entries were discarded on channel pressure.
func (s *StatsIndex) Dropped() uint64 { return s.dropped.Load() }

// Close drains the channel, commits, and closes the database.
func (s *StatsIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *StatsIndex) loop() {
	insertTransition, _ := s.db.Prepare(
		`INSERT INTO transitions(tick,cx,cy,cz,from_state,to_state,ms) VALUES(?,?,?,?,?,?,?)`)
	insertGauges, _ := s.db.Prepare(
		`INSERT OR REPLACE INTO gauges(tick,data_queue,mesh_queue,regen_queue,active,resident,renderable) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		if insertTransition != nil {
			_ = insertTransition.Close()
		}
		if insertGauges != nil {
			_ = insertGauges.Close()
		}
	}()

	var (
		tx          *sql.Tx
		opCount     int
		lastCommit  = time.Now()
		commitEvery = 1000
		commitWait  = time.Second
	)
	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.Begin()
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
	}
	defer commit()

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case kindTransition:
			e := r.transition
			_, _ = tx.Stmt(insertTransition).Exec(e.Tick, e.X, e.Y, e.Z, e.From, e.To, e.Ms)
		case kindGauges:
			g := r.gauges
			_, _ = tx.Stmt(insertGauges).Exec(g.Tick, g.DataQueue, g.MeshQueue, g.RegenQueue, g.Active, g.Resident, g.Renderable)
		}
		opCount++
		// Batch while the channel is busy, commit as soon as it idles so
		// readers on the shared connection are not starved.
		if opCount >= commitEvery || len(s.ch) == 0 || time.Since(lastCommit) >= commitWait {
			commit()
		}
	}
}

// TransitionCount reports rows in the transitions table, optionally
// filtered by destination state ("" for all).
func (s *StatsIndex) TransitionCount(toState string) (int, error) {
	var n int
	var err error
	if toState == "" {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM transitions`).Scan(&n)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM transitions WHERE to_state = ?`, toState).Scan(&n)
	}
	return n, err
}

// LatestGauges returns the highest-tick gauge row.
func (s *StatsIndex) LatestGauges() (world.GaugeEntry, error) {
	var g world.GaugeEntry
	err := s.db.QueryRow(
		`SELECT tick,data_queue,mesh_queue,regen_queue,active,resident,renderable
		 FROM gauges ORDER BY tick DESC LIMIT 1`).
		Scan(&g.Tick, &g.DataQueue, &g.MeshQueue, &g.RegenQueue, &g.Active, &g.Resident, &g.Renderable)
	return g, err
}
