// planetview runs the streaming engine headless: a scripted observer orbits
// the spawn point while chunks generate, light, mesh and upload into a null
// backend, with optional websocket state streaming, an event log and a
// sqlite stats index.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/diamondpixel/FakeMinecraft-sub000/internal/atlas"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/block"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/config"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/telemetry"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/terrain"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/transport/debug"
	"github.com/diamondpixel/FakeMinecraft-sub000/internal/world"
)

func main() {
	var (
		configDir   = flag.String("configs", "./configs", "config directory")
		configPath  = flag.String("config", "", "engine.yaml path (default: <configs>/engine.yaml)")
		seed        = flag.Int64("seed", 0, "override the configured world seed (0 keeps it)")
		addr        = flag.String("addr", "", "debug http listen address (empty to disable)")
		eventsDir   = flag.String("events", "", "chunk event log directory (empty to disable)")
		statsDB     = flag.String("stats_db", "", "sqlite stats index path (empty to disable)")
		textures    = flag.String("textures", "", "texture tile directory to pack into an atlas (optional)")
		tileSize    = flag.Int("tile_size", 16, "atlas tile edge in pixels")
		duration    = flag.Duration("duration", 30*time.Second, "how long to run (0 = until signal)")
		orbitRadius = flag.Float64("orbit_radius", 96, "observer orbit radius in voxels")
		orbitPeriod = flag.Duration("orbit_period", 45*time.Second, "time for one observer revolution")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[planetview] ", log.LstdFlags|log.Lmicroseconds)

	cp := strings.TrimSpace(*configPath)
	if cp == "" {
		cp = filepath.Join(*configDir, "engine.yaml")
	}
	cfg, err := config.Load(cp)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	reg, err := block.Load(*configDir)
	if err != nil {
		logger.Fatalf("load blocks: %v", err)
	}
	logger.Printf("registry: %d blocks, palette %s", reg.Len(), reg.PaletteDigest[:12])

	if dir := strings.TrimSpace(*textures); dir != "" {
		a, err := atlas.Build(dir, *tileSize)
		if err != nil {
			logger.Fatalf("build atlas: %v", err)
		}
		logger.Printf("atlas: %d layers, %dx%d px", a.LayerCount(), a.Image.Rect.Dx(), a.Image.Rect.Dy())
	}

	gen, err := terrain.NewSimplex(cfg, reg)
	if err != nil {
		logger.Fatalf("terrain: %v", err)
	}

	backend := &world.NullBackend{}
	planet := world.NewPlanet(cfg, reg, gen, backend, logger)

	var sinks telemetry.Tee
	if dir := strings.TrimSpace(*eventsDir); dir != "" {
		el := telemetry.NewEventLog(dir)
		defer func() {
			if err := el.Close(); err != nil {
				logger.Printf("close event log: %v", err)
			}
		}()
		sinks = append(sinks, el)
	}
	if path := strings.TrimSpace(*statsDB); path != "" {
		idx, err := telemetry.OpenStatsIndex(path)
		if err != nil {
			logger.Fatalf("open stats index: %v", err)
		}
		defer idx.Close()
		sinks = append(sinks, idx)
	}
	if len(sinks) > 0 {
		planet.SetTransitionLogger(sinks)
	}

	spawnY := float32(cfg.SeaLevel + 24)
	planet.SetObserver(mgl32.Vec3{0, spawnY, 0})

	warmStart := time.Now()
	primed, err := planet.Warm(context.Background(), runtime.NumCPU())
	if err != nil {
		logger.Fatalf("warm-up: %v", err)
	}
	logger.Printf("warm-up: %d chunks generated in %s", primed, time.Since(warmStart).Round(time.Millisecond))

	if a := strings.TrimSpace(*addr); a != "" {
		dbg := debug.NewServer(planet, logger, 0)
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/state", dbg.StateHandler())
		mux.HandleFunc("/v1/stream", dbg.StreamHandler())
		go func() {
			logger.Printf("debug http on %s", a)
			if err := http.ListenAndServe(a, mux); err != nil {
				logger.Printf("debug http: %v", err)
			}
		}()
	}

	planet.Start()
	defer planet.Stop()

	stopSig := make(chan os.Signal, 1)
	signal.Notify(stopSig, os.Interrupt, syscall.SIGTERM)

	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}

	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()

	started := time.Now()
	digX, digZ := 5, 5
	digY := cfg.ChunkHeight - 1
	for running := true; running; {
		select {
		case <-stopSig:
			logger.Printf("signal received, shutting down")
			running = false
		case <-deadline:
			running = false
		case <-ticker.C:
			angle := 2 * math.Pi * float64(time.Since(started)) / float64(*orbitPeriod)
			planet.SetObserver(mgl32.Vec3{
				float32(*orbitRadius * math.Cos(angle)),
				spawnY,
				float32(*orbitRadius * math.Sin(angle)),
			})
			planet.Tick()

			// Chew a column downward near spawn to exercise the edit and
			// regeneration path while streaming.
			if planet.Tickcount()%uint64(cfg.TickRateHz) == 0 && digY > 1 {
				for digY > 1 {
					id, ok := planet.BlockAt(digX, digY, digZ)
					if !ok {
						break
					}
					if id == block.Air {
						digY--
						continue
					}
					planet.SetBlock(digX, digY, digZ, block.Air)
					digY--
					break
				}
			}
		}
	}

	st := planet.Debug()
	fmt.Printf("ran %s: tick=%d active=%v uploads=%d releases=%d queues=%d/%d/%d\n",
		time.Since(started).Round(time.Millisecond), st.Tick, st.States,
		backend.Uploads(), backend.Releases(),
		st.DataQueue, st.MeshQueue, st.RegenQueue)
}
