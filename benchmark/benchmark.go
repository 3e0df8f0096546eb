// Package benchmark misst die Latenz der kompletten Bild-Pipeline
// (Dekodieren, Resample, Encode, Invoke, Decode) ueber den Interpreter.
//
// MODUL: benchmark
// ZWECK: Latenz-, Durchsatz- und Speichermessung fuer geladene Modelle
// INPUT: bridge.Interpreter mit geladenem Modell, Config
// OUTPUT: Result pro Quellbildgroesse
// NEBENEFFEKTE: CPU-Last waehrend der Messung, Speicherallokation
// ABHAENGIGKEITEN: bridge, runtime (Speichermessung)
// HINWEISE: Warmup-Laeufe sind wichtig fuer stabile Messungen
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/tflitebridge/tflite/bridge"
	"github.com/tflitebridge/tflite/gate"
)

// ErrNoModel wird zurueckgegeben wenn der Interpreter kein Modell hat
var ErrNoModel = errors.New("benchmark: no model loaded")

// ============================================================================
// Datenstrukturen
// ============================================================================

// Result enthaelt das Ergebnis fuer eine Quellbildgroesse.
type Result struct {
	Model      string        `json:"model"`
	Backend    string        `json:"backend"`
	ImageSize  string        `json:"image_size"` // Quellbild z.B. "640x480"
	Mode       gate.Mode     `json:"mode"`
	Iterations int           `json:"iterations"`
	Failed     int           `json:"failed"`
	TotalTime  time.Duration `json:"total_time"`
	AvgLatency time.Duration `json:"avg_latency"`
	MinLatency time.Duration `json:"min_latency"`
	MaxLatency time.Duration `json:"max_latency"`
	P95Latency time.Duration `json:"p95_latency"`
	Throughput float64       `json:"throughput"` // Bilder pro Sekunde
	MemoryUsed uint64        `json:"memory_used"`
}

// Config definiert die Parameter eines Benchmark-Laufs.
type Config struct {
	Iterations int      // Anzahl Messungen (ohne Warmup)
	WarmupRuns int      // Anzahl Warmup-Laeufe (nicht gemessen)
	ImageSizes []string // Quellbildgroessen z.B. "640x480"
	Async      bool     // Inferenz auf dem Worker statt inline
	Preprocess bridge.Preprocess
}

// DefaultConfig gibt eine Standard-Konfiguration zurueck.
func DefaultConfig() Config {
	return Config{
		Iterations: 50,
		WarmupRuns: 5,
		ImageSizes: []string{"224x224", "640x480", "1280x720"},
	}
}

// ============================================================================
// Haupt-Funktion
// ============================================================================

// Run misst jede Quellbildgroesse nacheinander. Ungueltige Groessen werden uebersprungen.
func Run(ctx context.Context, it *bridge.Interpreter, cfg Config) ([]Result, error) {
	st := it.Status()
	if st.Model == nil {
		return nil, ErrNoModel
	}

	var results []Result
	for _, size := range cfg.ImageSizes {
		width, height := parseImageSize(size)
		if width == 0 || height == 0 {
			continue
		}

		req := bridge.ImageRequest{
			Data:       GenerateTestImage(width, height),
			Preprocess: cfg.Preprocess,
			Async:      cfg.Async,
		}

		runWarmup(ctx, it, req, cfg.WarmupRuns)

		// GC erzwingen vor Messung
		runtime.GC()
		var memBefore runtime.MemStats
		runtime.ReadMemStats(&memBefore)

		latencies, failed, err := measureLatencies(ctx, it, req, cfg.Iterations)
		if err != nil {
			return results, err
		}

		var memAfter runtime.MemStats
		runtime.ReadMemStats(&memAfter)

		stats := calculateStats(latencies)
		res := Result{
			Model:      st.Model.Key,
			Backend:    st.Model.Backend,
			ImageSize:  fmt.Sprintf("%dx%d", width, height),
			Mode:       gate.ModeOf(cfg.Async),
			Iterations: cfg.Iterations,
			Failed:     failed,
			TotalTime:  stats.total,
			AvgLatency: stats.avg,
			MinLatency: stats.min,
			MaxLatency: stats.max,
			P95Latency: stats.p95,
			MemoryUsed: memUsed(memBefore, memAfter),
		}
		if stats.total > 0 {
			res.Throughput = float64(len(latencies)) / stats.total.Seconds()
		}
		results = append(results, res)
	}

	return results, nil
}

// runWarmup fuehrt Warmup-Iterationen aus (ohne Messung).
func runWarmup(ctx context.Context, it *bridge.Interpreter, req bridge.ImageRequest, runs int) {
	for range runs {
		_, _ = it.RunOnImageSync(ctx, req)
	}
}

// measureLatencies misst erfolgreiche Iterationen. Fehlgeschlagene Laeufe
// werden gezaehlt, ein Kontext-Abbruch beendet die Messung.
func measureLatencies(ctx context.Context, it *bridge.Interpreter, req bridge.ImageRequest, iterations int) ([]time.Duration, int, error) {
	latencies := make([]time.Duration, 0, iterations)
	failed := 0

	for range iterations {
		if err := ctx.Err(); err != nil {
			return nil, failed, err
		}

		start := time.Now()
		if _, err := it.RunOnImageSync(ctx, req); err != nil {
			failed++
			continue
		}
		latencies = append(latencies, time.Since(start))
	}

	return latencies, failed, nil
}

func memUsed(before, after runtime.MemStats) uint64 {
	if after.TotalAlloc < before.TotalAlloc {
		return 0
	}
	return after.TotalAlloc - before.TotalAlloc
}

// ============================================================================
// Statistik
// ============================================================================

type latencyStats struct {
	total time.Duration
	avg   time.Duration
	min   time.Duration
	max   time.Duration
	p95   time.Duration
}

// calculateStats berechnet Statistiken aus Latenz-Messungen.
func calculateStats(latencies []time.Duration) latencyStats {
	if len(latencies) == 0 {
		return latencyStats{}
	}

	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range latencies {
		total += d
	}

	p95Idx := min(int(float64(len(sorted))*0.95), len(sorted)-1)

	return latencyStats{
		total: total,
		avg:   total / time.Duration(len(latencies)),
		min:   sorted[0],
		max:   sorted[len(sorted)-1],
		p95:   sorted[p95Idx],
	}
}

// parseImageSize parsed "640x480" zu width, height; 0, 0 bei Fehler
func parseImageSize(size string) (int, int) {
	var width, height int
	if _, err := fmt.Sscanf(size, "%dx%d", &width, &height); err != nil || width <= 0 || height <= 0 {
		return 0, 0
	}
	return width, height
}
