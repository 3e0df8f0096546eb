// MODUL: results
// ZWECK: Ausgabe von Benchmark-Ergebnissen als Tabelle, CSV oder JSON
// INPUT: Result Slices
// OUTPUT: Formatierte Ausgabe
// NEBENEFFEKTE: Dateisystem-Schreibzugriff bei ExportCSV/ExportJSON
// ABHAENGIGKEITEN: github.com/olekukonko/tablewriter (extern), encoding/csv (stdlib)
// HINWEISE: CSV verwendet Semikolon als Trennzeichen fuer DE-Kompatibilitaet

package benchmark

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// ============================================================================
// Tabelle
// ============================================================================

// WriteTable gibt die Ergebnisse als ausgerichtete Tabelle aus.
func WriteTable(w io.Writer, results []Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"SIZE", "MODE", "RUNS", "FAILED", "AVG", "P95", "MIN", "MAX", "IMG/S"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")

	for _, r := range results {
		table.Append([]string{
			r.ImageSize,
			r.Mode.String(),
			strconv.Itoa(r.Iterations),
			strconv.Itoa(r.Failed),
			formatDuration(r.AvgLatency),
			formatDuration(r.P95Latency),
			formatDuration(r.MinLatency),
			formatDuration(r.MaxLatency),
			strconv.FormatFloat(r.Throughput, 'f', 1, 64),
		})
	}
	table.Render()
}

// ============================================================================
// CSV / JSON
// ============================================================================

var csvHeader = []string{
	"model", "backend", "image_size", "mode", "iterations", "failed",
	"avg_ms", "p95_ms", "min_ms", "max_ms", "throughput", "memory_bytes",
}

// WriteCSV schreibt die Ergebnisse semikolon-getrennt.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.Model,
			r.Backend,
			r.ImageSize,
			r.Mode.String(),
			strconv.Itoa(r.Iterations),
			strconv.Itoa(r.Failed),
			millis(r.AvgLatency),
			millis(r.P95Latency),
			millis(r.MinLatency),
			millis(r.MaxLatency),
			strconv.FormatFloat(r.Throughput, 'f', 2, 64),
			strconv.FormatUint(r.MemoryUsed, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV schreibt die Ergebnisse in eine Datei.
func ExportCSV(path string, results []Result) error {
	return export(path, results, WriteCSV)
}

// WriteJSON schreibt die Ergebnisse als eingerueckten JSON-Array.
func WriteJSON(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// ExportJSON schreibt die Ergebnisse als JSON-Datei.
func ExportJSON(path string, results []Result) error {
	return export(path, results, WriteJSON)
}

func export(path string, results []Result, write func(io.Writer, []Result) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("benchmark: create %s: %w", path, err)
	}

	if err := write(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ============================================================================
// Formatierung
// ============================================================================

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%dus", d.Microseconds())
	}
}

func millis(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64)
}
