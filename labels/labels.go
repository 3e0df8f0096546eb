// Package labels liest Label-Dateien und waehlt die besten Treffer eines Ausgabevektors.
//
// MODUL: labels
// ZWECK: Label-Liste laden und Top-K Recognitions berechnen
// INPUT: Label-Datei (ein Label pro Zeile), Score-Vektor der Engine
// OUTPUT: []Recognition absteigend nach Confidence
// NEBENEFFEKTE: Load liest Dateien
// ABHAENGIGKEITEN: github.com/emirpasic/gods/v2, golang.org/x/text (extern)
// HINWEISE: Zeilenindex == Klassenindex, leere Zeilen zaehlen mit.
//           Ein BOM (UTF-8 oder UTF-16) am Dateianfang wird ausgewertet und entfernt
package labels

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emirpasic/gods/v2/queues/priorityqueue"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Unknown wird fuer Indizes ohne Label verwendet
const Unknown = "unknown"

// Recognition ist ein Treffer im Ausgabevektor.
type Recognition struct {
	Index      int     `json:"index"`
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
}

func (r Recognition) String() string {
	return fmt.Sprintf("[%d] %s (%.1f%%)", r.Index, r.Label, r.Confidence*100)
}

// Load liest eine Label-Datei.
func Load(path string) ([]string, error) {
	f, err := os.Open(strings.TrimPrefix(path, "file://"))
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse liest ein Label pro Zeile.
func Parse(r io.Reader) ([]string, error) {
	tr := unicode.BOMOverride(unicode.UTF8.NewDecoder())

	var out []string
	s := bufio.NewScanner(transform.NewReader(r, tr))
	for s.Scan() {
		out = append(out, strings.TrimSpace(s.Text()))
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	return out, nil
}

// TopK gibt hoechstens k Treffer mit Confidence >= threshold zurueck,
// absteigend sortiert. Bei gleicher Confidence gewinnt der kleinere Index.
func TopK(scores []float32, names []string, k int, threshold float32) []Recognition {
	if k <= 0 {
		return nil
	}

	pq := priorityqueue.NewWith(func(a, b Recognition) int {
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	for i, score := range scores {
		if score < threshold {
			continue
		}
		label := Unknown
		if i < len(names) && names[i] != "" {
			label = names[i]
		}
		pq.Enqueue(Recognition{Index: i, Label: label, Confidence: score})
	}

	out := make([]Recognition, 0, min(k, pq.Size()))
	for len(out) < k {
		r, ok := pq.Dequeue()
		if !ok {
			break
		}
		out = append(out, r)
	}
	return out
}
