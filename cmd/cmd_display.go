// cmd_display.go - Ausgabe von Ergebnissen, Status und Umgebung
// Hauptfunktionen: displayResult, displayStatus, newTable
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tflitebridge/tflite/api"
	"github.com/tflitebridge/tflite/bridge"
)

// newTable - Tabelle im Stil von "list": linksbuendig, ohne Rahmen
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

// wantJSON - JSON bei --format json oder wenn stdout kein Terminal ist
func wantJSON(cmd *cobra.Command) bool {
	if format, _ := cmd.Flags().GetString("format"); format != "" {
		return strings.EqualFold(format, "json")
	}

	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		return !term.IsTerminal(int(f.Fd()))
	}
	return false
}

// displayResult - Zeigt Recognitions als Tabelle, sonst den Ausgabe-Vektor
func displayResult(cmd *cobra.Command, res bridge.Result) error {
	w := cmd.OutOrStdout()

	if wantJSON(cmd) {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(api.RunResponse{
			ID:           res.ID,
			Output:       res.Output,
			Recognitions: res.Recognitions,
			Duration:     api.Duration{Duration: res.Duration},
		})
	}

	if len(res.Recognitions) > 0 {
		table := newTable(w, "#", "LABEL", "CONFIDENCE")
		for _, r := range res.Recognitions {
			table.Append([]string{strconv.Itoa(r.Index), r.Label, fmt.Sprintf("%.1f%%", r.Confidence*100)})
		}
		table.Render()
	} else {
		table := newTable(w, "INDEX", "VALUE")
		for i, v := range res.Output {
			table.Append([]string{strconv.Itoa(i), strconv.FormatFloat(float64(v), 'g', 6, 32)})
		}
		table.Render()
	}

	fmt.Fprintf(w, "\ninference took %s\n", res.Duration)
	return nil
}

// displayStatus - Zeigt den Zustand eines laufenden Servers
func displayStatus(w io.Writer, st *api.StatusResponse) {
	table := newTable(w, "KEY", "VALUE")
	table.Append([]string{"loaded", strconv.FormatBool(st.Loaded)})
	table.Append([]string{"busy", strconv.FormatBool(st.Busy)})
	if m := st.Model; m != nil {
		table.Append([]string{"model", m.Key})
		table.Append([]string{"backend", m.Backend})
		table.Append([]string{"threads", strconv.Itoa(m.Threads)})
		table.Append([]string{"input", m.Input.String()})
		table.Append([]string{"output", m.Output.String()})
		table.Append([]string{"labels", strconv.Itoa(m.Labels)})
	}
	table.Append([]string{"requests", fmt.Sprintf("%d admitted, %d rejected, %d completed, %d failed",
		st.Stats.Admitted, st.Stats.Rejected, st.Stats.Completed, st.Stats.Failed)})
	table.Append([]string{"backends", strings.Join(st.Backends, ", ")})
	table.Render()
}
