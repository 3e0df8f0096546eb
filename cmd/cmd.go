// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs
package cmd

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tflitebridge/tflite/engine"
	"github.com/tflitebridge/tflite/envconfig"
	"github.com/tflitebridge/tflite/logutil"

	// Registriert das "tflite" Backend in engine.DefaultRegistry
	_ "github.com/tflitebridge/tflite/engine/tflite"
)

// registry ist die Backend-Registry fuer lokale Commands, Tests ersetzen sie
var registry = engine.DefaultRegistry

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "tflite",
		Short:         "Image inference bridge for TensorFlow Lite models",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}

	serveCmd := newServeCmd()
	runCmd := newRunCmd()
	frameCmd := newFrameCmd()
	pix2pixCmd := newPix2PixCmd()
	benchCmd := newBenchCmd()
	loadCmd := newLoadCmd()
	statusCmd := newStatusCmd()
	infoCmd := newInfoCmd()

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()
	local := []envconfig.EnvVar{
		envVars["TFLITE_DEBUG"],
		envVars["TFLITE_ASSETS"],
		envVars["TFLITE_BACKEND"],
		envVars["TFLITE_NUM_THREADS"],
		envVars["TFLITE_ACCELERATOR"],
		envVars["TFLITE_NORMALIZE"],
		envVars["TFLITE_MAINTAIN_ASPECT"],
	}

	for _, cmd := range []*cobra.Command{serveCmd, runCmd, frameCmd, pix2pixCmd, benchCmd, loadCmd, statusCmd} {
		switch cmd {
		case serveCmd:
			appendEnvDocs(cmd, append([]envconfig.EnvVar{envVars["TFLITE_HOST"], envVars["TFLITE_ORIGINS"]}, local...))
		case loadCmd, statusCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{envVars["TFLITE_HOST"]})
		default:
			appendEnvDocs(cmd, local)
		}
	}

	rootCmd.AddCommand(
		serveCmd,
		runCmd,
		frameCmd,
		pix2pixCmd,
		benchCmd,
		loadCmd,
		statusCmd,
		infoCmd,
	)

	return rootCmd
}
