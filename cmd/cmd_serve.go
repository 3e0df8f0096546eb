// cmd_serve.go - Server-Command
// Hauptfunktionen: RunServer, newServeCmd
package cmd

import (
	"net"

	"github.com/spf13/cobra"

	"github.com/tflitebridge/tflite/envconfig"
	"github.com/tflitebridge/tflite/server"
)

// RunServer - Startet den Bridge-Server auf TFLITE_HOST
func RunServer(_ *cobra.Command, _ []string) error {
	ln, err := net.Listen("tcp", envconfig.Host().Host)
	if err != nil {
		return err
	}

	return server.Serve(ln)
}

// newServeCmd - Erstellt den serve Command
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the bridge server",
		Args:    cobra.ExactArgs(0),
		RunE:    RunServer,
	}
}
