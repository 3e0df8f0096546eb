// cmd_remote.go - Commands gegen einen laufenden Server, plus info
// Hauptfunktionen: checkServerHeartbeat, LoadHandler, StatusHandler, InfoHandler
package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tflitebridge/tflite/api"
	"github.com/tflitebridge/tflite/envconfig"
)

// checkServerHeartbeat - Prueft ob der Server erreichbar ist
func checkServerHeartbeat(cmd *cobra.Command, _ []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}
	if err := client.Heartbeat(cmd.Context()); err != nil {
		if strings.Contains(err.Error(), " refused") {
			return fmt.Errorf("bridge server not responding at %s, start it with 'tflite serve'", envconfig.Host())
		}
		return err
	}
	return nil
}

// LoadHandler - Laedt MODEL im laufenden Server
func LoadHandler(cmd *cobra.Command, args []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	req := api.LoadRequest{Model: args[0]}
	req.Labels, _ = cmd.Flags().GetString("labels")
	req.Backend, _ = cmd.Flags().GetString("backend")
	req.Threads, _ = cmd.Flags().GetInt("threads")
	req.Accelerator, _ = cmd.Flags().GetBool("accelerator")
	req.IsAsset, _ = cmd.Flags().GetBool("asset")

	resp, err := client.Load(cmd.Context(), &req)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), resp.Result)
	return nil
}

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "load MODEL",
		Short:   "Load a model into the running server",
		Args:    cobra.ExactArgs(1),
		PreRunE: checkServerHeartbeat,
		RunE:    LoadHandler,
	}
	addLoadFlags(cmd)
	return cmd
}

// StatusHandler - Zeigt den Zustand des laufenden Servers
func StatusHandler(cmd *cobra.Command, _ []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	st, err := client.Status(cmd.Context())
	if err != nil {
		return err
	}

	displayStatus(cmd.OutOrStdout(), st)
	return nil
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"ps"},
		Short:   "Show the model and request counters of the running server",
		Args:    cobra.ExactArgs(0),
		PreRunE: checkServerHeartbeat,
		RunE:    StatusHandler,
	}
}

// InfoHandler - Zeigt Umgebungsvariablen und registrierte Backends
func InfoHandler(cmd *cobra.Command, _ []string) error {
	vars := envconfig.AsMap()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	slices.Sort(names)

	table := newTable(cmd.OutOrStdout(), "VARIABLE", "VALUE", "DESCRIPTION")
	for _, name := range names {
		v := vars[name]
		table.Append([]string{v.Name, fmt.Sprintf("%v", v.Value), v.Description})
	}
	table.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "\nbackends: %s\n", strings.Join(registry.List(), ", "))
	return nil
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show configuration and available backends",
		Args:  cobra.ExactArgs(0),
		RunE:  InfoHandler,
	}
}
