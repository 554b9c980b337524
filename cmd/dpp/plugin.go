// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sci-bots/droplet-planning-plugin/internal/hub"
	"github.com/sci-bots/droplet-planning-plugin/pkg/types"
)

var (
	pluginPort int

	pluginCmd = &cobra.Command{
		Use:   "plugin",
		Short: "Run the plugin's hub services",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pluginServeCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the route-execution hub over WebSocket",
		Long: `Serve the route-execution hub over WebSocket.

The hub listens on localhost only and speaks the droplet-planning
protocol: add_route, get_routes, clear_routes, and execute_routes.
Electrode state changes are streamed back to the requesting client
while routes execute. Stop with Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return servePlugin(cmd)
		},
	}
)

func init() {
	pluginServeCmd.Flags().IntVar(&pluginPort, "port", 9175, "port to listen on (0 picks an ephemeral port)")

	pluginCmd.AddCommand(pluginServeCmd)
}

func servePlugin(cmd *cobra.Command) error {
	server, err := hub.NewServer(types.ListenPort(pluginPort))
	if err != nil {
		return err
	}
	server.Start()

	fmt.Printf("%s hub listening on %s\n",
		SuccessStyle.Render("✓"), CmdStyle.Render(server.URL()))
	fmt.Println(SubtitleStyle.Render("Press Ctrl+C to stop"))

	<-cmd.Context().Done()
	return server.Stop()
}
