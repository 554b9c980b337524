// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sci-bots/droplet-planning-plugin/internal/config"
	"github.com/sci-bots/droplet-planning-plugin/internal/hub"
	"github.com/sci-bots/droplet-planning-plugin/internal/issue"
	"github.com/sci-bots/droplet-planning-plugin/internal/routes"
)

var (
	routesElectrode string

	routesTrailLength        int
	routesRepeats            int
	routesRepeatDuration     float64
	routesTransitionDuration int
	routesExecRoute          int
	routesExecElectrode      string

	routesCmd = &cobra.Command{
		Use:   "routes",
		Short: "Manage and execute droplet routes on the hub",
		Long: `Manage and execute droplet routes on the hub.

Routes are ordered electrode sequences queued on the hub's route table.
Executing the table actuates the electrodes in lock-step across all
routes, keeping a trail of electrodes active behind each droplet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	routesAddCmd = &cobra.Command{
		Use:   "add <electrode>...",
		Short: "Queue a route through the given electrodes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return addRoute(cmd.Context(), args)
		},
	}

	routesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List queued routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRoutes(cmd.Context())
		},
	}

	routesClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Clear queued routes",
		Long: `Clear queued routes.

Without --electrode, the whole route table is cleared. With --electrode,
only routes passing through that electrode are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return clearRoutes(cmd.Context())
		},
	}

	routesExecuteCmd = &cobra.Command{
		Use:   "execute",
		Short: "Execute the queued routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRoutes(cmd.Context())
		},
	}
)

func init() {
	routesClearCmd.Flags().StringVar(&routesElectrode, "electrode", "", "only clear routes through this electrode")

	routesExecuteCmd.Flags().IntVar(&routesTrailLength, "trail-length", routes.DefaultTrailLength,
		"number of electrodes kept actuated behind each droplet")
	routesExecuteCmd.Flags().IntVar(&routesRepeats, "repeats", routes.DefaultRouteRepeats,
		"number of times to execute all routes")
	routesExecuteCmd.Flags().Float64Var(&routesRepeatDuration, "repeat-duration", 0,
		"keep repeating until this many seconds have elapsed (0 disables)")
	routesExecuteCmd.Flags().IntVar(&routesTransitionDuration, "transition-duration",
		int(routes.DefaultTransitionDuration/time.Millisecond), "duration of each transition in milliseconds")
	routesExecuteCmd.Flags().IntVar(&routesExecRoute, "route", -1,
		"only execute the route with this index")
	routesExecuteCmd.Flags().StringVar(&routesExecElectrode, "electrode", "",
		"only execute routes through this electrode")

	routesCmd.AddCommand(routesAddCmd)
	routesCmd.AddCommand(routesListCmd)
	routesCmd.AddCommand(routesClearCmd)
	routesCmd.AddCommand(routesExecuteCmd)
}

// hubURI returns the configured hub endpoint.
func hubURI() string {
	if cfg, err := config.Load(); err == nil && cfg.HubURI != "" {
		return string(cfg.HubURI)
	}
	return string(config.DefaultConfig().HubURI)
}

// dialHub connects to the configured hub endpoint.
func dialHub(ctx context.Context) (*hub.Client, error) {
	uri := hubURI()
	client, err := hub.Dial(ctx, uri)
	if err != nil {
		renderIssue(issue.HubUnreachableId)
		return nil, issue.NewErrorContext().
			WithOperation("connect to hub").
			WithResource(uri).
			WithSuggestion("Start the hub with 'dpp plugin serve'").
			WithSuggestion("Check hub_uri with 'dpp config show'").
			Wrap(err).
			BuildError()
	}
	return client, nil
}

func addRoute(ctx context.Context, electrodes []string) error {
	client, err := dialHub(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	index, err := client.AddRoute(ctx, electrodes)
	if err != nil {
		return err
	}

	fmt.Printf("%s queued route %d (%d electrodes)\n",
		SuccessStyle.Render("✓"), index, len(electrodes))
	return nil
}

func listRoutes(ctx context.Context) error {
	client, err := dialHub(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	transitions, err := client.Routes(ctx)
	if err != nil {
		return err
	}
	if len(transitions) == 0 {
		fmt.Println(SubtitleStyle.Render("no routes queued"))
		return nil
	}

	// Group the flat transition list back into per-route electrode sequences.
	byRoute := map[int][]routes.Transition{}
	for _, t := range transitions {
		byRoute[t.Route] = append(byRoute[t.Route], t)
	}

	indexes := make([]int, 0, len(byRoute))
	for i := range byRoute {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	for _, i := range indexes {
		steps := byRoute[i]
		sort.Slice(steps, func(a, b int) bool { return steps[a].Index < steps[b].Index })

		electrodes := make([]string, len(steps))
		for j, t := range steps {
			electrodes[j] = t.Electrode
		}
		fmt.Printf("%s %s\n",
			CmdStyle.Render(fmt.Sprintf("route %d:", i)),
			strings.Join(electrodes, " → "))
	}
	return nil
}

func clearRoutes(ctx context.Context) error {
	client, err := dialHub(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	remaining, err := client.ClearRoutes(ctx, routesElectrode)
	if err != nil {
		return err
	}

	if routesElectrode != "" {
		fmt.Printf("%s cleared routes through %s (%d transitions remain)\n",
			SuccessStyle.Render("✓"), CmdStyle.Render(routesElectrode), remaining)
		return nil
	}
	fmt.Printf("%s cleared all routes\n", SuccessStyle.Render("✓"))
	return nil
}

func executeRoutes(ctx context.Context) error {
	client, err := dialHub(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	var onStates hub.StateFunc
	if verbose {
		onStates = func(states map[string]bool) {
			active := make([]string, 0, len(states))
			for electrode, on := range states {
				if on {
					active = append(active, electrode)
				}
			}
			sort.Strings(active)
			fmt.Println(VerboseStyle.Render("actuated: " + strings.Join(active, " ")))
		}
	}

	req := hub.ExecuteRoutesRequest{
		TrailLength:        routesTrailLength,
		RouteRepeats:       routesRepeats,
		RepeatDurationS:    routesRepeatDuration,
		TransitionDuration: routesTransitionDuration,
		Electrode:          routesExecElectrode,
	}
	if routesExecRoute >= 0 {
		route := routesExecRoute
		req.Route = &route
	}

	result, err := client.ExecuteRoutes(ctx, req, onStates)
	if err != nil {
		if errors.Is(err, routes.ErrRouteNotFound) {
			renderIssue(issue.RouteNotFoundId)
		}
		return err
	}

	fmt.Printf("%s executed %d transitions over %d repeats in %s\n",
		SuccessStyle.Render("✓"),
		result.Transitions,
		result.Repeats,
		(time.Duration(result.ElapsedMs) * time.Millisecond).String())
	return nil
}
