package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"nyiyui.ca/hato/railroad/doc"
	"nyiyui.ca/hato/railroad/kujo"
	"nyiyui.ca/hato/railroad/runtime"
	"nyiyui.ca/hato/railroad/sim"
	"nyiyui.ca/hato/railroad/store"
	"nyiyui.ca/hato/railroad/tal"
	"nyiyui.ca/hato/railroad/tal/layout"
	"nyiyui.ca/hato/railroad/tal/layout/preset"
	"nyiyui.ca/hato/railroad/ui"
)

// readScenario reads an HCL layout or a JSON document, going by the extension.
func readScenario(path string) (tal.Scenario, error) {
	if filepath.Ext(path) == ".hcl" {
		return preset.ParseHCLFile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return tal.Scenario{}, err
	}
	s, err := doc.Decode(data)
	if err != nil {
		return tal.Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// scenario is the scenario named by args, or the configured one.
func (g *globals) scenario(args []string) (tal.Scenario, error) {
	if len(args) > 0 {
		return readScenario(args[0])
	}
	env, err := sim.NewEnv(g.config)
	if err != nil {
		return tal.Scenario{}, err
	}
	return env.Initial(), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runCmd(g *globals) *cobra.Command {
	var tui bool
	var logFile string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation and serve it over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if tui {
				// the dashboard owns the terminal
				if err := g.logTo(logFile); err != nil {
					return err
				}
			}
			env, err := sim.NewEnv(g.config)
			if err != nil {
				return err
			}
			i := runtime.NewInstance(env, g.config)
			if g.config.TracePath != "" {
				f, err := os.Create(g.config.TracePath)
				if err != nil {
					return fmt.Errorf("trace: %w", err)
				}
				defer f.Close()
				i.Trace = runtime.NewTracer(f)
			}
			st, err := store.Open(g.config.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			eg, ctx := errgroup.WithContext(ctx)
			server := &http.Server{
				Addr: g.config.Listen,
				Handler: kujo.NewServer(ctx, i, kujo.Options{
					AllowedOrigins: g.config.AllowedOrigins,
					Store:          st,
				}),
			}
			eg.Go(func() error {
				zap.S().Infow("listening", "addr", server.Addr)
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			eg.Go(func() error {
				<-ctx.Done()
				return server.Shutdown(context.Background())
			})
			eg.Go(func() error {
				return i.Run(ctx)
			})
			if tui {
				eg.Go(func() error {
					if err := ui.Main(ctx, i); err != nil {
						return err
					}
					// leaving the dashboard ends the run
					stop()
					return nil
				})
			}
			err = eg.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&tui, "tui", false, "show the terminal dashboard")
	cmd.Flags().StringVar(&logFile, "log-file", "railroad.log", "where logs go while the dashboard is shown")
	return cmd
}

func stepCmd(g *globals) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "step [scenario]",
		Short: "Advance a scenario by whole steps and print the resulting document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := g.scenario(args)
			if err != nil {
				return err
			}
			env := sim.Env{Initial: s.Clone, StepDuration: g.config.StepDuration}
			m := sim.Init(env)
			for n := 0; n < steps; n++ {
				m = sim.Update(env, m, sim.Step{})
				if m.Message != "" {
					zap.S().Infow("stopped", "step", n+1, "message", m.Message)
					break
				}
			}
			return printJSON(doc.FromScenario(m.Scenario))
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "number of steps")
	return cmd
}

func replayCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "replay trace",
		Short: "Apply a recorded trace to the configured scenario and print the final snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			env, err := sim.NewEnv(g.config)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			s, err := runtime.NewInstance(env, g.config).Replay(f)
			if err != nil {
				return err
			}
			return printJSON(s)
		},
	}
}

func validateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [scenario]",
		Short: "Check a scenario and report loops that do not close",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := g.scenario(args)
			if err != nil {
				return err
			}
			mismatches := layout.CheckLoops(s.Layout, layout.Project(s.Layout), 1e-3)
			for _, lm := range mismatches {
				fmt.Printf("loop at %s does not close: expected %s, got %s\n", lm.Edge, lm.Expected, lm.Got)
			}
			fmt.Printf("%d nodes, %d switches, %d trains, %d open loops\n",
				s.Layout.Graph.Len(), len(s.Layout.Switches), len(s.Trains), len(mismatches))
			return nil
		},
	}
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of scenario documents",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			data, err := doc.SchemaJSON()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(append(data, '\n'))
			return err
		},
	}
}

func projectCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "project [scenario]",
		Short: "Print the frame of every node",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := g.scenario(args)
			if err != nil {
				return err
			}
			frames := layout.Project(s.Layout)
			nodes := make([]int, 0, len(frames))
			for n := range frames {
				nodes = append(nodes, int(n))
			}
			sort.Ints(nodes)
			for _, n := range nodes {
				fmt.Printf("%d\t%s\n", n, frames[layout.NodeID(n)])
			}
			b := frames.Bound()
			fmt.Printf("bounds\t(%.3f,%.3f)-(%.3f,%.3f)\n", b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y())
			return nil
		},
	}
}

func parseNode(s string) (layout.NodeID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("node %q: %w", s, err)
	}
	return layout.NodeID(n), nil
}

func routeCmd(g *globals) *cobra.Command {
	var scenarioPath string
	cmd := &cobra.Command{
		Use:   "route from to",
		Short: "Find a path between two nodes and the switch state that opens it",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			from, err := parseNode(args[0])
			if err != nil {
				return err
			}
			to, err := parseNode(args[1])
			if err != nil {
				return err
			}
			var sargs []string
			if scenarioPath != "" {
				sargs = []string{scenarioPath}
			}
			s, err := g.scenario(sargs)
			if err != nil {
				return err
			}
			path, ok := layout.PathTo(s.Layout, from, to)
			if !ok {
				return fmt.Errorf("%d to %d: %w", from, to, layout.ErrNoRoute)
			}
			ss, err := layout.AlignRoute(s.Layout, s.SwitchState, path)
			if err != nil {
				return err
			}
			for _, e := range path {
				fmt.Println(e)
			}
			fmt.Printf("switch state %v\n", []int(ss))
			return nil
		},
	}
	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario file instead of the configured one")
	return cmd
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List built-in scenarios",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			for _, name := range preset.Names() {
				fmt.Println(name)
			}
		},
	}
}

func dbCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage saved scenario documents",
	}
	withStore := func(f func(s *store.Store, args []string) error) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, args []string) error {
			s, err := store.Open(g.config.DBPath)
			if err != nil {
				return err
			}
			defer s.Close()
			return f(s, args)
		}
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "write name [scenario]",
		Short: "Save a scenario under a name",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withStore(func(s *store.Store, args []string) error {
			sc, err := g.scenario(args[1:])
			if err != nil {
				return err
			}
			return s.Save(args[0], sc)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "read name",
		Short: "Print a saved document",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(s *store.Store, args []string) error {
			data, err := s.LoadRaw(args[0])
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(append(data, '\n'))
			return err
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved names",
		Args:  cobra.NoArgs,
		RunE: withStore(func(s *store.Store, _ []string) error {
			names, err := s.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete name",
		Short: "Delete a saved document",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(s *store.Store, args []string) error {
			return s.Delete(args[0])
		}),
	})
	return cmd
}
