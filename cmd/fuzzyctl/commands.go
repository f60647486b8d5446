package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/fuzzyflock/fuzzy"
)

type rootOptions struct {
	mode        fuzzy.Mode
	policy      fuzzy.Policy
	sampleCount int
	buckets     int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	var mode, policy string
	root := &cobra.Command{
		Use:          "fuzzyctl",
		Short:        "Inspect and evaluate fuzzy model files",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.mode.UnmarshalText([]byte(mode)); err != nil {
				return err
			}
			return opts.policy.UnmarshalText([]byte(policy))
		},
	}
	root.PersistentFlags().StringVar(&mode, "mode", "min_max", "set operations: min_max or product_sum")
	root.PersistentFlags().StringVar(&policy, "policy", "skip", "undefined child policy: skip or strict")
	root.PersistentFlags().IntVar(&opts.sampleCount, "samples", fuzzy.DefaultSampleCount, "membership samples per fuzzy set")
	root.PersistentFlags().IntVar(&opts.buckets, "buckets", fuzzy.DefaultBuckets, "strength buckets for output tables")

	root.AddCommand(
		newValidateCmd(opts),
		newForestCmd(opts),
		newEvalCmd(opts),
		newExampleCmd(),
	)
	return root
}

// load reads a model and builds its library with the root options.
func (o *rootOptions) load(path string) (*fuzzy.Library, error) {
	m, err := fuzzy.LoadModel(path)
	if err != nil {
		return nil, err
	}
	return fuzzy.NewLibrary(m, fuzzy.WithSampleCount(o.sampleCount), fuzzy.WithBuckets(o.buckets))
}

func (o *rootOptions) engine(lib *fuzzy.Library, disabled []string) (*fuzzy.Engine, error) {
	for _, name := range disabled {
		if _, ok := lib.Drive(name); !ok {
			return nil, fmt.Errorf("drive %q: %w", name, fuzzy.ErrUnknownDrive)
		}
	}
	return fuzzy.NewEngine(lib,
		fuzzy.WithMode(o.mode),
		fuzzy.WithPolicy(o.policy),
		fuzzy.WithDisabledDrives(disabled...),
		fuzzy.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))),
	)
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <model>",
		Short: "Check a model file and assemble its forest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := opts.load(args[0])
			if err != nil {
				return err
			}
			e, err := opts.engine(lib, nil)
			if err != nil {
				return err
			}

			m := lib.Model()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model %q: %d inputs, %d outputs, %d values, %d drives\n",
				m.Name, len(m.Inputs), len(m.Outputs), len(m.Values), len(m.Drives))
			for _, name := range lib.DriveNames() {
				parts, err := m.ConnectedComponents(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  drive %-12s %d component(s)\n", name, parts)
			}
			fmt.Fprintf(out, "forest: %d roots, %d nodes\n", len(e.Forest().Roots), len(e.Forest().Nodes))
			return nil
		},
	}
}

func newForestCmd(opts *rootOptions) *cobra.Command {
	var disabled []string
	cmd := &cobra.Command{
		Use:   "forest <model>",
		Short: "Print the assembled rule forest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := opts.load(args[0])
			if err != nil {
				return err
			}
			e, err := opts.engine(lib, disabled)
			if err != nil {
				return err
			}
			return e.Forest().Dump(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringSliceVar(&disabled, "disable", nil, "drives to leave out")
	return cmd
}

func newEvalCmd(opts *rootOptions) *cobra.Command {
	var disabled []string
	cmd := &cobra.Command{
		Use:   "eval <model> name=value...",
		Short: "Run one inference step and print every variable",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := opts.load(args[0])
			if err != nil {
				return err
			}
			e, err := opts.engine(lib, disabled)
			if err != nil {
				return err
			}
			for _, arg := range args[1:] {
				name, x, err := parseAssignment(arg)
				if err != nil {
					return err
				}
				if !e.SetValue(name, x) {
					return fmt.Errorf("%s: unknown variable or value out of range", arg)
				}
			}
			if err := e.StepContext(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range lib.InputNames() {
				fmt.Fprintf(out, "in  %-18s %s\n", name, e.GetValue(name))
			}
			for _, name := range lib.OutputNames() {
				fmt.Fprintf(out, "out %-18s %s\n", name, e.GetValue(name))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&disabled, "disable", nil, "drives to leave out")
	return cmd
}

func newExampleCmd() *cobra.Command {
	var (
		output       string
		radius       float64
		maxNeighbors float64
		maxSpeed     float64
	)
	cmd := &cobra.Command{
		Use:   "example",
		Short: "Write the built-in flocking model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := fuzzy.FlockingModel(radius, maxNeighbors, maxSpeed)
			if output != "" {
				return m.Save(output)
			}
			data, err := m.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	cmd.Flags().Float64Var(&radius, "radius", 12, "perception radius")
	cmd.Flags().Float64Var(&maxNeighbors, "max-neighbors", 16, "neighbour count upper bound")
	cmd.Flags().Float64Var(&maxSpeed, "max-speed", 10, "speed upper bound")
	return cmd
}

// parseAssignment splits "name=value".
func parseAssignment(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", 0, fmt.Errorf("%q: want name=value", s)
	}
	x, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%q: %w", s, err)
	}
	return name, x, nil
}
