package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Harshitk-cp/truthkeeper/internal/buildconfig"
	"github.com/Harshitk-cp/truthkeeper/internal/domain"
	"github.com/Harshitk-cp/truthkeeper/internal/scenario"
	"github.com/Harshitk-cp/truthkeeper/internal/tms"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errExpectationsFailed = errors.New("scenario expectations failed")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tmsctl",
		Short:         "Replay JTMS and ATMS scenarios",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		asJSON  bool
		verbose bool
		checks  bool
	)

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Replay a scenario on a fresh engine and print the final state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.LoadFile(args[0])
			if err != nil {
				return err
			}

			logger := zap.NewNop()
			if verbose {
				logger, err = zap.NewDevelopment()
				if err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()
			}

			res, err := sc.Run(tms.WithLogger(logger), tms.WithInvariantChecks(checks))
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				printResult(cmd.OutOrStdout(), sc, res)
			}

			if !res.Report.Passed() {
				return fmt.Errorf("%w: %d of %d", errExpectationsFailed, len(res.Report.Failures), res.Report.Steps)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log engine activity to stderr")
	cmd.Flags().BoolVar(&checks, "check-invariants", true, "verify engine invariants after every mutation")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "tmsctl", buildconfig.String())
		},
	}
}

func printResult(w io.Writer, sc *scenario.Scenario, res scenario.Result) {
	name := sc.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "scenario %s [%s] %d steps\n", name, sc.Engine, res.Report.Steps)

	for _, b := range res.Beliefs {
		flags := ""
		if b.Asserted {
			flags += " asserted"
		}
		if b.NonMonotonic {
			flags += " non-monotonic"
		}
		fmt.Fprintf(w, "  %-16s %-7s%s\n", b.Name, b.Valid, flags)
	}

	for _, n := range res.Nodes {
		kind := " "
		if n.IsAssumption {
			kind = "*"
		}
		fmt.Fprintf(w, "%s %-16s %s\n", kind, n.Name, formatLabel(n.Label))
	}
	if len(res.Report.Nogoods) > 0 {
		fmt.Fprintf(w, "  nogoods: %s\n", formatLabel(res.Report.Nogoods))
	}

	for _, f := range res.Report.Failures {
		fmt.Fprintf(w, "FAIL %s\n", f)
	}
	if res.Report.Passed() {
		fmt.Fprintln(w, "PASS")
	}
}

func formatLabel(envs []domain.Environment) string {
	parts := make([]string, len(envs))
	for i, e := range envs {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}
