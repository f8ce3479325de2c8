package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smazurov/depthnode/internal/conformance"
)

// ErrProbeFailed is returned when at least one check failed.
var ErrProbeFailed = errors.New("conformance checks failed")

type probeDocument struct {
	Passed  bool                 `json:"passed" yaml:"passed" toml:"passed"`
	Reports []conformance.Report `json:"reports" yaml:"reports" toml:"report"`
}

// CreateProbeCmd creates the probe command.
func CreateProbeCmd() *cobra.Command {
	var flags sessionFlags
	var checkNames []string
	var format string
	var parallel int
	var listChecks bool

	cmd := &cobra.Command{
		Use:   "probe [serial...]",
		Short: "Run conformance checks against devices",
		Long: `Runs behavioural checks against each device: identity, option partition, ` +
			`calibration geometry, stereo symmetry, streaming combinations and option round trips. ` +
			`Exits non-zero when any check fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			checks, err := conformance.Select(checkNames)
			if err != nil {
				return err
			}
			if listChecks {
				for _, c := range checks {
					fmt.Fprintf(out, "%-34s %s\n", c.Name, c.Description)
				}
				return nil
			}

			session, _, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			devices, err := selectDevices(session, args)
			if err != nil {
				return err
			}

			runner := conformance.NewRunner(conformance.WithChecks(checks...), conformance.WithParallelism(parallel))
			reports, err := runner.Run(cmd.Context(), devices)
			if err != nil {
				return err
			}

			doc := probeDocument{Passed: true, Reports: reports}
			for _, r := range reports {
				doc.Passed = doc.Passed && r.Passed()
			}

			if format == FormatText {
				printReports(cmd, reports)
			} else if err := encode(out, format, doc); err != nil {
				return err
			}
			if !doc.Passed {
				cmd.SilenceUsage = true
				return ErrProbeFailed
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVar(&checkNames, "checks", nil, "Checks to run, comma separated (default all)")
	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "Output format (text, toml, json, yaml)")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "Devices probed at once (0 for no limit)")
	cmd.Flags().BoolVar(&listChecks, "list", false, "List available checks and exit")
	return cmd
}

func printReports(cmd *cobra.Command, reports []conformance.Report) {
	out := cmd.OutOrStdout()
	for _, r := range reports {
		pass, fail, skip := r.Counts()
		fmt.Fprintf(out, "%s (%s %s): %d passed, %d failed, %d skipped\n", r.Serial, r.Model, r.Name, pass, fail, skip)
		for _, res := range r.Results {
			line := fmt.Sprintf("  %-4s %s", strings.ToUpper(string(res.Status)), res.Check)
			if res.Message != "" {
				line += ": " + res.Message
			}
			fmt.Fprintln(out, line)
		}
	}
}
