package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/born-ml/opcheck/internal/config"
	"github.com/born-ml/opcheck/internal/opcheck"
	"github.com/born-ml/opcheck/internal/suites"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [op...]",
		Short: "Run the operator suites on the configured placement",
		Long: "Run the operator suites on the configured placement. Operators given as " +
			"arguments take precedence over --ops. The exit status is 1 if any check fails.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Check.Ops = args
			}
			return runChecks(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
}

func selectCases(cfg config.Config) ([]opcheck.Case, error) {
	if len(cfg.Check.Ops) == 0 {
		return suites.All()
	}
	return suites.ByOp(cfg.Check.Ops...)
}

func runChecks(ctx context.Context, w io.Writer, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cases, err := selectCases(cfg)
	if err != nil {
		return err
	}

	c, err := opcheck.Open(cfg.Place(), cfg.Check.Parity, cfg.CheckerOptions()...)
	if err != nil {
		return err
	}
	defer c.Close()

	start := time.Now()
	reports, err := c.RunAll(ctx, cases)
	if err != nil {
		return err
	}

	t := newTable("STATUS", "OP", "CASE", "CHECKS", "TIME")
	var failures []error
	for _, r := range reports {
		status := "PASS"
		if r.Failed() {
			status = "FAIL"
			failures = append(failures, r.Err())
		}
		var elapsed time.Duration
		checks := make([]string, 0, len(r.Results))
		for _, res := range r.Results {
			elapsed += res.Duration
			checks = append(checks, fmt.Sprintf("%s/%s", res.Check, res.Mode))
		}
		t.Row(r.Failed(), status, r.Op, r.Case, strings.Join(checks, " "), elapsed.Round(time.Microsecond).String())
	}
	_, _ = fmt.Fprintln(w, t)
	for _, err := range failures {
		_, _ = fmt.Fprintf(w, "FAIL %v\n", err)
	}
	_, _ = fmt.Fprintf(w, "%d/%d cases passed on %s (%s) in %s\n",
		len(reports)-len(failures), len(reports), c.Place(), c.Backend().Name(),
		time.Since(start).Round(time.Millisecond))

	if len(failures) > 0 {
		return errors.Errorf("%d of %d cases failed on %s", len(failures), len(reports), c.Place())
	}
	return nil
}
