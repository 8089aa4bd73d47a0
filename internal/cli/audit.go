package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nugetaudit/pkg/audit"
	errs "github.com/matzehuels/nugetaudit/pkg/errors"
)

// auditFlags holds the options for the audit command.
type auditFlags struct {
	json              bool
	noCache           bool
	noSourceControl   bool
	ignoreSourceError bool
	failOnDeprecated  bool
	workers           int
}

// auditCommand creates the audit command.
func (c *CLI) auditCommand() *cobra.Command {
	var flags auditFlags

	cmd := &cobra.Command{
		Use:   "audit <package> <range> [<package> <range>...]",
		Short: "Audit NuGet packages for deprecation",
		Long: `Audit resolves the highest version of each package inside its version range
and reports whether it is deprecated on the NuGet registry, or whether its
GitHub repository is archived or has not been pushed to in six months.

Ranges use NuGet notation: "1.0" means 1.0 or later, "[1.0]" pins 1.0,
"[1.0,2.0)" is an interval.`,
		Example: `  nugetaudit audit Newtonsoft.Json 13.0
  nugetaudit audit Serilog "[2.0,3.0)" xunit "[2.4.1]" --json`,
		Args: func(cmd *cobra.Command, args []string) error {
			_, err := parseRequests(args)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, _ := parseRequests(args)
			return c.runAudit(cmd, reqs, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.json, "json", false, "print reports as JSON")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable response caching")
	cmd.Flags().BoolVar(&flags.noSourceControl, "no-source-control", false, "skip the GitHub repository lookup")
	cmd.Flags().BoolVar(&flags.ignoreSourceError, "ignore-source-control-errors", false, "do not flag reports when the repository lookup fails")
	cmd.Flags().BoolVar(&flags.failOnDeprecated, "fail-on-deprecated", false, "exit non-zero when any package is deprecated")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "concurrent audits (default from config)")

	return cmd
}

func (c *CLI) runAudit(cmd *cobra.Command, reqs []audit.Request, flags auditFlags) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	settings := cfg.Audit.Settings
	if cmd.Flags().Changed("no-source-control") {
		settings.IncludeSourceControl = !flags.noSourceControl
	}
	if cmd.Flags().Changed("ignore-source-control-errors") {
		settings.IgnoreSourceControlErrors = flags.ignoreSourceError
	}
	workers := cfg.Audit.Workers
	if flags.workers > 0 {
		workers = flags.workers
	}

	auditor, store, err := c.newAuditor(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	prog := newProgress(c.Logger)
	var spinner *Spinner
	if !flags.json {
		spinner = newSpinnerWithContext(ctx, fmt.Sprintf("Auditing %d package(s)...", len(reqs)))
		spinner.Start()
	}
	reports, err := auditor.AuditMany(ctx, reqs, settings, workers)
	if err != nil {
		if spinner != nil {
			spinner.StopWithError("Audit aborted")
		}
		return err
	}
	if spinner != nil {
		spinner.Stop()
	}
	prog.done(fmt.Sprintf("Audited %d package(s)", len(reports)))

	if flags.json {
		if err := writeJSON(os.Stdout, reports); err != nil {
			return err
		}
	} else {
		for i, r := range reports {
			if i > 0 {
				fmt.Println()
			}
			writeReport(os.Stdout, r)
		}
	}
	return summarize(reports, flags.failOnDeprecated)
}

// parseRequests pairs positional arguments into audit requests.
func parseRequests(args []string) ([]audit.Request, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "expected <package> <range> pairs, got %d argument(s)", len(args))
	}
	reqs := make([]audit.Request, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		id, rng := strings.TrimSpace(args[i]), strings.TrimSpace(args[i+1])
		if err := errs.ValidatePackageID(id); err != nil {
			return nil, err
		}
		if err := errs.RequireNonBlank("version range", rng); err != nil {
			return nil, err
		}
		reqs = append(reqs, audit.Request{ID: id, VersionRange: rng})
	}
	return reqs, nil
}

// writeJSON prints a single report as an object and several as an array.
func writeJSON(w io.Writer, reports []*audit.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(reports) == 1 {
		return enc.Encode(reports[0])
	}
	return enc.Encode(reports)
}

// summarize returns an error when any report failed, or when failOnDeprecated
// is set and any package is deprecated.
func summarize(reports []*audit.Report, failOnDeprecated bool) error {
	var failed, deprecated int
	for _, r := range reports {
		if r.HasError {
			failed++
		}
		if r.Resolved() && r.IsDeprecated() {
			deprecated++
		}
	}
	switch {
	case failed > 0:
		return fmt.Errorf("%d of %d audit(s) reported errors", failed, len(reports))
	case failOnDeprecated && deprecated > 0:
		return fmt.Errorf("%d of %d package(s) are deprecated", deprecated, len(reports))
	}
	return nil
}
