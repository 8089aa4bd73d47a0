package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nugetaudit/pkg/audit"
	errs "github.com/matzehuels/nugetaudit/pkg/errors"
	"github.com/matzehuels/nugetaudit/pkg/versioning"
)

const (
	choiceAudit = "audit"
	choiceExit  = "exit"
)

// interactiveCommand creates the interactive command.
func (c *CLI) interactiveCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Audit packages one at a time from prompts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInteractive(cmd.Context(), noCache)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response caching")
	return cmd
}

func (c *CLI) runInteractive(ctx context.Context, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	auditor, store, err := c.newAuditor(ctx, noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Println(StyleTitle.Render("NuGet Package Auditor"))
	printDetail("Find out whether a NuGet package version is deprecated.")
	fmt.Println()

	settings := cfg.Audit.Settings
	for {
		choice, err := promptMenu(ctx)
		if err != nil || choice == choiceExit {
			return ignoreAbort(err)
		}

		var id, rng string
		if err := promptAudit(ctx, &id, &rng, &settings); err != nil {
			return ignoreAbort(err)
		}
		id, rng = strings.TrimSpace(id), strings.TrimSpace(rng)

		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Auditing %s %s...", id, rng))
		spinner.Start()
		report, err := auditor.Audit(ctx, id, rng, settings)
		spinner.Stop()
		if err != nil {
			return err
		}
		writeReport(os.Stdout, report)
		fmt.Println()
	}
}

func promptMenu(ctx context.Context) (string, error) {
	choice := choiceAudit
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("What would you like to do?").
			Options(
				huh.NewOption("Is a package deprecated?", choiceAudit),
				huh.NewOption("Exit", choiceExit),
			).
			Value(&choice),
	)).RunWithContext(ctx)
	return choice, err
}

func promptAudit(ctx context.Context, id, rng *string, s *audit.Settings) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Package id").
				Placeholder("Newtonsoft.Json").
				Value(id).
				Validate(func(v string) error {
					return errs.ValidatePackageID(strings.TrimSpace(v))
				}),
			huh.NewInput().
				Title("Version range").
				Description(`"13.0" for 13.0 or later, "[13.0.1]" for an exact version, "[12.0,13.0)" for an interval`).
				Value(rng).
				Validate(func(v string) error {
					_, err := versioning.ParseRange(v)
					return err
				}),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Check the GitHub repository?").
				Value(&s.IncludeSourceControl),
			huh.NewConfirm().
				Title("Ignore repository lookup failures?").
				Value(&s.IgnoreSourceControlErrors),
		),
	).RunWithContext(ctx)
}

// ignoreAbort treats a user abort (ctrl+c, esc) as a normal exit.
func ignoreAbort(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		printInfo("Bye")
		return nil
	}
	return err
}
