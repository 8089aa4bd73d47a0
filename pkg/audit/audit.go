// Package audit decides whether a NuGet package version should be treated
// as deprecated.
//
// An [Auditor] runs a fixed sequence per package: parse the version range,
// fetch and flatten the registration catalog, pick the best matching
// version, optionally look up the linked repository, then evaluate the
// deprecation rules from [deprecation.Evaluate].
//
// Failures along the way are captured in the returned [Report] rather than
// returned as Go errors. Only blank arguments and context cancellation
// produce an error, so batch callers always get one report per request.
//
// # Usage
//
//	a := audit.New(audit.Options{Catalog: nuget.NewClient(c)})
//	report, err := a.Audit(ctx, "Serilog", "[2.0,3.0)", audit.DefaultSettings())
//	if err != nil {
//	    return err
//	}
//	fmt.Println(report.DeprecatedReason)
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nugetaudit/pkg/cache"
	"github.com/matzehuels/nugetaudit/pkg/deprecation"
	errs "github.com/matzehuels/nugetaudit/pkg/errors"
	"github.com/matzehuels/nugetaudit/pkg/integrations"
	"github.com/matzehuels/nugetaudit/pkg/integrations/github"
	"github.com/matzehuels/nugetaudit/pkg/integrations/nuget"
	"github.com/matzehuels/nugetaudit/pkg/observability"
	"github.com/matzehuels/nugetaudit/pkg/sourcecontrol"
	"github.com/matzehuels/nugetaudit/pkg/versioning"
)

// Catalog fetches registration documents. [*nuget.Client] implements it.
type Catalog interface {
	FetchCatalogRoot(ctx context.Context, id string) ([]byte, error)
	FetchCatalogPage(ctx context.Context, pageID string) ([]byte, error)
}

// SourceControl looks up repository metadata for a project URL.
// [*sourcecontrol.Fetcher] implements it.
type SourceControl interface {
	FetchMetadata(ctx context.Context, projectURL string) (*sourcecontrol.Metadata, error)
}

// Settings control the optional source-control step.
type Settings struct {
	// IncludeSourceControl enables the repository lookup.
	IncludeSourceControl bool `json:"include_source_control" toml:"include_source_control"`

	// IgnoreSourceControlErrors drops lookup failures silently instead of
	// flagging the report.
	IgnoreSourceControlErrors bool `json:"ignore_source_control_errors" toml:"ignore_source_control_errors"`
}

// DefaultSettings enables the source-control lookup and surfaces its failures.
func DefaultSettings() Settings {
	return Settings{IncludeSourceControl: true}
}

// Options configures an [Auditor]. Zero fields are replaced with defaults.
type Options struct {
	Catalog       Catalog       // default: nuget.org without caching
	SourceControl SourceControl // default: unauthenticated GitHub without caching
	Logger        *log.Logger   // default: log.Default()
	Now           func() time.Time
}

// WithDefaults returns a copy of o with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Catalog == nil {
		opts.Catalog = nuget.NewClient(cache.NewNullCache())
	}
	if opts.SourceControl == nil {
		opts.SourceControl = sourcecontrol.NewFetcher(sourcecontrol.NewGitHub(github.NewClient(nil, "")))
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

// Auditor runs package audits. It is safe for concurrent use when its
// collaborators are.
type Auditor struct {
	catalog   Catalog
	assembler *nuget.Assembler
	sc        SourceControl
	logger    *log.Logger
	now       func() time.Time
}

// New creates an Auditor from opts.
func New(opts Options) *Auditor {
	opts = opts.WithDefaults()
	return &Auditor{
		catalog:   opts.Catalog,
		assembler: nuget.NewAssembler(opts.Catalog),
		sc:        opts.SourceControl,
		logger:    opts.Logger,
		now:       opts.Now,
	}
}

// Audit reports the deprecation status of the best version of id within
// versionRange.
//
// The returned error is non-nil only when id or versionRange is blank
// ([errs.ErrCodeInvalidInput]) or ctx is done ([errs.ErrCodeCanceled]).
// Every other failure is described by the report's Error and ErrorCode.
func (a *Auditor) Audit(ctx context.Context, id, versionRange string, s Settings) (*Report, error) {
	if err := errs.RequireNonBlank("package id", id); err != nil {
		return nil, err
	}
	if err := errs.RequireNonBlank("version range", versionRange); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Audit().OnAuditStart(ctx, id, versionRange)

	r, err := a.audit(ctx, id, versionRange, s)
	if err != nil {
		observability.Audit().OnAuditComplete(ctx, id, versionRange, "", time.Since(start), string(errs.ErrCodeCanceled))
		return nil, err
	}

	verdict := ""
	if r.Resolved() {
		verdict = r.DeprecatedReason.String()
	}
	observability.Audit().OnAuditComplete(ctx, id, versionRange, verdict, time.Since(start), string(r.ErrorCode))
	return r, nil
}

func (a *Auditor) audit(ctx context.Context, id, versionRange string, s Settings) (*Report, error) {
	r := &Report{ID: id, VersionRange: versionRange}
	logger := a.logger.With("id", id, "range", versionRange)

	rng, err := versioning.ParseRange(versionRange)
	if err != nil {
		logger.Debug("invalid range", "err", err)
		return r.fail(errs.ErrCodeInvalidRange, "Package version range of '%s' is invalid.", versionRange), nil
	}

	root, err := a.catalog.FetchCatalogRoot(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return nil, canceled(ctx, id)
		}
		logger.Debug("catalog root unavailable", "err", err)
		if errors.Is(err, integrations.ErrNotFound) {
			return r.fail(errs.ErrCodePackageNotFound, "Could not find package with id '%s' on the NuGet registry.", id), nil
		}
		return r.fail(errs.ErrCodeNetwork, "Failed to fetch catalog for package with id '%s': %v", id, err), nil
	}

	entries, err := a.assembler.Entries(ctx, root)
	if err != nil {
		if ctx.Err() != nil {
			return nil, canceled(ctx, id)
		}
		logger.Debug("catalog incomplete", "err", err)
		return catalogFailure(r, id, err), nil
	}
	return a.resolve(ctx, r, rng, entries, s, logger)
}

func (a *Auditor) resolve(ctx context.Context, r *Report, rng *versioning.Range, entries []nuget.VersionEntry, s Settings, logger *log.Logger) (*Report, error) {
	entry, version, err := versioning.Resolve(rng, entries, func(e nuget.VersionEntry) string { return e.Version })
	if err != nil {
		logger.Debug("no matching version", "candidates", len(entries))
		return r.fail(errs.ErrCodeVersionNotFound, "The package version of %s could not be found for '%s'.", r.VersionRange, r.ID), nil
	}
	logger.Debug("resolved", "version", version)
	r.fillEntry(&entry)

	if s.IncludeSourceControl && r.ProjectURL != "" {
		if err := a.attachSourceControl(ctx, r, s, logger); err != nil {
			return nil, err
		}
	}

	var signals *deprecation.Signals
	if m := r.SourceControl; m != nil {
		signals = &deprecation.Signals{Archived: m.Archived, PushedAt: m.PushedAt}
	}
	r.DeprecatedReason = deprecation.Evaluate(r.RegistryDeprecated, signals, a.now())
	logger.Debug("evaluated", "reason", r.DeprecatedReason)
	return r, nil
}

// attachSourceControl sets r.SourceControl or, depending on s, flags r.
// It returns an error only on cancellation.
func (a *Auditor) attachSourceControl(ctx context.Context, r *Report, s Settings, logger *log.Logger) error {
	meta, err := a.sc.FetchMetadata(ctx, r.ProjectURL)
	switch {
	case err == nil:
		r.SourceControl = meta
	case errors.Is(err, sourcecontrol.ErrNotApplicable):
		logger.Debug("no source-control signal", "url", r.ProjectURL, "err", err)
	case ctx.Err() != nil:
		return canceled(ctx, r.ID)
	case s.IgnoreSourceControlErrors:
		logger.Warn("ignoring source-control failure", "url", r.ProjectURL, "err", err)
	default:
		r.fail(errs.ErrCodeSourceControl, "Failed to fetch source control metadata from '%s': %v", r.ProjectURL, err)
	}
	return nil
}

// catalogFailure flags r for a root document that could not be flattened.
// A split page that is missing or unreachable counts as a fetch failure.
func catalogFailure(r *Report, id string, err error) *Report {
	switch {
	case errors.Is(err, nuget.ErrNoPages):
		return r.fail(errs.ErrCodeMissingPages, "Package with id '%s' found on the NuGet registry but is missing 'CatalogPages'.", id)
	case errors.Is(err, nuget.ErrNoPackages):
		return r.fail(errs.ErrCodeMissingPackages, "Package with id '%s' found on the NuGet registry but is missing 'Packages'.", id)
	case errors.Is(err, nuget.ErrSchema):
		return r.fail(errs.ErrCodeSchema, "Package with id '%s' returned a malformed catalog: %v", id, err)
	default:
		return r.fail(errs.ErrCodeNetwork, "Failed to fetch catalog for package with id '%s': %v", id, err)
	}
}

func canceled(ctx context.Context, id string) error {
	return errs.Wrap(errs.ErrCodeCanceled, context.Cause(ctx), "audit of %s canceled", id)
}
