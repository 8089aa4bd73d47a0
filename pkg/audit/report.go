package audit

import (
	"encoding/json"
	"fmt"

	packageurl "github.com/package-url/packageurl-go"

	"github.com/matzehuels/nugetaudit/pkg/deprecation"
	errs "github.com/matzehuels/nugetaudit/pkg/errors"
	"github.com/matzehuels/nugetaudit/pkg/integrations/nuget"
	"github.com/matzehuels/nugetaudit/pkg/sourcecontrol"
)

// Report is the outcome of one audit.
//
// A report with HasError set may still carry resolved package fields: a
// failed source-control lookup leaves the registry data in place. Reports
// that never resolved a version encode without package or verdict fields.
type Report struct {
	HasError  bool      `json:"has_error"`
	Error     string    `json:"error,omitempty"`
	ErrorCode errs.Code `json:"error_code,omitempty"`

	ID           string `json:"id"`
	VersionRange string `json:"version_range"`
	Version      string `json:"version,omitempty"`
	PackageURL   string `json:"purl,omitempty"`
	Listed       bool   `json:"listed"`
	ProjectURL   string `json:"project_url,omitempty"`

	DeprecatedReason           deprecation.Reason      `json:"deprecated_reason"`
	RegistryDeprecated         bool                    `json:"registry_deprecated"`
	RegistryDeprecationMessage string                  `json:"registry_deprecation_message,omitempty"`
	RegistryDeprecationReasons []string                `json:"registry_deprecation_reasons,omitempty"`
	AlternatePackage           *nuget.AlternatePackage `json:"alternate_package,omitempty"`

	SourceControl *sourcecontrol.Metadata `json:"source_control,omitempty"`
}

// MarshalJSON writes only the error and request fields for a report whose
// version never resolved; such a report has no verdict to show.
func (r Report) MarshalJSON() ([]byte, error) {
	type report Report
	if r.Resolved() {
		return json.Marshal(report(r))
	}
	return json.Marshal(struct {
		HasError     bool      `json:"has_error"`
		Error        string    `json:"error,omitempty"`
		ErrorCode    errs.Code `json:"error_code,omitempty"`
		ID           string    `json:"id"`
		VersionRange string    `json:"version_range"`
	}{r.HasError, r.Error, r.ErrorCode, r.ID, r.VersionRange})
}

// Resolved reports whether a catalog version was matched.
func (r *Report) Resolved() bool { return r.Version != "" }

// IsDeprecated reports whether the verdict is anything but not-deprecated.
func (r *Report) IsDeprecated() bool { return r.DeprecatedReason.IsDeprecated() }

func (r *Report) fail(code errs.Code, format string, args ...any) *Report {
	r.HasError = true
	r.ErrorCode = code
	r.Error = fmt.Sprintf(format, args...)
	return r
}

func (r *Report) fillEntry(e *nuget.VersionEntry) {
	r.Version = e.Version
	r.PackageURL = PackageURL(r.ID, e.Version)
	r.Listed = e.Listed
	r.ProjectURL = e.ProjectURL
	if d := e.Deprecation; d != nil {
		r.RegistryDeprecated = true
		r.RegistryDeprecationMessage = d.Message
		r.RegistryDeprecationReasons = d.Reasons
		r.AlternatePackage = d.AlternatePackage
	}
}

// PackageURL returns the purl of a NuGet package version, e.g.
// "pkg:nuget/Serilog@2.10.0".
func PackageURL(id, version string) string {
	return packageurl.NewPackageURL(packageurl.TypeNuget, "", id, version, nil, "").ToString()
}
