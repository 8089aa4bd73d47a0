package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/nugetaudit/pkg/audit"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failures.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleKey = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// Reports
// =============================================================================

// writeReport renders r as a headline followed by indented key/value lines.
func writeReport(w io.Writer, r *audit.Report) {
	fmt.Fprintln(w, reportHeadline(r))

	kv := func(key, value string) {
		if value != "" {
			fmt.Fprintln(w, "  "+styleKey.Render(key)+" "+StyleValue.Render(value))
		}
	}
	kv("range", r.VersionRange)
	if r.Resolved() {
		kv("purl", r.PackageURL)
		kv("listed", yesNo(r.Listed))
		if r.ProjectURL != "" {
			fmt.Fprintln(w, "  "+styleKey.Render("project")+" "+StyleLink.Render(r.ProjectURL))
		}
		kv("verdict", r.DeprecatedReason.Describe())
	}
	if r.RegistryDeprecated {
		kv("message", r.RegistryDeprecationMessage)
		kv("reasons", strings.Join(r.RegistryDeprecationReasons, ", "))
		if alt := r.AlternatePackage; alt != nil {
			kv("alternative", strings.TrimSpace(alt.ID+" "+alt.Range))
		}
	}
	if m := r.SourceControl; m != nil {
		kv("repository", fmt.Sprintf("%s/%s (%s)", m.Owner, m.Repo, m.Provider))
		kv("archived", yesNo(m.Archived))
		if !m.PushedAt.IsZero() {
			kv("last push", m.PushedAt.Format("2006-01-02"))
		}
	}
	if r.HasError {
		fmt.Fprintln(w, "  "+styleKey.Render("error")+" "+StyleError.Render(r.Error))
	}
}

func reportHeadline(r *audit.Report) string {
	name := StyleTitle.Render(r.ID)
	if r.Resolved() {
		name += " " + StyleValue.Render(r.Version)
	}
	switch {
	case r.HasError && !r.Resolved():
		return styleIconError.Render(iconError) + " " + name + " " + StyleError.Render(string(r.ErrorCode))
	case r.IsDeprecated():
		return styleIconWarning.Render(iconWarning) + " " + name + " " + StyleWarning.Render("deprecated")
	case r.HasError:
		return styleIconWarning.Render(iconWarning) + " " + name + " " + StyleWarning.Render("incomplete")
	default:
		return styleIconSuccess.Render(iconSuccess) + " " + name + " " + StyleSuccess.Render("not deprecated")
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
