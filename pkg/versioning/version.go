// Package versioning parses NuGet versions and version ranges and picks the
// best match for a range from a set of published versions.
//
// NuGet versions are SemVer 2.0 with up to four numeric parts:
//
//	1        → 1.0.0
//	1.2      → 1.2.0
//	1.2.3-rc.1+build
//	1.2.3.4  (legacy "revision" part)
//
// Ranges use NuGet interval notation:
//
//	1.0          x ≥ 1.0
//	[1.0]        x == 1.0
//	(1.0,)       x > 1.0
//	(,1.0]       x ≤ 1.0
//	[1.0,2.0)    1.0 ≤ x < 2.0
//
// Floating ranges such as 1.* are not supported.
package versioning

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	// ErrInvalidVersion is returned for text that is not a NuGet version.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrInvalidRange is returned for text that is not a NuGet version range.
	ErrInvalidRange = errors.New("invalid version range")

	// ErrVersionNotFound is returned when no candidate satisfies a range.
	ErrVersionNotFound = errors.New("no version satisfies range")
)

var (
	fourPart = regexp.MustCompile(`^(\d+\.\d+\.\d+)\.(\d+)([-+].*)?$`)
	numeric  = regexp.MustCompile(`^\d+(\.\d+){0,3}([-+].*)?$`)
)

// Version is a parsed NuGet version. The original text is kept for display.
type Version struct {
	sv       *semver.Version
	revision uint64
	original string
}

// Parse parses NuGet version text. Pre-release labels compare
// case-insensitively and build metadata is ignored for ordering.
func Parse(s string) (*Version, error) {
	text := strings.TrimSpace(s)
	if text == "" || !numeric.MatchString(text) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	core := strings.ToLower(text)
	var revision uint64
	if m := fourPart.FindStringSubmatch(core); m != nil {
		r, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		revision = r
		core = m[1] + m[3]
	}

	sv, err := semver.NewVersion(core)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	return &Version{sv: sv, revision: revision, original: text}, nil
}

// MustParse is like Parse but panics on error. For tests and constants.
func MustParse(s string) *Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as it was written.
func (v *Version) String() string { return v.original }

// Normalized returns the version in canonical form: three or four numeric
// parts plus any pre-release label, without build metadata.
func (v *Version) Normalized() string {
	s := fmt.Sprintf("%d.%d.%d", v.sv.Major(), v.sv.Minor(), v.sv.Patch())
	if v.revision > 0 {
		s += "." + strconv.FormatUint(v.revision, 10)
	}
	if pre := v.sv.Prerelease(); pre != "" {
		s += "-" + pre
	}
	return s
}

// IsPrerelease reports whether the version carries a pre-release label.
func (v *Version) IsPrerelease() bool { return v.sv.Prerelease() != "" }

// Compare returns -1, 0, or 1 as v is lower than, equal to, or higher than o.
func (v *Version) Compare(o *Version) int {
	if c := cmp.Compare(v.sv.Major(), o.sv.Major()); c != 0 {
		return c
	}
	if c := cmp.Compare(v.sv.Minor(), o.sv.Minor()); c != 0 {
		return c
	}
	if c := cmp.Compare(v.sv.Patch(), o.sv.Patch()); c != 0 {
		return c
	}
	if c := cmp.Compare(v.revision, o.revision); c != 0 {
		return c
	}
	// Equal cores: semver orders by pre-release and ignores metadata.
	return v.sv.Compare(o.sv)
}

// Equal reports whether v and o have the same precedence.
func (v *Version) Equal(o *Version) bool { return v.Compare(o) == 0 }
