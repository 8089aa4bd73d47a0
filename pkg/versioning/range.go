package versioning

import (
	"fmt"
	"strings"
)

// Range is a NuGet version interval. A nil bound is open.
type Range struct {
	Min          *Version
	MinInclusive bool
	Max          *Version
	MaxInclusive bool

	original string
}

// ParseRange parses NuGet range notation. A bare version is a minimum
// inclusive bound; "[v]" pins an exact version.
func ParseRange(s string) (*Range, error) {
	text := strings.TrimSpace(s)
	invalid := func(reason string) error {
		return fmt.Errorf("%w: %q: %s", ErrInvalidRange, s, reason)
	}

	if text == "" {
		return nil, invalid("empty")
	}
	if strings.Contains(text, "*") {
		return nil, invalid("floating ranges are not supported")
	}

	if !strings.ContainsAny(text[:1], "[(") {
		if strings.ContainsAny(text, "[]()") {
			return nil, invalid("unbalanced brackets")
		}
		if strings.Contains(text, ",") {
			return nil, invalid("interval without brackets")
		}
		v, err := Parse(text)
		if err != nil {
			return nil, invalid("bad version")
		}
		return &Range{Min: v, MinInclusive: true, original: text}, nil
	}

	last := text[len(text)-1]
	if last != ']' && last != ')' {
		return nil, invalid("unbalanced brackets")
	}
	r := &Range{
		MinInclusive: text[0] == '[',
		MaxInclusive: last == ']',
		original:     text,
	}
	inner := text[1 : len(text)-1]
	if strings.ContainsAny(inner, "[]()") {
		return nil, invalid("unbalanced brackets")
	}

	parts := strings.Split(inner, ",")
	if len(parts) > 2 {
		return nil, invalid("too many commas")
	}
	if len(parts) == 1 {
		// Only "[v]" is a valid single-version interval.
		if !r.MinInclusive || !r.MaxInclusive {
			return nil, invalid("single version must be inclusive on both sides")
		}
		v, err := Parse(parts[0])
		if err != nil {
			return nil, invalid("bad version")
		}
		r.Min, r.Max = v, v
		return r, nil
	}

	lower, upper := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if lower == "" && upper == "" {
		return nil, invalid("both bounds missing")
	}
	if lower != "" {
		v, err := Parse(lower)
		if err != nil {
			return nil, invalid("bad lower bound")
		}
		r.Min = v
	} else {
		r.MinInclusive = false
	}
	if upper != "" {
		v, err := Parse(upper)
		if err != nil {
			return nil, invalid("bad upper bound")
		}
		r.Max = v
	} else {
		r.MaxInclusive = false
	}

	if r.Min != nil && r.Max != nil {
		switch c := r.Min.Compare(r.Max); {
		case c > 0:
			return nil, invalid("lower bound exceeds upper bound")
		case c == 0 && !(r.MinInclusive && r.MaxInclusive):
			return nil, invalid("empty interval")
		}
	}
	return r, nil
}

// String returns the range as it was written.
func (r *Range) String() string { return r.original }

// AllowsPrerelease reports whether pre-release versions are candidates,
// which is the case only when the lower bound is itself a pre-release.
func (r *Range) AllowsPrerelease() bool {
	return r.Min != nil && r.Min.IsPrerelease()
}

// Satisfies reports whether v lies inside the interval. It does not apply
// the pre-release rule; see [Range.FindBestMatch].
func (r *Range) Satisfies(v *Version) bool {
	if v == nil {
		return false
	}
	if r.Min != nil {
		c := v.Compare(r.Min)
		if c < 0 || (c == 0 && !r.MinInclusive) {
			return false
		}
	}
	if r.Max != nil {
		c := v.Compare(r.Max)
		if c > 0 || (c == 0 && !r.MaxInclusive) {
			return false
		}
	}
	return true
}

// FindBestMatch returns the highest candidate inside the range, or nil.
// Pre-releases are skipped unless [Range.AllowsPrerelease]. When several
// candidates share the highest precedence the first one wins.
func (r *Range) FindBestMatch(versions []*Version) *Version {
	i := r.bestIndex(versions)
	if i < 0 {
		return nil
	}
	return versions[i]
}

func (r *Range) bestIndex(versions []*Version) int {
	best := -1
	pre := r.AllowsPrerelease()
	for i, v := range versions {
		if v == nil || (v.IsPrerelease() && !pre) || !r.Satisfies(v) {
			continue
		}
		if best < 0 || v.Compare(versions[best]) > 0 {
			best = i
		}
	}
	return best
}

// Resolve picks the item whose version best matches r. versionOf extracts
// the version text of an item; items with unparsable versions are skipped.
// The chosen item's version text is returned alongside it.
func Resolve[T any](r *Range, items []T, versionOf func(T) string) (T, *Version, error) {
	var zero T
	versions := make([]*Version, len(items))
	for i, item := range items {
		if v, err := Parse(versionOf(item)); err == nil {
			versions[i] = v
		}
	}
	i := r.bestIndex(versions)
	if i < 0 {
		return zero, nil, fmt.Errorf("%w: %s", ErrVersionNotFound, r)
	}
	return items[i], versions[i], nil
}
