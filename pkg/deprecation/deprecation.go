// Package deprecation turns registry and repository signals into a single
// deprecation verdict.
//
// The rules are applied in priority order and the first match wins:
//
//  1. the registry marks the version deprecated → [DeprecatedOnRegistry]
//  2. the repository is archived → [SourceControlArchived]
//  3. the repository was last pushed more than [StagnantAfterMonths] months ago → [SourceControlStagnant]
//  4. otherwise → [NotDeprecated]
//
// Rules 2 and 3 apply only when repository signals are available.
package deprecation

import (
	"fmt"
	"time"
)

// StagnantAfterMonths is the push-inactivity window after which a repository
// counts as stagnant. It is a fixed policy, not a setting.
const StagnantAfterMonths = 6

// Reason is a deprecation verdict.
type Reason int

const (
	NotDeprecated Reason = iota
	DeprecatedOnRegistry
	SourceControlArchived
	SourceControlStagnant
)

var reasonNames = map[Reason]string{
	NotDeprecated:         "not_deprecated",
	DeprecatedOnRegistry:  "deprecated_on_registry",
	SourceControlArchived: "source_control_archived",
	SourceControlStagnant: "source_control_stagnant",
}

func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// IsDeprecated reports whether r is any verdict other than [NotDeprecated].
func (r Reason) IsDeprecated() bool { return r != NotDeprecated }

// Describe returns a sentence explaining the verdict.
func (r Reason) Describe() string {
	switch r {
	case NotDeprecated:
		return "No deprecation signal was found."
	case DeprecatedOnRegistry:
		return "The registry marks this version as deprecated."
	case SourceControlArchived:
		return "The source repository is archived."
	case SourceControlStagnant:
		return fmt.Sprintf("The source repository has not been pushed to in over %d months.", StagnantAfterMonths)
	default:
		return r.String()
	}
}

func (r Reason) MarshalText() ([]byte, error) {
	if _, ok := reasonNames[r]; !ok {
		return nil, fmt.Errorf("unknown deprecation reason %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Reason) UnmarshalText(b []byte) error {
	for k, v := range reasonNames {
		if v == string(b) {
			*r = k
			return nil
		}
	}
	return fmt.Errorf("unknown deprecation reason %q", b)
}

// Signals are the repository facts the evaluator consults.
type Signals struct {
	Archived bool
	PushedAt time.Time
}

// Evaluate returns the verdict for a version. signals is nil when no
// repository metadata was obtained, in which case only the registry rule can
// fire. now is the reference instant for the stagnancy window.
func Evaluate(registryDeprecated bool, signals *Signals, now time.Time) Reason {
	switch {
	case registryDeprecated:
		return DeprecatedOnRegistry
	case signals == nil:
		return NotDeprecated
	case signals.Archived:
		return SourceControlArchived
	case signals.PushedAt.Before(StagnantCutoff(now)):
		return SourceControlStagnant
	default:
		return NotDeprecated
	}
}

// StagnantCutoff returns the instant before which a push counts as stagnant.
func StagnantCutoff(now time.Time) time.Time {
	return now.AddDate(0, -StagnantAfterMonths, 0)
}
