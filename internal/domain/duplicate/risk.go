package duplicate

import (
	"fmt"

	"github.com/okian/bautagebuch/internal/domain/model"
)

// RiskTier ranks how likely a duplicate group is a real double submission.
type RiskTier int

// Risk tiers, ordered.
const (
	RiskNone RiskTier = iota
	RiskLow
	RiskMedium
	RiskHigh
)

func (r RiskTier) String() string {
	switch r {
	case RiskNone:
		return "none"
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseRiskTier maps a tier name back to its value.
func ParseRiskTier(s string) (RiskTier, bool) {
	for r := RiskNone; r <= RiskHigh; r++ {
		if r.String() == s {
			return r, true
		}
	}
	return RiskNone, false
}

// MarshalText encodes the tier by name.
func (r RiskTier) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (r *RiskTier) UnmarshalText(b []byte) error {
	t, ok := ParseRiskTier(string(b))
	if !ok {
		return fmt.Errorf("unknown risk tier %q", b)
	}
	*r = t
	return nil
}

// ClassifyPair rates a single candidate that already passed the similarity threshold.
//
//   - high:   same day, location, material and employee
//   - medium: same day, location and material
//   - low:    anything else
func ClassifyPair(primary, candidate model.MeasurementEntry) RiskTier {
	core := sameDay(primary.Date, candidate.Date) &&
		equalFold(primary.Location, candidate.Location) &&
		equalFold(primary.MaterialName, candidate.MaterialName)
	switch {
	case core && equalFold(primary.EmployeeName, candidate.EmployeeName):
		return RiskHigh
	case core:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Classify returns the highest tier across all candidates of a group.
func Classify(primary model.MeasurementEntry, similar []Match) RiskTier {
	tier := RiskNone
	for _, m := range similar {
		t := ClassifyPair(primary, m.Entry)
		if t > tier {
			tier = t
		}
		if tier == RiskHigh {
			break
		}
	}
	return tier
}
