package duplicate

import (
	"sort"

	"github.com/okian/bautagebuch/internal/domain/model"
)

// Match is a candidate entry together with its similarity to a primary entry.
type Match struct {
	Entry model.MeasurementEntry `json:"entry"`
	Score float64                `json:"score"`
}

// Criteria flags which properties a primary shares with at least one of its candidates.
type Criteria struct {
	SameDay         bool `json:"same_day"`
	SameLocation    bool `json:"same_location"`
	SameMaterial    bool `json:"same_material"`
	SameEmployee    bool `json:"same_employee"`
	SimilarQuantity bool `json:"similar_quantity"`
}

// Group is a primary entry with every later entry that resembles it.
type Group struct {
	Primary  model.MeasurementEntry `json:"primary"`
	Similar  []Match                `json:"similar"`
	Criteria Criteria               `json:"criteria"`
	Risk     RiskTier               `json:"risk"`
}

// Summary counts groups per risk tier.
type Summary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Finder builds duplicate groups from a snapshot of entries. It keeps no
// state between calls and is safe for concurrent use.
type Finder struct {
	threshold float64
}

// NewFinder creates a Finder with configuration options.
func NewFinder(opts ...Option) *Finder {
	f := &Finder{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Threshold returns the minimum similarity a candidate needs.
func (f *Finder) Threshold() float64 {
	return f.threshold
}

// Find compares every entry with all entries after it. entries is expected
// newest first, as delivered by the repository. Entries without candidates
// produce no group.
func (f *Finder) Find(entries []model.MeasurementEntry) []Group {
	var groups []Group
	for i := range entries {
		similar := f.similar(entries[i], entries[i+1:])
		if len(similar) == 0 {
			continue
		}
		groups = append(groups, Group{
			Primary:  entries[i],
			Similar:  similar,
			Criteria: Evaluate(entries[i], similar),
			Risk:     Classify(entries[i], similar),
		})
	}
	return groups
}

// Rank scores an unsaved entry against pre-filtered existing ones and
// returns all of them, best first. No threshold applies: the caller's filter
// already decided what counts as a candidate.
func Rank(candidate model.MeasurementEntry, existing []model.MeasurementEntry) []Match {
	matches := make([]Match, len(existing))
	for i, e := range existing {
		matches[i] = Match{Entry: e, Score: Similarity(candidate, e)}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// Comparisons returns how many pairs Find scores for n entries.
func Comparisons(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

func (f *Finder) similar(primary model.MeasurementEntry, others []model.MeasurementEntry) []Match {
	var out []Match
	for _, other := range others {
		score := Similarity(primary, other)
		if score >= f.threshold {
			out = append(out, Match{Entry: other, Score: score})
		}
	}
	return out
}

// Evaluate derives the criteria flags of a group.
func Evaluate(primary model.MeasurementEntry, similar []Match) Criteria {
	var c Criteria
	for _, m := range similar {
		e := m.Entry
		if sameDay(primary.Date, e.Date) {
			c.SameDay = true
		}
		if equalFold(primary.Location, e.Location) {
			c.SameLocation = true
		}
		if equalFold(primary.MaterialName, e.MaterialName) {
			c.SameMaterial = true
		}
		if equalFold(primary.EmployeeName, e.EmployeeName) {
			c.SameEmployee = true
		}
		if primary.Quantity == e.Quantity || quantitiesClose(primary.Quantity, e.Quantity) {
			c.SimilarQuantity = true
		}
	}
	return c
}

// SortByRisk orders groups by descending risk, keeping detection order within a tier.
func SortByRisk(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Risk > groups[j].Risk
	})
}

// Summarize counts groups per tier.
func Summarize(groups []Group) Summary {
	s := Summary{Total: len(groups)}
	for _, g := range groups {
		switch g.Risk {
		case RiskHigh:
			s.High++
		case RiskMedium:
			s.Medium++
		case RiskLow:
			s.Low++
		}
	}
	return s
}

// FilterMinRisk keeps the groups rated at least floor.
func FilterMinRisk(groups []Group, floor RiskTier) []Group {
	out := groups[:0:0]
	for _, g := range groups {
		if g.Risk >= floor {
			out = append(out, g)
		}
	}
	return out
}
