// Package duplicate scores measurement entries against each other and groups
// probable duplicate submissions by risk.
//
// The weights, partial credits and the 0.70 threshold are heuristic constants
// carried over unchanged from the logbook application that first used them;
// reviewers rely on scores being comparable across versions.
package duplicate

import (
	"math"
	"strings"
	"time"

	"github.com/okian/bautagebuch/internal/domain/model"
)

// Criterion weights. They sum to 1.0.
const (
	weightDate     = 0.30
	weightLocation = 0.25
	weightMaterial = 0.25
	weightEmployee = 0.15
	weightQuantity = 0.05
)

// Partial credits.
const (
	dateAdjacentScore = 0.20 // at most one day apart
	dateWeekScore     = 0.10 // at most seven days apart
	textContainsScore = 0.15 // one text contains the other
	quantityNearScore = weightQuantity / 2

	adjacentDays          = 1
	weekDays              = 7
	quantityRelativeLimit = 0.10
)

// DefaultThreshold is the minimum similarity for a pair to count as a probable duplicate.
const DefaultThreshold = 0.70

const hoursPerDay = 24

// Breakdown lists the contribution of every criterion to a similarity score.
type Breakdown struct {
	Date     float64 `json:"date"`
	Location float64 `json:"location"`
	Material float64 `json:"material"`
	Employee float64 `json:"employee"`
	Quantity float64 `json:"quantity"`
	Total    float64 `json:"total"`
}

// Similarity returns a score in [0,1] describing how alike a and b are.
// It is symmetric and Similarity(x, x) == 1 for every x.
func Similarity(a, b model.MeasurementEntry) float64 {
	return Explain(a, b).Total
}

// Explain computes the per-criterion contributions for a pair of entries.
func Explain(a, b model.MeasurementEntry) Breakdown {
	var bd Breakdown
	maxScore := 0.0

	maxScore += weightDate
	bd.Date = dateScore(a.Date, b.Date)

	maxScore += weightLocation
	bd.Location = textScore(a.Location, b.Location, weightLocation)

	maxScore += weightMaterial
	bd.Material = textScore(a.MaterialName, b.MaterialName, weightMaterial)

	maxScore += weightEmployee
	if equalFold(a.EmployeeName, b.EmployeeName) {
		bd.Employee = weightEmployee
	}

	maxScore += weightQuantity
	switch {
	case a.Quantity == b.Quantity:
		bd.Quantity = weightQuantity
	case quantitiesClose(a.Quantity, b.Quantity):
		bd.Quantity = quantityNearScore
	}

	score := bd.Date + bd.Location + bd.Material + bd.Employee + bd.Quantity
	if maxScore > 0 {
		bd.Total = score / maxScore
	}
	return bd
}

// dayDistance returns the absolute number of calendar days between a and b.
func dayDistance(a, b time.Time) int {
	diff := model.Day(a).Sub(model.Day(b))
	days := int(math.Round(diff.Hours() / hoursPerDay))
	if days < 0 {
		return -days
	}
	return days
}

func sameDay(a, b time.Time) bool {
	return dayDistance(a, b) == 0
}

func dateScore(a, b time.Time) float64 {
	switch d := dayDistance(a, b); {
	case d == 0:
		return weightDate
	case d <= adjacentDays:
		return dateAdjacentScore
	case d <= weekDays:
		return dateWeekScore
	default:
		return 0
	}
}

// textScore grants full weight for a case-insensitive match and partial
// credit when one text contains the other.
func textScore(a, b string, weight float64) float64 {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	switch {
	case la == lb:
		return weight
	case strings.Contains(la, lb) || strings.Contains(lb, la):
		return textContainsScore
	default:
		return 0
	}
}

func equalFold(a, b string) bool {
	return strings.ToLower(a) == strings.ToLower(b)
}

// quantitiesClose reports whether a and b differ by at most 10% of the larger
// value. A non-positive larger value never counts as close.
func quantitiesClose(a, b float64) bool {
	larger := math.Max(a, b)
	if larger <= 0 || math.IsNaN(larger) {
		return false
	}
	return math.Abs(a-b)/larger <= quantityRelativeLimit
}
