// Package seed generates realistic sample measurements for demos and load
// tests. A share of the output is planted as near or exact copies of earlier
// entries so that duplicate detection has something to find.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bautagebuch/internal/domain/model"
	"github.com/okian/bautagebuch/pkg/logger"
)

// Defaults.
const (
	DefaultEntries       = 50
	DefaultDuplicateRate = 0.2
	DefaultDays          = 14
)

// Config controls generation.
type Config struct {
	Entries       int       // number of entries to generate
	DuplicateRate float64   // share of entries planted as copies, in [0,1]
	Days          int       // spread of entry dates, counted back from Until
	Until         time.Time // last possible entry date
	Seed          uint64    // same seed, same output
}

// Stats describes a generated batch.
type Stats struct {
	Generated int `json:"generated"`
	Planted   int `json:"planted"`
}

var (
	locations = []string{"Erdgeschoss", "1. Obergeschoss", "2. Obergeschoss", "Keller", "Dach", "Treppenhaus", "Tiefgarage"}
	rooms     = []string{"", "0.01", "0.12", "1.04", "1.07", "2.03"}
	materials = []struct{ name, unit string }{
		{"Putz", "m²"},
		{"Estrich", "m²"},
		{"Beton C25/30", "m³"},
		{"Fliesen", "m²"},
		{"Trockenbauwand", "m²"},
		{"Dämmung", "m²"},
		{"Bewehrungsstahl", "t"},
		{"Kabelkanal", "m"},
	}
	employees = []string{"Max Müller", "Anna Schmidt", "Jonas Weber", "Lea Fischer", "Tim Becker"}
	remarks   = []string{"", "", "", "Nachbesserung", "laut Plan", "Restarbeiten"}
)

// namespace derives deterministic entry IDs from the seed.
var namespace = uuid.MustParse("6f1c2a9e-3d5b-4c8e-9a7f-2b1d0e4c6a58")

// Generate builds cfg.Entries measurements. Entries are returned in creation
// order; planted copies always follow the entry they copy.
func Generate(ctx context.Context, cfg Config) ([]model.MeasurementEntry, Stats, error) {
	if cfg.Entries < 0 {
		return nil, Stats{}, fmt.Errorf("seed: negative entry count %d", cfg.Entries)
	}
	if cfg.DuplicateRate < 0 || cfg.DuplicateRate > 1 {
		return nil, Stats{}, fmt.Errorf("seed: duplicate rate %v outside [0,1]", cfg.DuplicateRate)
	}
	if cfg.Days <= 0 {
		cfg.Days = DefaultDays
	}
	if cfg.Until.IsZero() {
		cfg.Until = time.Now()
	}
	until := model.Day(cfg.Until)

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // sample data
	entries := make([]model.MeasurementEntry, 0, cfg.Entries)
	var stats Stats

	for i := 0; i < cfg.Entries; i++ {
		if err := ctx.Err(); err != nil {
			return nil, Stats{}, fmt.Errorf("seed: %w", err)
		}
		id := uuid.NewSHA1(namespace, []byte(strconv.FormatUint(cfg.Seed, 10)+"/"+strconv.Itoa(i))).String()

		var e model.MeasurementEntry
		if len(entries) > 0 && rng.Float64() < cfg.DuplicateRate {
			e = plant(rng, entries[rng.IntN(len(entries))])
			stats.Planted++
		} else {
			e = fresh(rng, until, cfg.Days)
		}
		e.ID = id
		entries = append(entries, e)
	}
	stats.Generated = len(entries)

	logger.Get().Debug(ctx, "sample entries generated",
		logger.Int("generated", stats.Generated),
		logger.Int("planted", stats.Planted),
	)
	return entries, stats, nil
}

func fresh(rng *rand.Rand, until time.Time, days int) model.MeasurementEntry {
	m := materials[rng.IntN(len(materials))]
	return model.MeasurementEntry{
		Date:         until.AddDate(0, 0, -rng.IntN(days)),
		Location:     locations[rng.IntN(len(locations))],
		RoomNumber:   rooms[rng.IntN(len(rooms))],
		MaterialName: m.name,
		Unit:         m.unit,
		EmployeeName: employees[rng.IntN(len(employees))],
		Quantity:     quantity(rng),
		Remarks:      remarks[rng.IntN(len(remarks))],
	}
}

// plant copies src with one of the typical double-entry mistakes.
func plant(rng *rand.Rand, src model.MeasurementEntry) model.MeasurementEntry {
	e := src
	e.Remarks = ""
	switch rng.IntN(4) {
	case 0:
		// resubmitted as is
	case 1:
		// re-measured, slightly different quantity
		e.Quantity = round2(src.Quantity * (0.95 + rng.Float64()*0.1))
	case 2:
		// a colleague entered the same work
		e.EmployeeName = employees[(indexOf(employees, src.EmployeeName)+1)%len(employees)]
	default:
		// booked on the following day
		e.Date = src.Date.AddDate(0, 0, 1)
	}
	return e
}

func quantity(rng *rand.Rand) float64 {
	return round2(0.5 + rng.Float64()*120)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return 0
}
