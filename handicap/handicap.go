package handicap

import (
	"math"
	"sort"

	"github.com/handirank/handirank/models"
)

const (
	// BonusMultiplier is the USGA "bonus for excellence" applied to the
	// displayed index. Ranking and admin election always compare the raw
	// average, never the multiplied value.
	BonusMultiplier = 0.96

	// NoHandicap marks a player with no usable differentials. The source
	// system used 999 in some places and 0 in others; 999 is the one
	// sentinel here, everywhere handicaps are compared. Lower is better,
	// so sentinel players sort last.
	NoHandicap = 999.0

	// grossAdjustment is subtracted from every gross score regardless of
	// hole count. Nine-hole rounds arguably deserve their own treatment,
	// but the uniform constant is the established behavior.
	grossAdjustment = 2

	baseSlope = 113
)

// AdjustedGross applies the fixed scoring adjustment to a gross score.
func AdjustedGross(gross int) int {
	return gross - grossAdjustment
}

// Differential normalizes a single round against course difficulty:
// (adjustedGross - rating) * 113 / slope, rounded to two decimals. This is
// the stored value; all downstream math consumes it as-is. A non-positive
// slope yields NaN, which every consumer skips.
func Differential(gross int, rating float64, slope int) float64 {
	if slope <= 0 {
		return math.NaN()
	}
	d := (float64(AdjustedGross(gross)) - rating) * baseSlope / float64(slope)
	return round2(d)
}

// ScoresToUse returns how many of the lowest differentials count toward the
// average for a given total. Exact thresholds, no interpolation.
func ScoresToUse(total int) int {
	switch {
	case total >= 20:
		return 8
	case total >= 15:
		return 6
	case total >= 10:
		return 4
	case total >= 5:
		return 3
	default:
		return total
	}
}

// Average computes the best-N mean of a differential set, rounded to two
// decimals. Input order does not matter. NaN and infinite entries are
// dropped rather than poisoning the result; with nothing usable left the
// sentinel is returned.
func Average(diffs []float64) float64 {
	usable := make([]float64, 0, len(diffs))
	for _, d := range diffs {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		usable = append(usable, d)
	}
	if len(usable) == 0 {
		return NoHandicap
	}

	sort.Float64s(usable)
	n := ScoresToUse(len(usable))

	var sum float64
	for _, d := range usable[:n] {
		sum += d
	}
	return round2(sum / float64(n))
}

// Index is the displayed handicap: Average scaled by the bonus multiplier,
// rounded to one decimal. The sentinel passes through unscaled.
func Index(diffs []float64) float64 {
	avg := Average(diffs)
	if avg == NoHandicap {
		return NoHandicap
	}
	return round1(avg * BonusMultiplier)
}

// IndexFromAverage converts an already-computed average to the displayed
// index under the same rules as Index.
func IndexFromAverage(avg float64) float64 {
	if avg == NoHandicap {
		return NoHandicap
	}
	return round1(avg * BonusMultiplier)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// PlayerAggregate accumulates one player's rounds in submission order.
type PlayerAggregate struct {
	Name            string
	Photo           string
	Diffs           []float64
	RecentGross     int
	recentPlayedAt  int64
	hasRecent       bool
	History         []models.RoundSummary
}

// Aggregate folds a round collection into per-player aggregates, preserving
// first-seen player order so later ranking stays deterministic on ties.
// Rounds whose differential is NaN are skipped entirely, mirroring the
// defensive isNaN handling of the original leaderboard: one corrupt row must
// not break the page.
func Aggregate(rounds []models.Round) []*PlayerAggregate {
	byName := make(map[string]*PlayerAggregate)
	order := make([]*PlayerAggregate, 0)

	for _, r := range rounds {
		if r.Player == "" {
			continue
		}
		if math.IsNaN(r.Differential) || math.IsInf(r.Differential, 0) {
			continue
		}

		agg, ok := byName[r.Player]
		if !ok {
			agg = &PlayerAggregate{Name: r.Player, Photo: r.PlayerPhoto}
			byName[r.Player] = agg
			order = append(order, agg)
		} else if agg.Photo == "" && r.PlayerPhoto != "" {
			// Fill a missing avatar from a later round, never overwrite.
			agg.Photo = r.PlayerPhoto
		}

		agg.Diffs = append(agg.Diffs, r.Differential)
		agg.History = append(agg.History, models.RoundSummary{
			PlayedAt:     r.PlayedAt,
			Gross:        r.Gross,
			Rating:       r.Rating,
			Slope:        r.Slope,
			Holes:        r.Holes,
			Differential: r.Differential,
			SeasonCode:   r.SeasonCode,
		})

		if !agg.hasRecent || r.PlayedAt.UnixNano() > agg.recentPlayedAt {
			agg.RecentGross = r.Gross
			agg.recentPlayedAt = r.PlayedAt.UnixNano()
			agg.hasRecent = true
		}
	}
	return order
}

// Rank orders aggregates ascending by best-N average and assigns 1-based
// ranks. The sort is stable: players tied on average keep their first-seen
// order from the input.
func Rank(aggs []*PlayerAggregate) []models.Standing {
	standings := make([]models.Standing, 0, len(aggs))
	for _, agg := range aggs {
		avg := Average(agg.Diffs)
		standings = append(standings, models.Standing{
			Player:      agg.Name,
			Photo:       agg.Photo,
			Rounds:      len(agg.Diffs),
			RecentGross: agg.RecentGross,
			Average:     avg,
			Index:       IndexFromAverage(avg),
			History:     agg.History,
		})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Average < standings[j].Average
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
