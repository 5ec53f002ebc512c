// Package rs scores a symbol's outperformance against a benchmark and turns a
// population of scores into 1-99 percentile ranks.
package rs

import (
	"math"
	"sort"

	"sepa-screener/internal/model"
)

const (
	// MinAligned is the fewest shared sessions for a non-neutral score.
	MinAligned = 60
	// QuarterLen is a fixed session count, not a calendar quarter.
	QuarterLen = 63

	MinRank = 1
	MaxRank = 99
)

// Weights apply to Q1 (most recent) through Q4.
var Weights = [4]float64{0.4, 0.2, 0.2, 0.2}

// Pair is one session present in both series.
type Pair struct {
	DayKey    int
	Stock     float64
	Benchmark float64
}

// Align inner-joins stock and benchmark closes by date, ascending.
func Align(stock, benchmark []model.Bar) []Pair {
	bench := make(map[int]float64, len(benchmark))
	for _, b := range benchmark {
		bench[b.DayKey()] = b.Close
	}
	out := make([]Pair, 0, min(len(stock), len(benchmark)))
	for _, s := range stock {
		k := s.DayKey()
		if c, ok := bench[k]; ok {
			out = append(out, Pair{DayKey: k, Stock: s.Close, Benchmark: c})
		}
	}
	return out
}

// Quarters returns stock-minus-benchmark return for each of the four
// non-overlapping windows counted back from the latest aligned session.
// Windows clamped to fewer than two sessions contribute 0.
func Quarters(aligned []Pair) [4]float64 {
	var out [4]float64
	end := len(aligned) // exclusive
	for q := range out {
		start := max(end-QuarterLen, 0)
		if end-start >= 2 {
			w := aligned[start:end]
			out[q] = simpleReturn(w[0].Stock, w[len(w)-1].Stock) - simpleReturn(w[0].Benchmark, w[len(w)-1].Benchmark)
		}
		end = start
	}
	return out
}

// RawScore is the quarter-weighted outperformance. Fewer than MinAligned shared
// sessions yields a neutral 0.
func RawScore(stock, benchmark []model.Bar) float64 {
	aligned := Align(stock, benchmark)
	if len(aligned) < MinAligned {
		return 0
	}
	q := Quarters(aligned)
	score := 0.0
	for i, out := range q {
		score += Weights[i] * out
	}
	return score
}

func simpleReturn(first, last float64) float64 {
	if first == 0 {
		return 0
	}
	return last/first - 1
}

// Rank maps each score to round((position+1)/n*99) clamped to [1, 99], where
// position is its index after a stable ascending sort. Equal scores therefore
// rank by input order: the later entry gets the higher rank.
func Rank(scores []float64) []int {
	n := len(scores)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})
	ranks := make([]int, n)
	for pos, idx := range order {
		r := int(math.Round(float64(pos+1) / float64(n) * MaxRank))
		ranks[idx] = min(max(r, MinRank), MaxRank)
	}
	return ranks
}
