// Package modeltest builds synthetic daily series for tests.
package modeltest

import (
	"math"
	"time"

	"sepa-screener/internal/model"
)

// Start is the first session used by the builders.
var Start = time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC)

// TradingDays returns n weekday timestamps (ms) starting at Start.
func TradingDays(n int) []int64 {
	out := make([]int64, 0, n)
	for d := Start; len(out) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		out = append(out, d.UnixMilli())
	}
	return out
}

// FromCloses builds bars with high/low at ±spread of close and constant volume.
func FromCloses(closes []float64, spread float64, volume int64) []model.Bar {
	days := TradingDays(len(closes))
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Timestamp: days[i],
			Open:      c,
			High:      c * (1 + spread),
			Low:       c * (1 - spread),
			Close:     c,
			Volume:    volume,
		}
	}
	return bars
}

// Flat returns n identical sessions (constant OHLC and volume).
func Flat(n int, price float64, volume int64) []model.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return FromCloses(closes, 0, volume)
}

// Geometric returns n sessions compounding at rate per session from start.
func Geometric(n int, start, rate, spread float64, volume int64) []model.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start * math.Pow(1+rate, float64(i))
	}
	return FromCloses(closes, spread, volume)
}
