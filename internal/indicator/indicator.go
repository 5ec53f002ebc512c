// Package indicator holds pure numeric functions over ascending bar series.
// Every function returns (value, ok); ok == false means the series is too short
// for the requested window, which is distinct from a legitimate zero value.
package indicator

import (
	"math"

	"sepa-screener/internal/model"
)

// SMA is the arithmetic mean of the last period closes.
func SMA(bars []model.Bar, period int) (float64, bool) {
	return SMAAt(bars, period, len(bars)-1)
}

// SMAAt is SMA anchored at index: the mean of closes in (index-period, index].
func SMAAt(bars []model.Bar, period, index int) (float64, bool) {
	if period <= 0 || index < 0 || index >= len(bars) || index-period+1 < 0 {
		return 0, false
	}
	sum := 0.0
	for i := index - period + 1; i <= index; i++ {
		sum += bars[i].Close
	}
	return sum / float64(period), true
}

// TrueRanges returns max(high-low, |high-prevClose|, |low-prevClose|) per bar.
// The first bar uses its own close as previous close.
func TrueRanges(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		prevClose := b.Close
		if i > 0 {
			prevClose = bars[i-1].Close
		}
		out[i] = math.Max(b.High-b.Low, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}
	return out
}

// ATR is the arithmetic mean of the last period true ranges. Needs period+1 bars.
func ATR(bars []model.Bar, period int) (float64, bool) {
	return ATRAt(bars, period, len(bars)-1)
}

// ATRAt is ATR anchored at index.
func ATRAt(bars []model.Bar, period, index int) (float64, bool) {
	if period <= 0 || index < 0 || index >= len(bars) || index-period < 0 {
		return 0, false
	}
	tr := TrueRanges(bars[:index+1])
	sum := 0.0
	for _, v := range tr[len(tr)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// AvgVolume is the arithmetic mean of the last period volumes.
func AvgVolume(bars []model.Bar, period int) (float64, bool) {
	if period <= 0 || len(bars) < period {
		return 0, false
	}
	var sum int64
	for _, b := range bars[len(bars)-period:] {
		sum += b.Volume
	}
	return float64(sum) / float64(period), true
}

// HighestHigh is the max high over the last period bars. A period longer than
// the series uses all available bars; an empty series is unavailable.
func HighestHigh(bars []model.Bar, period int) (float64, bool) {
	w := window(bars, period)
	if len(w) == 0 {
		return 0, false
	}
	hi := w[0].High
	for _, b := range w[1:] {
		hi = math.Max(hi, b.High)
	}
	return hi, true
}

// LowestLow is the min low over the last period bars, with the same
// short-series behaviour as HighestHigh.
func LowestLow(bars []model.Bar, period int) (float64, bool) {
	w := window(bars, period)
	if len(w) == 0 {
		return 0, false
	}
	lo := w[0].Low
	for _, b := range w[1:] {
		lo = math.Min(lo, b.Low)
	}
	return lo, true
}

func window(bars []model.Bar, period int) []model.Bar {
	if period <= 0 {
		return nil
	}
	if period >= len(bars) {
		return bars
	}
	return bars[len(bars)-period:]
}
