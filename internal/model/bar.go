package model

import (
	"errors"
	"fmt"
	"time"
)

// Bar represents one daily OHLCV session.
// Shared by provider, store and serialization (json, parquet).
type Bar struct {
	Timestamp    int64   `json:"t" parquet:"t"` // Unix timestamp in milliseconds (session open, UTC)
	Open         float64 `json:"o" parquet:"o"`
	High         float64 `json:"h" parquet:"h"`
	Low          float64 `json:"l" parquet:"l"`
	Close        float64 `json:"c" parquet:"c"`
	Volume       int64   `json:"v" parquet:"v"`
	VWAP         float64 `json:"vw,omitempty" parquet:"vw,optional"` // Volume weighted average price
	Transactions int64   `json:"n,omitempty" parquet:"n,optional"`   // Number of transactions
}

// Time returns the bar timestamp in UTC.
func (b Bar) Time() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}

// DayKey returns the calendar date as YYYYMMDD. Two bars on the same
// session share a key regardless of intraday timestamp.
func (b Bar) DayKey() int {
	t := b.Time()
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Date returns the session date formatted as 2006-01-02.
func (b Bar) Date() string {
	return b.Time().Format("2006-01-02")
}

var (
	ErrUnsortedSeries = errors.New("series not in ascending date order")
	ErrDuplicateDate  = errors.New("series has duplicate date")
)

// ValidateSeries checks the ordering contract every computation relies on:
// ascending by date, one bar per date.
func ValidateSeries(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].DayKey(), bars[i].DayKey()
		switch {
		case cur == prev:
			return fmt.Errorf("%w: %s at index %d", ErrDuplicateDate, bars[i].Date(), i)
		case cur < prev:
			return fmt.Errorf("%w: %s after %s at index %d", ErrUnsortedSeries, bars[i].Date(), bars[i-1].Date(), i)
		}
	}
	return nil
}

// Last returns the most recent bar. Callers must check len(bars) > 0.
func Last(bars []Bar) Bar {
	return bars[len(bars)-1]
}

// Closes extracts close prices in series order.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
