package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sepa-screener/internal/model"
	"sepa-screener/internal/model/modeltest"
)

// baseBars returns 59 sessions closing at 98 with a 100 high and 95 low on
// 1,000 shares, followed by one session closing at close on volume shares.
// With a 50-session average that includes today, volume v gives a ratio of
// 50v / (49000 + v).
func baseBars(close float64, volume int64) []model.Bar {
	bars := modeltest.Flat(60, 98, 1000)
	for i := range bars {
		bars[i].High = 100
		bars[i].Low = 95
	}
	today := &bars[len(bars)-1]
	today.Open = 99
	today.Close = close
	today.High = close + 0.5
	today.Low = 98
	today.Volume = volume
	return bars
}

func TestDetectBreakout_Grades(t *testing.T) {
	cfg := DefaultConfig().Breakout
	tests := []struct {
		name   string
		close  float64
		volume int64
		want   Grade
	}{
		{"4% above on 2.1x", 104, 2150, GradeA},
		{"2.5% above on 1.6x", 102.5, 1650, GradeB},
		{"4% above on 1.6x", 104, 1650, GradeB},
		{"2.5% above on 2.1x", 102.5, 2150, GradeB},
		{"1.1% above on 2.1x", 101.1, 2150, GradeC},
		{"1.1% above on 1.45x", 101.1, 1480, GradeC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := DetectBreakout(baseBars(tt.close, tt.volume), cfg)
			require.NotNil(t, b)
			assert.Equal(t, 100.0, b.PivotHigh)
			assert.InDelta(t, (tt.close-100)/100, b.PercentAbove, 1e-12)
			assert.InDelta(t, 50*float64(tt.volume)/(49000+float64(tt.volume)), b.VolumeRatio, 1e-12)
			assert.Equal(t, tt.want, b.Grade)
		})
	}
}

func TestDetectBreakout_None(t *testing.T) {
	cfg := DefaultConfig().Breakout

	assert.Nil(t, DetectBreakout(baseBars(100, 3000), cfg), "close at pivot")
	assert.Nil(t, DetectBreakout(baseBars(99.5, 3000), cfg), "close below pivot")
	assert.Nil(t, DetectBreakout(baseBars(104, 1200), cfg), "volume ratio under 1.4")

	wide := baseBars(104, 3000)
	wide[45].Low = 70
	assert.Nil(t, DetectBreakout(wide, cfg), "base wider than 25%")

	short := baseBars(104, 3000)[46:]
	require.Len(t, short, 14)
	assert.Nil(t, DetectBreakout(short, cfg), "fewer than pivot lookback + 5 sessions")

	noAvg := baseBars(104, 3000)[20:]
	assert.Nil(t, DetectBreakout(noAvg, cfg), "50-session volume average unavailable")
}

func TestDetectBreakout_PivotExcludesToday(t *testing.T) {
	bars := baseBars(104, 3000)
	// A spike older than the pivot window does not raise the pivot.
	bars[40].High = 103
	b := DetectBreakout(bars, DefaultConfig().Breakout)
	require.NotNil(t, b)
	assert.Equal(t, 100.0, b.PivotHigh)

	bars[55].High = 103.5
	b = DetectBreakout(bars, DefaultConfig().Breakout)
	require.NotNil(t, b)
	assert.Equal(t, 103.5, b.PivotHigh)
	assert.Equal(t, GradeC, b.Grade)
}
