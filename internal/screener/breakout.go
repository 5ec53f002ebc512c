package screener

import (
	"sepa-screener/internal/indicator"
	"sepa-screener/internal/model"
)

// breakoutPadding is the history required beyond the pivot lookback.
const breakoutPadding = 5

// DetectBreakout looks for today's close clearing the pivot high (max high of
// the PivotLookback sessions before today) on expanded volume, out of a base no
// wider than MaxBaseWidth. It returns nil when there is no breakout.
func DetectBreakout(bars []model.Bar, cfg BreakoutConfig) *Breakout {
	n := len(bars)
	if n < cfg.PivotLookback+breakoutPadding || n < 2 {
		return nil
	}
	today := bars[n-1]
	prior := bars[:n-1]

	pivot, ok := indicator.HighestHigh(prior, cfg.PivotLookback)
	if !ok || pivot <= 0 || today.Close <= pivot {
		return nil
	}

	avgVol, ok := indicator.AvgVolume(bars, cfg.VolumePeriod)
	if !ok || avgVol <= 0 {
		return nil
	}
	volumeRatio := float64(today.Volume) / avgVol
	if volumeRatio < cfg.MinVolumeRatio {
		return nil
	}

	baseHigh, okH := indicator.HighestHigh(prior, cfg.BaseWindow)
	baseLow, okL := indicator.LowestLow(prior, cfg.BaseWindow)
	if !okH || !okL || (baseHigh-baseLow)/today.Close > cfg.MaxBaseWidth {
		return nil
	}

	b := &Breakout{
		PivotHigh:    pivot,
		PercentAbove: (today.Close - pivot) / pivot,
		VolumeRatio:  volumeRatio,
	}
	b.Grade = gradeBreakout(b.PercentAbove, b.VolumeRatio, cfg)
	return b
}

func gradeBreakout(percentAbove, volumeRatio float64, cfg BreakoutConfig) Grade {
	switch {
	case percentAbove >= cfg.GradeA.MinPercentAbove && volumeRatio >= cfg.GradeA.MinVolumeRatio:
		return GradeA
	case percentAbove >= cfg.GradeB.MinPercentAbove && volumeRatio >= cfg.GradeB.MinVolumeRatio:
		return GradeB
	default:
		return GradeC
	}
}
