package screener

import (
	"sepa-screener/internal/indicator"
	"sepa-screener/internal/model"
)

// VCPGates reports each volatility-contraction gate.
type VCPGates struct {
	Contracting bool
	VolumeDryUp bool
	TightRange  bool
	NearHighs   bool
	NoBreakdown bool
}

// Pass is true only when every gate passed.
func (g VCPGates) Pass() bool {
	return g.Contracting && g.VolumeDryUp && g.TightRange && g.NearHighs && g.NoBreakdown
}

// CheckVCP evaluates the contraction gates on their own. Callers combine the
// result with the structural template; a VCP without the template is not a VCP.
//
// Volatility compares mean true range over the recent window with the mean
// over the base window.
func CheckVCP(bars []model.Bar, cfg VCPConfig) VCPGates {
	var g VCPGates
	if len(bars) < cfg.MinHistory || len(bars) == 0 {
		return g
	}
	price := model.Last(bars).Close

	recent, okR := indicator.ATR(bars, cfg.RecentATRWindow)
	base, okB := indicator.ATR(bars, cfg.BaseATRWindow)
	g.Contracting = okR && okB && recent < cfg.ContractionRatio*base

	short, okS := indicator.AvgVolume(bars, cfg.ShortVolume)
	long, okL := indicator.AvgVolume(bars, cfg.LongVolume)
	g.VolumeDryUp = okS && okL && short < cfg.DryUpRatio*long

	hi, okH := indicator.HighestHigh(bars, cfg.TightWindow)
	lo, okLo := indicator.LowestLow(bars, cfg.TightWindow)
	g.TightRange = okH && okLo && price > 0 && (hi-lo)/price <= cfg.MaxTightRange

	high, ok := indicator.HighestHigh(bars, cfg.HighWindow)
	g.NearHighs = ok && price >= cfg.NearHighRatio*high

	recentLow, okRL := indicator.LowestLow(bars, cfg.BreakdownWindow)
	yearLow, okYL := indicator.LowestLow(bars, YearSessions)
	g.NoBreakdown = okRL && okYL && recentLow > yearLow*(1+cfg.BreakdownBuffer)
	return g
}
