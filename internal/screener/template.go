package screener

import (
	"sepa-screener/internal/indicator"
	"sepa-screener/internal/model"
)

// Trend holds the moving averages and yearly range a template check reads.
type Trend struct {
	SMA50, SMA150, SMA200 float64
	SMA200Prior           float64 // SMA200 RiseLookback sessions ago
	PriorOK               bool
	High52, Low52         float64
}

// ComputeTrend returns ok == false when any of the three averages is unavailable.
func ComputeTrend(bars []model.Bar, cfg TemplateConfig) (Trend, bool) {
	var t Trend
	var ok50, ok150, ok200 bool
	t.SMA50, ok50 = indicator.SMA(bars, 50)
	t.SMA150, ok150 = indicator.SMA(bars, 150)
	t.SMA200, ok200 = indicator.SMA(bars, 200)
	if !ok50 || !ok150 || !ok200 {
		return t, false
	}
	t.SMA200Prior, t.PriorOK = indicator.SMAAt(bars, 200, len(bars)-1-cfg.RiseLookback)
	t.High52, _ = indicator.HighestHigh(bars, YearSessions)
	t.Low52, _ = indicator.LowestLow(bars, YearSessions)
	return t, true
}

// CheckTemplate scores the seven structural criteria against price. The RS
// criterion is not part of this check; it is applied once ranks exist.
func CheckTemplate(price float64, t Trend, cfg TemplateConfig) TemplateCriteria {
	return TemplateCriteria{
		AboveLongMAs:  price > t.SMA150 && price > t.SMA200,
		MA150Above200: t.SMA150 > t.SMA200,
		MA200Rising:   t.PriorOK && t.SMA200 > t.SMA200Prior,
		MA50AboveLong: t.SMA50 > t.SMA150 && t.SMA50 > t.SMA200,
		AboveMA50:     price > t.SMA50,
		AboveLow52:    t.Low52 > 0 && price >= t.Low52*(1+cfg.MinAboveLow),
		NearHigh52:    t.High52 > 0 && price/t.High52 >= cfg.MinOfHigh,
	}
}
