// Package screener classifies a symbol against the SEPA Trend Template,
// Volatility Contraction Pattern and pivot Breakout rules.
//
// Screening runs in two phases. Evaluate is a pure per-symbol step that may
// run concurrently across symbols. PostProcess runs once over the whole batch,
// because the RS rating is a percentile of the population.
package screener

import (
	"fmt"

	"sepa-screener/internal/indicator"
	"sepa-screener/internal/model"
	"sepa-screener/internal/rs"
)

// ATRPeriod is the ATR reported on every candidate.
const ATRPeriod = 14

// Evaluate runs phase one for a single symbol. It returns (nil, nil) when the
// symbol has too little history or fails the liquidity floor; neither is an
// error. A non-nil error means a series broke the ordering contract.
func Evaluate(symbol string, series, benchmark []model.Bar, cfg Config) (*Candidate, error) {
	if err := model.ValidateSeries(series); err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	if err := model.ValidateSeries(benchmark); err != nil {
		return nil, fmt.Errorf("benchmark for %s: %w", symbol, err)
	}
	if len(series) < cfg.Template.MinHistory {
		return nil, nil
	}
	liq := CheckLiquidity(series, cfg.Liquidity)
	if !liq.Liquid {
		return nil, nil
	}

	last := model.Last(series)
	c := &Candidate{
		Symbol: symbol,
		AsOf:   last.Date(),
		Price:  last.Close,
		RawRS:  rs.RawScore(series, benchmark),
		Liquid: true,
		Metrics: Metrics{
			AvgVolume50:  liq.AvgVolume,
			DollarVolume: liq.DollarVolume,
		},
	}
	c.ATR14, _ = indicator.ATR(series, ATRPeriod)

	trend, ok := ComputeTrend(series, cfg.Template)
	if ok {
		c.SMA50, c.SMA150, c.SMA200 = trend.SMA50, trend.SMA150, trend.SMA200
		c.High52, c.Low52 = trend.High52, trend.Low52
		if c.Low52 > 0 {
			c.PctAboveLow = (c.Price - c.Low52) / c.Low52
		}
		if c.High52 > 0 {
			c.PctBelowHigh = (c.High52 - c.Price) / c.High52
		}
		c.Criteria = CheckTemplate(c.Price, trend, cfg.Template)
		c.Structural = c.Criteria.Count() == 7
	}

	c.VCP = c.Structural && CheckVCP(series, cfg.VCP).Pass()
	c.Breakout = DetectBreakout(series, cfg.Breakout)
	return c, nil
}

// PostProcess runs phase two over a complete batch: percentile-rank the raw
// RS scores, apply the RS >= MinRS template criterion, drop VCP verdicts whose
// template no longer holds, and grade. Output order matches input order.
//
// PostProcess reads only phase-one fields, so calling it again on the same
// candidates yields the same results.
func PostProcess(cands []Candidate, cfg Config) []Result {
	scores := make([]float64, len(cands))
	for i, c := range cands {
		scores[i] = c.RawRS
	}
	ranks := rs.Rank(scores)

	out := make([]Result, len(cands))
	for i, c := range cands {
		r := Result{Candidate: c, RS: ranks[i]}
		r.PassesTemplate = c.Structural && r.RS >= cfg.Template.MinRS
		r.PassesVCP = c.VCP && r.PassesTemplate
		r.PassesBreakout = c.Breakout != nil
		r.Grade = grade(r, cfg)
		out[i] = r
	}
	return out
}

func grade(r Result, cfg Config) Grade {
	switch {
	case r.PassesBreakout && r.PassesTemplate && r.RS >= cfg.Grading.LeaderRS:
		return GradeA
	case r.PassesBreakout && r.PassesTemplate:
		return GradeB
	case r.PassesTemplate && r.PassesVCP && r.RS >= cfg.Template.MinRS:
		return GradeB
	case r.PassesTemplate && r.RS >= cfg.Template.MinRS:
		return GradeC
	case r.PassesTemplate:
		return GradeD
	default:
		return GradeNA
	}
}
