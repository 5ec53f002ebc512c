package screener

import (
	"sepa-screener/internal/indicator"
	"sepa-screener/internal/model"
)

// Liquidity is the outcome of the price and dollar-volume floor.
type Liquidity struct {
	Price        float64
	AvgVolume    float64
	DollarVolume float64
	Liquid       bool
}

// CheckLiquidity applies the price floor and the trailing dollar-volume floor
// (latest close times average share volume). A series too short for the
// volume average is illiquid.
func CheckLiquidity(bars []model.Bar, cfg LiquidityConfig) Liquidity {
	if len(bars) == 0 {
		return Liquidity{}
	}
	l := Liquidity{Price: model.Last(bars).Close}
	avg, ok := indicator.AvgVolume(bars, cfg.VolumePeriod)
	if !ok {
		return l
	}
	l.AvgVolume = avg
	l.DollarVolume = l.Price * avg
	l.Liquid = l.Price >= cfg.MinPrice && l.DollarVolume >= cfg.MinDollarVolume
	return l
}
