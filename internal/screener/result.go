package screener

// Grade is the overall SEPA rating assigned in post-processing.
type Grade string

const (
	GradeA  Grade = "A"
	GradeB  Grade = "B"
	GradeC  Grade = "C"
	GradeD  Grade = "D"
	GradeNA Grade = "N/A"
)

// TemplateCriteria reports each structural Trend Template test.
type TemplateCriteria struct {
	AboveLongMAs  bool `json:"above_150_200"`
	MA150Above200 bool `json:"ma150_above_200"`
	MA200Rising   bool `json:"ma200_rising"`
	MA50AboveLong bool `json:"ma50_above_150_200"`
	AboveMA50     bool `json:"above_50"`
	AboveLow52    bool `json:"above_52w_low"`
	NearHigh52    bool `json:"near_52w_high"`
}

// Count returns how many of the seven criteria passed.
func (c TemplateCriteria) Count() int {
	n := 0
	for _, ok := range []bool{
		c.AboveLongMAs, c.MA150Above200, c.MA200Rising, c.MA50AboveLong,
		c.AboveMA50, c.AboveLow52, c.NearHigh52,
	} {
		if ok {
			n++
		}
	}
	return n
}

// Breakout describes a qualifying pivot breakout.
type Breakout struct {
	PivotHigh    float64 `json:"pivot_high"`
	PercentAbove float64 `json:"percent_above"`
	VolumeRatio  float64 `json:"volume_ratio"`
	Grade        Grade   `json:"grade"` // A, B or C
}

// Metrics are the indicator values behind a verdict.
type Metrics struct {
	SMA50        float64 `json:"sma50"`
	SMA150       float64 `json:"sma150"`
	SMA200       float64 `json:"sma200"`
	ATR14        float64 `json:"atr14"`
	AvgVolume50  float64 `json:"avg_volume50"`
	DollarVolume float64 `json:"dollar_volume"`
	High52       float64 `json:"high52"`
	Low52        float64 `json:"low52"`
	PctAboveLow  float64 `json:"pct_above_low"`
	PctBelowHigh float64 `json:"pct_below_high"`
}

// Candidate is a phase-one verdict for one symbol. It carries no RS rank and
// no grade; those exist only on Result after PostProcess.
type Candidate struct {
	Symbol string  `json:"symbol"`
	AsOf   string  `json:"as_of"`
	Price  float64 `json:"price"`
	RawRS  float64 `json:"raw_rs"`
	Liquid bool    `json:"liquid"`
	Metrics

	Criteria   TemplateCriteria `json:"criteria"`
	Structural bool             `json:"structural"` // all seven criteria
	VCP        bool             `json:"vcp"`        // implies Structural
	Breakout   *Breakout        `json:"breakout,omitempty"`
}

// CriteriaCount is the number of structural criteria that passed.
func (c Candidate) CriteriaCount() int {
	return c.Criteria.Count()
}

// Result is a finalized screening record.
type Result struct {
	Candidate
	RS             int   `json:"rs"`
	PassesTemplate bool  `json:"passes_template"`
	PassesVCP      bool  `json:"passes_vcp"`
	PassesBreakout bool  `json:"passes_breakout"`
	Grade          Grade `json:"grade"`
}
