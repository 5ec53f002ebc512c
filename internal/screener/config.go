package screener

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YearSessions is the trailing window used for 52-week high/low.
const YearSessions = 252

// Config holds every screening threshold. DefaultConfig carries the SEPA numbers;
// a YAML file may override any subset of them.
type Config struct {
	Liquidity LiquidityConfig `yaml:"liquidity"`
	Template  TemplateConfig  `yaml:"template"`
	VCP       VCPConfig       `yaml:"vcp"`
	Breakout  BreakoutConfig  `yaml:"breakout"`
	Grading   GradingConfig   `yaml:"grading"`
}

type LiquidityConfig struct {
	MinPrice        float64 `yaml:"min_price"`
	MinDollarVolume float64 `yaml:"min_dollar_volume"`
	VolumePeriod    int     `yaml:"volume_period"`
}

type TemplateConfig struct {
	MinHistory   int     `yaml:"min_history"`
	RiseLookback int     `yaml:"rise_lookback"` // sessions, ~one month
	MinAboveLow  float64 `yaml:"min_above_low"` // price >= low52 * (1 + x)
	MinOfHigh    float64 `yaml:"min_of_high"`   // price / high52 >= x
	MinRS        int     `yaml:"min_rs"`
}

type VCPConfig struct {
	MinHistory       int     `yaml:"min_history"`
	RecentATRWindow  int     `yaml:"recent_atr_window"`
	BaseATRWindow    int     `yaml:"base_atr_window"`
	ContractionRatio float64 `yaml:"contraction_ratio"`
	ShortVolume      int     `yaml:"short_volume"`
	LongVolume       int     `yaml:"long_volume"`
	DryUpRatio       float64 `yaml:"dry_up_ratio"`
	TightWindow      int     `yaml:"tight_window"`
	MaxTightRange    float64 `yaml:"max_tight_range"`
	HighWindow       int     `yaml:"high_window"`
	NearHighRatio    float64 `yaml:"near_high_ratio"`
	BreakdownWindow  int     `yaml:"breakdown_window"`
	BreakdownBuffer  float64 `yaml:"breakdown_buffer"`
}

type BreakoutConfig struct {
	PivotLookback  int     `yaml:"pivot_lookback"`
	VolumePeriod   int     `yaml:"volume_period"`
	MinVolumeRatio float64 `yaml:"min_volume_ratio"`
	BaseWindow     int     `yaml:"base_window"`
	MaxBaseWidth   float64 `yaml:"max_base_width"`
	GradeA         Tier    `yaml:"grade_a"`
	GradeB         Tier    `yaml:"grade_b"`
}

// Tier is a breakout grade floor: both bounds must be met.
type Tier struct {
	MinPercentAbove float64 `yaml:"min_percent_above"`
	MinVolumeRatio  float64 `yaml:"min_volume_ratio"`
}

type GradingConfig struct {
	LeaderRS int `yaml:"leader_rs"` // breakout + template + RS >= this is an A
}

// DefaultConfig returns the standard SEPA thresholds.
func DefaultConfig() Config {
	return Config{
		Liquidity: LiquidityConfig{
			MinPrice:        5,
			MinDollarVolume: 5_000_000,
			VolumePeriod:    50,
		},
		Template: TemplateConfig{
			MinHistory:   200,
			RiseLookback: 22,
			MinAboveLow:  0.25,
			MinOfHigh:    0.75,
			MinRS:        70,
		},
		VCP: VCPConfig{
			MinHistory:       65,
			RecentATRWindow:  20,
			BaseATRWindow:    60,
			ContractionRatio: 0.75,
			ShortVolume:      5,
			LongVolume:       50,
			DryUpRatio:       0.80,
			TightWindow:      10,
			MaxTightRange:    0.08,
			HighWindow:       60,
			NearHighRatio:    0.85,
			BreakdownWindow:  10,
			BreakdownBuffer:  0.02,
		},
		Breakout: BreakoutConfig{
			PivotLookback:  10,
			VolumePeriod:   50,
			MinVolumeRatio: 1.4,
			BaseWindow:     20,
			MaxBaseWidth:   0.25,
			GradeA:         Tier{MinPercentAbove: 0.03, MinVolumeRatio: 2.0},
			GradeB:         Tier{MinPercentAbove: 0.02, MinVolumeRatio: 1.5},
		},
		Grading: GradingConfig{LeaderRS: 80},
	}
}

// LoadConfig reads YAML overrides on top of DefaultConfig. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read thresholds %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse thresholds %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("thresholds %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects window sizes that would make every evaluation unavailable.
func (c Config) Validate() error {
	windows := map[string]int{
		"liquidity.volume_period": c.Liquidity.VolumePeriod,
		"template.min_history":    c.Template.MinHistory,
		"template.rise_lookback":  c.Template.RiseLookback,
		"vcp.recent_atr_window":   c.VCP.RecentATRWindow,
		"vcp.base_atr_window":     c.VCP.BaseATRWindow,
		"vcp.short_volume":        c.VCP.ShortVolume,
		"vcp.long_volume":         c.VCP.LongVolume,
		"vcp.tight_window":        c.VCP.TightWindow,
		"vcp.high_window":         c.VCP.HighWindow,
		"vcp.breakdown_window":    c.VCP.BreakdownWindow,
		"breakout.pivot_lookback": c.Breakout.PivotLookback,
		"breakout.volume_period":  c.Breakout.VolumePeriod,
		"breakout.base_window":    c.Breakout.BaseWindow,
	}
	for name, v := range windows {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if c.Template.MinRS < 1 || c.Template.MinRS > 99 {
		return fmt.Errorf("template.min_rs must be in [1, 99], got %d", c.Template.MinRS)
	}
	return nil
}
