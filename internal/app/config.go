package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Lookback bounds in calendar days.
const (
	DefaultLookbackDays = 550
	MinLookbackDays     = 300
	MaxLookbackDays     = 20000
)

// Config holds application configuration from env
type Config struct {
	DataProvider   string // polygon | packets
	TickersFile    string
	Benchmark      string
	DataDir        string
	SaveFormat     string // packet format: csv | json | parquet
	OutputDir      string
	OutputFormat   string // result format: csv | json | parquet
	LogLevel       string // debug | info | warn | error
	PolygonAPIKeys []string
	LookbackDays   int // calendar days of history to load
	Workers        int // 0 = provider default
	Top            int // rows printed after a screen
	ThresholdsFile string
	MetricsAddr    string
	RunHour        int // daily mode, UTC
	RunMinute      int
}

// LoadConfig reads config from environment
func LoadConfig() *Config {
	cfg := &Config{
		DataProvider:   strings.ToLower(getEnv("DATA_PROVIDER", "polygon")),
		TickersFile:    os.Getenv("TICKERS_FILE"),
		Benchmark:      strings.ToUpper(getEnv("BENCHMARK", "SPY")),
		DataDir:        getEnv("DATA_DIR", "data"),
		OutputDir:      getEnv("OUTPUT_DIR", "results"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ThresholdsFile: os.Getenv("THRESHOLDS_FILE"),
		MetricsAddr:    os.Getenv("METRICS_ADDR"),
		LookbackDays:   getEnvInt("LOOKBACK_DAYS", DefaultLookbackDays, MinLookbackDays, MaxLookbackDays),
		Workers:        getEnvInt("WORKERS", 0, 0, 1024),
		Top:            getEnvInt("TOP", 25, 0, 100000),
		RunHour:        getEnvInt("RUN_HOUR", 22, 0, 23),
		RunMinute:      getEnvInt("RUN_MINUTE", 30, 0, 59),
	}
	cfg.SaveFormat = getSaveFormat()
	cfg.OutputFormat = strings.ToLower(getEnv("OUTPUT_FORMAT", "csv"))
	cfg.PolygonAPIKeys = parsePolygonAPIKeys()
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the integer in key when it parses and lies in [lo, hi].
func getEnvInt(key string, def, lo, hi int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < lo || v > hi {
		return def
	}
	return v
}

func getSaveFormat() string {
	if v := os.Getenv("SAVE_FORMAT"); v != "" {
		return strings.ToLower(v)
	}
	switch os.Getenv("PROFILE") {
	case "dev", "development":
		return "csv"
	default:
		return "parquet"
	}
}

func parsePolygonAPIKeys() []string {
	s := os.Getenv("POLYGON_API_KEYS")
	if s == "" {
		s = os.Getenv("POLYGON_API_KEY")
	}
	if s == "" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Validate checks numeric settings against the same bounds the env loader applies.
func (c *Config) Validate() error {
	if c.LookbackDays < MinLookbackDays || c.LookbackDays > MaxLookbackDays {
		return fmt.Errorf("lookback %d out of range [%d, %d]", c.LookbackDays, MinLookbackDays, MaxLookbackDays)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers %d must not be negative", c.Workers)
	}
	if c.Top < 0 {
		return fmt.Errorf("top %d must not be negative", c.Top)
	}
	return nil
}

// PacketDir returns data/Polygon, where fetched packets live.
func (c *Config) PacketDir() string {
	return filepath.Join(c.DataDir, "Polygon")
}

// ProgressPath returns path to .lastday.json
func (c *Config) ProgressPath() string {
	return filepath.Join(c.PacketDir(), ".lastday.json")
}

// Window returns the [from, to] calendar range ending today (UTC).
func (c *Config) Window(now time.Time) (from, to time.Time) {
	now = now.UTC()
	to = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return to.AddDate(0, 0, -c.LookbackDays), to
}
