package screener

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "thresholds.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_PartialOverride(t *testing.T) {
	p := writeFile(t, `
liquidity:
  min_price: 12
template:
  min_rs: 80
breakout:
  grade_a:
    min_volume_ratio: 2.5
`)
	cfg, err := LoadConfig(p)
	require.NoError(t, err)

	want := DefaultConfig()
	want.Liquidity.MinPrice = 12
	want.Template.MinRS = 80
	want.Breakout.GradeA.MinVolumeRatio = 2.5
	assert.Equal(t, want, cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "template: [1, 2"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "vcp:\n  tight_window: 0\n"))
	assert.ErrorContains(t, err, "vcp.tight_window")

	_, err = LoadConfig(writeFile(t, "template:\n  min_rs: 120\n"))
	assert.ErrorContains(t, err, "min_rs")
}
