package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sepa-screener/internal/model"
	"sepa-screener/internal/model/modeltest"
)

func TestNewPacketCodec(t *testing.T) {
	assert.IsType(t, CSVCodec{}, NewPacketCodec("CSV"))
	assert.IsType(t, ParquetCodec{}, NewPacketCodec(" parquet "))
	assert.IsType(t, JSONCodec{}, NewPacketCodec("json"))
	assert.Nil(t, NewPacketCodec("xml"))
}

func TestDir_SaveLoad(t *testing.T) {
	bars := modeltest.Geometric(30, 12.5, 0.01, 0.02, 12345)
	bars[3].VWAP = 12.61
	bars[3].Transactions = 88

	for _, format := range []string{"csv", "json", "parquet"} {
		t.Run(format, func(t *testing.T) {
			d, err := NewDir(t.TempDir(), format)
			require.NoError(t, err)

			require.NoError(t, d.Save("nvda", bars))
			assert.FileExists(t, filepath.Join(d.Root, "NVDA", "nvda_daily."+format))

			got, err := d.Load("NVDA")
			require.NoError(t, err)
			require.Len(t, got, len(bars))
			for i := range bars {
				assert.Equal(t, bars[i].Timestamp, got[i].Timestamp)
				assert.InDelta(t, bars[i].Close, got[i].Close, 1e-9)
				assert.Equal(t, bars[i].Volume, got[i].Volume)
			}
			assert.Equal(t, int64(88), got[3].Transactions)
			require.NoError(t, model.ValidateSeries(got))

			syms, err := d.Symbols()
			require.NoError(t, err)
			assert.Equal(t, []string{"NVDA"}, syms)
		})
	}
}

func TestDir_Missing(t *testing.T) {
	d, err := NewDir(t.TempDir(), "json")
	require.NoError(t, err)
	_, err = d.Load("NOPE")
	assert.ErrorIs(t, err, ErrNoPacket)

	_, err = NewDir(t.TempDir(), "xml")
	assert.Error(t, err)
}

func TestCSVCodec_BadRow(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(p, []byte("t,o,h,l,c,v,vw,n\n1,2,3,4,x,6,7,8\n"), 0644))
	_, err := CSVCodec{}.Load(p)
	assert.ErrorContains(t, err, "column c")
}

func TestMerge(t *testing.T) {
	all := modeltest.Flat(10, 10, 100)
	next := append([]model.Bar(nil), all[6:]...)
	next[0].Close = 11

	got := Merge(all[:7], next)
	require.Len(t, got, 10)
	require.NoError(t, model.ValidateSeries(got))
	assert.Equal(t, 11.0, got[6].Close)
	assert.Empty(t, Merge(nil, nil))
}

func TestDir_Append(t *testing.T) {
	d, err := NewDir(t.TempDir(), "csv")
	require.NoError(t, err)
	all := modeltest.Flat(10, 10, 100)

	got, err := d.Append("AMD", all[:4])
	require.NoError(t, err)
	assert.Len(t, got, 4)

	got, err = d.Append("AMD", all[3:])
	require.NoError(t, err)
	assert.Len(t, got, 10)

	stored, err := d.Load("AMD")
	require.NoError(t, err)
	assert.Equal(t, len(all), len(stored))
}
