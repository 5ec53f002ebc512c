package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"sepa-screener/internal/model"
)

var csvHeader = []string{"t", "o", "h", "l", "c", "v", "vw", "n"}

// CSVCodec stores a packet as CSV (header: t,o,h,l,c,v,vw,n).
type CSVCodec struct{}

func (CSVCodec) Extension() string { return "csv" }

func (CSVCodec) Save(bars []model.Bar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range bars {
		if err := w.Write([]string{
			strconv.FormatInt(b.Timestamp, 10),
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			strconv.FormatInt(b.Volume, 10),
			floatStr(b.VWAP),
			strconv.FormatInt(b.Transactions, 10),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (CSVCodec) Load(path string) ([]model.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var bars []model.Bar
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		b, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		bars = append(bars, b)
	}
}

func parseRecord(rec []string) (model.Bar, error) {
	var (
		b    model.Bar
		errs [8]error
	)
	b.Timestamp, errs[0] = strconv.ParseInt(rec[0], 10, 64)
	b.Open, errs[1] = strconv.ParseFloat(rec[1], 64)
	b.High, errs[2] = strconv.ParseFloat(rec[2], 64)
	b.Low, errs[3] = strconv.ParseFloat(rec[3], 64)
	b.Close, errs[4] = strconv.ParseFloat(rec[4], 64)
	b.Volume, errs[5] = strconv.ParseInt(rec[5], 10, 64)
	b.VWAP, errs[6] = strconv.ParseFloat(rec[6], 64)
	b.Transactions, errs[7] = strconv.ParseInt(rec[7], 10, 64)
	for i, err := range errs {
		if err != nil {
			return b, fmt.Errorf("column %s: %w", csvHeader[i], err)
		}
	}
	return b, nil
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
