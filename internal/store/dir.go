package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sepa-screener/internal/model"
)

// ErrNoPacket is returned when a symbol has no stored packet.
var ErrNoPacket = errors.New("no packet for symbol")

// Dir lays packets out as {Root}/{SYMBOL}/{symbol}_daily.{ext}.
type Dir struct {
	Root  string
	Codec PacketCodec
}

// NewDir returns a packet directory for format, or an error for unknown formats.
func NewDir(root, format string) (*Dir, error) {
	c := NewPacketCodec(format)
	if c == nil {
		return nil, fmt.Errorf("unsupported packet format %q (use: csv, parquet, json)", format)
	}
	return &Dir{Root: root, Codec: c}, nil
}

// Path returns the packet file for symbol.
func (d *Dir) Path(symbol string) string {
	symbol = strings.ToUpper(symbol)
	name := fmt.Sprintf("%s_daily.%s", strings.ToLower(symbol), d.Codec.Extension())
	return filepath.Join(d.Root, symbol, name)
}

// Save writes bars for symbol, creating the symbol folder as needed.
func (d *Dir) Save(symbol string, bars []model.Bar) error {
	p := d.Path(symbol)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("create folder for %s: %w", symbol, err)
	}
	if err := d.Codec.Save(bars, p); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

// Load reads the stored bars for symbol. A missing packet yields ErrNoPacket.
func (d *Dir) Load(symbol string) ([]model.Bar, error) {
	p := d.Path(symbol)
	bars, err := d.Codec.Load(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoPacket, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return bars, nil
}

// Symbols lists every symbol folder holding a packet in this format.
func (d *Dir) Symbols() ([]string, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, err := os.Stat(d.Path(e.Name())); err == nil {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Append merges bars into the stored packet for symbol and saves the result.
// Bars on a date already stored replace the stored bar.
func (d *Dir) Append(symbol string, bars []model.Bar) ([]model.Bar, error) {
	old, err := d.Load(symbol)
	if err != nil && !errors.Is(err, ErrNoPacket) {
		return nil, err
	}
	merged := Merge(old, bars)
	if err := d.Save(symbol, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Merge combines two series into one ascending series with one bar per date.
// On a shared date the bar from next wins.
func Merge(prev, next []model.Bar) []model.Bar {
	byDay := make(map[int]model.Bar, len(prev)+len(next))
	for _, b := range prev {
		byDay[b.DayKey()] = b
	}
	for _, b := range next {
		byDay[b.DayKey()] = b
	}
	out := make([]model.Bar, 0, len(byDay))
	for _, b := range byDay {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}
