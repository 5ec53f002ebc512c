// Package store persists daily bar series as per-symbol packets.
package store

import (
	"strings"

	"sepa-screener/internal/model"
)

// PacketCodec writes and reads one packet of bars in a single file format.
// Callers (fetch, packet provider) depend only on this interface.
type PacketCodec interface {
	Save(bars []model.Bar, path string) error
	Load(path string) ([]model.Bar, error)
	Extension() string
}

// NewPacketCodec creates the implementation for format (csv, parquet, json).
// Returns nil if format is not supported.
func NewPacketCodec(format string) PacketCodec {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVCodec{}
	case "parquet":
		return ParquetCodec{}
	case "json":
		return JSONCodec{}
	default:
		return nil
	}
}
