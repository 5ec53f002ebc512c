package store

import (
	"github.com/parquet-go/parquet-go"

	"sepa-screener/internal/model"
)

// ParquetCodec stores a packet as Parquet using the model.Bar parquet tags.
type ParquetCodec struct{}

func (ParquetCodec) Extension() string { return "parquet" }

func (ParquetCodec) Save(bars []model.Bar, path string) error {
	return parquet.WriteFile(path, bars)
}

func (ParquetCodec) Load(path string) ([]model.Bar, error) {
	return parquet.ReadFile[model.Bar](path)
}
