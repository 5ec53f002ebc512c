package app

import (
	"fmt"
	"log/slog"

	"sepa-screener/internal/provider"
	"sepa-screener/internal/provider/polygon"
)

// CreateProvider creates DataProvider from config
func CreateProvider(cfg *Config) (provider.DataProvider, error) {
	switch cfg.DataProvider {
	case "polygon":
		if len(cfg.PolygonAPIKeys) == 0 {
			return nil, polygon.ErrNoKeys
		}
		p, err := provider.NewPolygonProvider(cfg.PolygonAPIKeys, cfg.Benchmark, cfg.Workers,
			polygon.WithLogger(slog.Default()))
		if err != nil {
			return nil, err
		}
		slog.Info("wire", "provider", p.GetName(), "keys", len(cfg.PolygonAPIKeys), "workers", p.Workers(), "cooldown", polygon.KeyCooldown)
		return p, nil
	case "packets":
		p, err := provider.NewPacketProvider(cfg.PacketDir(), cfg.SaveFormat, cfg.Benchmark, cfg.Workers)
		if err != nil {
			return nil, err
		}
		slog.Info("wire", "provider", p.GetName(), "dir", cfg.PacketDir(), "format", cfg.SaveFormat)
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported data provider: %s. Options: polygon, packets", cfg.DataProvider)
	}
}
