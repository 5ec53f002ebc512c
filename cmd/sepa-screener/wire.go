//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"sepa-screener/internal/app"
)

// InitializeApp builds App from cfg via Wire.
// Caller must call the returned cleanup when done.
func InitializeApp(cfg *app.Config) (*App, func(), error) {
	wire.Build(
		app.ProvideThresholds,
		app.ProvideDataProvider,
		app.ProvideMetrics,
		app.ProvidePacketDir,
		app.ProvideRunner,
		app.ProvideCrawler,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
