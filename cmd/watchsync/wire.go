//go:build wireinject
// +build wireinject

package main

import (
	"github.com/amaumene/watchsync/internal/api"
	"github.com/amaumene/watchsync/internal/api/handlers"
	"github.com/amaumene/watchsync/internal/config"
	"github.com/amaumene/watchsync/internal/controllers"
	"github.com/amaumene/watchsync/internal/metrics"
	"github.com/amaumene/watchsync/internal/models"
	"github.com/amaumene/watchsync/internal/services/plex"
	"github.com/amaumene/watchsync/internal/services/shoko"
	"github.com/google/wire"
)

func initializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		provideLogger,
		provideDatabase,
		provideTracerProvider,
		provideTracer,
		provideReporter,
		provideGate,
		provideConnector,
		provideSyncEngine,
		provideScheduler,
		metrics.New,
		plex.NewClient,
		shoko.NewClient,
		controllers.NewIdentityResolver,
		api.NewServer,
		wire.Bind(new(controllers.PlexAccounts), new(*plex.Client)),
		wire.Bind(new(handlers.RunStore), new(*models.Database)),
		wire.Bind(new(controllers.Journal), new(*models.Database)),
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

func initializeSync(cfg *config.Config) (*SyncApp, func(), error) {
	wire.Build(
		provideLogger,
		provideJournal,
		provideTracerProvider,
		provideTracer,
		provideReporter,
		provideGate,
		provideConnector,
		provideSyncEngine,
		metrics.New,
		plex.NewClient,
		shoko.NewClient,
		controllers.NewIdentityResolver,
		wire.Bind(new(controllers.PlexAccounts), new(*plex.Client)),
		wire.Struct(new(SyncApp), "*"),
	)
	return nil, nil, nil
}
