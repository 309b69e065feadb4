//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"guildsnap/internal"
	"guildsnap/internal/controllers"
	"guildsnap/internal/providers"
	"guildsnap/internal/remote"
	"guildsnap/internal/restore"
	"guildsnap/internal/services"
	"guildsnap/internal/snapshot"
	"guildsnap/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		remote.NewClient,
		snapshot.NewZstdCompressor,
		snapshot.NewStore,
		snapshot.NewCapturer,
		wire.Bind(new(snapshot.CapturerInterface), new(*snapshot.Capturer)),
		restore.NewRunner,
		services.NewSnapshotService,
		controllers.NewSnapshotController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewHandler,
		internal.NewApp,
	)

	return nil, nil, nil
}
