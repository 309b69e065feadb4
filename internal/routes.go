package internal

import (
	"guildsnap/internal/controllers"
	"guildsnap/internal/providers"
	"guildsnap/internal/structures"
	"net/http"
)

func InitRoutes(snapshotController *controllers.SnapshotController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/guilds/{guild}/snapshots", http.HandlerFunc(snapshotController.Capture))
	routers.Get("/guilds/{guild}/snapshots", http.HandlerFunc(snapshotController.List))
	routers.Get("/guilds/{guild}/snapshots/{id}", http.HandlerFunc(snapshotController.Get))
	routers.Delete("/guilds/{guild}/snapshots/{id}", http.HandlerFunc(snapshotController.Delete))
	routers.Post("/guilds/{guild}/snapshots/{id}/restore", http.HandlerFunc(snapshotController.Restore))
	routers.Get("/restores/{job}", http.HandlerFunc(snapshotController.GetJob))
	routers.Get("/restores", http.HandlerFunc(snapshotController.ListJobs))
	return routers
}
