package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/SvenKoller/RenderKeep/app/controllers"
	"github.com/SvenKoller/RenderKeep/internal/pkg/cache"
	"github.com/SvenKoller/RenderKeep/internal/pkg/credits"
	"github.com/SvenKoller/RenderKeep/internal/pkg/database"
	"github.com/SvenKoller/RenderKeep/internal/pkg/env"
	"github.com/SvenKoller/RenderKeep/internal/pkg/generation"
	"github.com/SvenKoller/RenderKeep/internal/pkg/renderstore"
	"github.com/SvenKoller/RenderKeep/internal/pkg/router"
	"github.com/SvenKoller/RenderKeep/internal/pkg/sweep"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()

	// Optional S3 artifact storage.
	var store *renderstore.Client
	storeCfg, err := renderstore.LoadConfig()
	if err != nil {
		log.Fatalf("invalid S3 configuration: %v", err)
	}
	if storeCfg.IsEnabled() {
		store, err = renderstore.NewClient(storeCfg)
		if err != nil {
			log.Fatalf("failed to initialize render storage: %v", err)
		}
	} else {
		storeCfg = nil
		log.Print("S3 render storage disabled, artifacts kept as DB rows only")
	}

	// One instance of each service, injected everywhere. No ambient
	// singletons beyond the DB/cache handles.
	ledger := credits.NewLedgerFromDB(db)
	resolver := credits.NewResolver(ledger)
	awarder := credits.NewAwarderFromDB(db)
	provider := generation.NewHTTPProviderFromEnv()

	var artifactStore generation.ArtifactStore
	var sweepStore sweep.ObjectDeleter
	if store != nil {
		artifactStore = store
		sweepStore = store
	}
	coordinator := generation.NewCoordinator(ledger, resolver, provider, generation.NewRenderRepo(db), artifactStore, storeCfg)

	controllers.Initialize(controllers.Services{
		Ledger:      ledger,
		Resolver:    resolver,
		Awarder:     awarder,
		Coordinator: coordinator,
	})

	// Background expiry sweep for trial/token funded renders.
	go sweep.NewSweeper(db, sweepStore).Start(context.Background())

	app := fiber.New(fiber.Config{
		AppName: "RenderKeep",
	})

	app.Use(recover.New())
	app.Use(favicon.New())
	if env.IsDev() {
		app.Use(logger.New())
	}

	router.InstallRouter(app)

	return app
}
