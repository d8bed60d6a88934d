package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/boxbinhq/boxbin/app/controllers"
	"github.com/boxbinhq/boxbin/app/repository"
	"github.com/boxbinhq/boxbin/internal/pkg/authtoken"
	"github.com/boxbinhq/boxbin/internal/pkg/billing"
	"github.com/boxbinhq/boxbin/internal/pkg/cache"
	"github.com/boxbinhq/boxbin/internal/pkg/database"
	"github.com/boxbinhq/boxbin/internal/pkg/entitlements"
	"github.com/boxbinhq/boxbin/internal/pkg/env"
	"github.com/boxbinhq/boxbin/internal/pkg/labels"
	"github.com/boxbinhq/boxbin/internal/pkg/metrics/counter"
	"github.com/boxbinhq/boxbin/internal/pkg/objectstore"
	"github.com/boxbinhq/boxbin/internal/pkg/photos"
	"github.com/boxbinhq/boxbin/internal/pkg/router"
)

func main() {
	app := NewApplication()

	// periodic scan-counter flush from Redis to MySQL
	flushStop := make(chan struct{})
	counter.StartFlusher(5*time.Minute, flushStop)

	go func() {
		addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
		if err := app.Listen(addr); err != nil {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Stop every entitlement poller before the server goes away.
	if mgr := entitlements.GetManager(); mgr != nil {
		mgr.Shutdown()
	}
	close(flushStop)
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())
	subs := repository.GetGlobalFactory().GetSubscriptionRepository()

	// Entitlement layer: RevenueCat client + Redis snapshot cache feeding the
	// per-session pollers.
	snapshots := entitlements.NewCache(cache.GetClient())
	entitlements.InitializeManager(entitlements.NewClientFromEnv(), snapshots, entitlements.DefaultPollInterval)

	gateway, err := billing.NewStripeGatewayFromEnv()
	if err != nil {
		log.Fatalf("billing gateway: %v", err)
	}
	controllers.SetupBilling(gateway, subs, snapshots)

	// Object storage is optional; without it photo uploads and label
	// archiving are disabled.
	storeCfg, err := objectstore.LoadConfig()
	if err != nil {
		log.Fatalf("object storage: %v", err)
	}
	var objects *objectstore.Client
	if storeCfg.IsEnabled() {
		objects, err = objectstore.NewClient(storeCfg)
		if err != nil {
			log.Fatalf("object storage: %v", err)
		}
		controllers.SetupPhotos(photos.NewStore(objects, storeCfg))
	}

	publicDomain := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000")
	controllers.SetupLabels(labels.NewGenerator(publicDomain), objects, storeCfg)

	minter, err := authtoken.NewMinterFromEnv()
	if err != nil {
		// Token minting only backs the privileged exchange endpoint; the
		// rest of the app works without it.
		log.Printf("authtoken: %v, mint-custom-token disabled", err)
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 26214400, // 25 MiB, photos included
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Gateway:       gateway,
		Subscriptions: subs,
		Minter:        minter,
	})

	return app
}
