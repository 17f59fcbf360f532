package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/SohaibShaar/waiting-system-sub001/internal/config"
	"github.com/SohaibShaar/waiting-system-sub001/internal/database"
	"github.com/SohaibShaar/waiting-system-sub001/internal/handler"
	"github.com/SohaibShaar/waiting-system-sub001/internal/middleware"
	"github.com/SohaibShaar/waiting-system-sub001/internal/notifier"
	"github.com/SohaibShaar/waiting-system-sub001/internal/queue"
	"github.com/SohaibShaar/waiting-system-sub001/internal/repository"
	"github.com/SohaibShaar/waiting-system-sub001/internal/router"
	"github.com/SohaibShaar/waiting-system-sub001/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	store := repository.NewStore(db)
	persons := repository.NewPersonRepo(store)
	stations := repository.NewStationRepo(store)
	queues := repository.NewQueueRepo(store)
	history := repository.NewHistoryRepo(store)
	stages := repository.NewStageRecordRepo(store)
	visits := repository.NewCompletedVisitRepo(store)
	settings := repository.NewSettingRepo(store)
	mirror := repository.NewArchiveRepo(store)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, running without events, cache and rate limiting")
	}
	events := notifier.NewRedisNotifier(rdb)

	directory := service.NewDirectory(stations)
	alloc := service.NewAllocator(settings)
	registry := service.NewRegistry(store, persons, queues, history, stages, visits, directory, alloc, events)
	workflow := service.NewWorkflow(store, queues, history, stations, stages, visits, persons,
		directory, events, queue.PublishVisitCompleted)
	archive := service.NewArchive(store, queues, history, stages, visits, persons, stations,
		mirror, settings, alloc, events)

	go func() {
		if err := queue.StartVisitConsumer(); err != nil {
			log.Printf("visit consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg.JWTSecret, cfg.OperatorPassHash, cfg.TokenTTLMin),
		Queues:   handler.NewQueueHandler(registry, queues),
		Stations: handler.NewStationHandler(stations, history, workflow),
		Stages:   handler.NewStageHandler(stages, queues),
		Archive:  handler.NewArchiveHandler(archive, mirror, settings),
		Settings: handler.NewSettingsHandler(settings, events),
	}, cfg.JWTSecret, cache, limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
