package main

import (
	"flag"
	"time"

	"github.com/cppla/board/config"
	"github.com/cppla/board/routes"
	"github.com/cppla/board/services"
	"github.com/cppla/board/storage"
	"github.com/cppla/board/utils"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to a JSON or YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg.Log); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		utils.Sugar.Fatalf("open database: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		utils.Sugar.Fatalf("migrate: %v", err)
	}
	if err := config.SeedDefaults(db, cfg); err != nil {
		utils.Sugar.Fatalf("seed defaults: %v", err)
	}

	files, err := storage.New(cfg)
	if err != nil {
		utils.Sugar.Fatalf("init storage: %v", err)
	}

	rc := utils.NewRedis(cfg.Redis)
	if rc != nil {
		defer rc.Close()
	}

	r := routes.SetupRouter(routes.Deps{
		Config:    cfg,
		DB:        db,
		Tokens:    services.NewTokenService(cfg.App.JWTSecret, time.Duration(cfg.App.JWTExpirationHours)*time.Hour),
		Blacklist: utils.NewTokenBlacklist(rc),
		Cache:     utils.NewCache(rc),
		Files:     files,
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.App.AppPort)
	shutdownTimeout := time.Duration(cfg.App.ShutdownTimeoutSec) * time.Second
	if err := utils.GraceServer(":"+cfg.App.AppPort, r, shutdownTimeout); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
