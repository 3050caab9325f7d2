package main

import (
	"context"

	"github.com/joho/godotenv"

	"chatsync/internal/app"
	"chatsync/pkg/config"
	"chatsync/pkg/logger"
	"chatsync/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// load .env file if present
	_ = godotenv.Load(".env")

	// parse flags and merge with env and config file
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()
	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	eff, err := config.LoadEffective(addrVal, dbVal, cfgPath, setFlags)
	if err != nil {
		shutdown.Abort("failed to load config", err, dbVal)
	}

	// initialize logger after config is fully loaded
	logger.InitWithLevel(eff.Config.Logging.Level)
	logger.Info("effective_config_loaded", "source", eff.Source, "addr", eff.Addr, "db_path", eff.DBPath)

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("failed to initialize app", err, eff.DBPath)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server exited with error", err, eff.DBPath)
	}

	logger.Info("shutdown_complete")
	_ = a.Close()
}
