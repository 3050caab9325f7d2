package app

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"chatsync/pkg/chat"
	"chatsync/pkg/config"
	"chatsync/pkg/store"
	"chatsync/pkg/validation"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	cancelRepair context.CancelFunc
	state        string
}

// New initializes resources that do not require a running context (DB,
// validation rules, seed data). It does not start the HTTP server;
// call Run to start it and block until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	initValidation(eff)

	if err := store.Open(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}
	if err := store.SeedDefaults(); err != nil {
		return nil, fmt.Errorf("failed to seed defaults: %w", err)
	}

	return &App{eff: eff, version: version, commit: commit, buildDate: buildDate}, nil
}

// Run starts the marker repair sweep and the HTTP server, and blocks
// until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	cancel, err := chat.StartRepair(ctx, a.eff.Config.Repair.Enabled, a.eff.Config.Repair.Cron)
	if err != nil {
		return err
	}
	a.cancelRepair = cancel

	a.printBanner()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases app resources. Safe to call once after Run returns.
func (a *App) Close() error {
	if a.cancelRepair != nil {
		a.cancelRepair()
	}
	return store.Close()
}

// initValidation builds validation rules from config and sets them globally.
func initValidation(eff config.EffectiveConfigResult) {
	vr := validation.Rules{MaxContentLen: eff.Config.Validation.MaxContentLen}
	validation.SetRules(vr)
}
