package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/existflow/protask/internal/aggregate"
	"github.com/existflow/protask/internal/config"
	"github.com/existflow/protask/internal/db"
	"github.com/existflow/protask/internal/logger"
	"github.com/existflow/protask/internal/remote"
	"github.com/existflow/protask/internal/store"
)

// app is the provider selected by the config plus the service on top of it
type app struct {
	svc    *store.Service
	client *remote.Client // nil for the local backend
}

func sessionPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

func newRemoteClient(cfg *config.Config) (*remote.Client, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	return remote.NewClient(path, cfg.ServerURL)
}

// openApp opens the configured backend
func openApp(cfg *config.Config) (*app, error) {
	switch cfg.Backend {
	case config.BackendRemote:
		client, err := newRemoteClient(cfg)
		if err != nil {
			return nil, err
		}
		if !client.IsLoggedIn() {
			return nil, fmt.Errorf("not logged in to %s, run 'protask auth login': %w",
				client.Session().ServerURL, store.ErrUnauthorized)
		}
		logger.Debug("Using remote backend", logger.F("server", client.Session().ServerURL))
		return &app{svc: store.NewService(client, client.UserID()), client: client}, nil

	default:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		logger.Debug("Using local backend", logger.F("path", cfg.DBPath))
		return &app{svc: store.NewService(database, cfg.OwnerID)}, nil
	}
}

func (a *app) Close() {
	if err := a.svc.Close(); err != nil {
		logger.Warn("Failed to close provider", logger.F("error", err))
	}
}

func (a *app) snapshot(ctx context.Context) (aggregate.Snapshot, error) {
	return store.LoadSnapshot(ctx, a.svc, a.svc.OwnerID)
}

// flushNotifications prints messages the service raised, oldest first
func (a *app) flushNotifications() {
	msgs := a.svc.Notifications()
	for i := len(msgs) - 1; i >= 0; i-- {
		fmt.Println("• " + msgs[i])
	}
}

// logoutFunc is handed to the TUI; the local backend has no session
func (a *app) logoutFunc() func(context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Logout
}
