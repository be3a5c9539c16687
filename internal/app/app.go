// Package app wires configuration, stores, market data, and the session API
// into one runnable desk process.
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"paperdesk/internal/config"
	"paperdesk/internal/logger"
	"paperdesk/internal/profile"
	"paperdesk/internal/session"
	"paperdesk/internal/store/decisionlog"
	"paperdesk/internal/store/gormstore"
	httpapi "paperdesk/internal/transport/http"
)

// App owns the assembled desk: the session manager, the HTTP API, and the
// backing stores.
type App struct {
	cfg        *config.Config
	manager    *session.Manager
	httpServer *httpapi.Server
	registry   *profile.Registry

	sessionStore  *gormstore.Store
	decisionStore *decisionlog.Store
}

// NewApp builds the application from configuration without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run serves the HTTP API until ctx is cancelled, then closes every open
// session and the stores.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.httpServer == nil {
		return fmt.Errorf("http server not initialized")
	}

	logger.Infof("paperdesk starting: env=%s addr=%s market=%s",
		a.cfg.App.Env, a.cfg.App.HTTPAddr, a.cfg.Market.Source)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.httpServer.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	err := group.Wait()

	a.shutdown(context.Background())
	return err
}

// Manager exposes the session manager (for testing and replay harnesses).
func (a *App) Manager() *session.Manager {
	if a == nil {
		return nil
	}
	return a.manager
}

func (a *App) shutdown(ctx context.Context) {
	if a.manager != nil {
		for _, s := range a.manager.List() {
			if !s.Active {
				continue
			}
			if err := a.manager.Close(ctx, s.SessionID); err != nil {
				logger.Warnf("closing session %s failed: %v", s.SessionID, err)
			}
		}
	}
	if a.decisionStore != nil {
		if err := a.decisionStore.Close(); err != nil {
			logger.Warnf("closing decision log failed: %v", err)
		}
	}
	if a.sessionStore != nil {
		if err := a.sessionStore.Close(); err != nil {
			logger.Warnf("closing session store failed: %v", err)
		}
	}
	logger.Infof("paperdesk stopped")
}
