package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/sevenhill/schedsync/internal/api"
	"github.com/sevenhill/schedsync/internal/config"
	"github.com/sevenhill/schedsync/internal/engine"
	"github.com/sevenhill/schedsync/internal/projector"
	"github.com/sevenhill/schedsync/internal/security"
	"github.com/sevenhill/schedsync/internal/session"
	"github.com/sevenhill/schedsync/internal/store"
	"github.com/sevenhill/schedsync/internal/view"
)

type Application struct {
	cfg       config.Config
	coord     *engine.Coordinator
	weekStart projector.WeekStart
	logger    *slog.Logger
}

// New wires a coordinator over the configured store and view binding. A nil
// binding renders nowhere, which suits headless serving.
func New(cfg config.Config, st store.Store, binding view.Binding, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	weekStart, err := projector.ParseWeekStart(cfg.WeekStart)
	if err != nil {
		return nil, err
	}
	coord := engine.New(engine.Options{
		Store:     st,
		Binding:   binding,
		OwnerID:   cfg.OwnerID,
		WeekStart: weekStart,
		Logger:    logger,
	})
	return &Application{cfg: cfg, coord: coord, weekStart: weekStart, logger: logger}, nil
}

// Coordinator exposes the engine for CLI subcommands.
func (a *Application) Coordinator() *engine.Coordinator { return a.coord }

func (a *Application) Run(ctx context.Context) error {
	loadCtx, cancelLoad := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	if err := a.coord.Load(loadCtx); err != nil {
		cancelLoad()
		return fmt.Errorf("initial load: %w", err)
	}
	cancelLoad()

	server := api.New(api.Options{
		Coordinator: a.coord,
		Auth: security.BearerAuth{
			Enabled: a.cfg.RequireBearerToken,
			Token:   a.cfg.BearerToken,
		},
		WeekStart: a.weekStart,
		Logger:    a.logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	wg := sync.WaitGroup{}

	if a.cfg.BindAddress != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ServeTCP(ctx, a.cfg.BindAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("tcp server: %w", err)
			}
		}()
	}
	if a.cfg.UnixSocketPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ServeUnix(ctx, a.cfg.UnixSocketPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("unix server: %w", err)
			}
		}()
	}

	select {
	case err := <-errCh:
		cancel()
		wg.Wait()
		return err
	case <-ctx.Done():
		wg.Wait()
		return nil
	}
}

// BuildStore constructs the configured store backend. The REST backend
// reads its token from the encrypted session file when one is configured.
func BuildStore(cfg config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		return store.OpenSQLite(cfg.SQLitePath)
	case "rest":
		baseURL := cfg.RESTBaseURL
		token := cfg.BearerToken
		if cfg.SessionPath != "" {
			sess, err := session.Store{Path: cfg.SessionPath}.Load(cfg.SessionPassphrase)
			if err != nil {
				return nil, fmt.Errorf("load session: %w", err)
			}
			token = sess.Token
			if sess.BaseURL != "" {
				baseURL = sess.BaseURL
			}
		}
		if baseURL == "" {
			return nil, errors.New("rest store requires a base url")
		}
		return store.NewRESTStore(baseURL, token, nil), nil
	default:
		return nil, fmt.Errorf("invalid store backend: %s", cfg.StoreBackend)
	}
}
