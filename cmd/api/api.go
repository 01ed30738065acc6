package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/farxc/ecommerce_medallion/internal/config"
	"github.com/farxc/ecommerce_medallion/internal/gold"
	"github.com/farxc/ecommerce_medallion/internal/logger"
	"github.com/farxc/ecommerce_medallion/internal/pipeline"
	"github.com/farxc/ecommerce_medallion/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type application struct {
	config       *config.Config
	runs         store.RunHistory
	orchestrator *pipeline.Orchestrator
	gold         *gold.Stage
	appLogger    *logger.Logger

	// Background runs outlive the request that triggered them.
	baseCtx context.Context
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Route("/gold", func(r chi.Router) {
			r.Get("/{table}", app.handleGetGoldTable)
		})
		r.Route("/runs", func(r chi.Router) {
			r.Get("/history", app.handleGetRunHistory)
			r.Post("/", app.handleCreateRun)
		})
	})

	return r
}

func (app *application) run(ctx context.Context, mux http.Handler) error {
	const component = "API"

	srv := &http.Server{
		Addr:         app.config.API.Addr,
		Handler:      mux,
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 40,
		IdleTimeout:  time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		app.appLogger.Info(component, "Server started: addr=%s", app.config.API.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.appLogger.Info(component, "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
