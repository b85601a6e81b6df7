package server

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	xhttp "AMDScope/pkg/http"
	applogger "AMDScope/pkg/logger"
)

// Resource is an infrastructure client closed on shutdown.
type Resource struct {
	Name  string
	Close func() error
}

// App encapsulates the application lifecycle: start the HTTP server, wait for a
// signal, then stop the server and close resources in reverse order.
type App struct {
	log             *applogger.Logger
	httpServer      *xhttp.Server
	shutdownTimeout time.Duration
	resources       []Resource
}

// New creates an App. Resources with a nil Close are ignored.
func New(log *applogger.Logger, srv *xhttp.Server, shutdownTimeout time.Duration, resources ...Resource) *App {
	if log == nil {
		log = applogger.Nop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	kept := make([]Resource, 0, len(resources))
	for _, r := range resources {
		if r.Close != nil {
			kept = append(kept, r)
		}
	}
	return &App{log: log, httpServer: srv, shutdownTimeout: shutdownTimeout, resources: kept}
}

// Run starts the application and blocks until ctx is done or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.log.Error("http server start error", applogger.Error(err))
			return err
		}
	}
	a.log.Info("application started")

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Shutdown stops the HTTP server and closes resources. Every step runs; the
// errors are joined.
func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.shutdownTimeout)
	defer cancel()

	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	for i := len(a.resources) - 1; i >= 0; i-- {
		r := a.resources[i]
		if err := r.Close(); err != nil {
			a.log.Warn("resource close error", applogger.String("resource", r.Name), applogger.Error(err))
			errs = append(errs, err)
		}
	}
	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
