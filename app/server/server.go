// Package server runs the HTTP API until its context is cancelled.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"zodo/app/controllers"
	"zodo/app/routes"
	"zodo/app/services"
)

const shutdownTimeout = 10 * time.Second

// New builds the HTTP server for svc.
func New(addr string, svc *services.TaskService, logger *log.Logger) *http.Server {
	taskController := controllers.NewTaskController(svc, logger)
	return &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(taskController),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run listens on addr and serves until ctx is done, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, svc *services.TaskService, logger *log.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, svc, logger)
}

// Serve is Run on an existing listener. A nil logger discards output.
func Serve(ctx context.Context, ln net.Listener, svc *services.TaskService, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	srv := New(ln.Addr().String(), svc, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is running", "addr", "http://"+ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
