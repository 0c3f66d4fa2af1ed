package monitor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// httpServer runs an HTTP server as a Task, shutting it down gracefully when
// the context is cancelled.
type httpServer struct {
	addr    string
	handler http.Handler
	logger  *slog.Logger
}

func (s *httpServer) Run(ctx context.Context) error {
	server := http.Server{Addr: s.addr, Handler: s.handler}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Debug("listening", slog.String("addr", s.addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
