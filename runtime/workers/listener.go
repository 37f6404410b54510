package workers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const shutdownGrace = 5 * time.Second

// ListenerWorker runs the HTTP server carrying the WebSocket endpoint and
// shuts it down gracefully when the supervised context is canceled.
type ListenerWorker struct {
	log    *slog.Logger
	server *http.Server
}

func NewListenerWorker(log *slog.Logger, server *http.Server) *ListenerWorker {
	return &ListenerWorker{log: log, server: server}
}

func (w *ListenerWorker) Run(ctx context.Context) error {
	failed := make(chan error, 1)
	go func() {
		w.log.Info("Listening", "addr", w.server.Addr)
		failed <- w.server.ListenAndServe()
	}()

	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := w.server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.log.Warn("Server shutdown incomplete", "error", err)
		}
		return nil
	}
}
