package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ShutdownTimeout время на завершение активных запросов при остановке
const ShutdownTimeout = 15 * time.Second

// Server HTTP сервер с graceful shutdown
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New создает сервер. upstreamTimeout задает таймаут одного запроса к EVE,
// запись ответа ограничена с запасом на все запросы dashboard.
func New(addr string, handler http.Handler, upstreamTimeout time.Duration, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			// refresh + verify + location + name + 5 маршрутов
			WriteTimeout: 9*upstreamTimeout + 5*time.Second,
			IdleTimeout:  2 * time.Minute,
		},
		logger: logger,
	}
}

// Run обслуживает запросы до отмены ctx, затем дожидается активных запросов
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
