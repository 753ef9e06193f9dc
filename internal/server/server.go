package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Server — HTTP-сервер приложения.
type Server struct {
	srv *http.Server
}

// New создаёт сервер на addr с готовым роутером.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start слушает порт до вызова Shutdown.
// Возвращает nil при штатной остановке.
func (s *Server) Start() error {
	log.WithField("addr", s.srv.Addr).Info("HTTP-сервер запущен")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown дожидается завершения активных запросов, но не дольше ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("HTTP-сервер останавливается")
	return s.srv.Shutdown(ctx)
}
