// Package httpapi exposes the users service over the HTTP/JSON auth contract
// the client speaks: `{success, message, ...}` envelopes for auth actions,
// `{"detail": ...}` bodies for rejected requests.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cityai/internal/logging"
	"github.com/dmitrijs2005/cityai/internal/server/users"
	"github.com/gorilla/mux"
)

const (
	serviceName     = "cityai-devserver"
	shutdownTimeout = 5 * time.Second
	readTimeout     = 10 * time.Second
	maxRequestBody  = 1 << 20
)

type Server struct {
	address string
	users   *users.Service
	logger  logging.Logger
	router  *mux.Router
	now     func() time.Time
}

func NewServer(address string, us *users.Service, l logging.Logger) *Server {
	s := &Server{
		address: address,
		users:   us,
		logger:  l.With("module", "http_server"),
		now:     time.Now,
	}
	s.router = s.routes()
	return s
}

// Handler returns the routed API, for mounting or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readTimeout,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(shutdownCtx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
