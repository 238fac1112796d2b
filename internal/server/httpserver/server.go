package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/yndnr/supplier-portal/internal/infra/tlsroots"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
}

// New creates a new HTTP server.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
	}
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return ignoreClosed(s.httpServer.Serve(ln))
}

// ServeTLS is Serve with certificates from certs, which may be reloaded
// while the server runs.
func (s *Server) ServeTLS(ln net.Listener, certs *tlsroots.CertReloader) error {
	s.httpServer.TLSConfig = certs.ServerConfig()
	return ignoreClosed(s.httpServer.ServeTLS(ln, "", ""))
}

// ListenAndServe listens on the configured address and serves. certs
// may be nil for plain HTTP.
func (s *Server) ListenAndServe(certs *tlsroots.CertReloader) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	if certs != nil {
		return s.ServeTLS(ln, certs)
	}
	return s.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
