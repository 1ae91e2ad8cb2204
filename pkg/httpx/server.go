// Package httpx provides HTTP server utilities and helpers for rnncast services.
package httpx

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	rnntls "github.com/HatiCode/rnncast/pkg/tls"
)

// Server is an http.Server with graceful shutdown. It serves HTTPS when
// constructed with a TLS config and plain HTTP otherwise.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a server for handler on addr. tlsConfig may be nil; when
// set it must already carry the server certificates.
func NewServer(addr string, handler http.Handler, tlsConfig *tls.Config, logger *slog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			TLSConfig:         tlsConfig,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Serve blocks until the server is stopped. A graceful Stop returns nil.
func (s *Server) Serve() error {
	var err error
	if s.server.TLSConfig != nil {
		s.logger.Info("serving HTTPS", "addr", s.server.Addr)
		err = s.server.ListenAndServeTLS("", "")
	} else {
		s.logger.Info("serving HTTP", "addr", s.server.Addr)
		err = s.server.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("serve %s: %w", s.server.Addr, err)
}

// Stop drains in-flight requests for at most timeout.
func (s *Server) Stop(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped", "addr", s.server.Addr)
	return nil
}

// ErrorResponse is the JSON body of every error reply: {"error":"<msg>"}.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes v as JSON with the given status code. When v cannot be
// encoded nothing of it is sent and the client gets a bare 500.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return fmt.Errorf("encode JSON: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	return nil
}

// WriteError writes err's message as a JSON error response.
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteErrorMessage(w, status, err.Error())
}

// WriteErrorMessage writes a JSON error response with a custom message.
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	if err := WriteJSON(w, status, ErrorResponse{Error: message}); err != nil {
		slog.Error("failed to write error message", "error", err, "message", message)
	}
}

// HealthHandler always responds 200 OK.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	}
}

// HealthHandlerWithCheck responds 503 with the check error, or 200 OK.
func HealthHandlerWithCheck(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := check(ctx); err != nil {
			WriteError(w, http.StatusServiceUnavailable, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	}
}

// NewClient creates an HTTP client. When tlsCfg is enabled the client
// presents its certificate and verifies the server against the CA.
func NewClient(tlsCfg rnntls.Config, timeout time.Duration) (*http.Client, error) {
	var cryptoTLSConfig *tls.Config
	var err error

	if tlsCfg.Enabled {
		cryptoTLSConfig, err = rnntls.NewClientTLSConfig(tlsCfg.CertFile, tlsCfg.KeyFile, tlsCfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("create TLS config: %w", err)
		}
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		TLSClientConfig:     cryptoTLSConfig,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}
