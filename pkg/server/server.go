package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"pathlight-web/pkg/logger"
)

// New creates an HTTP server with the timeouts the site runs with
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,  // above the slowest backend call
		IdleTimeout:       120 * time.Second, // connection reuse
		MaxHeaderBytes:    1 << 20,
	}
}

// Serve runs srv on ln until ctx is cancelled or the server fails. It does
// not shut the server down; the caller owns shutdown ordering.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, log *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", ln.Addr().String()).Info("Server starting")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}

// ListenAndServe opens srv.Addr and calls Serve
func ListenAndServe(ctx context.Context, srv *http.Server, log *logger.Logger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return Serve(ctx, srv, ln, log)
}
