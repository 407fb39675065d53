package api

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Server runs the HTTP layer and shuts it down when the context ends.
type Server struct{ *http.Server }

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{Server: &http.Server{Addr: addr, Handler: handler}}
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe() }()
	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
