package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Server forwards browser requests under /api/ to the remote workplace API,
// attaching the bearer credentials the browser never sees. This is what
// lets the static demo pages call the API without embedding secrets.
type Server struct {
	logger *slog.Logger
	target *url.URL
	source oauth2.TokenSource
}

func New(logger *slog.Logger, baseURL string, source oauth2.TokenSource) (*Server, error) {
	target, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host required", baseURL)
	}
	return &Server{logger: logger, target: target, source: source}, nil
}

// Handler builds the http handler: /api/* proxied with credentials, plus a
// health probe.
func (s *Server) Handler() http.Handler {
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(s.target)
			pr.Out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, "/api")
			if pr.Out.URL.Path == "" {
				pr.Out.URL.Path = "/"
			}
			pr.Out.Host = s.target.Host
			// Browser cookies must not leak to the remote service.
			pr.Out.Header.Del("Cookie")
			tok, err := s.source.Token()
			if err != nil {
				s.logger.Error("Could not obtain token for proxied request", "error", err)
				return
			}
			tok.SetAuthHeader(pr.Out)
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Error("Proxy request failed", "path", r.URL.Path, "error", err)
			http.Error(w, "upstream request failed", http.StatusBadGateway)
		},
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", s.withCORS(s.logged(rp)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Proxy listening", "addr", addr, "target", s.target.String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// withCORS makes the proxy callable from the demo pages served off another
// origin (or file://).
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("Proxied request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
