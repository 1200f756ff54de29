// Package devserver serves a watched build with API proxying and an error overlay.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/browser"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/419921017/ph-fe-template/internal/assets"
	"github.com/419921017/ph-fe-template/internal/buildconfig"
	"github.com/419921017/ph-fe-template/internal/devproxy"
	httpx "github.com/419921017/ph-fe-template/internal/http"
	"github.com/419921017/ph-fe-template/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Builder is the part of the asset pipeline the server drives.
type Builder interface {
	Watch(ctx context.Context) error
	Problems() assets.Problems
}

type Options struct {
	// Host to listen on, all interfaces when empty
	Host        string
	CORSOrigins []string
	Logger      zerolog.Logger
	// OpenBrowser opens the served URL when the configuration asks for it
	OpenBrowser func(url string) error
}

type Server struct {
	cfg      *buildconfig.Configuration
	outDir   string
	builder  Builder
	proxies  devproxy.Table
	opts     Options
	listener net.Listener
}

// New prepares a server for cfg. outDir is the directory the builder writes to.
func New(cfg *buildconfig.Configuration, outDir string, builder Builder, opts Options) (*Server, error) {
	proxies, err := devproxy.NewTable(&cfg.DevServer.Proxy)
	if err != nil {
		return nil, fmt.Errorf("failed to mount proxies: %w", err)
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = browser.OpenURL
	}
	return &Server{cfg: cfg, outDir: outDir, builder: builder, proxies: proxies, opts: opts}, nil
}

// Handler routes proxied paths upstream and serves the build for the rest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /__problems", s.problems)
	mux.Handle("/", s.proxies.Handler(s.overlay(s.static())))

	return httpx.Chain(mux,
		httpx.ClientIPMiddleware(),
		logger.Requests(s.opts.Logger),
		withCORS(s.opts.CORSOrigins),
		httpx.NoCache(),
	)
}

// Run watches the sources and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.cfg.DevServer.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln

	srv := configureHTTPServer(addr, s.Handler())
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.builder.Watch(gctx)
	})
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	url := s.URL()
	s.opts.Logger.Info().Str("url", url).Int("proxies", len(s.proxies)).Msg("Dev server listening")
	if s.cfg.DevServer.Open {
		if err := s.opts.OpenBrowser(url); err != nil {
			s.opts.Logger.Warn().Err(err).Msg("Failed to open browser")
		}
	}

	return g.Wait()
}

// URL is the local address the server answers on.
func (s *Server) URL() string {
	port := s.cfg.DevServer.Port
	if s.listener != nil {
		if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
			port = tcp.Port
		}
	}
	return "http://localhost:" + strconv.Itoa(port) + s.cfg.Output.PublicPath
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

func withCORS(allowedOrigins []string) httpx.Middleware {
	middleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders: []string{"*"},
	})
	return middleware.Handler
}
