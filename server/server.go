// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package server hosts the node's HTTP handlers behind CORS and gzip.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

var (
	_ Server = (*server)(nil)

	ErrDuplicateRoute = errors.New("duplicate route")
)

type Config struct {
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server interface {
	// AddRoute serves [handler] at /[base][endpoint].
	AddRoute(handler http.Handler, base, endpoint string) error
	Addr() net.Addr
	// Serve blocks until [ctx] is done or the listener fails. A cancelled
	// context shuts the server down gracefully.
	Serve(ctx context.Context) error
}

type server struct {
	log      logging.Logger
	cfg      Config
	listener net.Listener

	lock   sync.Mutex
	router *mux.Router
	routes map[string]struct{}

	http *http.Server
}

func New(log logging.Logger, listener net.Listener, cfg Config) Server {
	router := mux.NewRouter()
	handler := gziphandler.GzipHandler(cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
	}).Handler(router))

	log.Info("API created",
		zap.Strings("allowedOrigins", cfg.AllowedOrigins),
		zap.Stringer("address", listener.Addr()),
	)
	return &server{
		log:      log,
		cfg:      cfg,
		listener: listener,
		router:   router,
		routes:   map[string]struct{}{},
		http: &http.Server{
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
	}
}

func (s *server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *server) AddRoute(handler http.Handler, base, endpoint string) error {
	path := fmt.Sprintf("/%s%s", base, endpoint)

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.routes[path]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRoute, path)
	}
	s.routes[path] = struct{}{}
	s.router.Handle(path, handler)
	s.log.Info("added route", zap.String("path", path))
	return nil
}

func (s *server) Serve(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		errs <- s.http.Serve(s.listener)
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	err := s.http.Shutdown(shutdownCtx)
	// Connections still open after the timeout are dropped.
	_ = s.http.Close()
	<-errs
	return err
}
