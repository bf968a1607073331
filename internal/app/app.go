package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/MikhailRaia/golinks/internal/config"
	"github.com/MikhailRaia/golinks/internal/generator"
	"github.com/MikhailRaia/golinks/internal/handler"
	"github.com/MikhailRaia/golinks/internal/metrics"
	"github.com/MikhailRaia/golinks/internal/proto"
	"github.com/MikhailRaia/golinks/internal/service"
	"github.com/MikhailRaia/golinks/internal/storage"
	"github.com/MikhailRaia/golinks/internal/storage/bolt"
	"github.com/MikhailRaia/golinks/internal/storage/file"
	"github.com/MikhailRaia/golinks/internal/storage/memory"
	"github.com/MikhailRaia/golinks/internal/storage/postgres"
	"github.com/MikhailRaia/golinks/internal/storage/redis"
)

type App struct {
	config       *config.Config
	handler      http.Handler
	grpcServer   *grpc.Server
	closeStorage func() error
}

// NewStorage opens the backend chosen by cfg.Backend. The returned closer
// releases it and is never nil.
func NewStorage(ctx context.Context, cfg *config.Config) (storage.URLStorage, func() error, error) {
	noop := func() error { return nil }

	switch backend := cfg.Backend(); backend {
	case config.BackendMemory:
		return memory.NewStorage(), noop, nil

	case config.BackendFile:
		if cfg.FileStoragePath == "" {
			return nil, nil, errors.New("file backend requires a file storage path")
		}
		s, err := file.NewStorage(cfg.FileStoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening file storage: %w", err)
		}
		return s, s.Close, nil

	case config.BackendBolt:
		if cfg.BoltPath == "" {
			return nil, nil, errors.New("bolt backend requires a database path")
		}
		s, err := bolt.NewStorage(cfg.BoltPath)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening bolt storage: %w", err)
		}
		return s, s.Close, nil

	case config.BackendPostgres:
		s, err := postgres.NewStorage(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("error connecting to postgres: %w", err)
		}
		return s, s.Close, nil

	case config.BackendRedis:
		client, err := redis.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("error connecting to redis: %w", err)
		}
		s := redis.NewStorage(client)
		return s, s.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, closeStorage, err := NewStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend := cfg.Backend()
	log.Info().Str("backend", backend).Msg("Storage initialized")

	urlService := service.NewURLService(
		metrics.InstrumentStorage(backend, store),
		generator.NewHashGenerator(),
		cfg.ShortenAttempts,
	)

	httpHandler := handler.NewHandler(urlService, cfg.BaseURL)

	a := &App{
		config:       cfg,
		handler:      httpHandler.RegisterRoutes(),
		closeStorage: closeStorage,
	}

	if cfg.GRPCAddress != "" {
		a.grpcServer = grpc.NewServer()
		proto.RegisterShortenerServer(a.grpcServer, handler.NewShortenerGRPCServer(urlService, grpcBaseURL(cfg)))
	}

	return a, nil
}

// grpcBaseURL is the base for short URLs returned over gRPC, where no request host is available.
func grpcBaseURL(cfg *config.Config) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	if strings.HasPrefix(cfg.ServerAddress, ":") {
		return "http://localhost" + cfg.ServerAddress
	}
	return "http://" + cfg.ServerAddress
}

// Handler exposes the HTTP routes, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves until ctx is cancelled or a server fails, then shuts the servers
// down within the configured timeout and closes storage.
func (a *App) Run(ctx context.Context) error {
	httpListener, err := net.Listen("tcp", a.config.ServerAddress)
	if err != nil {
		a.releaseStorage()
		return fmt.Errorf("error listening on %s: %w", a.config.ServerAddress, err)
	}

	var grpcListener net.Listener
	if a.grpcServer != nil {
		grpcListener, err = net.Listen("tcp", a.config.GRPCAddress)
		if err != nil {
			httpListener.Close()
			a.releaseStorage()
			return fmt.Errorf("error listening on %s: %w", a.config.GRPCAddress, err)
		}
	}

	return a.Serve(ctx, httpListener, grpcListener)
}

// Serve is Run on already open listeners. grpcListener may be nil when gRPC is disabled.
func (a *App) Serve(ctx context.Context, httpListener, grpcListener net.Listener) error {
	server := &http.Server{Handler: a.handler}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("address", httpListener.Addr().String()).Msg("Starting HTTP server")
		if err := server.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.grpcServer != nil && grpcListener != nil {
		g.Go(func() error {
			log.Info().Str("address", grpcListener.Addr().String()).Msg("Starting gRPC server")
			if err := a.grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Dur("timeout", a.config.ShutdownTimeout).Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
		defer cancel()

		if a.grpcServer != nil {
			stopped := make(chan struct{})
			go func() {
				a.grpcServer.GracefulStop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-shutdownCtx.Done():
				a.grpcServer.Stop()
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()

	if closeErr := a.releaseStorage(); err == nil {
		err = closeErr
	}

	log.Info().Msg("Server stopped")
	return err
}

// releaseStorage closes the storage backend, logging any failure.
func (a *App) releaseStorage() error {
	err := a.closeStorage()
	if err != nil {
		log.Error().Err(err).Msg("Failed to close storage")
	}
	return err
}
