package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/amethyst/internal/app/dispatch"
	"github.com/atinyakov/amethyst/internal/app/server"
	"github.com/atinyakov/amethyst/internal/app/server/grpc"
	"github.com/atinyakov/amethyst/internal/app/service"
	"github.com/atinyakov/amethyst/internal/config"
	"github.com/atinyakov/amethyst/internal/logger"
	"github.com/atinyakov/amethyst/internal/metrics"
	"github.com/atinyakov/amethyst/internal/repository"
	"github.com/atinyakov/amethyst/internal/storage"
)

var buildVersion string
var buildDate string
var buildCommit string

const shutdownTimeout = 10 * time.Second

func valueOrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func main() {
	fmt.Printf("Build version: %s\n", valueOrNA(buildVersion))
	fmt.Printf("Build date: %s\n", valueOrNA(buildDate))
	fmt.Printf("Build commit: %s\n", valueOrNA(buildCommit))

	options, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, log.Log); err != nil {
		log.Log.Error("server stopped with error", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

// linkStore is a service.Storage that owns resources.
type linkStore interface {
	service.Storage
	Close() error
}

// openStore picks the SQL store when a DSN is set, the file store when a
// path is set and the in-memory store otherwise.
func openStore(ctx context.Context, opts *config.Options, log *zap.Logger) (linkStore, error) {
	switch {
	case opts.DatabaseDSN != "":
		log.Info("using db", zap.String("driver", opts.DatabaseDriver))
		db, err := repository.InitDB(ctx, opts.DatabaseDriver, opts.DatabaseDSN, log)
		if err != nil {
			return nil, err
		}
		return repository.CreateLinkRepository(db, opts.DatabaseDriver, log), nil

	case opts.FilePath != "":
		log.Info("using file", zap.String("filePath", opts.FilePath))
		return storage.NewFileStorage(opts.FilePath, log)

	default:
		log.Info("using in memory storage")
		return storage.CreateMemoryStorage()
	}
}

// newLookup resolves slugs locally unless a remote lookup endpoint is set.
func newLookup(opts *config.Options, svc *service.LinkService) dispatch.Lookup {
	if opts.LookupEndpoint != "" {
		return dispatch.NewHTTPLookup(opts.LookupEndpoint, opts.RequestTimeout)
	}
	return svc
}

func run(ctx context.Context, opts *config.Options, log *zap.Logger) error {
	store, err := openStore(ctx, opts, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	m := metrics.New()
	generator := service.NewSlugGenerator(store, nil, opts.SlugAttempts)
	svc := service.NewLinkService(store, generator, log)

	dispatcher, err := dispatch.New(opts.ResultHostname, newLookup(opts, svc))
	if err != nil {
		return err
	}

	router, err := server.Init(opts, svc, dispatcher, m, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              opts.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var grpcServer *grpc.Server
	if opts.GRPCPort != 0 {
		grpcServer = grpc.New(opts.ResultHostname, log, svc, m, opts.GRPCPort)
	}

	var serve func() error
	if opts.EnableHTTPS {
		host, err := hostOf(opts.ResultHostname)
		if err != nil {
			return err
		}
		manager := &autocert.Manager{
			Cache:      autocert.DirCache("cache-dir"),
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(host),
		}
		srv.Addr = ":443"
		srv.TLSConfig = manager.TLSConfig()

		serve = func() error {
			log.Info("Server is running with TLS", zap.String("host", host))
			return srv.ListenAndServeTLS("", "")
		}
	} else {
		serve = func() error {
			log.Info("Server is running", zap.String("addr", opts.Port))
			return srv.ListenAndServe()
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := serve(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if grpcServer != nil {
		g.Go(grpcServer.Start)
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func hostOf(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("base url %q has no host", base)
	}
	return u.Hostname(), nil
}
