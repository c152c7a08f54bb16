package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/aretw0/pangea"
	"github.com/aretw0/pangea/internal/config"
	"github.com/aretw0/pangea/internal/presentation/tui"
	httpAdapter "github.com/aretw0/pangea/pkg/adapters/http"
	"github.com/aretw0/pangea/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/pangea/pkg/adapters/redis"
	"github.com/aretw0/pangea/pkg/domain"
	"github.com/aretw0/pangea/pkg/dsl"
	"github.com/aretw0/pangea/pkg/observability"
	"github.com/aretw0/pangea/pkg/persistence/middleware"
	"github.com/aretw0/pangea/pkg/ports"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [document.yaml...]",
	Short: "Serve modals to a remote host over HTTP",
	Long: `Starts the HTTP host bridge. Each document given is opened as a modal
session addressed by its name; the remote host receives trees over
Server-Sent Events on /events and acknowledges them with
POST /modals/{uiID}/ack/{ackID}.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}

		rt, err := newRuntime(cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := context.Background()
		for _, path := range args {
			uiID, err := rt.OpenDocument(ctx, path)
			if err != nil {
				return err
			}
			logger.Info("modal opened", "ui_id", uiID, "document", path)
		}

		srv := &http.Server{
			Addr:    cfg.HTTP.Addr,
			Handler: rt.Handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			tui.PrintBanner(cmd.ErrOrStderr())
			logger.Info("starting pangea server", "addr", srv.Addr, "store", cfg.Store.Driver, "handles", cfg.Handles.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("start shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", cfg.HTTP.ShutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "err", err)
				}
			}
			logger.Info("pangea server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on; overrides http.addr")
}

// runtime is everything a serving process wires together.
type runtime struct {
	SDK     *pangea.SDK
	Host    *httpAdapter.Host
	Store   ports.SnapshotStore
	Metrics *observability.Metrics
	Handler http.Handler

	logger  *slog.Logger
	closers []func() error
}

// newRuntime builds the host, stores and SDK selected by cfg.
func newRuntime(cfg config.Config, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{logger: logger}

	var registryOpts []memory.RegistryOption
	var sdkOpts []pangea.Option

	if cfg.UsesRedis() {
		client := redisAdapter.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		rt.closers = append(rt.closers, client.Close)

		if cfg.Handles.Driver == config.DriverRedis {
			registryOpts = append(registryOpts, memory.WithAllocator(redisAdapter.NewHandleAllocator(client, cfg.Redis.Prefix)))
		}
		if cfg.Store.Driver == config.DriverRedis {
			rt.Store = redisAdapter.NewFromClient(client,
				redisAdapter.WithPrefix(cfg.Redis.Prefix),
				redisAdapter.WithTTL(cfg.Redis.TTL),
			)
			sdkOpts = append(sdkOpts, pangea.WithLocker(redisAdapter.NewLocker(client, cfg.Redis.Prefix), cfg.Redis.LockTTL))
		}
	}
	if rt.Store == nil {
		rt.Store = memory.NewStore()
	}
	if cfg.Encryption.Key != "" {
		mw, err := encryptionMiddleware(cfg.Encryption)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.Store = middleware.Chain(rt.Store, mw)
	}

	rt.Host = httpAdapter.NewHost(memory.NewRegistry(registryOpts...), httpAdapter.WithLogger(logger))

	hooks := []domain.LifecycleHooks{observability.LogHooks(logger), rt.Host.Hooks()}
	serverOpts := []httpAdapter.ServerOption{httpAdapter.WithServerLogger(logger)}
	if cfg.Metrics.Enabled {
		rt.Metrics = observability.NewMetrics()
		hooks = append(hooks, rt.Metrics.Hooks())
		serverOpts = append(serverOpts, httpAdapter.WithMetricsHandler(rt.Metrics.Handler()))
	}

	sdkOpts = append(sdkOpts,
		pangea.WithLogger(logger),
		pangea.WithLifecycleHooks(domain.ChainHooks(hooks...)),
		pangea.WithSnapshotStore(rt.Store),
		pangea.WithCoalesce(cfg.Session.Coalesce),
	)
	sdk, err := pangea.New(rt.Host, sdkOpts...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.SDK = sdk
	rt.Handler = httpAdapter.NewHandler(rt.Host, sdk.Sessions(), serverOpts...)
	return rt, nil
}

func encryptionMiddleware(cfg config.EncryptionConfig) (middleware.Middleware, error) {
	active, err := middleware.DecodeKey(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("encryption.key: %w", err)
	}
	var fallback [][]byte
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.DecodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("encryption.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
}

// OpenDocument opens the document at path as a modal named after it.
func (rt *runtime) OpenDocument(ctx context.Context, path string) (string, error) {
	doc, err := dsl.LoadFile(path)
	if err != nil {
		return "", err
	}
	component, err := doc.Bind(placeholderHandlers(doc, rt.logger))
	if err != nil {
		return "", err
	}

	uiID := doc.Name
	if uiID == "" {
		uiID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	_, err = rt.SDK.RenderModal(ctx, component, pangea.ModalProps(uiID, nil), func() {
		rt.logger.Info("modal shown", "ui_id", uiID)
	})
	if err != nil {
		return "", err
	}
	return uiID, nil
}

// Close closes sessions and backend connections.
func (rt *runtime) Close() error {
	if rt.SDK != nil {
		rt.SDK.Close()
	}
	var errs []error
	for _, c := range rt.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
