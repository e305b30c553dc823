package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/noisebridge/baron/internal/adapter/driven/codefile"
	"github.com/noisebridge/baron/internal/adapter/driven/codehttp"
	githubadapter "github.com/noisebridge/baron/internal/adapter/driven/github"
	"github.com/noisebridge/baron/internal/adapter/driven/gate"
	"github.com/noisebridge/baron/internal/adapter/driven/serial"
	sqliteadapter "github.com/noisebridge/baron/internal/adapter/driven/sqlite"
	httphandler "github.com/noisebridge/baron/internal/adapter/driving/http"
	"github.com/noisebridge/baron/internal/application"
	"github.com/noisebridge/baron/internal/config"
	"github.com/noisebridge/baron/internal/domain/port/driven"
)

const (
	// selfTestPause separates the self-test's feedback signals.
	selfTestPause = time.Second
	// codeFetchTimeout bounds one request to an HTTP code source.
	codeFetchTimeout = 10 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baron",
		Short: "Keypad door controller",
		Long: `baron reads codes typed on a serial keypad, checks them against a code
list, and asks the gate API to open the door for valid ones. The keypad
beeps and lights up to report every outcome.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(cfg *config.Config) error {
	// 1. Logging to stdout or the configured file.
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	slog.Info("config loaded",
		"port", cfg.Port,
		"code_source", cfg.CodeSource,
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"promiscuous", cfg.Promiscuous,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the keypad. Nothing works without it.
	device, err := serial.Open(cfg.Port)
	if err != nil {
		return fmt.Errorf("open keypad: %w", err)
	}
	defer func() {
		if closeErr := device.Close(); closeErr != nil {
			slog.Error("error closing keypad", "error", closeErr)
		}
	}()
	slog.Info("keypad opened", "port", cfg.Port)

	// 4. Metrics.
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := application.NewMetrics(promRegistry)

	// 5. Wire adapters.
	source, err := newCodeSource(cfg)
	if err != nil {
		return err
	}
	gateClient := gate.NewClient(cfg.GateEndpoint, cfg.GateTimeout)

	var audit driven.AuditStore
	if cfg.HasAuditStore() {
		db, err := sqliteadapter.NewDB(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		version, err := sqliteadapter.MigrateAttempts(db.Writer)
		if err != nil {
			return err
		}
		audit = sqliteadapter.NewAttemptRepo(db)
		slog.Info("attempt history enabled", "path", db.Path(), "schema_version", version)
	}

	// 6. Application services.
	clock := application.SystemClock()
	provider := application.NewRegistryProvider(nil)
	loader := application.NewRegistryLoader(source, provider, clock, metrics, logger)
	authorizer := application.NewAuthorizer(loader, provider, gateClient, device, audit, clock, metrics, logger)

	if cfg.SelfTest {
		decision, err := application.NewSelfTest(device, provider, authorizer, clock, selfTestPause, logger).Run(ctx)
		if err != nil {
			return fmt.Errorf("self-test: %w", err)
		}
		slog.Info("self-test finished", "decision", decision)
		return nil
	}

	// 7. Initial load. A failure here is logged and retried on the next attempt.
	if _, err := loader.Load(ctx); err != nil {
		slog.Error("initial code load failed, every code will be denied until the source recovers", "error", err)
	}

	door := application.NewDoorService(device, authorizer, cfg.IdleTimeout, cfg.Promiscuous, metrics, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return door.Start(gctx) })

	// 8. Optional status API.
	if cfg.HasStatusAPI() {
		apiHandler := httphandler.NewHandler(provider, loader.SourceName(), cfg.Promiscuous, audit, promRegistry, clock, logger)
		srv := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           httphandler.NewRouter(apiHandler, logger),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		g.Go(func() error {
			slog.Info("status server starting", "addr", cfg.ListenAddr)
			// The door keeps working without its status page.
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("status server error", "error", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("status server shutdown error", "error", err)
			}
			return nil
		})
	}

	slog.Info("baron started", "source", loader.SourceName(), "idle_timeout", cfg.IdleTimeout)

	err = g.Wait()
	slog.Info("shutdown complete")
	return err
}

// newLogger builds the process logger. The returned func releases the log
// file, if any.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	var out io.Writer = os.Stdout
	closeFn := func() {}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closeFn, nil
}

// newCodeSource builds the CodeSource selected by cfg.CodeSource.
func newCodeSource(cfg *config.Config) (driven.CodeSource, error) {
	switch cfg.CodeSource {
	case config.SourceFile:
		return codefile.NewSource(cfg.CodeFile), nil
	case config.SourceHTTP:
		return codehttp.NewSource(cfg.CodeURL, codeFetchTimeout), nil
	case config.SourceGitHub:
		src, err := githubadapter.NewSource(cfg.GitHubToken, cfg.GitHubRepo, cfg.GitHubPath, cfg.GitHubRef)
		if err != nil {
			return nil, fmt.Errorf("create github code source: %w", err)
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown code source %q", cfg.CodeSource)
	}
}
