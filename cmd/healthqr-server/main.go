package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/service"
	"github.com/Saiguru2554/Health-Link-Qr/internal/infra/buildinfo"
	"github.com/Saiguru2554/Health-Link-Qr/internal/infra/confloader"
	"github.com/Saiguru2554/Health-Link-Qr/internal/infra/shutdown"
	"github.com/Saiguru2554/Health-Link-Qr/internal/server/config"
	"github.com/Saiguru2554/Health-Link-Qr/internal/server/httpserver"
	"github.com/Saiguru2554/Health-Link-Qr/internal/server/httpserver/handler"
	"github.com/Saiguru2554/Health-Link-Qr/internal/storage"
	"github.com/Saiguru2554/Health-Link-Qr/internal/storage/memory"
	"github.com/Saiguru2554/Health-Link-Qr/internal/telemetry/logger"
	"github.com/Saiguru2554/Health-Link-Qr/internal/telemetry/metric"
	"github.com/Saiguru2554/Health-Link-Qr/pkg/qrtoken"
)

func main() {
	app := &cli.App{
		Name:    "healthqr-server",
		Usage:   "Patient QR code issuing and verification service",
		Version: buildinfo.Get().String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"HEALTHQR_CONFIG"},
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, c.String("config"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	cfg, loader, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting healthqr-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	registry := metric.NewRegistry()

	kv, err := initStorage(cfg, registry, log)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	patients := storage.NewPatientStore(kv)
	registry.MustRegister(metric.NewCollector(patients.Count))

	services := initServices(cfg, patients, registry)

	routerCfg := &httpserver.RouterConfig{
		Handler: handler.Config{
			QR:        services.QR,
			Resolver:  services.Resolver,
			Patients:  services.Patients,
			ImageSize: cfg.QR.ImageSize,
			Ready: func(ctx context.Context) error {
				_, err := patients.Count(ctx)
				return err
			},
			Logger: log,
		},
		Logger:             log,
		CORSAllowedOrigins: cfg.Server.HTTP.CORSAllowedOrigins,
		RateLimit:          cfg.Server.HTTP.RateLimit,
		RateBurst:          cfg.Server.HTTP.RateBurst,
		EnableAudit:        cfg.Server.HTTP.EnableAudit,
	}
	if cfg.Metrics.Enabled {
		routerCfg.Handler.Metrics = registry.Handler()
		routerCfg.Handler.MetricsPath = cfg.Metrics.Path
		routerCfg.Observer = registry
	}

	httpCfg := cfg.Server.HTTP
	srvCfg := httpserver.Config{
		Addr:         httpCfg.Addr,
		TLSCertFile:  httpCfg.TLSCertFile,
		TLSKeyFile:   httpCfg.TLSKeyFile,
		ReadTimeout:  httpCfg.ReadTimeout,
		WriteTimeout: httpCfg.WriteTimeout,
		IdleTimeout:  httpCfg.IdleTimeout,
		Logger:       log,
	}
	srv := httpserver.New(srvCfg, httpserver.NewRouter(routerCfg))

	shutdownHandler := shutdown.NewHandler(httpCfg.ShutdownTimeout, shutdown.WithLogger(log))

	// Hooks run in reverse order of registration.
	shutdownHandler.OnShutdown("logger", func(context.Context) error {
		_ = logger.Sync()
		return nil
	})
	shutdownHandler.OnShutdown("storage", func(context.Context) error {
		return kv.Close()
	})

	if watcher := watchConfig(loader, log); watcher != nil {
		shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
			return watcher.Stop()
		})
	}

	shutdownHandler.OnShutdown("http server", srv.Shutdown)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			serveErr <- err
			shutdownHandler.Trigger()
		}
	}()

	log.Info("server started", "addr", httpCfg.Addr, "tls", srvCfg.TLSEnabled(), "storage", cfg.Storage.Engine)
	err = shutdownHandler.Wait(ctx)

	select {
	case serr := <-serveErr:
		err = errors.Join(fmt.Errorf("http server: %w", serr), err)
	default:
	}
	if err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig layers the config file and environment over the defaults.
func loadConfig(configFile string) (*config.ServerConfig, *confloader.Loader, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)

	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, loader, nil
}

func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// initStorage opens the configured engine and seals values when an
// encryption key is set.
func initStorage(cfg *config.ServerConfig, registry *metric.Registry, log logger.Logger) (storage.KV, error) {
	var kv storage.KV
	switch cfg.Storage.Engine {
	case config.EngineBadger:
		bkv, err := storage.NewBadgerKV(cfg.Storage.KVConfig(), log.With("component", "badger"))
		if err != nil {
			return nil, err
		}
		bkv.RegisterMetrics(registry.Prometheus())
		kv = bkv
	default:
		kv = memory.New()
	}

	cipher, err := cfg.Security.NewCipher()
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	if cipher != nil {
		log.Info("encryption at rest enabled", "cipher", string(cipher.Type()))
		kv = storage.NewSealedKV(kv, cipher)
	}
	return kv, nil
}

// Services holds the domain services.
type Services struct {
	QR       *service.QRService
	Resolver *service.ResolverService
	Patients *service.PatientService
}

func initServices(cfg *config.ServerConfig, patients *storage.PatientStore, rec service.Recorder) *Services {
	codec := qrtoken.New(
		qrtoken.WithMaxAge(cfg.QR.MaxAge),
		qrtoken.WithMaxTokenLength(cfg.QR.MaxTokenLength),
	)
	qr := service.NewQRService(codec, &service.QRServiceConfig{
		BaseURL:  cfg.QR.BaseURL,
		Recorder: rec,
	})
	return &Services{
		QR:       qr,
		Resolver: service.NewResolverService(qr, patients, rec),
		Patients: service.NewPatientService(patients, rec),
	}
}

// watchConfig reapplies the log level when the config file changes.
// Other settings need a restart.
func watchConfig(loader *confloader.Loader, log logger.Logger) *confloader.Watcher {
	path := loader.FilePath()
	if path == "" {
		return nil
	}

	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		log.Warn("config watcher unavailable", "error", err)
		return nil
	}
	if err := watcher.Watch(path); err != nil {
		_ = watcher.Stop()
		return nil
	}

	watcher.OnChange(func(string) {
		next := config.Default()
		if err := loader.Reload(next); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if err := config.Verify(next); err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		logger.SetLevel(next.Log.Level)
		log.Info("configuration reloaded", "log_level", next.Log.Level)
	})
	watcher.StartAsync()
	return watcher
}
