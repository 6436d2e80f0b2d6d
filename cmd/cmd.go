package cmd

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/config"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/devicedb"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/entity"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/hass"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/mqtt"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/registry"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/sber"
)

const heartbeatSchedule = "@every 1m"

func SberGateCommand(ctx *cli.Context) error {
	for _, name := range []string{"hass-url", "hass-token", "sber-login"} {
		if ctx.String(name) == "" {
			return fmt.Errorf("flag %q is required", name)
		}
	}
	store, err := config.LoadStore()
	if err != nil {
		return err
	}
	cfg := &config.Config{
		HassCfg: &config.HassConfig{
			URL:                ctx.String("hass-url"),
			Token:              ctx.String("hass-token"),
			InsecureSkipVerify: ctx.Bool("insecure-skip-verify"),
			RetryDelay:         ctx.Duration("retry-delay"),
			KeepaliveInterval:  ctx.Duration("keepalive-interval"),
			PingInterval:       ctx.Duration("ws-ping-interval"),
			IgnorePrefixes:     hass.DefaultIgnorePrefixes,
		},
		SberCfg: &config.SberConfig{
			Broker:             ctx.String("sber-broker"),
			Login:              ctx.String("sber-login"),
			Password:           ctx.String("sber-password"),
			InsecureSkipVerify: ctx.Bool("insecure-skip-verify"),
			PublishTimeout:     ctx.Duration("publish-timeout"),
		},
		StoreCfg: store,
		LogLevel: ctx.String("log-level"),
		Version:  ctx.App.Version,
	}
	if prefixes := ctx.StringSlice("ignore-prefix"); len(prefixes) > 0 {
		cfg.HassCfg.IgnorePrefixes = prefixes
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	reg, err := openRegistry(cfg.StoreCfg)
	if err != nil {
		return err
	}
	catalogue, err := devicedb.LoadCatalogue(cfg.StoreCfg.Path(cfg.StoreCfg.CategoriesFile))
	if err != nil {
		return err
	}
	options, err := config.LoadOptions(cfg.StoreCfg.Path(cfg.StoreCfg.OptionsFile))
	if err != nil {
		return err
	}
	db := devicedb.New(reg, catalogue, cfg.Version)

	hassSvc := hass.New(cfg.HassCfg, db)
	broker := mqtt.Dial(cfg.SberCfg)
	sberSvc := sber.New(cfg.SberCfg, broker, db, hassSvc, options)
	hassSvc.SetPublisher(sberSvc)

	return run(ctx.Context, broker, hassSvc, sberSvc, db)
}

func newLogger(level string) (*zap.Logger, error) {
	var err error
	logCfg := zap.NewProductionConfig()
	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	return logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

// openRegistry builds the entity registry for the configured typed domains
// and loads its persisted overrides. Broken store files are logged and
// replaced by empty defaults.
func openRegistry(store *config.StoreConfig) (*registry.Registry, error) {
	domains := store.TypedDomains
	if len(domains) == 0 {
		domains = entity.DefaultDomains
	}
	ctors, err := entity.ConstructorsFor(domains)
	if err != nil {
		return nil, err
	}
	reg := registry.New(ctors, store.Path(store.PlacementsFile), store.Path(store.EnabledFile))
	if err := reg.Load(); err != nil {
		zap.L().Warn("failed to load registry store", zap.Error(err))
	}
	return reg, nil
}

func run(ctx context.Context, broker Broker, upstream UpstreamService, downstream DownstreamService, db DeviceDatabase) error {
	logger := zap.L()
	if err := broker.Connect(); err != nil {
		return err
	}
	defer broker.Close()

	eg, ctx := errgroup.WithContext(ctx)

	if err := downstream.Start(ctx); err != nil {
		return err
	}

	eg.Go(func() error {
		return upstream.Run(ctx)
	})

	eg.Go(func() error {
		c := cron.New()
		if _, err := c.AddFunc(heartbeatSchedule, func() {
			heartbeat(db, downstream)
		}); err != nil {
			return fmt.Errorf("heartbeat: %w", err)
		}
		c.Start()
		<-ctx.Done()
		<-c.Stop().Done()
		logger.Info("context done")
		return ctx.Err()
	})

	return eg.Wait()
}

// heartbeat logs the database counters and, once bootstrap has finished,
// republishes every enabled device's state.
func heartbeat(db DeviceDatabase, downstream DownstreamService) {
	stats := db.Stats()
	zap.L().Info("heartbeat",
		zap.Bool("ready", stats.Ready),
		zap.Int("typed", stats.Typed),
		zap.Int("legacy", stats.Legacy),
		zap.Int("enabled", stats.Enabled),
	)
	if !stats.Ready {
		return
	}
	if err := downstream.PublishStatus(); err != nil {
		zap.L().Error("failed to republish states", zap.Error(err))
	}
}
