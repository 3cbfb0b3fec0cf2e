package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pledgeforprogress/pledged/pkg/config"
	"github.com/pledgeforprogress/pledged/pkg/db"
	"github.com/pledgeforprogress/pledged/pkg/events"
	"github.com/pledgeforprogress/pledged/pkg/handler"
	"github.com/pledgeforprogress/pledged/pkg/ledger"
)

type Opts struct {
	ConfigPath string `long:"config" short:"c" default:"config.toml" env:"PLEDGED_CONFIG_PATH"`
	Debug      bool   `long:"debug"`
	NoBanner   bool   `long:"no-banner"`
}

const banner = `
       _          _                _ 
 _ __ | | ___  __| | __ _  ___  __| |
| '_ \| |/ _ \/ _' |/ _' |/ _ \/ _' |
| |_) | |  __/ (_| | (_| |  __/ (_| |
| .__/|_|\___|\__,_|\__, |\___|\__,_|
|_|                 |___/            
`

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
	})

	// Parse args
	opts := Opts{}
	_, err := flags.Parse(&opts)
	if err != nil {
		log.WithError(err).Fatal("failed to parse command line arguments")
	}

	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if !opts.NoBanner {
		log.Info(banner)
	}

	log.WithFields(log.Fields{
		"version": version,
		"commit":  commit,
		"date":    date,
	}).Info("running pledged")

	if err := run(opts); err != nil {
		log.WithError(err).Fatal("pledged failed")
	}

	log.Info("gracefully stopped")
}

// run returns only after every opened resource has been closed.
func run(opts Opts) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load TOML file
	log.Debugf("loading configuration %q", opts.ConfigPath)
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration file")
	}

	if cfg.Log.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if cfg.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
	}

	storage, err := db.Open(&cfg.Database)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}

	defer func() {
		if err := storage.Close(); err != nil {
			log.WithError(err).Error("failed to close database")
		}
	}()

	publisher, err := newPublisher(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to create event publisher")
	}

	defer func() {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Error("failed to close event publisher")
		}
	}()

	campaign, err := ledger.New(ctx, storage, publisher, cfg.Campaign)
	if err != nil {
		return errors.Wrap(err, "failed to open campaign")
	}

	if cfg.Server.JWTSecret == "" {
		log.Warnf("token authentication is disabled, callers are identified by the %s header", handler.CallerHeader)
	}

	group, ctx := errgroup.WithContext(ctx)

	// Run status reports
	if cfg.Report.Schedule != "" {
		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
		if _, err := c.AddJob(cfg.Report.Schedule, NewReporter(ctx, campaign)); err != nil {
			return errors.Wrapf(err, "can't create cron task for schedule %q", cfg.Report.Schedule)
		}

		group.Go(func() error {
			c.Start()
			<-ctx.Done()

			log.Info("shutting down cron")
			<-c.Stop().Done()
			return ctx.Err()
		})
	}

	// Run web server
	srv := NewServer(cfg, handler.New(campaign, handler.Opts{JWTSecret: cfg.Server.JWTSecret}))

	group.Go(func() error {
		log.Infof("running listener at %s", srv.Addr)
		return srv.ListenAndServe()
	})

	group.Go(func() error {
		// Shutdown web server
		defer func() {
			log.Info("shutting down web server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Error("server shutdown failed")
			}
		}()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			cancel()
			return nil
		}
	})

	if err := group.Wait(); err != nil && err != context.Canceled && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func newPublisher(cfg *config.Config) (events.Publisher, error) {
	publishers := events.Multi{events.Log{}}

	if cfg.Redis.URL != "" {
		log.Infof("publishing events to redis with prefix %q", cfg.Redis.Prefix)
		r, err := events.NewRedis(cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, r)
	}

	if len(cfg.Hooks) > 0 {
		log.Infof("running %d hook(s) for campaign events", len(cfg.Hooks))
		publishers = append(publishers, events.Hooks(cfg.Hooks))
	}

	// Subscribers run off the request path, in commit order
	return events.NewQueue(publishers, 0), nil
}
