// Command ocean plays Ocean of Code over stdin/stdout. Logs go to stderr.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/ocean/service/internal/config"
	"github.com/jason-s-yu/ocean/service/internal/feed"
	"github.com/jason-s-yu/ocean/service/internal/game"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	log.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := game.Options{
		Masks:  cfg.Masks,
		Seed:   cfg.Seed,
		Logger: log,
	}

	if cfg.FeedAddr != "" {
		hub := feed.NewHub(cfg.FeedSecret, log.WithField("component", "feed"))
		opts.BroadcastFn = func(ev game.Event) {
			if err := hub.Broadcast(ctx, string(ev.Type), ev); err != nil {
				log.WithError(err).Warn("feed broadcast failed")
			}
		}

		mux := http.NewServeMux()
		mux.Handle("/stream", hub.Handler())
		srv := &http.Server{Addr: cfg.FeedAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.WithField("addr", cfg.FeedAddr).Info("debug feed listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("debug feed stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := game.Run(ctx, os.Stdin, os.Stdout, opts); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("game aborted")
		stop()
		os.Exit(1)
	}
}
