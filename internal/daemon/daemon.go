package daemon

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/inkwell-network/inkwell/internal/api"
	"github.com/inkwell-network/inkwell/internal/app/ledger"
	"github.com/inkwell-network/inkwell/internal/app/lifecycle"
	"github.com/inkwell-network/inkwell/internal/app/promo"
	"github.com/inkwell-network/inkwell/internal/app/reading"
	"github.com/inkwell-network/inkwell/internal/app/reward"
	"github.com/inkwell-network/inkwell/internal/infra/observability"
	"github.com/inkwell-network/inkwell/internal/infra/sqlite"
)

// NewLogger builds the process logger from config.
func NewLogger(cfg LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Format == "json" {
		log = zerolog.New(os.Stderr)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return log.Level(level).With().Timestamp().Logger()
}

// Run starts the engine daemon and blocks until SIGINT/SIGTERM.
func Run(cfg Config) error {
	log := NewLogger(cfg.Log)

	db, err := sqlite.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	metrics := observability.New(prometheus.DefaultRegisterer)

	lifecycleCfg, err := cfg.LifecycleConfig()
	if err != nil {
		return err
	}
	rewardCfg, err := cfg.RewardConfig()
	if err != nil {
		return err
	}
	promoCfg, err := cfg.PromoConfig()
	if err != nil {
		return err
	}

	ledgerSvc := ledger.New(db, log, metrics)
	controller := lifecycle.New(db, lifecycleCfg, log, metrics)
	tracker := reading.New(db, cfg.ReadingConfig(), log)
	collector := reward.New(db, tracker, rewardCfg, log, metrics)
	issuer := promo.New(db, promoCfg, log, metrics)

	server := api.NewServer(ledgerSvc, controller, tracker, collector, issuer, log)
	if cfg.API.Metrics {
		server.EnableMetrics(metrics)
	}

	addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("engine listening")
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
