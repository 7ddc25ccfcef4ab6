// Command ca-audit recomputes the CA of stored rental episodes and, with
// -backfill, corrects the rows that do not match the billing formula.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"rentalyard/internal/config"
	"rentalyard/internal/database"
	"rentalyard/internal/events"
	"rentalyard/internal/kafka"
	"rentalyard/internal/logger"
	"rentalyard/internal/middleware"
	"rentalyard/internal/service"

	"go.uber.org/zap"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitSetup       = 2
	exitDiscrepancy = 3
)

type options struct {
	backfill bool
	dryRun   bool
	actor    string
}

func main() {
	var opts options
	flag.BoolVar(&opts.backfill, "backfill", false, "correct stored CA amounts that differ from the recomputed ones")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "with -backfill, report the corrections without writing them")
	flag.StringVar(&opts.actor, "actor", middleware.SystemActor, "actor recorded on BACKFILL_CA audit entries")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, opts, config.Load, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run returns the process exit code so deferred cleanup completes first.
func run(ctx context.Context, opts options, load func() (*config.Config, error), stdout, stderr io.Writer) int {
	cfg, err := load()
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return exitSetup
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "logger setup failed: %v\n", err)
		return exitSetup
	}
	defer func() { _ = log.Sync() }()

	stores, err := database.Open(cfg, log)
	if err != nil {
		log.Error("storage setup failed", zap.Error(err))
		return exitSetup
	}
	defer func() { _ = stores.Close() }()

	publisher, closePublisher := eventPublisher(cfg, log)
	defer func() { _ = closePublisher() }()

	svc := service.NewCAAuditService(stores.Rentals, stores.Audit, stores.Tx, publisher, log)

	var report service.CAAuditReport
	if opts.backfill {
		report, err = svc.Backfill(ctx, opts.actor, opts.dryRun)
	} else {
		report, err = svc.Audit(ctx)
	}
	if err != nil {
		log.Error("CA audit failed", zap.Error(err))
		return exitFailure
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Error("failed to write report", zap.Error(err))
		return exitFailure
	}

	if !opts.backfill && len(report.Discrepancies) > 0 {
		return exitDiscrepancy
	}
	return exitOK
}

// eventPublisher sends CA_CORRECTED events to kafka when brokers are
// configured. Without brokers the events are dropped.
func eventPublisher(cfg *config.Config, log *zap.Logger) (events.Publisher, func() error) {
	if !cfg.Kafka.Enabled() {
		return events.Nop{}, func() error { return nil }
	}
	p := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	log.Info("publishing CA corrections to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	return p, p.Close
}
