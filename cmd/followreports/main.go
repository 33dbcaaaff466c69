// Command followreports tails the report topic and prints each surf report
// event as one JSON line. Malformed events are logged and skipped.
//
// Usage:
//
//	go run ./cmd/followreports
//	go run ./cmd/followreports -location ocean-beach -group surf-dashboard
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/surf-report-service/internal/adapter/kafka"
	"github.com/couchcryptid/surf-report-service/internal/config"
	"github.com/couchcryptid/surf-report-service/internal/domain"
	"github.com/couchcryptid/surf-report-service/internal/observability"
)

type reportSource interface {
	ReadReport(ctx context.Context) (domain.SurfReport, error)
}

func main() {
	os.Exit(run())
}

func run() int {
	location := flag.String("location", "", "only print reports for this location")
	group := flag.String("group", "surf-report-follower", "Kafka consumer group")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 2
	}
	logger := observability.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.KafkaReportTopic, *group)
	defer reader.Close()

	logger.Info("following report topic", "topic", cfg.KafkaReportTopic, "group", *group)
	if err := follow(ctx, reader, *location, os.Stdout, logger); err != nil {
		logger.Error("read report", "error", err)
		return 1
	}
	return 0
}

// follow copies report events to w until ctx is done.
func follow(ctx context.Context, src reportSource, location string, w io.Writer, logger *slog.Logger) error {
	enc := json.NewEncoder(w)
	for {
		report, err := src.ReadReport(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, kafka.ErrMalformedEvent):
			logger.Warn("skipping malformed event", "error", err)
			continue
		case err != nil:
			return err
		}

		if location != "" && report.Location != location {
			continue
		}
		if err := enc.Encode(report); err != nil {
			return err
		}
	}
}
