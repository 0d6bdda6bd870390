// ms-job ingests job domain events from Kafka, materializes canonical job
// records in Postgres, and publishes application-created events back onto the
// broker.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jobsphere/ms-job/internal/app"
	"github.com/jobsphere/ms-job/internal/config"
	"github.com/jobsphere/ms-job/internal/consumer"
	"github.com/jobsphere/ms-job/internal/dispatch"
	"github.com/jobsphere/ms-job/internal/httpapi"
	"github.com/jobsphere/ms-job/internal/logging"
	"github.com/jobsphere/ms-job/internal/metrics"
	"github.com/jobsphere/ms-job/internal/publisher"
	"github.com/jobsphere/ms-job/internal/store"
	"github.com/jobsphere/ms-job/internal/transport"

	errspkg "github.com/jobsphere/ms-job/internal/errors"
)

func main() {
	if err := run(); err != nil {
		// Exit non-zero so the supervisor restarts the service.
		slog.Error("ms-job terminated", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := config.Load()
	if err != nil {
		return err
	}

	level, _ := conf.SlogLevel()
	base := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	log := logging.NewSlogServiceLogger(base)

	log.Info("Starting ms-job", logging.LogFields{"config": conf.String()})

	pool, err := store.Connect(ctx, conf.PostgresURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	jobs := store.NewJobs(pool)
	applications := store.NewApplications(pool)

	pipelineMetrics := metrics.NewPipeline(prometheus.DefaultRegisterer)
	if conf.MetricsEnabled {
		addr := fmt.Sprintf(":%d", conf.MetricsPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			log.Info("Serving metrics", logging.LogFields{"address": addr})
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Error("Metrics server stopped", err, nil)
			}
		}()
	}

	wmLogger := logging.NewWatermillAdapter(log)

	kafkaPublisher, err := transport.NewPublisher(conf, wmLogger)
	if err != nil {
		return errspkg.NewFatalConsumerError(err)
	}
	events, err := publisher.New(kafkaPublisher, conf.PublishTopic, log, pipelineMetrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := events.Close(); err != nil {
			log.Error("Closing publisher", err, nil)
		}
	}()

	dispatcher, err := dispatch.New(jobs, log, pipelineMetrics)
	if err != nil {
		return err
	}

	group, err := transport.NewConsumerGroup(conf)
	if err != nil {
		return errspkg.NewFatalConsumerError(err)
	}
	jobConsumer, err := consumer.New(group, conf.JobEventsTopic, conf.ConsumerBackoff, dispatcher, log, pipelineMetrics)
	if err != nil {
		return err
	}

	workflow := app.NewApplications(jobs, applications, events, log)
	api := httpapi.NewServer(jobs, workflow, log)
	httpServer := &http.Server{
		Addr:              conf.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Serving HTTP API", logging.LogFields{"address": conf.HTTPAddr})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server stopped", err, nil)
		}
	}()

	// The consumer loop blocks until shutdown or a fatal broker failure.
	runErr := jobConsumer.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown", err, nil)
	}
	// On a fatal failure Run has already released the group; Close is then a
	// no-op error we can ignore.
	if err := jobConsumer.Close(); err != nil && !errspkg.IsFatalConsumer(runErr) {
		log.Error("Closing consumer group", err, nil)
	}

	return runErr
}
