package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mfriesen/litgraph/internal/bootstrap"
	"github.com/mfriesen/litgraph/internal/config"
	"github.com/mfriesen/litgraph/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "worker", cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		app.Logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Error("worker metrics server error", "error", err)
		}
	}()

	app.Logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeCorpusIngested(ctx, func(handlerCtx context.Context, corpusID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		if corpus, lookupErr := app.Corpora.GetByID(processCtx, corpusID); lookupErr == nil {
			workerMetrics.ObserveQueueLag("worker", time.Since(corpus.CreatedAt))
		}

		workerMetrics.StartCorpus()
		start := time.Now()
		processErr := app.ProcessUC.ProcessByID(processCtx, corpusID)
		workerMetrics.FinishCorpus("worker", time.Since(start), processErr)

		if processErr == nil {
			if corpus, lookupErr := app.Corpora.GetByID(processCtx, corpusID); lookupErr == nil {
				workerMetrics.AddPapersIndexed("worker", corpus.PaperCount)
			}
		}
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("worker metrics shutdown error", "error", err)
	}
	app.Close(shutdownCtx)
}
