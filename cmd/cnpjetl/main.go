package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cnpjetl/internal/config"
	"cnpjetl/internal/logging"
	"cnpjetl/internal/metrics"
	"cnpjetl/internal/metrics/prompush"
	"cnpjetl/internal/pipeline"
)

// main is the entry point for the ingestion binary. It loads the pipeline
// config, optionally initializes a metrics backend, and executes one run.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/pipeline.json", "pipeline config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	issues := config.ValidatePipeline(p)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid: %v", cfgPath)
	}
	if validate {
		fmt.Printf("configuration is valid: %v\n", cfgPath)
		os.Exit(0)
	}

	if *verbose && p.Logging.Level == "" {
		p.Logging.Level = "debug"
	}
	log, err := logging.New(p.Logging)
	if err != nil {
		fatalf("init logger: %v", err)
	}
	defer log.Sync()

	// Decide metrics backend: flag → env → default.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		jobName := p.Job
		if jobName == "" {
			jobName = "cnpjetl"
		}

		b, err := prompush.NewBackend(jobName, gwURL)
		if err != nil {
			log.Warn("metrics backend init failed, using nop", zap.Error(err))
		} else {
			log.Info("metrics enabled",
				zap.String("backend", backendName),
				zap.String("url", gwURL),
				zap.String("job", jobName))
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Warn("metrics flush failed", zap.Error(err))
				}
			}()
		}

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		log.Warn("unknown metrics backend, metrics disabled", zap.String("backend", backendName))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	log.Info("run starting",
		zap.String("job", p.Job),
		zap.String("input_dir", p.InputDir),
		zap.String("output_dir", p.OutputDir))

	res, err := pipeline.Run(ctx, p, log)
	if err != nil {
		log.Error("run failed", zap.Error(err))
		os.Exit(1)
	}

	log.Info("run complete",
		zap.Int("archives", res.Archives),
		zap.Int("types", len(res.Types)),
		zap.Int64("rows", res.Report.TotalRows),
		zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
