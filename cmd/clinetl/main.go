package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"clinetl/internal/config"
	"clinetl/internal/metrics"
	"clinetl/internal/metrics/datadog"
	"clinetl/internal/metrics/prompush"
	"clinetl/internal/pipeline"
)

// main is the entry point for the pipeline binary. It loads the job config,
// optionally initializes a metrics backend, and executes the run.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		datadogAddrFlg    string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/encounters.json", "job config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&datadogAddrFlg, "datadog-addr", "", "DogStatsD address (overrides env DD_AGENT_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
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
		log.Printf("configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	setupMetrics(metricsBackendFlg, pushGatewayURLFlg, datadogAddrFlg, p.Job, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	start := time.Now()
	res, err := pipeline.Run(context.Background(), p)
	if err != nil {
		log.Fatalf("%v", err)
	}

	log.Printf("run %s: %d rows", res.RunID, res.Rows)
	if *verbose {
		log.Printf("bronze=%s silver=%v", res.BronzePath, res.SilverPaths)
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// setupMetrics installs the selected metrics backend: flag → env → default.
func setupMetrics(backendName, gwURL, ddAddr, job string, verbose bool) {
	if job == "" {
		job = "clinetl"
	}

	switch backendName {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=pushgateway url=%s job=%s", gwURL, job)
		metrics.SetBackend(b)

	case "datadog":
		if ddAddr == "" {
			ddAddr = os.Getenv("DD_AGENT_ADDR")
		}
		if ddAddr == "" {
			ddAddr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       ddAddr,
			Namespace:  "clinetl.",
			GlobalTags: []string{"job:" + job},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=datadog addr=%s job=%s", ddAddr, job)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled")
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
