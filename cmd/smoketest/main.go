// Package main runs the smoke check sequence against a running item API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/yigityildirimoglu/jenkins-demo/internal/logging"
	"github.com/yigityildirimoglu/jenkins-demo/internal/smoke"
)

const defaultURL = "http://localhost:8001"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, logging.New))
}

// loggerFactory builds the run's logger once the log level flag is known.
type loggerFactory func(level string) (*zap.Logger, error)

func run(ctx context.Context, args []string, out io.Writer, newLogger loggerFactory) int {
	flags := flag.NewFlagSet("smoketest", flag.ContinueOnError)
	flags.SetOutput(out)
	baseURL := flags.String("url", defaultURL, "base URL of the item API")
	timeout := flags.Duration("timeout", smoke.DefaultTimeout, "per-request timeout")
	schedule := flags.String("schedule", "", `cron schedule for repeated runs, e.g. "@every 1m"`)
	logLevel := flags.String("log-level", "info", "log level: debug, info, warn or error")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	base, err := newLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(out, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = base.Sync()
	}()
	logger := base.Named("smoke")

	runner := smoke.NewRunner(*baseURL, *timeout, logger)

	if *schedule == "" {
		report := runner.Run(ctx)
		printReport(out, report)
		if !report.Passed() {
			return 1
		}
		return 0
	}

	return runScheduled(ctx, runner, *schedule, out, logger)
}

// runScheduled repeats the smoke run on a cron schedule until ctx is done.
func runScheduled(ctx context.Context, runner *smoke.Runner, schedule string, out io.Writer, logger *zap.Logger) int {
	c := newScheduler(logger)

	_, err := c.AddFunc(schedule, func() {
		report := runner.Run(ctx)
		printReport(out, report)
	})
	if err != nil {
		logger.Error("invalid schedule", zap.String("schedule", schedule), zap.Error(err))
		return 2
	}

	logger.Info("starting scheduled smoke runs", zap.String("schedule", schedule))
	c.Start()

	<-ctx.Done()

	logger.Info("stopping scheduled smoke runs")
	<-c.Stop().Done()
	return 0
}

// printReport writes a one-line-per-check summary.
func printReport(out io.Writer, report smoke.Report) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "CHECK\tRESULT\tDURATION\tERROR\n")
	for _, res := range report.Results {
		result := "PASS"
		if !res.Passed {
			result = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", res.Name, result, res.Duration.Round(time.Millisecond), res.Error)
	}
	_ = tw.Flush()

	status := "PASSED"
	if !report.Passed() {
		status = "FAILED"
	}
	fmt.Fprintf(out, "smoke test %s against %s in %s (%d/%d checks passed)\n",
		status, report.BaseURL, report.Duration.Round(time.Millisecond),
		len(report.Results)-len(report.Failed()), len(report.Results))
}
