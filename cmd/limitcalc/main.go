package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/endolimit/internal/calccli"
	"github.com/okian/endolimit/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, performs one calculation and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("limitcalc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfg := &calccli.Config{}
	fs.StringVar(&cfg.Scenario.Subject, "subject", "", "Subject name")
	fs.Float64Var(&cfg.Scenario.WeightKg, "weight", 0, "Body weight in kg for a Custom subject")
	fs.Float64Var(&cfg.Scenario.Dose, "dose", 0, "Dose amount")
	fs.StringVar(&cfg.Scenario.DoseUnit, "unit", "", "Dose unit: mg, mL, mg/kg or mL/kg")
	fs.StringVar(&cfg.Scenario.Frequency, "frequency", "hourly", "hourly or daily")
	fs.StringVar(&cfg.Scenario.Route, "route", "standard", "standard or intrathecal")
	fs.Var(&cfg.Readings, "reading", `Test reading as "value" or "sample=value" (repeatable)`)
	fs.StringVar(&cfg.ReadingUnit, "reading-unit", "", "Unit of the readings (default: the limit's unit)")
	fs.Float64Var(&cfg.Observed, "observed", 0, "Observed endotoxin level for the maximum safe dose")
	fs.StringVar(&cfg.XLSXPath, "xlsx", "", "Write an XLSX report to this directory or .xlsx file")
	fs.StringVar(&cfg.Sample, "sample", "", "Sample name used in the report")
	fs.StringVar(&cfg.BaseURL, "url", "", "Base URL of an endolimit server (default: compute locally)")
	fs.DurationVar(&cfg.Timeout, "timeout", calccli.DefaultTimeout, "HTTP request timeout")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")
	logFormat := fs.String("log-format", logger.FormatText, "Log format: text, json or pretty")
	help := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			calccli.ShowHelp(stdout)
			return calccli.ExitOK
		}
		return calccli.ExitError
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "observed" {
			cfg.ObservedSet = true
		}
	})
	if *help {
		calccli.ShowHelp(stdout)
		return calccli.ExitOK
	}

	if err := calccli.SetupLogging(cfg.Verbose, *logFormat); err != nil {
		_, _ = fmt.Fprintln(stderr, "Failed to setup logging: "+err.Error())
		return calccli.ExitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, calccli.DefaultRunBudget)
	defer cancel()

	err := calccli.Run(ctx, cfg, stdout)
	switch {
	case err == nil:
		return calccli.ExitOK
	case errors.Is(err, calccli.ErrReadingsFailed):
		_, _ = fmt.Fprintln(stderr, err.Error())
		return calccli.ExitFailures
	default:
		_, _ = fmt.Fprintln(stderr, "Calculation failed: "+err.Error())
		return calccli.ExitError
	}
}
