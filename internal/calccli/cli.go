package calccli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/okian/endolimit/pkg/logger"
)

// SetupLogging sends logs to stderr so stdout only carries the summary.
// Verbose enables debug output.
func SetupLogging(verbose bool, format string) error {
	if err := logger.Init(logger.WithFormat(format), logger.WithWriter(os.Stderr)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		logger.SetLevel(slog.LevelDebug)
	} else {
		logger.SetLevel(slog.LevelWarn)
	}
	return nil
}

// ShowHelp prints usage information for the limitcalc tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Endotoxin Limit Calculator
==========================

Computes endotoxin limits (K/M) and checks test readings against them,
either locally or through a running endolimit server.

Usage:
  limitcalc [options]

Scenario:
  -subject string
        Subject name (Mouse, Rat, Rabbit, ..., Custom)
  -weight float
        Body weight in kg, required for Custom
  -dose float
        Dose amount
  -unit string
        Dose unit: mg, mL, mg/kg or mL/kg
  -frequency string
        hourly or daily (default "hourly")
  -route string
        standard or intrathecal (default "standard")

Readings:
  -reading value
        Test reading as "value" or "sample=value" (repeatable, up to 10)
  -reading-unit string
        Unit of the readings (default: the unit of the limit)
  -observed float
        Observed endotoxin level for the maximum safe dose

Output:
  -xlsx path
        Write an XLSX report to path (a directory or a .xlsx file)
  -sample string
        Sample name used in the report

Remote:
  -url string
        Base URL of an endolimit server; computes locally when empty
  -timeout duration
        HTTP request timeout (default 30s)

  -log-format string
        text, json or pretty (default "text")
  -verbose
        Enable debug logging
  -help
        Show this help message

Exit status is 2 when any reading fails its limit.

Examples:
  # Limit for a mouse receiving 0.001 mg per hour
  limitcalc -subject Mouse -dose 0.001 -unit mg

  # Check three readings and write a report
  limitcalc -subject Rabbit -dose 10 -unit mg/kg -frequency daily \
      -reading A=0.3 -reading B=0.7 -reading 1.2 -xlsx ./reports

  # Same against a server
  limitcalc -url http://localhost:9080 -subject Rat -dose 2 -unit mL -reading 4.5
`)
}
