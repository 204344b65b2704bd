package calccli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	service "github.com/okian/endolimit/internal/app"
)

// Config holds configuration for one limitcalc invocation.
type Config struct {
	Scenario    service.ScenarioInput // Dosing scenario
	Readings    ReadingsFlag          // Readings to evaluate
	ReadingUnit string                // Unit applied to every reading
	Observed    float64               // Observed level for the safe dose
	ObservedSet bool                  // Observed was given, even as 0
	XLSXPath    string                // Report destination, empty to skip
	Sample      string                // Sample name in the report
	BaseURL     string                // Server URL, empty for local mode
	Timeout     time.Duration         // HTTP request timeout
	Verbose     bool                  // Enable verbose logging
}

// Remote reports whether the calculation goes through a server.
func (c *Config) Remote() bool { return strings.TrimSpace(c.BaseURL) != "" }

// WantsSafeDose reports whether the maximum safe dose should be computed.
// An explicit observed level of 0 is passed on and rejected by the engine.
func (c *Config) WantsSafeDose() bool { return c.ObservedSet || c.Observed != 0 }

// ReadingInputs returns the readings with the configured unit applied.
func (c *Config) ReadingInputs() []service.ReadingInput {
	out := make([]service.ReadingInput, len(c.Readings))
	for i, r := range c.Readings {
		r.Unit = c.ReadingUnit
		out[i] = r
	}
	return out
}

// ReadingsFlag is a repeatable flag.Value of "value" or "sample=value".
type ReadingsFlag []service.ReadingInput

// String implements flag.Value.
func (f *ReadingsFlag) String() string {
	if f == nil {
		return ""
	}
	parts := make([]string, len(*f))
	for i, r := range *f {
		v := strconv.FormatFloat(r.Value, 'g', -1, 64)
		if r.SampleID != "" {
			v = r.SampleID + "=" + v
		}
		parts[i] = v
	}
	return strings.Join(parts, ",")
}

// Set implements flag.Value. Readings without a sample name are named
// by position.
func (f *ReadingsFlag) Set(s string) error {
	sample, raw, named := strings.Cut(strings.TrimSpace(s), "=")
	if !named {
		raw, sample = sample, ""
	}
	sample = strings.TrimSpace(sample)
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid reading %q: %w", s, err)
	}
	if named && sample == "" {
		return fmt.Errorf("invalid reading %q: empty sample name", s)
	}
	if sample == "" {
		sample = fmt.Sprintf("Sample %d", len(*f)+1)
	}
	*f = append(*f, service.ReadingInput{SampleID: sample, Value: v})
	return nil
}
