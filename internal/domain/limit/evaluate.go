package limit

import (
	"fmt"
	"math"
)

// Status bands for a reading's share of the limit.
const (
	excellentMaxPercent = 50.0
	goodMaxPercent      = 80.0
	percentScale        = 100.0
)

// Status grades an evaluation.
type Status uint8

// Status values, from best to worst.
const (
	StatusExcellent Status = iota + 1
	StatusGood
	StatusCaution
	StatusFailed
)

// String returns the machine name of the status.
func (s Status) String() string {
	switch s {
	case StatusExcellent:
		return "excellent"
	case StatusGood:
		return "good"
	case StatusCaution:
		return "caution"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Message returns the human summary shown next to a verdict.
func (s Status) Message() string {
	switch s {
	case StatusExcellent:
		return "Excellent - Well below limit"
	case StatusGood:
		return "Good - Within safe range"
	case StatusCaution:
		return "Caution - Approaching limit"
	case StatusFailed:
		return "Failed - Exceeds limit"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for _, v := range []Status{StatusExcellent, StatusGood, StatusCaution, StatusFailed} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return invalidf("unknown status %q", b)
}

// TestReading is one observed endotoxin measurement.
type TestReading struct {
	SampleID string      `json:"sample_id"`
	Value    float64     `json:"value"`
	Unit     ReadingUnit `json:"unit"`
}

// Evaluation judges one reading against a limit.
type Evaluation struct {
	SampleID       string  `json:"sample_id"`
	Value          float64 `json:"value"`
	Passes         bool    `json:"passes"`
	PercentOfLimit float64 `json:"percent_of_limit"`
	Margin         float64 `json:"margin"`
	Status         Status  `json:"status"`
}

// EvaluateReading compares a reading with a limit. A unit mismatch is
// returned as *UnitMismatchError regardless of the numeric values.
func EvaluateReading(r TestReading, lim LimitResult) (Evaluation, error) {
	if !lim.Unit.Valid() || !positiveFinite(lim.EndotoxinLimit) {
		return Evaluation{}, invalidf("limit must be a positive value with a known unit")
	}
	if r.Unit != lim.Unit {
		return Evaluation{}, &UnitMismatchError{Reading: r.Unit, Limit: lim.Unit}
	}
	if r.Value < 0 || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return Evaluation{}, invalidf("reading value must be non-negative, got %g", r.Value)
	}

	pct := r.Value / lim.EndotoxinLimit * percentScale
	ev := Evaluation{
		SampleID:       r.SampleID,
		Value:          r.Value,
		Passes:         r.Value <= lim.EndotoxinLimit,
		PercentOfLimit: pct,
		Margin:         lim.EndotoxinLimit - r.Value,
	}
	ev.Status = grade(ev.Passes, pct)
	return ev, nil
}

func grade(passes bool, pct float64) Status {
	switch {
	case !passes:
		return StatusFailed
	case pct <= excellentMaxPercent:
		return StatusExcellent
	case pct <= goodMaxPercent:
		return StatusGood
	default:
		return StatusCaution
	}
}

// BatchVerdict summarizes a set of evaluations.
type BatchVerdict uint8

// Batch verdicts.
const (
	AllPass BatchVerdict = iota + 1
	SomePass
	NonePass
)

// String returns the machine name of the verdict.
func (v BatchVerdict) String() string {
	switch v {
	case AllPass:
		return "all_pass"
	case SomePass:
		return "some_pass"
	case NonePass:
		return "none_pass"
	default:
		return fmt.Sprintf("BatchVerdict(%d)", uint8(v))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v BatchVerdict) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *BatchVerdict) UnmarshalText(b []byte) error {
	for _, bv := range []BatchVerdict{AllPass, SomePass, NonePass} {
		if bv.String() == string(b) {
			*v = bv
			return nil
		}
	}
	return invalidf("unknown batch verdict %q", b)
}

// Aggregate is the result of evaluating a locked reading set.
type Aggregate struct {
	// Representative is the first reading holding the maximum value. It
	// drives the maximum-safe-dose computation.
	Representative      TestReading  `json:"representative"`
	RepresentativeIndex int          `json:"representative_index"`
	Evaluations         []Evaluation `json:"evaluations"`
	Passing             int          `json:"passing"`
	Failing             int          `json:"failing"`
	Verdict             BatchVerdict `json:"verdict"`
}

// AggregateReadings evaluates every reading of a locked set independently
// and selects the worst one as representative.
func AggregateReadings(set *ReadingSet, lim LimitResult) (Aggregate, error) {
	if set == nil || set.Len() == 0 {
		return Aggregate{}, invalidf("reading set is empty")
	}
	if !set.Locked() {
		return Aggregate{}, invalidf("reading set must be locked before evaluation")
	}

	readings := set.Readings()
	idx := Representative(readings)
	agg := Aggregate{
		Representative:      readings[idx],
		RepresentativeIndex: idx,
		Evaluations:         make([]Evaluation, 0, len(readings)),
	}
	for _, r := range readings {
		ev, err := EvaluateReading(r, lim)
		if err != nil {
			return Aggregate{}, err
		}
		if ev.Passes {
			agg.Passing++
		} else {
			agg.Failing++
		}
		agg.Evaluations = append(agg.Evaluations, ev)
	}

	switch {
	case agg.Failing == 0:
		agg.Verdict = AllPass
	case agg.Passing > 0:
		agg.Verdict = SomePass
	default:
		agg.Verdict = NonePass
	}
	return agg, nil
}

// Representative returns the index of the first reading with the largest
// value, or -1 for an empty slice.
func Representative(readings []TestReading) int {
	best := -1
	for i, r := range readings {
		if best < 0 || r.Value > readings[best].Value {
			best = i
		}
	}
	return best
}
