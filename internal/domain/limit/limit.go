package limit

import (
	"fmt"
	"math"
)

// SafetyFactor scales the maximum safe dose down to the recommended dose,
// leaving a fixed 10% margin below the limit.
const SafetyFactor = 0.9

// Subject is the test organism or dosing target.
type Subject struct {
	Name     string  `json:"name"`
	WeightKg float64 `json:"weight_kg"`
	Custom   bool    `json:"custom,omitempty"`
}

// DosingScenario is the complete input to a limit computation.
type DosingScenario struct {
	Subject    Subject   `json:"subject"`
	DoseAmount float64   `json:"dose"`
	DoseUnit   DoseUnit  `json:"dose_unit"`
	Frequency  Frequency `json:"frequency"`
	Route      Route     `json:"route"`
}

// LimitResult is the output of ComputeLimit.
type LimitResult struct {
	// M is the dose per kg body weight per hour in the dose's base unit.
	M float64 `json:"m"`
	// K is the threshold pyrogenic dose in EU/kg.
	K float64 `json:"k"`
	// EndotoxinLimit is K/M in EU per base unit.
	EndotoxinLimit float64     `json:"endotoxin_limit"`
	Unit           ReadingUnit `json:"unit"`
}

// SafeDose is the output of ComputeMaxSafeDose.
type SafeDose struct {
	// MaxM is the hourly per-kg dose at which the limit equals the observed value.
	MaxM            float64   `json:"max_m"`
	MaxSafeDose     float64   `json:"max_safe_dose"`
	RecommendedDose float64   `json:"recommended_dose"`
	Unit            DoseUnit  `json:"unit"`
	Frequency       Frequency `json:"frequency"`
	Explanation     string    `json:"explanation"`
}

// ComputeLimit converts a dosing scenario into an endotoxin limit.
//
// Per-kg doses are used as M directly (divided by 24 when daily). Absolute
// doses are first made hourly, then divided by the subject's weight.
func ComputeLimit(s DosingScenario) (LimitResult, error) {
	if err := validateScenario(s, true); err != nil {
		return LimitResult{}, err
	}

	k := s.Route.K()
	m := normalizedDose(s)
	if !positiveFinite(m) {
		return LimitResult{}, invalidf("normalized dose must be positive, got %g", m)
	}

	lim := k / m
	if !positiveFinite(lim) {
		return LimitResult{}, invalidf("endotoxin limit is not finite for M=%g", m)
	}

	return LimitResult{
		M:              m,
		K:              k,
		EndotoxinLimit: lim,
		Unit:           s.DoseUnit.LimitUnit(),
	}, nil
}

// normalizedDose returns M for an already validated scenario.
func normalizedDose(s DosingScenario) float64 {
	hourly := s.DoseAmount / s.Frequency.hours()
	if s.DoseUnit.PerKg() {
		return hourly
	}
	return hourly / s.Subject.WeightKg
}

// ComputeMaxSafeDose solves the limit formula for the dose at which the
// endotoxin limit equals observed. The scenario's dose amount is ignored.
func ComputeMaxSafeDose(observed float64, s DosingScenario) (SafeDose, error) {
	if !positiveFinite(observed) {
		return SafeDose{}, invalidf("observed endotoxin level must be positive, got %g", observed)
	}
	if err := validateScenario(s, false); err != nil {
		return SafeDose{}, err
	}

	maxM := s.Route.K() / observed
	maxDose := maxM * s.Frequency.hours()
	if !s.DoseUnit.PerKg() {
		maxDose = maxM * s.Subject.WeightKg * s.Frequency.hours()
	}
	if !positiveFinite(maxDose) {
		return SafeDose{}, invalidf("maximum safe dose is not finite for observed=%g", observed)
	}

	sd := SafeDose{
		MaxM:            maxM,
		MaxSafeDose:     maxDose,
		RecommendedDose: maxDose * SafetyFactor,
		Unit:            s.DoseUnit,
		Frequency:       s.Frequency,
	}
	sd.Explanation = explain(observed, s, sd)
	return sd, nil
}

func explain(observed float64, s DosingScenario, sd SafeDose) string {
	if s.DoseUnit.PerKg() {
		return fmt.Sprintf("To stay within the endotoxin limit of %.2f %s, the maximum %s dose should be %.3f %s %s.",
			observed, s.DoseUnit.LimitUnit(), s.DoseUnit, sd.MaxSafeDose, s.DoseUnit, s.Frequency.Period())
	}
	return fmt.Sprintf("To stay within the endotoxin limit of %.2f %s, the maximum %s dose for a %gkg %s should be %.3f %s %s.",
		observed, s.DoseUnit.LimitUnit(), s.DoseUnit, s.Subject.WeightKg, s.Subject.Name, sd.MaxSafeDose, s.DoseUnit, s.Frequency.Period())
}

// validateScenario checks enums, weight and (optionally) the dose amount.
func validateScenario(s DosingScenario, checkDose bool) error {
	switch {
	case !s.DoseUnit.Valid():
		return invalidf("unknown dose unit %d", uint8(s.DoseUnit))
	case !s.Frequency.Valid():
		return invalidf("unknown frequency %d", uint8(s.Frequency))
	case !s.Route.Valid():
		return invalidf("unknown route %d", uint8(s.Route))
	}
	if checkDose && !positiveFinite(s.DoseAmount) {
		return invalidf("dose must be positive, got %g", s.DoseAmount)
	}
	if !s.DoseUnit.PerKg() && !positiveFinite(s.Subject.WeightKg) {
		return invalidf("subject weight must be positive for %s doses, got %g", s.DoseUnit, s.Subject.WeightKg)
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
