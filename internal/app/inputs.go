package service

import (
	"strings"

	"github.com/okian/endolimit/internal/domain/limit"
)

// ScenarioInput is the wire form of a dosing scenario. Frequency and route
// default to hourly and standard when empty.
type ScenarioInput struct {
	Subject   string  `json:"subject"`
	WeightKg  float64 `json:"weight_kg,omitempty"`
	Dose      float64 `json:"dose,omitempty"`
	DoseUnit  string  `json:"dose_unit"`
	Frequency string  `json:"frequency,omitempty"`
	Route     string  `json:"route,omitempty"`
}

// ReadingInput is the wire form of a test reading. An empty unit means
// the unit of the computed limit.
type ReadingInput struct {
	SampleID string  `json:"sample_id,omitempty"`
	Value    float64 `json:"value"`
	Unit     string  `json:"unit,omitempty"`
}

// Resolve turns in into a dosing scenario using the subject catalog. A
// per-kg dose needs no subject.
func (s *Service) Resolve(in ScenarioInput) (limit.DosingScenario, error) {
	unit, err := limit.ParseDoseUnit(in.DoseUnit)
	if err != nil {
		return limit.DosingScenario{}, err
	}
	freq := limit.Hourly
	if strings.TrimSpace(in.Frequency) != "" {
		if freq, err = limit.ParseFrequency(in.Frequency); err != nil {
			return limit.DosingScenario{}, err
		}
	}
	route := limit.Standard
	if strings.TrimSpace(in.Route) != "" {
		if route, err = limit.ParseRoute(in.Route); err != nil {
			return limit.DosingScenario{}, err
		}
	}

	var subj limit.Subject
	if strings.TrimSpace(in.Subject) != "" || !unit.PerKg() {
		if subj, err = s.catalog.Lookup(in.Subject, in.WeightKg); err != nil {
			return limit.DosingScenario{}, err
		}
	}

	return limit.DosingScenario{
		Subject:    subj,
		DoseAmount: in.Dose,
		DoseUnit:   unit,
		Frequency:  freq,
		Route:      route,
	}, nil
}

func toReading(in ReadingInput, fallback limit.ReadingUnit) (limit.TestReading, error) {
	unit := fallback
	if strings.TrimSpace(in.Unit) != "" {
		var err error
		if unit, err = limit.ParseReadingUnit(in.Unit); err != nil {
			return limit.TestReading{}, err
		}
	}
	return limit.TestReading{SampleID: in.SampleID, Value: in.Value, Unit: unit}, nil
}
