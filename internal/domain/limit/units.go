// Package limit implements the endotoxin limit engine: dose normalization,
// the K/M limit formula (Malyala & Singh, 2007), per-reading evaluation,
// multi-reading aggregation and the inverse maximum-safe-dose computation.
//
// Every function in this package is pure and safe for concurrent use.
package limit

import (
	"fmt"
	"strings"
)

// DoseUnit is the unit a dose amount is expressed in.
type DoseUnit uint8

// Supported dose units. The zero value is deliberately invalid.
const (
	DoseMg DoseUnit = iota + 1
	DoseML
	DoseMgPerKg
	DoseMLPerKg
)

var doseUnitNames = map[DoseUnit]string{
	DoseMg:      "mg",
	DoseML:      "mL",
	DoseMgPerKg: "mg/kg",
	DoseMLPerKg: "mL/kg",
}

// String returns the display label, e.g. "mg/kg".
func (u DoseUnit) String() string {
	if s, ok := doseUnitNames[u]; ok {
		return s
	}
	return fmt.Sprintf("DoseUnit(%d)", uint8(u))
}

// Valid reports whether u is one of the supported units.
func (u DoseUnit) Valid() bool {
	_, ok := doseUnitNames[u]
	return ok
}

// PerKg reports whether the unit is already normalized to body weight.
func (u DoseUnit) PerKg() bool {
	return u == DoseMgPerKg || u == DoseMLPerKg
}

// Base returns the mass or volume token with any "/kg" suffix removed.
func (u DoseUnit) Base() string {
	return strings.TrimSuffix(u.String(), "/kg")
}

// LimitUnit returns the reading unit a limit computed for u is expressed in.
func (u DoseUnit) LimitUnit() ReadingUnit {
	switch u {
	case DoseMg, DoseMgPerKg:
		return EUPerMg
	case DoseML, DoseMLPerKg:
		return EUPerML
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u DoseUnit) MarshalText() ([]byte, error) {
	if !u.Valid() {
		return nil, fmt.Errorf("%w: unknown dose unit %d", ErrInvalidInput, uint8(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *DoseUnit) UnmarshalText(b []byte) error {
	v, err := ParseDoseUnit(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// ParseDoseUnit parses "mg", "mL", "mg/kg" or "mL/kg" (case-insensitive).
func ParseDoseUnit(s string) (DoseUnit, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	for u, name := range doseUnitNames {
		if strings.ToLower(name) == norm {
			return u, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown dose unit %q", ErrInvalidInput, s)
}

// Frequency describes the dosing interval a dose amount covers.
type Frequency uint8

// Supported frequencies. Daily amounts are a 24-hour aggregate.
const (
	Hourly Frequency = iota + 1
	Daily
)

// hoursPerDay converts a daily aggregate into an hourly dose.
const hoursPerDay = 24

// String returns "hourly" or "daily".
func (f Frequency) String() string {
	switch f {
	case Hourly:
		return "hourly"
	case Daily:
		return "daily"
	default:
		return fmt.Sprintf("Frequency(%d)", uint8(f))
	}
}

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool { return f == Hourly || f == Daily }

// Period returns the human wording used in explanations ("per hour", "per day").
func (f Frequency) Period() string {
	if f == Daily {
		return "per day"
	}
	return "per hour"
}

// hours is the number of hours one dose amount spans.
func (f Frequency) hours() float64 {
	if f == Daily {
		return hoursPerDay
	}
	return 1
}

// MarshalText implements encoding.TextMarshaler.
func (f Frequency) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: unknown frequency %d", ErrInvalidInput, uint8(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Frequency) UnmarshalText(b []byte) error {
	v, err := ParseFrequency(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseFrequency parses "hourly" or "daily".
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hourly":
		return Hourly, nil
	case "daily":
		return Daily, nil
	default:
		return 0, fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, s)
	}
}

// Route is the route of administration; it alone selects K.
type Route uint8

// Supported routes.
const (
	Standard Route = iota + 1
	Intrathecal
)

// Threshold pyrogenic doses in EU/kg.
const (
	KStandard    = 5.0
	KIntrathecal = 0.2
)

// K returns the threshold pyrogenic dose for r, or 0 for an unknown route.
func (r Route) K() float64 {
	switch r {
	case Standard:
		return KStandard
	case Intrathecal:
		return KIntrathecal
	default:
		return 0
	}
}

// String returns "standard" or "intrathecal".
func (r Route) String() string {
	switch r {
	case Standard:
		return "standard"
	case Intrathecal:
		return "intrathecal"
	default:
		return fmt.Sprintf("Route(%d)", uint8(r))
	}
}

// Valid reports whether r is a supported route.
func (r Route) Valid() bool { return r == Standard || r == Intrathecal }

// MarshalText implements encoding.TextMarshaler.
func (r Route) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: unknown route %d", ErrInvalidInput, uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Route) UnmarshalText(b []byte) error {
	v, err := ParseRoute(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ParseRoute parses "standard" or "intrathecal".
func ParseRoute(s string) (Route, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard":
		return Standard, nil
	case "intrathecal":
		return Intrathecal, nil
	default:
		return 0, fmt.Errorf("%w: unknown route %q", ErrInvalidInput, s)
	}
}

// ReadingUnit is the unit an endotoxin level is measured in.
type ReadingUnit uint8

// Supported reading units.
const (
	EUPerMg ReadingUnit = iota + 1
	EUPerML
)

// String returns "EU/mg" or "EU/mL".
func (u ReadingUnit) String() string {
	switch u {
	case EUPerMg:
		return "EU/mg"
	case EUPerML:
		return "EU/mL"
	default:
		return fmt.Sprintf("ReadingUnit(%d)", uint8(u))
	}
}

// Valid reports whether u is a supported reading unit.
func (u ReadingUnit) Valid() bool { return u == EUPerMg || u == EUPerML }

// MarshalText implements encoding.TextMarshaler.
func (u ReadingUnit) MarshalText() ([]byte, error) {
	if !u.Valid() {
		return nil, fmt.Errorf("%w: unknown reading unit %d", ErrInvalidInput, uint8(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *ReadingUnit) UnmarshalText(b []byte) error {
	v, err := ParseReadingUnit(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// ParseReadingUnit parses "EU/mg" or "EU/mL" (case-insensitive).
func ParseReadingUnit(s string) (ReadingUnit, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "eu/mg":
		return EUPerMg, nil
	case "eu/ml":
		return EUPerML, nil
	default:
		return 0, fmt.Errorf("%w: unknown reading unit %q", ErrInvalidInput, s)
	}
}
