package limit

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MaxReadings caps the size of a reading set.
const MaxReadings = 10

// Reading set lifecycle errors.
var (
	ErrReadingSetFull   = errors.New("reading set is full")
	ErrReadingSetLocked = errors.New("reading set is locked")
)

// Option applies a configuration option to a ReadingSet.
type Option func(*ReadingSet)

// WithCapacity lowers the maximum number of readings. Values outside
// 1..MaxReadings are ignored.
func WithCapacity(n int) Option {
	return func(s *ReadingSet) {
		if n > 0 && n <= MaxReadings {
			s.capacity = n
		}
	}
}

// ReadingSet is an ordered collection of readings sharing one unit. It is
// built with Add, then frozen with Lock before evaluation.
type ReadingSet struct {
	readings []TestReading
	capacity int
	locked   bool
	// added counts every reading ever added; default labels never repeat.
	added int
}

// NewReadingSet creates an empty, unlocked set.
func NewReadingSet(opts ...Option) *ReadingSet {
	s := &ReadingSet{capacity: MaxReadings}
	for _, opt := range opts {
		opt(s)
	}
	s.readings = make([]TestReading, 0, s.capacity)
	return s
}

// Add appends a reading. A blank sample id becomes "Sample N", where N
// counts every reading added so far, removed ones included.
func (s *ReadingSet) Add(r TestReading) error {
	switch {
	case s.locked:
		return ErrReadingSetLocked
	case len(s.readings) >= s.capacity:
		return fmt.Errorf("%w: at most %d readings", ErrReadingSetFull, s.capacity)
	case !r.Unit.Valid():
		return invalidf("unknown reading unit %d", uint8(r.Unit))
	case r.Value < 0 || math.IsNaN(r.Value) || math.IsInf(r.Value, 0):
		return invalidf("reading value must be non-negative, got %g", r.Value)
	}
	if len(s.readings) > 0 && s.readings[0].Unit != r.Unit {
		return invalidf("reading unit %s differs from set unit %s", r.Unit, s.readings[0].Unit)
	}

	s.added++
	r.SampleID = strings.TrimSpace(r.SampleID)
	if r.SampleID == "" {
		r.SampleID = fmt.Sprintf("Sample %d", s.added)
	}
	s.readings = append(s.readings, r)
	return nil
}

// Remove deletes the reading at index i.
func (s *ReadingSet) Remove(i int) error {
	if s.locked {
		return ErrReadingSetLocked
	}
	if i < 0 || i >= len(s.readings) {
		return invalidf("reading index %d out of range", i)
	}
	s.readings = append(s.readings[:i], s.readings[i+1:]...)
	return nil
}

// Lock freezes the set. An empty set cannot be locked.
func (s *ReadingSet) Lock() error {
	if len(s.readings) == 0 {
		return invalidf("cannot lock an empty reading set")
	}
	s.locked = true
	return nil
}

// Locked reports whether Lock has been called.
func (s *ReadingSet) Locked() bool { return s.locked }

// Len returns the number of readings.
func (s *ReadingSet) Len() int { return len(s.readings) }

// Unit returns the shared unit, or 0 when the set is empty.
func (s *ReadingSet) Unit() ReadingUnit {
	if len(s.readings) == 0 {
		return 0
	}
	return s.readings[0].Unit
}

// Readings returns a copy of the readings in insertion order.
func (s *ReadingSet) Readings() []TestReading {
	out := make([]TestReading, len(s.readings))
	copy(out, s.readings)
	return out
}

// Max returns the representative (worst-case) reading.
func (s *ReadingSet) Max() (TestReading, bool) {
	i := Representative(s.readings)
	if i < 0 {
		return TestReading{}, false
	}
	return s.readings[i], true
}
