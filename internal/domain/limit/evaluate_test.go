package limit_test

import (
	"errors"
	"testing"

	"github.com/okian/endolimit/internal/domain/limit"
	. "github.com/smartystreets/goconvey/convey"
)

func fiveEUPerMg() limit.LimitResult {
	return limit.LimitResult{M: 1, K: 5, EndotoxinLimit: 5, Unit: limit.EUPerMg}
}

func TestEvaluateReading(t *testing.T) {
	Convey("Given a limit of 5 EU/mg", t, func() {
		lim := fiveEUPerMg()

		Convey("When a reading is well below the limit", func() {
			ev, err := limit.EvaluateReading(limit.TestReading{SampleID: "lot-1", Value: 1, Unit: limit.EUPerMg}, lim)

			Convey("Then it passes as excellent", func() {
				So(err, ShouldBeNil)
				So(ev.SampleID, ShouldEqual, "lot-1")
				So(ev.Passes, ShouldBeTrue)
				So(ev.PercentOfLimit, ShouldAlmostEqual, 20, tolerance)
				So(ev.Margin, ShouldAlmostEqual, 4, tolerance)
				So(ev.Status, ShouldEqual, limit.StatusExcellent)
			})
		})

		Convey("When readings fall into each band", func() {
			cases := []struct {
				value  float64
				status limit.Status
				passes bool
			}{
				{2.5, limit.StatusExcellent, true},
				{3, limit.StatusGood, true},
				{4, limit.StatusGood, true},
				{4.5, limit.StatusCaution, true},
				{5, limit.StatusCaution, true},
				{6, limit.StatusFailed, false},
			}
			for _, tc := range cases {
				ev, err := limit.EvaluateReading(limit.TestReading{Value: tc.value, Unit: limit.EUPerMg}, lim)
				So(err, ShouldBeNil)
				So(ev.Status, ShouldEqual, tc.status)
				So(ev.Passes, ShouldEqual, tc.passes)
			}
		})

		Convey("When a reading exceeds the limit", func() {
			ev, err := limit.EvaluateReading(limit.TestReading{Value: 7.5, Unit: limit.EUPerMg}, lim)

			Convey("Then the margin is negative", func() {
				So(err, ShouldBeNil)
				So(ev.Passes, ShouldBeFalse)
				So(ev.Margin, ShouldAlmostEqual, -2.5, tolerance)
				So(ev.PercentOfLimit, ShouldAlmostEqual, 150, tolerance)
				So(ev.Status.Message(), ShouldEqual, "Failed - Exceeds limit")
			})
		})

		Convey("When the reading is in EU/mL", func() {
			for _, v := range []float64{0, 1, 1000} {
				_, err := limit.EvaluateReading(limit.TestReading{Value: v, Unit: limit.EUPerML}, lim)

				So(errors.Is(err, limit.ErrUnitMismatch), ShouldBeTrue)
				var mismatch *limit.UnitMismatchError
				So(errors.As(err, &mismatch), ShouldBeTrue)
				So(mismatch.Reading, ShouldEqual, limit.EUPerML)
				So(mismatch.Limit, ShouldEqual, limit.EUPerMg)
			}
		})

		Convey("When the reading value is negative", func() {
			_, err := limit.EvaluateReading(limit.TestReading{Value: -1, Unit: limit.EUPerMg}, lim)
			So(errors.Is(err, limit.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When the limit is a zero value", func() {
			_, err := limit.EvaluateReading(limit.TestReading{Value: 1, Unit: limit.EUPerMg}, limit.LimitResult{})
			So(errors.Is(err, limit.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestAggregateReadings(t *testing.T) {
	Convey("Given a locked set of readings", t, func() {
		set := limit.NewReadingSet()
		So(set.Add(limit.TestReading{SampleID: "A", Value: 2, Unit: limit.EUPerMg}), ShouldBeNil)
		So(set.Add(limit.TestReading{SampleID: "B", Value: 6, Unit: limit.EUPerMg}), ShouldBeNil)
		So(set.Add(limit.TestReading{SampleID: "C", Value: 6, Unit: limit.EUPerMg}), ShouldBeNil)
		So(set.Add(limit.TestReading{Value: 4.9, Unit: limit.EUPerMg}), ShouldBeNil)
		So(set.Lock(), ShouldBeNil)

		Convey("When aggregated against 5 EU/mg", func() {
			agg, err := limit.AggregateReadings(set, fiveEUPerMg())

			Convey("Then each reading is judged on its own", func() {
				So(err, ShouldBeNil)
				So(agg.Evaluations, ShouldHaveLength, 4)
				So(agg.Evaluations[0].Passes, ShouldBeTrue)
				So(agg.Evaluations[1].Passes, ShouldBeFalse)
				So(agg.Evaluations[3].SampleID, ShouldEqual, "Sample 4")
				So(agg.Passing, ShouldEqual, 2)
				So(agg.Failing, ShouldEqual, 2)
				So(agg.Verdict, ShouldEqual, limit.SomePass)
			})

			Convey("And the earliest maximum is representative", func() {
				So(agg.Representative.SampleID, ShouldEqual, "B")
				So(agg.RepresentativeIndex, ShouldEqual, 1)
			})
		})

		Convey("When the set's unit differs from the limit", func() {
			_, err := limit.AggregateReadings(set, limit.LimitResult{M: 1, K: 5, EndotoxinLimit: 5, Unit: limit.EUPerML})
			So(errors.Is(err, limit.ErrUnitMismatch), ShouldBeTrue)
		})

		Convey("When every reading passes", func() {
			ok := limit.NewReadingSet()
			So(ok.Add(limit.TestReading{Value: 0.1, Unit: limit.EUPerMg}), ShouldBeNil)
			So(ok.Lock(), ShouldBeNil)
			agg, err := limit.AggregateReadings(ok, fiveEUPerMg())
			So(err, ShouldBeNil)
			So(agg.Verdict, ShouldEqual, limit.AllPass)
		})

		Convey("When every reading fails", func() {
			bad := limit.NewReadingSet()
			So(bad.Add(limit.TestReading{Value: 9, Unit: limit.EUPerMg}), ShouldBeNil)
			So(bad.Lock(), ShouldBeNil)
			agg, err := limit.AggregateReadings(bad, fiveEUPerMg())
			So(err, ShouldBeNil)
			So(agg.Verdict, ShouldEqual, limit.NonePass)
		})
	})

	Convey("Given an unlocked set", t, func() {
		set := limit.NewReadingSet()
		So(set.Add(limit.TestReading{Value: 1, Unit: limit.EUPerMg}), ShouldBeNil)

		Convey("Then aggregation is refused", func() {
			_, err := limit.AggregateReadings(set, fiveEUPerMg())
			So(errors.Is(err, limit.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestRepresentative(t *testing.T) {
	Convey("Given readings with ties", t, func() {
		readings := []limit.TestReading{{Value: 1}, {Value: 3}, {Value: 2}, {Value: 3}}

		Convey("Then the first maximum wins", func() {
			So(limit.Representative(readings), ShouldEqual, 1)
		})

		Convey("Then an empty slice has no representative", func() {
			So(limit.Representative(nil), ShouldEqual, -1)
		})
	})
}
