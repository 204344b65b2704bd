package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/endolimit/internal/adapters/http/api"
	"github.com/okian/endolimit/internal/adapters/report"
	service "github.com/okian/endolimit/internal/app"
	"github.com/okian/endolimit/pkg/logger"
	"github.com/okian/endolimit/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func init() {
	if err := logger.Init(logger.WithWriter(&bytes.Buffer{})); err != nil {
		panic(err)
	}
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

// brokenService fails every report with an unexpected error.
type brokenService struct {
	*service.Service
}

func (b brokenService) Report(context.Context, string, service.ScenarioInput, []service.ReadingInput) (*report.Report, error) {
	return nil, errors.New("disk on fire")
}

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func newService() *service.Service {
	return service.New(service.WithMetrics(metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))))
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

const mouseScenario = `"subject":"Mouse","dose":0.001,"dose_unit":"mg","frequency":"hourly","route":"standard"`

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		mux := newMux(newService())

		Convey("Then health endpoint should expose metrics", func() {
			w := do(mux, "GET", "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})

		Convey("And stats endpoint should be accessible", func() {
			w := do(mux, "GET", "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			stats := decode(w)
			So(stats["started"], ShouldEqual, true)
			So(stats["maxBodyBytes"], ShouldEqual, float64(64<<10))
			So(stats, ShouldContainKey, "time")
		})

		Convey("And dashboard endpoint should serve HTML with refresh control", func() {
			w := do(mux, "GET", "/dashboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
			So(w.Body.String(), ShouldContainSubstring, `id="refresh"`)
		})

		Convey("And unknown paths are not found", func() {
			So(do(mux, "GET", "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And wrong methods are not found", func() {
			So(do(mux, "GET", "/api/v1/limit", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, "POST", "/api/v1/subjects", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And an incoming request id is echoed", func() {
			req := httptest.NewRequest("GET", "/api/v1/subjects", nil)
			req.Header.Set(api.RequestIDHeader, "abc")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc")
		})
	})
}

func TestCalcHandler_Limit(t *testing.T) {
	Convey("Given the limit endpoint", t, func() {
		mux := newMux(newService())

		Convey("When the mouse scenario is posted", func() {
			w := do(mux, "POST", "/api/v1/limit", "{"+mouseScenario+"}")

			Convey("Then the limit is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				lim := decode(w)["limit"].(map[string]any)
				So(lim["endotoxin_limit"], ShouldAlmostEqual, 150, 1e-9)
				So(lim["unit"], ShouldEqual, "EU/mg")
			})
		})

		Convey("When a custom subject is posted", func() {
			w := do(mux, "POST", "/api/v1/limit", `{"subject":"Custom","weight_kg":2.5,"dose":5,"dose_unit":"mL","frequency":"daily"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			lim := decode(w)["limit"].(map[string]any)
			So(lim["endotoxin_limit"], ShouldAlmostEqual, 60, 1e-9)
			So(lim["unit"], ShouldEqual, "EU/mL")
		})

		Convey("When the dose is zero", func() {
			w := do(mux, "POST", "/api/v1/limit", `{"subject":"Mouse","dose":0,"dose_unit":"mg"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "invalid_input")
		})

		Convey("When the subject is unknown", func() {
			w := do(mux, "POST", "/api/v1/limit", `{"subject":"Dragon","dose":1,"dose_unit":"mg"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "invalid_input")
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, "POST", "/api/v1/limit", `{`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "bad_request")
		})
	})

	Convey("Given a server with a tiny body limit", t, func() {
		mux := newMux(newService(), api.WithMaxBodyBytes(16))
		w := do(mux, "POST", "/api/v1/limit", "{"+mouseScenario+"}")

		Convey("Then large bodies are rejected", func() {
			So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			So(decode(w)["code"], ShouldEqual, "too_large")
		})
	})
}

func TestCalcHandler_Evaluate(t *testing.T) {
	Convey("Given the evaluate endpoint", t, func() {
		mux := newMux(newService())

		Convey("When a caution reading is posted", func() {
			w := do(mux, "POST", "/api/v1/evaluate", `{`+mouseScenario+`,"reading":{"sample_id":"A","value":135,"unit":"EU/mg"}}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			ev := body["evaluation"].(map[string]any)
			So(ev["passes"], ShouldEqual, true)
			So(ev["status"], ShouldEqual, "caution")
			So(ev["percent_of_limit"], ShouldAlmostEqual, 90, 1e-9)
			So(body["message"], ShouldEqual, "Caution - Approaching limit")
		})

		Convey("When the reading unit does not match", func() {
			w := do(mux, "POST", "/api/v1/evaluate", `{`+mouseScenario+`,"reading":{"value":1,"unit":"EU/mL"}}`)

			Convey("Then the limit is still returned with a mismatch object", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body, ShouldNotContainKey, "evaluation")
				So(body["limit"], ShouldNotBeNil)
				mm := body["unit_mismatch"].(map[string]any)
				So(mm["reading_unit"], ShouldEqual, "EU/mL")
				So(mm["limit_unit"], ShouldEqual, "EU/mg")
			})
		})

		Convey("When the reading unit is unknown", func() {
			w := do(mux, "POST", "/api/v1/evaluate", `{`+mouseScenario+`,"reading":{"value":1,"unit":"EU/g"}}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestCalcHandler_Readings(t *testing.T) {
	Convey("Given the readings endpoint", t, func() {
		mux := newMux(newService())

		Convey("When some readings fail", func() {
			w := do(mux, "POST", "/api/v1/readings/evaluate",
				`{`+mouseScenario+`,"readings":[{"value":30},{"sample_id":"B","value":300},{"value":10}]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			agg := body["aggregate"].(map[string]any)
			So(agg["verdict"], ShouldEqual, "some_pass")
			So(agg["representative_index"], ShouldEqual, 1.0)
			So(agg["evaluations"], ShouldHaveLength, 3)
			sd := body["safe_dose"].(map[string]any)
			So(sd["max_safe_dose"], ShouldAlmostEqual, 0.0005, 1e-12)
			So(sd["recommended_dose"], ShouldAlmostEqual, 0.00045, 1e-12)
		})

		Convey("When more than ten readings are posted", func() {
			readings := strings.TrimSuffix(strings.Repeat(`{"value":1},`, 11), ",")
			w := do(mux, "POST", "/api/v1/readings/evaluate", `{`+mouseScenario+`,"readings":[`+readings+`]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "invalid_input")
		})

		Convey("When no readings are posted", func() {
			w := do(mux, "POST", "/api/v1/readings/evaluate", `{`+mouseScenario+`}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestCalcHandler_MaxSafeDose(t *testing.T) {
	Convey("Given the max-safe-dose endpoint", t, func() {
		mux := newMux(newService())

		Convey("When a per-kg scenario is posted", func() {
			w := do(mux, "POST", "/api/v1/max-safe-dose", `{"dose_unit":"mg/kg","frequency":"daily","observed":2.5}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			sd := decode(w)["safe_dose"].(map[string]any)
			So(sd["max_safe_dose"], ShouldAlmostEqual, 48, 1e-9)
			So(sd["unit"], ShouldEqual, "mg/kg")
			So(sd["explanation"], ShouldContainSubstring, "per day")
		})

		Convey("When the observed level is negative", func() {
			w := do(mux, "POST", "/api/v1/max-safe-dose", `{"dose_unit":"mg/kg","observed":-1}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestCatalogHandler(t *testing.T) {
	Convey("Given the catalog endpoints", t, func() {
		mux := newMux(newService())

		Convey("Then subjects are listed with the custom entry last", func() {
			w := do(mux, "GET", "/api/v1/subjects", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			subjects := decode(w)["subjects"].([]any)
			So(subjects, ShouldHaveLength, 7)
			So(subjects[6].(map[string]any)["name"], ShouldEqual, "Custom")
		})

		Convey("Then both reference tables are listed", func() {
			w := do(mux, "GET", "/api/v1/reference-tables", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			tables := decode(w)["tables"].([]any)
			So(tables, ShouldHaveLength, 2)
			So(tables[1].(map[string]any)["limit_unit"], ShouldEqual, "EU/mL")
		})
	})
}

func TestReportHandler(t *testing.T) {
	Convey("Given the report endpoint", t, func() {
		mux := newMux(newService())

		Convey("When a report is requested", func() {
			w := do(mux, "POST", "/api/v1/report", `{`+mouseScenario+`,"sample":"Lot 9","readings":[{"value":20}]}`)

			Convey("Then an XLSX attachment is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/vnd.openxmlformats")
				So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "Endotoxin_Report_Lot_9_")
				So(w.Header().Get("X-Report-ID"), ShouldHaveLength, 36)

				f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
				So(err, ShouldBeNil)
				defer func() { _ = f.Close() }()
				So(f.GetSheetList(), ShouldContain, report.SheetReadings)
			})
		})

		Convey("When the readings are in the wrong unit", func() {
			w := do(mux, "POST", "/api/v1/report", `{`+mouseScenario+`,"readings":[{"value":20,"unit":"EU/mL"}]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "unit_mismatch")
		})
	})

	Convey("Given a service that cannot write reports", t, func() {
		var logs bytes.Buffer
		So(logger.Init(logger.WithWriter(&logs)), ShouldBeNil)
		mux := newMux(brokenService{newService()}, api.WithLogger(logger.Named("test")))
		w := do(mux, "POST", "/api/v1/report", `{`+mouseScenario+`}`)

		Convey("Then the failure is hidden behind a 500", func() {
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			body := decode(w)
			So(body["code"], ShouldEqual, "internal")
			So(body["message"], ShouldNotContainSubstring, "disk")
		})

		Convey("Then the cause is logged with the operation", func() {
			So(logs.String(), ShouldContainSubstring, "api.report")
			So(logs.String(), ShouldContainSubstring, "disk on fire")
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("boom")

		Convey("Then kinds and causes are matchable", func() {
			err := api.WrapKind("api.limit", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.limit: bad request: boom")
		})

		Convey("Then NewKind carries no cause", func() {
			err := api.NewKind("api.report", api.ErrInternal)
			So(err.Error(), ShouldEqual, "api.report: internal error")
		})

		Convey("Then Wrap keeps nil as nil", func() {
			So(api.Wrap("op", nil), ShouldBeNil)
			So(errors.Is(api.Wrap("op", cause), cause), ShouldBeTrue)
		})
	})
}
