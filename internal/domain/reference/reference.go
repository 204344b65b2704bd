// Package reference exposes the precomputed endotoxin limit tables from
// Malyala & Singh (2007). The tables are read-only.
package reference

import "github.com/okian/endolimit/internal/domain/limit"

// Point is one precomputed (hourly dose, limit) pair.
type Point struct {
	Dose  float64 `json:"dose"`
	Limit float64 `json:"limit"`
}

// Row lists the reference points for one animal model.
type Row struct {
	Subject string  `json:"subject"`
	Points  []Point `json:"points"`
}

// Table groups rows sharing a dose unit.
type Table struct {
	Title     string         `json:"title"`
	DoseUnit  limit.DoseUnit `json:"dose_unit"`
	LimitUnit string         `json:"limit_unit"`
	Rows      []Row          `json:"rows"`
}

var mgRows = []Row{
	{"Mouse", []Point{{0.001, 150}, {0.010, 15}, {0.025, 6}}},
	{"Gerbil", []Point{{0.001, 450}, {0.010, 45}, {0.025, 18}}},
	{"Rat", []Point{{0.001, 2250}, {0.010, 225}, {0.025, 90}}},
	{"Rabbit", []Point{{0.010, 2000}, {0.025, 800}, {0.050, 400}}},
	{"Monkey", []Point{{0.250, 160}, {0.500, 80}, {1.000, 40}}},
	{"Baboon", []Point{{0.250, 240}, {0.500, 120}, {1.000, 60}}},
}

var mlRows = []Row{
	{"Mouse", []Point{{0.050, 3.00}, {0.100, 1.50}, {0.200, 0.75}}},
	{"Gerbil", []Point{{0.050, 9.00}, {0.100, 4.50}, {0.200, 2.25}}},
	{"Rat", []Point{{0.050, 45.00}, {0.100, 22.50}, {0.200, 11.25}}},
	{"Rabbit", []Point{{0.10, 200}, {0.20, 100}, {0.50, 40}}},
	{"Monkey", []Point{{0.10, 400}, {0.20, 200}, {0.50, 80}}},
	{"Baboon", []Point{{0.10, 600}, {0.20, 300}, {0.50, 120}}},
}

// Tables returns deep copies of both reference tables, mg first.
func Tables() []Table {
	return []Table{
		{Title: "Endotoxin Limits for Drugs in mg/kg", DoseUnit: limit.DoseMg, LimitUnit: limit.EUPerMg.String(), Rows: cloneRows(mgRows)},
		{Title: "Endotoxin Limits for Drugs in mL/kg", DoseUnit: limit.DoseML, LimitUnit: limit.EUPerML.String(), Rows: cloneRows(mlRows)},
	}
}

// Lookup returns the reference row for a subject in the given table unit.
func Lookup(unit limit.DoseUnit, subjectName string) (Row, bool) {
	rows := mgRows
	if unit.LimitUnit() == limit.EUPerML {
		rows = mlRows
	}
	for _, r := range rows {
		if r.Subject == subjectName {
			return cloneRows([]Row{r})[0], true
		}
	}
	return Row{}, false
}

func cloneRows(in []Row) []Row {
	out := make([]Row, len(in))
	for i, r := range in {
		out[i] = Row{Subject: r.Subject, Points: append([]Point(nil), r.Points...)}
	}
	return out
}
