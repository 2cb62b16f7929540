// Package report builds the economic dataset behind the page: it asks the
// text model for grounded figures, validates and merges what comes back
// field by field, and falls back to an embedded dataset whenever the live
// call fails, times out or returns something unusable.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Metric names used by the three series. The text model is asked for exactly
// these keys and the page charts read them back.
const (
	MetricProductivity       = "productivity"
	MetricHourlyCompensation = "hourlyCompensation"

	MetricCEOPayGrowth    = "ceoPayGrowth"
	MetricWorkerPayGrowth = "workerPayGrowth"

	MetricWages      = "wages"
	MetricHousing    = "housing"
	MetricHealthcare = "healthcare"
	MetricTuition    = "tuition"
)

// Field names of Data as they appear on the wire. Outcome.Fallbacks lists
// these when a field was replaced by the embedded value.
const (
	FieldSummary             = "summary"
	FieldRandReportContext   = "randReportContext"
	FieldProductivityVsWages = "productivityVsWages"
	FieldCEOVsWorker         = "ceoVsWorker"
	FieldCostOfLiving        = "costOfLiving"
	FieldSources             = "sources"
)

// Data is the full report rendered by the page.
type Data struct {
	Summary             string       `json:"summary"`
	RandReportContext   string       `json:"randReportContext"`
	ProductivityVsWages []ChartPoint `json:"productivityVsWages"`
	CEOVsWorker         []ChartPoint `json:"ceoVsWorker"`
	CostOfLiving        []ChartPoint `json:"costOfLiving"`
	Sources             []Citation   `json:"sources"`
}

// Clone returns a deep copy of d. Callers that hold a Data across requests
// get their own slices and maps.
func (d Data) Clone() Data {
	out := d
	out.ProductivityVsWages = clonePoints(d.ProductivityVsWages)
	out.CEOVsWorker = clonePoints(d.CEOVsWorker)
	out.CostOfLiving = clonePoints(d.CostOfLiving)
	if d.Sources != nil {
		out.Sources = append([]Citation(nil), d.Sources...)
	}
	return out
}

func clonePoints(in []ChartPoint) []ChartPoint {
	if in == nil {
		return nil
	}
	out := make([]ChartPoint, len(in))
	for i, p := range in {
		out[i] = p.clone()
	}
	return out
}

// Citation is one grounding source shown under the charts.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ─── CHART POINT ──────────────────────────────────────────────────────────────

// ChartPoint is one year-keyed record of a series. On the wire it is a flat
// object: {"year":1975,"productivity":98,"hourlyCompensation":99}.
type ChartPoint struct {
	Year    int
	Metrics map[string]float64
}

// Point is a convenience constructor for literal series.
func Point(year int, kv ...any) ChartPoint {
	p := ChartPoint{Year: year, Metrics: make(map[string]float64, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		name, _ := kv[i].(string)
		switch v := kv[i+1].(type) {
		case int:
			p.Metrics[name] = float64(v)
		case float64:
			p.Metrics[name] = v
		}
	}
	return p
}

// Value returns the named metric and whether it is present.
func (p ChartPoint) Value(name string) (float64, bool) {
	v, ok := p.Metrics[name]
	return v, ok
}

func (p ChartPoint) clone() ChartPoint {
	out := ChartPoint{Year: p.Year}
	if p.Metrics != nil {
		out.Metrics = make(map[string]float64, len(p.Metrics))
		for k, v := range p.Metrics {
			out.Metrics[k] = v
		}
	}
	return out
}

// MarshalJSON writes year first, then metrics in name order.
func (p ChartPoint) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(p.Metrics))
	for k := range p.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(`{"year":`)
	b.WriteString(strconv.Itoa(p.Year))
	for _, name := range names {
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		b.WriteByte(',')
		b.Write(key)
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(p.Metrics[name], 'f', -1, 64))
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON accepts the flat form. Numbers may arrive as JSON numbers or
// numeric strings; keys whose value is not numeric are ignored. A record
// without a year or without any metric is rejected.
func (p *ChartPoint) UnmarshalJSON(data []byte) error {
	point, err := decodePoint(data)
	if err != nil {
		return err
	}
	*p = point
	return nil
}

func decodePoint(data []byte) (ChartPoint, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return ChartPoint{}, fmt.Errorf("report: chart point: %w", err)
	}
	if fields == nil {
		return ChartPoint{}, fmt.Errorf("report: chart point: null record")
	}

	rawYear, ok := fields["year"]
	if !ok {
		return ChartPoint{}, fmt.Errorf("report: chart point: missing year")
	}
	year, ok := number(rawYear)
	if !ok || year != float64(int(year)) {
		return ChartPoint{}, fmt.Errorf("report: chart point: year %s is not a whole number", rawYear)
	}

	p := ChartPoint{Year: int(year), Metrics: make(map[string]float64, len(fields)-1)}
	for k, raw := range fields {
		if k == "year" {
			continue
		}
		if v, ok := number(raw); ok {
			p.Metrics[k] = v
		}
	}
	if len(p.Metrics) == 0 {
		return ChartPoint{}, fmt.Errorf("report: chart point %d: no numeric metrics", p.Year)
	}
	return p, nil
}

// number reads a JSON number or a string holding one. NaN and infinities are
// refused.
func number(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
		if f, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, false
		}
	}
	if math.IsNaN(f) || math.Abs(f) > maxMetric {
		return 0, false
	}
	return f, true
}

const maxMetric = 1e15
