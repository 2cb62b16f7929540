package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Ronnie04NYC/wealth-transfer/internal/ai"
)

// ErrUnparseable is returned when neither the fenced block nor the whole
// response text holds a JSON object.
var ErrUnparseable = errors.New("could not parse economic data from response")

// ErrNoUsableFields is returned when the response parsed but none of its
// text or series fields survived validation.
var ErrNoUsableFields = errors.New("response holds no usable report fields")

var (
	jsonFence = regexp.MustCompile("```json\\n([\\s\\S]*?)\\n```")
	anyFence  = regexp.MustCompile("```([\\s\\S]*?)```")
)

// parsed is a response after validation. A nil series or empty string means
// the field was missing or unusable.
type parsed struct {
	Summary             string
	RandReportContext   string
	ProductivityVsWages []ChartPoint
	CEOVsWorker         []ChartPoint
	CostOfLiving        []ChartPoint
}

// empty reports whether no text or series field is usable.
func (p parsed) empty() bool {
	return p.Summary == "" && p.RandReportContext == "" &&
		len(p.ProductivityVsWages) == 0 && len(p.CEOVsWorker) == 0 && len(p.CostOfLiving) == 0
}

type wireReport struct {
	Summary             json.RawMessage `json:"summary"`
	RandReportContext   json.RawMessage `json:"randReportContext"`
	ProductivityVsWages json.RawMessage `json:"productivityVsWages"`
	CEOVsWorker         json.RawMessage `json:"ceoVsWorker"`
	CostOfLiving        json.RawMessage `json:"costOfLiving"`
}

// required lists the metrics a record must carry to be charted.
var required = map[string][]string{
	FieldProductivityVsWages: {MetricProductivity, MetricHourlyCompensation},
	FieldCEOVsWorker:         {MetricCEOPayGrowth, MetricWorkerPayGrowth},
	FieldCostOfLiving:        {MetricWages, MetricHousing, MetricHealthcare, MetricTuition},
}

// parseResponse extracts the report object from model text. The fenced block
// is tried first (a ```json fence, then any fence); if it does not parse the
// whole text is tried before giving up.
func parseResponse(text string) (parsed, error) {
	var lastErr error
	for _, candidate := range candidates(text) {
		p, err := parseObject([]byte(candidate))
		if err == nil {
			return p, nil
		}
		lastErr = err
	}
	return parsed{}, &ai.Error{Kind: ai.KindParse, Op: "parse report", Err: fmt.Errorf("%w: %v", ErrUnparseable, lastErr)}
}

func candidates(text string) []string {
	var out []string
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		out = append(out, m[1])
	} else if m := anyFence.FindStringSubmatch(text); m != nil {
		out = append(out, m[1])
	}
	return append(out, text)
}

func parseObject(b []byte) (parsed, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return parsed{}, errors.New("not a JSON object")
	}

	var w wireReport
	if err := json.Unmarshal(b, &w); err != nil {
		return parsed{}, err
	}

	return parsed{
		Summary:             stringField(w.Summary),
		RandReportContext:   stringField(w.RandReportContext),
		ProductivityVsWages: series(w.ProductivityVsWages, required[FieldProductivityVsWages]),
		CEOVsWorker:         series(w.CEOVsWorker, required[FieldCEOVsWorker]),
		CostOfLiving:        series(w.CostOfLiving, required[FieldCostOfLiving]),
	}, nil
}

func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// series keeps the records that decode and carry every required metric,
// ordered by year. Anything that is not an array yields nil.
func series(raw json.RawMessage, metrics []string) []ChartPoint {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}

	var out []ChartPoint
	for _, item := range items {
		p, err := decodePoint(item)
		if err != nil || !hasAll(p, metrics) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func hasAll(p ChartPoint, metrics []string) bool {
	for _, m := range metrics {
		if _, ok := p.Metrics[m]; !ok {
			return false
		}
	}
	return true
}

// ─── MERGE ────────────────────────────────────────────────────────────────────

// merge builds a Data from the parsed response and the grounding citations,
// taking each field from fb when the response left it empty. It returns the
// names of the fields that came from fb.
func merge(p parsed, citations []Citation, fb Data) (Data, []string) {
	var fallbacks []string
	pickText := func(field, got, def string) string {
		if got != "" {
			return got
		}
		fallbacks = append(fallbacks, field)
		return def
	}
	pickSeries := func(field string, got, def []ChartPoint) []ChartPoint {
		if len(got) > 0 {
			return got
		}
		fallbacks = append(fallbacks, field)
		return def
	}

	out := Data{
		Summary:             pickText(FieldSummary, p.Summary, fb.Summary),
		RandReportContext:   pickText(FieldRandReportContext, p.RandReportContext, fb.RandReportContext),
		ProductivityVsWages: pickSeries(FieldProductivityVsWages, p.ProductivityVsWages, fb.ProductivityVsWages),
		CEOVsWorker:         pickSeries(FieldCEOVsWorker, p.CEOVsWorker, fb.CEOVsWorker),
		CostOfLiving:        pickSeries(FieldCostOfLiving, p.CostOfLiving, fb.CostOfLiving),
		Sources:             citations,
	}
	if len(citations) == 0 {
		out.Sources = fb.Sources
		fallbacks = append(fallbacks, FieldSources)
	}
	return out, fallbacks
}

// filterCitations drops placeholder and blank URIs and repeats of a URI
// already seen.
func filterCitations(sources []ai.Source) []Citation {
	seen := make(map[string]bool, len(sources))
	var out []Citation
	for _, s := range sources {
		uri := strings.TrimSpace(s.URI)
		if uri == "" || uri == ai.PlaceholderURI || seen[uri] {
			continue
		}
		seen[uri] = true
		title := strings.TrimSpace(s.Title)
		if title == "" {
			title = "Source"
		}
		out = append(out, Citation{Title: title, URI: uri})
	}
	return out
}
