package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Ronnie04NYC/wealth-transfer/internal/ai"
	"github.com/Ronnie04NYC/wealth-transfer/internal/api"
	"github.com/Ronnie04NYC/wealth-transfer/internal/credential"
	"github.com/Ronnie04NYC/wealth-transfer/internal/infographic"
	"github.com/Ronnie04NYC/wealth-transfer/internal/report"
	"github.com/Ronnie04NYC/wealth-transfer/internal/session"
	"github.com/Ronnie04NYC/wealth-transfer/internal/store"
	"github.com/Ronnie04NYC/wealth-transfer/internal/worker"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

// stubFetcher returns a fixed dataset and outcome.
type stubFetcher struct {
	data    report.Data
	outcome report.Outcome
	calls   int
}

func (f *stubFetcher) FetchWithOutcome(context.Context) (report.Data, report.Outcome) {
	f.calls++
	return f.data.Clone(), f.outcome
}

// stubImages satisfies ai.ImageGenerator.
type stubImages struct {
	uri string
	err error
}

func (s *stubImages) GenerateImage(context.Context, string) (string, error) {
	return s.uri, s.err
}

// stubWorker records enqueued tasks. When job is set it runs them inline so
// tests can assert on the finished state.
type stubWorker struct {
	job      *worker.Job
	enqueued []worker.Task
	err      error
}

func (w *stubWorker) Enqueue(ctx context.Context, t worker.Task) error {
	if w.err != nil {
		return w.err
	}
	w.enqueued = append(w.enqueued, t)
	if w.job != nil {
		_ = w.job.Run(ctx, t)
	}
	return nil
}

// stubRecorder captures audit records.
type stubRecorder struct {
	mu      sync.Mutex
	fetches []store.FetchRecord
}

func (r *stubRecorder) RecordFetch(_ context.Context, rec store.FetchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches = append(r.fetches, rec)
	return nil
}

func (r *stubRecorder) RecordGeneration(context.Context, store.GenerationRecord) error { return nil }

// ─── HELPERS ─────────────────────────────────────────────────────────────────

type testDeps struct {
	fetcher  *stubFetcher
	images   *stubImages
	worker   *stubWorker
	recorder *stubRecorder
	sessions *session.Store
	handler  http.Handler
}

type options struct {
	gate   credential.Gate
	inline bool
}

func newTestServer(t *testing.T, opts ...func(*options)) *testDeps {
	t.Helper()

	o := options{gate: credential.NewStaticGate(true), inline: true}
	for _, fn := range opts {
		fn(&o)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fetcher := &stubFetcher{
		data:    report.Fallback(),
		outcome: report.Outcome{Source: report.SourceFallback, Kind: ai.KindTimeout, Err: errors.New("timed out")},
	}
	images := &stubImages{uri: "data:image/png;base64,AAAA"}
	svc := infographic.NewService(infographic.DefaultCatalog(), images, o.gate, nil, logger)
	wk := &stubWorker{}
	if o.inline {
		wk.job = worker.NewJob(svc, nil, logger)
	}
	rec := &stubRecorder{}
	sessions := session.NewStore(time.Hour)

	handler := api.NewServer(fetcher, sessions, svc, wk, rec, api.Config{Env: "development"}, logger)

	return &testDeps{
		fetcher:  fetcher,
		images:   images,
		worker:   wk,
		recorder: rec,
		sessions: sessions,
		handler:  handler,
	}
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		bodyReader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dst); err != nil {
		t.Fatalf("decode response body: %v (raw: %s)", err, rr.Body.String())
	}
}

// sessionCookie extracts the session cookie set by a response.
func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == api.SessionCookie {
			return c
		}
	}
	t.Fatalf("response set no %s cookie", api.SessionCookie)
	return nil
}

// ─── GET /healthz ─────────────────────────────────────────────────────────────

func TestHealthz(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/healthz", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

// ─── GET /api/report ──────────────────────────────────────────────────────────

func TestGetReport_FallbackIsSurfaced(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/api/report", nil, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get(api.HeaderReportSource); got != "fallback" {
		t.Errorf("%s = %q, want fallback", api.HeaderReportSource, got)
	}

	var resp struct {
		Summary             string           `json:"summary"`
		ProductivityVsWages []map[string]any `json:"productivityVsWages"`
		Meta                struct {
			Source string `json:"source"`
			Reason string `json:"reason"`
		} `json:"meta"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Meta.Source != "fallback" || resp.Meta.Reason != "timeout" {
		t.Errorf("meta = %+v", resp.Meta)
	}
	if resp.Summary != report.Fallback().Summary {
		t.Errorf("summary = %q", resp.Summary)
	}
	if first := resp.ProductivityVsWages[0]; first["year"] != float64(1975) || first["productivity"] != float64(98) {
		t.Errorf("chart point not flat: %v", first)
	}

	if len(deps.recorder.fetches) != 1 || deps.recorder.fetches[0].ErrorKind != "timeout" {
		t.Errorf("audit records = %+v", deps.recorder.fetches)
	}
}

func TestGetReport_ReusesSessionDataUntilRefresh(t *testing.T) {
	deps := newTestServer(t)

	rr := doRequest(t, deps.handler, http.MethodGet, "/api/report", nil, nil)
	cookie := sessionCookie(t, rr)

	rr = doRequest(t, deps.handler, http.MethodGet, "/api/report", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if deps.fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1 (session cache)", deps.fetcher.calls)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Error("existing session should not get a new cookie")
	}

	doRequest(t, deps.handler, http.MethodGet, "/api/report?refresh=true", nil, cookie)
	if deps.fetcher.calls != 2 {
		t.Errorf("fetch calls = %d, want 2 after refresh", deps.fetcher.calls)
	}
}

func TestGetReport_LiveHasNoReason(t *testing.T) {
	deps := newTestServer(t)
	deps.fetcher.outcome = report.Outcome{Source: report.SourceLive}

	rr := doRequest(t, deps.handler, http.MethodGet, "/api/report", nil, nil)
	var resp struct {
		Meta map[string]any `json:"meta"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Meta["source"] != "live" {
		t.Errorf("source = %v", resp.Meta["source"])
	}
	if _, ok := resp.Meta["reason"]; ok {
		t.Error("live data must not carry a reason")
	}
}

func TestGetReport_AuditKeepsOnlyGroundedCitations(t *testing.T) {
	grounded := report.Fallback()
	grounded.Sources = []report.Citation{{Title: "BLS", URI: "https://www.bls.gov/"}}

	cases := []struct {
		name    string
		data    report.Data
		outcome report.Outcome
		want    int
	}{
		{"fallback", report.Fallback(), report.Outcome{Source: report.SourceFallback, Kind: ai.KindTimeout}, 0},
		{"partial with embedded sources", report.Fallback(), report.Outcome{Source: report.SourcePartial, Fallbacks: []string{report.FieldCEOVsWorker, report.FieldSources}}, 0},
		{"partial with grounded sources", grounded, report.Outcome{Source: report.SourcePartial, Fallbacks: []string{report.FieldCEOVsWorker}, Citations: 1}, 1},
		{"live", grounded, report.Outcome{Source: report.SourceLive, Citations: 1}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := newTestServer(t)
			deps.fetcher.data = tc.data
			deps.fetcher.outcome = tc.outcome

			doRequest(t, deps.handler, http.MethodGet, "/api/report", nil, nil)

			if len(deps.recorder.fetches) != 1 {
				t.Fatalf("audit records = %d, want 1", len(deps.recorder.fetches))
			}
			if got := len(deps.recorder.fetches[0].Citations); got != tc.want {
				t.Errorf("citations recorded = %d, want %d", got, tc.want)
			}
		})
	}
}

// ─── GET / ────────────────────────────────────────────────────────────────────

func TestPage_FallbackBanner(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/", nil, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Live figures are unavailable (timeout)") {
		t.Error("expected the fallback banner")
	}
	if !strings.Contains(body, `data-prompt-id="cost_balloon"`) {
		t.Error("expected the prompt catalog")
	}
	if !strings.Contains(body, `"productivityVsWages":[{"year":1975`) {
		t.Error("expected the embedded chart data")
	}
}

func TestPage_NoBannerForLiveData(t *testing.T) {
	deps := newTestServer(t)
	deps.fetcher.outcome = report.Outcome{Source: report.SourceLive}

	rr := doRequest(t, deps.handler, http.MethodGet, "/", nil, nil)
	if strings.Contains(rr.Body.String(), `class="banner`) {
		t.Error("live data must not show a banner")
	}
}

func TestPage_EveryLoadFetches(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/", nil, nil)
	doRequest(t, deps.handler, http.MethodGet, "/", nil, sessionCookie(t, rr))

	if deps.fetcher.calls != 2 {
		t.Errorf("fetch calls = %d, want one per page load", deps.fetcher.calls)
	}
}

// ─── /api/infographics ────────────────────────────────────────────────────────

func TestListInfographics(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/api/infographics", nil, nil)

	var resp struct {
		HasKey  bool `json:"has_key"`
		Prompts []struct {
			ID     string `json:"id"`
			Prompt string `json:"prompt"`
			Status string `json:"status"`
		} `json:"prompts"`
	}
	decodeJSON(t, rr, &resp)
	if !resp.HasKey {
		t.Error("configured gate should report a key")
	}
	if len(resp.Prompts) != 3 || resp.Prompts[0].ID != "divergence" || resp.Prompts[0].Status != "none" {
		t.Errorf("prompts = %+v", resp.Prompts)
	}
	if resp.Prompts[0].Prompt == "" {
		t.Error("prompt text should be returned for the copy button")
	}
}

func TestGenerateInfographic_UnknownPromptReturns404(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodPost, "/api/infographics/nope", nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if len(deps.worker.enqueued) != 0 {
		t.Error("nothing should be enqueued")
	}
}

func TestGetInfographic_NothingRequestedReturns404(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/api/infographics/divergence", nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestGenerateInfographic_AcceptedThenReady(t *testing.T) {
	deps := newTestServer(t)

	rr := doRequest(t, deps.handler, http.MethodPost, "/api/infographics/divergence", nil, nil)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
	cookie := sessionCookie(t, rr)

	rr = doRequest(t, deps.handler, http.MethodGet, "/api/infographics/divergence", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Generation struct {
			Status string `json:"status"`
		} `json:"generation"`
		Image string `json:"image"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Generation.Status != "ready" || resp.Image != "data:image/png;base64,AAAA" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGenerateInfographic_PendingReturns202(t *testing.T) {
	deps := newTestServer(t, func(o *options) { o.inline = false })

	rr := doRequest(t, deps.handler, http.MethodPost, "/api/infographics/ceo_scale", nil, nil)
	cookie := sessionCookie(t, rr)

	rr = doRequest(t, deps.handler, http.MethodGet, "/api/infographics/ceo_scale", nil, cookie)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	if len(deps.worker.enqueued) != 1 || deps.worker.enqueued[0].PromptID != "ceo_scale" {
		t.Errorf("enqueued = %+v", deps.worker.enqueued)
	}
}

func TestGenerateInfographic_InvalidCredentialResetsKey(t *testing.T) {
	deps := newTestServer(t)
	deps.images.err = &ai.Error{Kind: ai.KindInvalidCredential, Op: "generate image", Err: errors.New("Requested entity was not found.")}

	rr := doRequest(t, deps.handler, http.MethodPost, "/api/infographics/divergence", nil, nil)
	cookie := sessionCookie(t, rr)

	rr = doRequest(t, deps.handler, http.MethodGet, "/api/infographics/divergence", nil, cookie)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	var resp struct {
		Generation struct {
			Error           string `json:"error"`
			CredentialReset bool   `json:"credential_reset"`
		} `json:"generation"`
	}
	decodeJSON(t, rr, &resp)
	if !resp.Generation.CredentialReset {
		t.Error("expected credential_reset")
	}
	if resp.Generation.Error != infographic.FailureMessage {
		t.Errorf("error = %q", resp.Generation.Error)
	}

	rr = doRequest(t, deps.handler, http.MethodGet, "/api/credential", nil, cookie)
	var cred struct {
		HasKey bool `json:"has_key"`
	}
	decodeJSON(t, rr, &cred)
	if cred.HasKey {
		t.Error("key flag should be cleared")
	}
}

func TestGenerateInfographic_QueueFullReturns503(t *testing.T) {
	deps := newTestServer(t)
	deps.worker.err = worker.ErrQueueFull

	rr := doRequest(t, deps.handler, http.MethodPost, "/api/infographics/divergence", nil, nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

// ─── /api/credential ──────────────────────────────────────────────────────────

func TestCredential_SelectSetsFlag(t *testing.T) {
	deps := newTestServer(t, func(o *options) { o.gate = credential.NewStaticGate(false) })

	rr := doRequest(t, deps.handler, http.MethodGet, "/api/credential", nil, nil)
	cookie := sessionCookie(t, rr)
	var cred struct {
		HasKey bool `json:"has_key"`
	}
	decodeJSON(t, rr, &cred)
	if cred.HasKey {
		t.Fatal("unconfigured gate should report no key")
	}

	rr = doRequest(t, deps.handler, http.MethodPost, "/api/credential/select", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = doRequest(t, deps.handler, http.MethodGet, "/api/credential", nil, cookie)
	decodeJSON(t, rr, &cred)
	if !cred.HasKey {
		t.Error("selection should set the flag without a re-check")
	}
}

func TestCredential_SelectUnavailableReturns501(t *testing.T) {
	deps := newTestServer(t, func(o *options) { o.gate = credential.StaticGate{} })
	rr := doRequest(t, deps.handler, http.MethodPost, "/api/credential/select", nil, nil)
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rr.Code)
	}
}

// ─── POST /api/calculator ─────────────────────────────────────────────────────

func TestCalculator_Valid(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodPost, "/api/calculator", map[string]any{"currentSalary": 50000}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		CalculatedSalary float64 `json:"calculatedSalary"`
		LostWages        float64 `json:"lostWages"`
	}
	decodeJSON(t, rr, &resp)
	if resp.CalculatedSalary <= 50000 || resp.LostWages <= 0 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestCalculator_BadInputReturns400(t *testing.T) {
	deps := newTestServer(t)
	for name, body := range map[string]any{
		"zero salary":   map[string]any{"currentSalary": 0},
		"unknown field": map[string]any{"salary": 50000},
		"wrong type":    map[string]any{"currentSalary": "lots"},
	} {
		t.Run(name, func(t *testing.T) {
			rr := doRequest(t, deps.handler, http.MethodPost, "/api/calculator", body, nil)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}

// ─── CORS ─────────────────────────────────────────────────────────────────────

func TestCORS_PreflightReturns204(t *testing.T) {
	deps := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/report", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rr := httptest.NewRecorder()
	deps.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Error("development should echo the origin")
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Expose-Headers"), api.HeaderReportSource) {
		t.Error("report source header should be exposed")
	}
}

func TestCORS_NoOriginHeader_SkipsCORSHeaders(t *testing.T) {
	deps := newTestServer(t)
	rr := doRequest(t, deps.handler, http.MethodGet, "/healthz", nil, nil)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("should not set CORS headers when no Origin present")
	}
}
