package infographic_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/Ronnie04NYC/wealth-transfer/internal/ai"
	"github.com/Ronnie04NYC/wealth-transfer/internal/infographic"
	"github.com/Ronnie04NYC/wealth-transfer/internal/session"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

type stubImages struct {
	uri     string
	err     error
	prompts []string
}

func (s *stubImages) GenerateImage(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.uri, s.err
}

type stubGate struct {
	has       bool
	hasErr    error
	selectErr error
	checks    int
	opens     int
}

func (g *stubGate) HasSelectedKey(context.Context) (bool, error) {
	g.checks++
	return g.has, g.hasErr
}

func (g *stubGate) OpenSelectKey(context.Context) error {
	g.opens++
	return g.selectErr
}

func newService(images *stubImages, gate *stubGate) *infographic.Service {
	return infographic.NewService(
		infographic.DefaultCatalog(),
		images,
		gate,
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func newSession() *session.State {
	return session.NewStore(time.Hour).Create()
}

// ─── CATALOG ──────────────────────────────────────────────────────────────────

func TestDefaultCatalog(t *testing.T) {
	c := infographic.DefaultCatalog()

	var ids []string
	for _, p := range c.All() {
		ids = append(ids, p.ID)
	}
	if got := strings.Join(ids, ","); got != "divergence,ceo_scale,cost_balloon" {
		t.Fatalf("ids = %s", got)
	}

	p, err := c.Lookup("ceo_scale")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if p.Title != "The Ratio Scale" {
		t.Errorf("title = %q", p.Title)
	}
	if !strings.HasPrefix(p.Text, "A stylized isometric infographic. A large golden balance scale. On the left pan,") {
		t.Errorf("prompt text not folded onto one line: %q", p.Text)
	}
	if !strings.Contains(p.Text, `A label floating above says "399:1 RATIO".`) {
		t.Errorf("prompt text lost its label: %q", p.Text)
	}
	if strings.Contains(p.Text, "\n") {
		t.Error("prompt text must not contain newlines")
	}
}

func TestCatalog_AllReturnsCopy(t *testing.T) {
	c := infographic.DefaultCatalog()
	all := c.All()
	all[0].Title = "changed"

	if c.All()[0].Title == "changed" {
		t.Error("catalog was mutated through All()")
	}
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":     "prompts: []",
		"no id":     "prompts:\n  - title: t\n    prompt: p\n",
		"no text":   "prompts:\n  - id: a\n    title: t\n",
		"duplicate": "prompts:\n  - {id: a, title: t, prompt: p}\n  - {id: a, title: t, prompt: p}\n",
		"not yaml":  "prompts: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := infographic.ParseCatalog([]byte(doc)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// ─── GENERATE ─────────────────────────────────────────────────────────────────

func TestGenerate_UnknownPrompt(t *testing.T) {
	images := &stubImages{uri: "data:image/png;base64,AAAA"}
	_, err := newService(images, &stubGate{has: true}).Generate(context.Background(), newSession(), "nope")

	if !errors.Is(err, infographic.ErrUnknownPrompt) {
		t.Fatalf("expected ErrUnknownPrompt, got %v", err)
	}
	if len(images.prompts) != 0 {
		t.Error("provider must not be called for an unknown prompt")
	}
}

func TestGenerate_SuccessCachesImage(t *testing.T) {
	images := &stubImages{uri: "data:image/png;base64,AAAA"}
	gate := &stubGate{has: true}
	st := newSession()

	uri, err := newService(images, gate).Generate(context.Background(), st, "divergence")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uri != "data:image/png;base64,AAAA" {
		t.Errorf("uri = %q", uri)
	}
	if cached, ok := st.Image("divergence"); !ok || cached != uri {
		t.Errorf("image not cached, got %q", cached)
	}
	if !strings.HasPrefix(images.prompts[0], "A split screen infographic.") {
		t.Errorf("sent prompt = %q", images.prompts[0])
	}
	if gate.opens != 0 {
		t.Error("key selection must not open when a key is selected")
	}
}

func TestGenerate_NoKeyOpensSelectionAndAssumesSuccess(t *testing.T) {
	images := &stubImages{uri: "data:image/png;base64,AAAA"}
	gate := &stubGate{has: false}
	st := newSession()

	if _, err := newService(images, gate).Generate(context.Background(), st, "cost_balloon"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gate.opens != 1 {
		t.Errorf("opens = %d, want 1", gate.opens)
	}
	if gate.checks != 1 {
		t.Errorf("checks = %d, want 1 (no re-check after selection)", gate.checks)
	}
	if has, _ := st.HasKey(); !has {
		t.Error("flag should be set after selection")
	}
}

func TestGenerate_SelectionFailureStillGenerates(t *testing.T) {
	images := &stubImages{uri: "data:image/png;base64,AAAA"}
	gate := &stubGate{has: false, selectErr: errors.New("closed picker")}
	st := newSession()

	if _, err := newService(images, gate).Generate(context.Background(), st, "divergence"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(images.prompts) != 1 {
		t.Error("generation should proceed after a failed selection")
	}
	if has, _ := st.HasKey(); has {
		t.Error("flag must stay unset when selection failed")
	}
}

func TestGenerate_InvalidCredentialResetsFlag(t *testing.T) {
	images := &stubImages{err: genai.APIError{Code: 404, Status: "NOT_FOUND", Message: "Requested entity was not found."}}
	gate := &stubGate{has: true}
	st := newSession()

	_, err := newService(images, gate).Generate(context.Background(), st, "divergence")
	if !ai.IsInvalidCredential(err) {
		t.Fatalf("expected invalid credential, got %v", err)
	}
	if has, known := st.HasKey(); has || !known {
		t.Errorf("HasKey = (%v, %v), want (false, true)", has, known)
	}
	if _, ok := st.Image("divergence"); ok {
		t.Error("nothing should be cached on failure")
	}
}

func TestGenerate_OtherFailureKeepsFlag(t *testing.T) {
	noImage := &ai.Error{Kind: ai.KindNoImage, Op: "generate image", Err: ai.ErrNoImageGenerated}
	st := newSession()

	_, err := newService(&stubImages{err: noImage}, &stubGate{has: true}).Generate(context.Background(), st, "divergence")
	if !errors.Is(err, ai.ErrNoImageGenerated) {
		t.Fatalf("expected ErrNoImageGenerated, got %v", err)
	}
	if has, _ := st.HasKey(); !has {
		t.Error("a non-credential failure must not reset the flag")
	}
}

func TestGenerate_RateLimitHonoursContext(t *testing.T) {
	images := &stubImages{uri: "data:image/png;base64,AAAA"}
	svc := infographic.NewService(
		infographic.DefaultCatalog(),
		images,
		&stubGate{has: true},
		infographic.NewLimiter(1),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	st := newSession()

	if _, err := svc.Generate(context.Background(), st, "divergence"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := svc.Generate(ctx, st, "divergence"); err == nil {
		t.Fatal("second call within the minute should fail to acquire a token")
	}
	if len(images.prompts) != 1 {
		t.Errorf("provider calls = %d, want 1", len(images.prompts))
	}
}
