package infographic

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/Ronnie04NYC/wealth-transfer/internal/ai"
	"github.com/Ronnie04NYC/wealth-transfer/internal/credential"
	"github.com/Ronnie04NYC/wealth-transfer/internal/session"
)

// FailureMessage is what the page shows for any failed generation.
const FailureMessage = "Failed to generate image. Ensure you have a valid API key with billing enabled."

// Service generates catalog images for page sessions.
type Service struct {
	catalog *Catalog
	images  ai.ImageGenerator
	gate    credential.Gate
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewService constructs a Service. A nil limiter means no rate limit.
func NewService(
	catalog *Catalog,
	images ai.ImageGenerator,
	gate credential.Gate,
	limiter *rate.Limiter,
	logger *slog.Logger,
) *Service {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Service{
		catalog: catalog,
		images:  images,
		gate:    gate,
		limiter: limiter,
		logger:  logger,
	}
}

// NewLimiter returns a limiter allowing rpm image calls per minute with a
// burst of one. A non-positive rpm disables limiting.
func NewLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60), 1)
}

// Catalog returns the prompt catalog.
func (s *Service) Catalog() *Catalog { return s.catalog }

// EnsureKeyFlag initialises the session's credential flag from the gate the
// first time it is needed and returns it.
func (s *Service) EnsureKeyFlag(ctx context.Context, st *session.State) bool {
	if has, known := st.HasKey(); known {
		return has
	}
	has, err := s.gate.HasSelectedKey(ctx)
	if err != nil {
		s.logger.Warn("infographic: credential check failed", "session_id", st.ID, "error", err)
		has = false
	}
	st.SetHasKey(has)
	return has
}

// SelectKey asks the gate for key selection. On success the session flag is
// set without re-checking.
func (s *Service) SelectKey(ctx context.Context, st *session.State) error {
	if err := s.gate.OpenSelectKey(ctx); err != nil {
		return fmt.Errorf("infographic: select key: %w", err)
	}
	st.SetHasKey(true)
	return nil
}

// Generate produces the image for promptID and caches it in the session.
//
// When the session has no key selected, key selection is opened first and
// generation proceeds even if that fails. A provider error that means the key
// was rejected clears the session flag so the page prompts again.
func (s *Service) Generate(ctx context.Context, st *session.State, promptID string) (string, error) {
	p, err := s.catalog.Lookup(promptID)
	if err != nil {
		return "", err
	}

	log := s.logger.With("session_id", st.ID, "prompt_id", promptID)

	if !s.EnsureKeyFlag(ctx, st) {
		if err := s.SelectKey(ctx, st); err != nil {
			log.Warn("infographic: key selection failed, generating anyway", "error", err)
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", &ai.Error{Kind: ai.KindTimeout, Op: "generate image", Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	uri, err := s.images.GenerateImage(ctx, p.Text)
	if err != nil {
		if ai.IsInvalidCredential(err) {
			st.SetHasKey(false)
			log.Warn("infographic: credential rejected, key selection reset", "error", err)
		}
		return "", err
	}

	st.CacheImage(p.ID, uri)
	log.Info("infographic: image generated", "bytes", len(uri))
	return uri, nil
}
