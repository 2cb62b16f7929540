package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"
)

// Kind classifies a provider-call failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindTimeout
	KindParse
	KindNoImage
	KindInvalidCredential
	// KindProvider is any other error the provider returned (quota, billing,
	// safety blocks, 5xx).
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindParse:
		return "parse"
	case KindNoImage:
		return "no_image"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindProvider:
		return "provider"
	default:
		return "unknown"
	}
}

var (
	// ErrNoImageGenerated is returned when an image response carries no
	// inline-data part.
	ErrNoImageGenerated = errors.New("no image generated")

	// ErrEmptyResponse is returned when a text response has no text.
	ErrEmptyResponse = errors.New("empty response from provider")

	// ErrNoCredential is returned by Unavailable when no API key is configured.
	ErrNoCredential = errors.New("no API key configured")
)

// Error attaches a Kind to a failed operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ai: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("ai: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// wrap classifies err and returns it as an *Error. A nil err stays nil.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: classify(err), Op: op, Err: err}
}

// KindOf returns the Kind of err. Errors that did not come through this
// package are classified on the spot.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return classify(err)
}

// IsInvalidCredential reports whether err means the configured key was
// rejected and the user should be asked to select one again.
func IsInvalidCredential(err error) bool {
	return KindOf(err) == KindInvalidCredential
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrNoImageGenerated):
		return KindNoImage
	case errors.Is(err, ErrNoCredential):
		return KindInvalidCredential
	case errors.Is(err, ErrEmptyResponse):
		return KindParse
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	if apiErr, ok := asAPIError(err); ok {
		if credentialRejected(apiErr.Status, apiErr.Message) {
			return KindInvalidCredential
		}
		return KindProvider
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindParse
	}

	// Some proxies flatten the provider error into plain text.
	if credentialRejected("", err.Error()) {
		return KindInvalidCredential
	}
	return KindUnknown
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}

// credentialRejectedMessages are the provider texts that mean "the selected
// key is not usable". The first one is what the AI Studio key picker produces
// when the chosen project has been removed; the list is provider-specific and
// may need updating when upstream wording changes.
var credentialRejectedMessages = []string{
	"Requested entity was not found",
	"API key not valid",
	"API_KEY_INVALID",
}

func credentialRejected(status, message string) bool {
	if status == "UNAUTHENTICATED" {
		return true
	}
	for _, m := range credentialRejectedMessages {
		if strings.Contains(message, m) {
			return true
		}
	}
	return false
}
