// Package credential answers whether a usable provider key is selected and
// asks for one to be selected. The image flow consults a Gate before every
// generation.
package credential

import (
	"context"
	"errors"
)

// ErrSelectionUnavailable is returned by OpenSelectKey when the host has no
// way to prompt for a key.
var ErrSelectionUnavailable = errors.New("credential: key selection is not available")

// Gate is the host capability for credential selection. A browser build
// backs it with the key picker; the server backs it with its configuration.
type Gate interface {
	// HasSelectedKey reports whether a key is currently selected.
	HasSelectedKey(ctx context.Context) (bool, error)

	// OpenSelectKey asks the user to select a key. Callers assume success
	// when it returns nil and do not re-check.
	OpenSelectKey(ctx context.Context) error
}

// StaticGate reports a fixed answer, normally whether an API key was
// configured at startup. OpenSelectKey succeeds without doing anything when
// AllowSelect is set, so the provider call itself decides whether the key
// works.
type StaticGate struct {
	Configured  bool
	AllowSelect bool
}

// NewStaticGate returns a gate for a server whose key is fixed at startup.
func NewStaticGate(configured bool) StaticGate {
	return StaticGate{Configured: configured, AllowSelect: true}
}

func (g StaticGate) HasSelectedKey(context.Context) (bool, error) {
	return g.Configured, nil
}

func (g StaticGate) OpenSelectKey(context.Context) error {
	if !g.AllowSelect {
		return ErrSelectionUnavailable
	}
	return nil
}
