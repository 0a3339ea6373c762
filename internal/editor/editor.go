// Package editor defines the contract for the host application's editable
// text surface and a request/response bridge over a broadcast-style message
// transport. The lifecycle core only depends on Surface; the bridge is the
// production implementation for hosts that answer editor requests
// asynchronously with correlation ids.
package editor

import (
	"context"
	"strings"
)

// State is a point-in-time snapshot of the editable surface.
type State struct {
	PlainText   string `json:"plain_text"`
	RichContent string `json:"rich_content"` // opaque to this module
}

// Empty reports whether the surface holds no user text. Whitespace-only
// content counts as empty, same as everywhere else emptiness is judged.
func (s State) Empty() bool {
	return strings.TrimSpace(s.PlainText) == ""
}

// Surface is the host editor boundary. Both calls are bounded: implementations
// resolve to errors.ErrTimeout rather than hanging, and the caller's context
// can cut the wait shorter.
type Surface interface {
	// ReadState returns the current editor content.
	ReadState(ctx context.Context) (State, error)

	// WriteState replaces the editor content with the given rich form.
	WriteState(ctx context.Context, richContent string) error
}
