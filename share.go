package statesync

import (
	"context"

	"github.com/atotto/clipboard"
)

// Clipboard writes text to wherever the host shares from.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// ClipboardFunc adapts a function to Clipboard.
type ClipboardFunc func(ctx context.Context, text string) error

// WriteText implements Clipboard.
func (f ClipboardFunc) WriteText(ctx context.Context, text string) error {
	if f == nil {
		return nil
	}
	return f(ctx, text)
}

// SystemClipboard writes to the operating system clipboard.
type SystemClipboard struct{}

// WriteText implements Clipboard.
func (SystemClipboard) WriteText(_ context.Context, text string) error {
	return clipboard.WriteAll(text)
}

// ShareResult is the structured outcome of a share action. Clipboard access
// can fail for environmental reasons (permissions, headless hosts); the
// failure travels in Err instead of a panic or a crashed sync loop.
type ShareResult struct {
	Success bool
	URL     string
	Err     error
}
