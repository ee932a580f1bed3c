// Package translate defines the translation collaborator contract used by
// the response synthesizer. Vendor integrations live outside the engine;
// this package only carries the interface, the result shape and a no-op
// implementation for single-language deployments.
package translate

import "context"

// Result is the outcome of one translation call.
type Result struct {
	TranslatedText string `json:"translated_text"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
}

// Translator converts text between language codes.
type Translator interface {
	Translate(ctx context.Context, text, targetLang, sourceLang string) (Result, error)
}

// Func adapts a plain function to the Translator interface.
type Func func(ctx context.Context, text, targetLang, sourceLang string) (Result, error)

// Translate implements Translator.
func (f Func) Translate(ctx context.Context, text, targetLang, sourceLang string) (Result, error) {
	return f(ctx, text, targetLang, sourceLang)
}

// NoOp returns the input text unchanged. Used when no translator is wired.
type NoOp struct{}

// Translate implements Translator.
func (NoOp) Translate(_ context.Context, text, _, _ string) (Result, error) {
	return Result{TranslatedText: text, Success: true}, nil
}
