package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider is one speech-to-text backend. wav is always mono 16 kHz 16-bit
// PCM WAV. An empty transcript must be reported as an error.
type Provider interface {
	Name() string
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

type ProviderError struct {
	Provider string
	Err      error
}

func (e ProviderError) Error() string { return e.Provider + ": " + e.Err.Error() }

// ExhaustedError means every provider in the chain failed.
type ExhaustedError struct {
	Failures []ProviderError
}

func (e *ExhaustedError) Error() string {
	return "all transcription providers failed: " + strings.Join(e.Messages(), "; ")
}

// Messages returns one diagnostic line per failed provider.
func (e *ExhaustedError) Messages() []string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return msgs
}

func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Chain tries providers in order and stops at the first success.
type Chain []Provider

type chainResult struct {
	Text     string
	Engine   string
	Index    int
	Failures []ProviderError
}

func (ch Chain) Transcribe(ctx context.Context, wav []byte) (chainResult, error) {
	var failures []ProviderError
	for i, p := range ch {
		text, err := safeTranscribe(ctx, p, wav)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errors.New("empty transcript")
		}
		if err != nil {
			failures = append(failures, ProviderError{Provider: p.Name(), Err: err})
			continue
		}
		return chainResult{Text: strings.TrimSpace(text), Engine: p.Name(), Index: i, Failures: failures}, nil
	}
	return chainResult{}, &ExhaustedError{Failures: failures}
}

// safeTranscribe turns a provider panic into an ordinary failure so the
// next provider still runs.
func safeTranscribe(ctx context.Context, p Provider, wav []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Transcribe(ctx, wav)
}
