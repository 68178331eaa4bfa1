// Package transcription turns a recorded attempt into a transcript and a
// kana reading. Audio is normalized to mono 16 kHz PCM WAV, handed to an
// ordered chain of speech-to-text providers (the first success wins) and the
// winning transcript is converted to a reading.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	RolePrimary   = "primary"
	RoleSecondary = "secondary"

	defaultMaxAudioBytes = 10 << 20
	defaultTimeout       = 30 * time.Second
)

var ErrInvalidAudio = errors.New("missing or unsupported audio")

// ConversionError is returned when the audio could not be normalized to WAV.
// It is terminal for the attempt: no provider is tried.
type ConversionError struct {
	Err error
}

func (e *ConversionError) Error() string { return "audio conversion failed: " + e.Err.Error() }
func (e *ConversionError) Unwrap() error { return e.Err }

// Result is a successful transcription.
type Result struct {
	Transcript string `json:"transcript"`
	Reading    string `json:"reading"`
	// Provider is RolePrimary or RoleSecondary.
	Provider string `json:"provider"`
	// Engine names the backend that answered (azure, gcp, whisper).
	Engine string `json:"engine"`
	// Fallbacks lists the failures of providers tried before Engine.
	Fallbacks []string `json:"fallbacks,omitempty"`
}

type Option func(*Pipeline)

// WithMaxAudioBytes rejects payloads larger than n bytes.
func WithMaxAudioBytes(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxAudioBytes = n
		}
	}
}

// WithTimeout bounds the whole attempt, conversion and providers included.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// Pipeline is safe for concurrent use; every call owns its audio and
// temporary files.
type Pipeline struct {
	chain         Chain
	converter     Converter
	reader        ReadingConverter
	maxAudioBytes int
	timeout       time.Duration
	log           *zap.SugaredLogger
}

// New builds a pipeline. providers are tried in order. converter may be nil
// when every client uploads mono 16 kHz WAV; reader may be nil, in which
// case readings are always empty.
func New(providers []Provider, converter Converter, reader ReadingConverter, opts ...Option) (*Pipeline, error) {
	if len(providers) == 0 {
		return nil, errors.New("transcription: at least one provider is required")
	}
	p := &Pipeline{
		chain:         Chain(providers),
		converter:     converter,
		reader:        reader,
		maxAudioBytes: defaultMaxAudioBytes,
		timeout:       defaultTimeout,
		log:           zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Engines lists the provider names in fallback order.
func (p *Pipeline) Engines() []string {
	names := make([]string, len(p.chain))
	for i, pr := range p.chain {
		names[i] = pr.Name()
	}
	return names
}

// Transcribe validates, converts and transcribes one recording.
//
// The attempt is detached from ctx cancellation: once accepted it runs until
// it completes or the pipeline timeout expires, even if the client is gone.
func (p *Pipeline) Transcribe(ctx context.Context, audio []byte, mimeHint string) (*Result, error) {
	if err := validateAudio(audio, mimeHint, p.maxAudioBytes); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	wav := audio
	if !IsPCM16kMonoWAV(audio) {
		if p.converter == nil {
			return nil, &ConversionError{Err: errors.New("audio is not 16 kHz mono PCM WAV and no converter is configured")}
		}
		converted, err := p.converter.ToWAV(ctx, audio)
		if err != nil {
			return nil, &ConversionError{Err: err}
		}
		wav = converted
	}

	out, err := p.chain.Transcribe(ctx, wav)
	if err != nil {
		p.log.Warnw("all transcription providers failed", "error", err)
		return nil, err
	}

	res := &Result{
		Transcript: out.Text,
		Reading:    p.reading(out.Text),
		Provider:   RoleSecondary,
		Engine:     out.Engine,
	}
	if out.Index == 0 {
		res.Provider = RolePrimary
	}
	for _, f := range out.Failures {
		res.Fallbacks = append(res.Fallbacks, f.Error())
	}
	if len(res.Fallbacks) > 0 {
		p.log.Infow("transcribed after fallback", "engine", res.Engine, "fallbacks", res.Fallbacks)
	}
	return res, nil
}

// reading converts a transcript to kana. Failures degrade to "" so grading
// can fall back to the raw transcript.
func (p *Pipeline) reading(text string) string {
	if p.reader == nil || strings.TrimSpace(text) == "" {
		return ""
	}
	r, err := p.reader.Reading(text)
	if err != nil {
		p.log.Warnw("reading conversion failed", "error", err)
		return ""
	}
	return r
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}

// HTTPStatusError is a non-2xx answer from an HTTP provider.
type HTTPStatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Body)
}
