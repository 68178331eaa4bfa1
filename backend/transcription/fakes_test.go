package transcription

import (
	"context"
	"errors"
	"sync"
)

type fakeProvider struct {
	name  string
	text  string
	err   error
	panic bool

	mu    sync.Mutex
	calls int
	got   []byte
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Transcribe(ctx context.Context, wav []byte) (string, error) {
	f.mu.Lock()
	f.calls++
	f.got = wav
	f.mu.Unlock()
	if f.panic {
		panic("provider exploded")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.text, f.err
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeConverter struct {
	out   []byte
	err   error
	calls int
}

func (f *fakeConverter) ToWAV(_ context.Context, _ []byte) ([]byte, error) {
	f.calls++
	return f.out, f.err
}

type fakeReader struct {
	readings map[string]string
	err      error
}

func (f fakeReader) Reading(text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	r, ok := f.readings[text]
	if !ok {
		return "", errors.New("unknown text")
	}
	return r, nil
}

func pcm16kWAV() []byte {
	return EncodeWAV(make([]byte, 3200), 16000, 1)
}
