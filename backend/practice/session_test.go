package practice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	sentences []Sentence
	err       error
}

func (f fakeLoader) LoadSession(_ context.Context, orderIndex int) (Challenge, []Sentence, error) {
	return Challenge{ID: 1, OrderIndex: orderIndex, Title: "Basics 1"}, f.sentences, f.err
}

// scriptedTranscriber replays attempts in order. If gate is set, each call
// blocks until the gate is closed.
type scriptedTranscriber struct {
	mu       sync.Mutex
	attempts []Attempt
	err      error
	gate     chan struct{}
	entered  chan struct{}
}

func (f *scriptedTranscriber) Transcribe(ctx context.Context, _ []byte, _ string) (Attempt, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return Attempt{}, f.err
	}
	a := f.attempts[0]
	if len(f.attempts) > 1 {
		f.attempts = f.attempts[1:]
	}
	return a, nil
}

type countingCompleter struct {
	mu    sync.Mutex
	calls []Completion
	err   error
}

func (f *countingCompleter) Complete(_ context.Context, c Completion) (Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.err != nil {
		return Outcome{}, f.err
	}
	return Outcome{OrderIndex: c.OrderIndex, Accuracy: float64(c.Correct) / float64(c.Total), NewStars: 1}, nil
}

func threeSentences() []Sentence {
	return []Sentence{
		{ID: 1, JPText: "水をください。", JPReading: "みずをください"},
		{ID: 2, JPText: "駅はどこですか。", JPReading: "えきはどこですか"},
		{ID: 3, JPText: "ありがとう。", JPReading: "ありがとう"},
	}
}

func startedSession(t *testing.T, tr Transcriber, c Completer) *Session {
	t.Helper()
	s := NewSession(1, fakeLoader{sentences: threeSentences()}, tr, c)
	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, StateInProgress, s.State())
	return s
}

func TestStartWithNoSentencesFails(t *testing.T) {
	s := NewSession(4, fakeLoader{}, &scriptedTranscriber{}, &countingCompleter{})
	err := s.Start(context.Background())
	assert.ErrorIs(t, err, ErrNoSentences)
	assert.Equal(t, StateFailed, s.State())

	_, err = s.Record(context.Background(), []byte("x"), "audio/wav")
	assert.ErrorIs(t, err, ErrNotInProgress)
	_, err = s.Finish(context.Background())
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestStartLoaderError(t *testing.T) {
	s := NewSession(4, fakeLoader{err: errors.New("404")}, &scriptedTranscriber{}, &countingCompleter{})
	assert.Error(t, s.Start(context.Background()))
	assert.Equal(t, StateFailed, s.State())
	assert.Error(t, s.Start(context.Background()), "no retry after a failed load")
}

func TestRecordGradesWithoutAdvancing(t *testing.T) {
	tr := &scriptedTranscriber{attempts: []Attempt{
		{Transcript: "水お下さい", Reading: "みずおください", Provider: "primary"},
		{Transcript: "水をください", Reading: "みずをください", Provider: "secondary"},
	}}
	s := startedSession(t, tr, &countingCompleter{})

	fb, err := s.Record(context.Background(), []byte("a"), "audio/wav")
	require.NoError(t, err)
	assert.False(t, fb.Correct)

	fb, err = s.Record(context.Background(), []byte("a"), "audio/wav")
	require.NoError(t, err)
	assert.True(t, fb.Correct)
	assert.Equal(t, "secondary", fb.Provider)

	_, idx, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestRepeatedPassCountsOnce(t *testing.T) {
	tr := &scriptedTranscriber{attempts: []Attempt{{Reading: "みずをください"}}}
	s := startedSession(t, tr, &countingCompleter{})

	for i := 0; i < 3; i++ {
		fb, err := s.Record(context.Background(), nil, "")
		require.NoError(t, err)
		assert.True(t, fb.Correct)
	}
	correct, total := s.Progress()
	assert.Equal(t, 1, correct)
	assert.Equal(t, 3, total)
}

func TestTranscriptionErrorKeepsSessionUsable(t *testing.T) {
	tr := &scriptedTranscriber{err: errors.New("both providers failed")}
	s := startedSession(t, tr, &countingCompleter{})

	_, err := s.Record(context.Background(), nil, "")
	assert.Error(t, err)
	assert.Equal(t, StateInProgress, s.State())

	tr.err = nil
	tr.attempts = []Attempt{{Reading: "みずをください"}}
	fb, err := s.Record(context.Background(), nil, "")
	require.NoError(t, err)
	assert.True(t, fb.Correct)
}

func TestRecordWhileBusy(t *testing.T) {
	tr := &scriptedTranscriber{
		attempts: []Attempt{{Reading: "みずをください"}},
		gate:     make(chan struct{}),
		entered:  make(chan struct{}, 1),
	}
	s := startedSession(t, tr, &countingCompleter{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Record(context.Background(), nil, "")
		done <- err
	}()
	<-tr.entered

	_, err := s.Record(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, s.Next(context.Background()), ErrBusy)

	close(tr.gate)
	require.NoError(t, <-done)

	tr.entered = nil
	_, err = s.Record(context.Background(), nil, "")
	assert.NoError(t, err, "busy flag is released after the first call")
}

func TestCompletionReportedExactlyOnce(t *testing.T) {
	tr := &scriptedTranscriber{attempts: []Attempt{{Reading: "みずをください"}}}
	c := &countingCompleter{}
	s := startedSession(t, tr, c)
	ctx := context.Background()

	_, err := s.Record(ctx, nil, "")
	require.NoError(t, err)
	require.NoError(t, s.Next(ctx))
	require.NoError(t, s.Skip(ctx))
	assert.Equal(t, StateInProgress, s.State())
	require.NoError(t, s.Next(ctx))
	assert.Equal(t, StateComplete, s.State())

	assert.ErrorIs(t, s.Next(ctx), ErrNotInProgress)
	out, err := s.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, out.OrderIndex)

	require.Len(t, c.calls, 1)
	assert.Equal(t, Completion{OrderIndex: 1, Correct: 1, Total: 3}, c.calls[0])
}

func TestFinishEarly(t *testing.T) {
	c := &countingCompleter{}
	s := startedSession(t, &scriptedTranscriber{}, c)

	_, err := s.Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateComplete, s.State())
	_, _, ok := s.Current()
	assert.False(t, ok)

	_, err = s.Finish(context.Background())
	require.NoError(t, err)
	require.Len(t, c.calls, 1)
	assert.Equal(t, Completion{OrderIndex: 1, Correct: 0, Total: 3}, c.calls[0])
}

func TestCompleterErrorIsNotRetried(t *testing.T) {
	c := &countingCompleter{err: errors.New("save failed")}
	s := startedSession(t, &scriptedTranscriber{}, c)
	ctx := context.Background()

	require.NoError(t, s.Skip(ctx))
	require.NoError(t, s.Skip(ctx))
	assert.Error(t, s.Skip(ctx))

	_, err := s.Finish(ctx)
	assert.EqualError(t, err, "save failed")
	assert.Len(t, c.calls, 1)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "in_progress", StateInProgress.String())
	assert.Equal(t, "State(9)", State(9).String())
}
