// Package practice drives one pronunciation session: it loads a challenge,
// grades recorded attempts sentence by sentence and reports the tally once
// the last sentence has been passed.
package practice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"kotoba/backend/pronunciation"
)

type State int

const (
	StateLoading State = iota
	StateInProgress
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrBusy          = errors.New("practice: a transcription is already in flight")
	ErrNoSentences   = errors.New("practice: challenge has no sentences")
	ErrNotInProgress = errors.New("practice: session is not in progress")
	ErrNotStarted    = errors.New("practice: session was never started")
)

type Challenge struct {
	ID         uint   `json:"id"`
	OrderIndex int    `json:"orderIndex"`
	Title      string `json:"title"`
}

type Sentence struct {
	ID           uint    `json:"id"`
	JPText       string  `json:"jpText"`
	JPReading    string  `json:"jpReading"`
	FuriganaHTML *string `json:"furiganaHtml"`
	ENText       string  `json:"enText"`
}

// Attempt is what the transcriber heard.
type Attempt struct {
	Transcript string   `json:"transcript"`
	Reading    string   `json:"reading"`
	Provider   string   `json:"provider"`
	Engine     string   `json:"engine"`
	Fallbacks  []string `json:"fallbacks,omitempty"`
}

// Completion is the tally handed to the Completer.
type Completion struct {
	OrderIndex int `json:"orderIndex"`
	Correct    int `json:"correct"`
	Total      int `json:"total"`
}

// Outcome mirrors the server's answer to a completion.
type Outcome struct {
	OrderIndex int     `json:"orderIndex"`
	Accuracy   float64 `json:"accuracy"`
	Earned     int     `json:"earned"`
	OldStars   int     `json:"oldStars"`
	NewStars   int     `json:"newStars"`
}

type Loader interface {
	LoadSession(ctx context.Context, orderIndex int) (Challenge, []Sentence, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeHint string) (Attempt, error)
}

type Completer interface {
	Complete(ctx context.Context, c Completion) (Outcome, error)
}

// Feedback is the graded result of one recording.
type Feedback struct {
	Attempt
	SentenceIndex int  `json:"sentenceIndex"`
	Correct       bool `json:"correct"`
}

// Session is safe for concurrent use, but a second Record while one is
// transcribing is refused with ErrBusy rather than queued.
type Session struct {
	orderIndex  int
	loader      Loader
	transcriber Transcriber
	completer   Completer

	mu        sync.Mutex
	state     State
	challenge Challenge
	sentences []Sentence
	index     int
	correct   map[int]struct{}
	busy      bool

	completeOnce sync.Once
	outcome      Outcome
	completeErr  error
}

func NewSession(orderIndex int, loader Loader, transcriber Transcriber, completer Completer) *Session {
	return &Session{
		orderIndex:  orderIndex,
		loader:      loader,
		transcriber: transcriber,
		completer:   completer,
		state:       StateLoading,
		correct:     make(map[int]struct{}),
	}
}

// Start loads the challenge. Any load error, including an empty sentence
// set, leaves the session Failed for good.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return fmt.Errorf("practice: start in state %s", s.state)
	}
	s.mu.Unlock()

	challenge, sentences, err := s.loader.LoadSession(ctx, s.orderIndex)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil && len(sentences) == 0 {
		err = ErrNoSentences
	}
	if err != nil {
		s.state = StateFailed
		return err
	}
	s.challenge = challenge
	s.sentences = sentences
	s.index = 0
	s.state = StateInProgress
	return nil
}

// Record transcribes one attempt at the current sentence and grades it.
// Passing marks the sentence correct; the session never advances here.
func (s *Session) Record(ctx context.Context, audio []byte, mimeHint string) (Feedback, error) {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return Feedback{}, ErrNotInProgress
	}
	if s.busy {
		s.mu.Unlock()
		return Feedback{}, ErrBusy
	}
	s.busy = true
	idx := s.index
	sentence := s.sentences[idx]
	s.mu.Unlock()

	attempt, err := s.transcriber.Transcribe(ctx, audio, mimeHint)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		return Feedback{SentenceIndex: idx}, err
	}

	ok := pronunciation.Grade(attempt.Reading, attempt.Transcript, sentence.JPReading, sentence.JPText)
	if ok {
		s.correct[idx] = struct{}{}
	}
	return Feedback{Attempt: attempt, SentenceIndex: idx, Correct: ok}, nil
}

// Next moves to the following sentence. Moving past the last one completes
// the session and reports the tally.
func (s *Session) Next(ctx context.Context) error {
	return s.advance(ctx)
}

// Skip leaves the current sentence without a passing attempt.
func (s *Session) Skip(ctx context.Context) error {
	return s.advance(ctx)
}

func (s *Session) advance(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return ErrNotInProgress
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.index++
	if s.index < len(s.sentences) {
		s.mu.Unlock()
		return nil
	}
	s.index = len(s.sentences)
	s.state = StateComplete
	c := s.completionLocked()
	s.mu.Unlock()

	_, err := s.complete(ctx, c)
	return err
}

// Finish completes the session, early if sentences remain. Unvisited
// sentences count against accuracy. The tally is reported exactly once;
// later calls return the first result.
func (s *Session) Finish(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	switch s.state {
	case StateLoading, StateFailed:
		s.mu.Unlock()
		return Outcome{}, ErrNotStarted
	case StateInProgress:
		if s.busy {
			s.mu.Unlock()
			return Outcome{}, ErrBusy
		}
		s.state = StateComplete
	}
	c := s.completionLocked()
	s.mu.Unlock()

	return s.complete(ctx, c)
}

func (s *Session) complete(ctx context.Context, c Completion) (Outcome, error) {
	s.completeOnce.Do(func() {
		s.outcome, s.completeErr = s.completer.Complete(ctx, c)
	})
	return s.outcome, s.completeErr
}

func (s *Session) completionLocked() Completion {
	return Completion{
		OrderIndex: s.orderIndex,
		Correct:    len(s.correct),
		Total:      len(s.sentences),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Challenge() Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challenge
}

// Current returns the sentence being practiced, if any.
func (s *Session) Current() (Sentence, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return Sentence{}, s.index, false
	}
	return s.sentences[s.index], s.index, true
}

// Progress reports the number of correct sentences out of the total.
func (s *Session) Progress() (correct, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.correct), len(s.sentences)
}
