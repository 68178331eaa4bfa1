package transcription

import (
	"fmt"
	"html"
	"strings"
	"sync"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// ReadingConverter maps Japanese text to its hiragana reading.
type ReadingConverter interface {
	Reading(text string) (string, error)
}

// KagomeReader reads text with the kagome morphological analyzer and the
// IPA dictionary. The tokenizer is built once, on Warm or first use; one
// reader is shared by the whole process.
type KagomeReader struct {
	once sync.Once
	tok  *tokenizer.Tokenizer
	err  error
}

func NewKagomeReader() *KagomeReader {
	return &KagomeReader{}
}

// Warm loads the dictionary eagerly so the first request does not pay for it.
func (r *KagomeReader) Warm() error {
	r.once.Do(func() {
		r.tok, r.err = tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	})
	return r.err
}

func (r *KagomeReader) tokens(text string) (toks []tokenizer.Token, err error) {
	if err := r.Warm(); err != nil {
		return nil, fmt.Errorf("kagome: init: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("kagome: tokenize: %v", p)
		}
	}()
	return r.tok.Tokenize(text), nil
}

func (r *KagomeReader) Reading(text string) (string, error) {
	toks, err := r.tokens(text)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(ToHiragana(tokenReading(t)))
	}
	return b.String(), nil
}

// Furigana renders text as HTML with <ruby> annotations over every token
// that contains kanji.
func (r *KagomeReader) Furigana(text string) (string, error) {
	toks, err := r.tokens(text)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, t := range toks {
		surface := html.EscapeString(t.Surface)
		reading, ok := t.Reading()
		if !ok || reading == "*" || !hasHan(t.Surface) {
			b.WriteString(surface)
			continue
		}
		fmt.Fprintf(&b, "<ruby>%s<rt>%s</rt></ruby>", surface, html.EscapeString(ToHiragana(reading)))
	}
	return b.String(), nil
}

func tokenReading(t tokenizer.Token) string {
	if reading, ok := t.Reading(); ok && reading != "" && reading != "*" {
		return reading
	}
	return t.Surface
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// ToHiragana shifts katakana letters (ァ..ヶ) onto their hiragana
// counterparts. The prolonged sound mark and everything else pass through.
func ToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ァ' && r <= 'ヶ' {
			return r - 0x60
		}
		return r
	}, s)
}
