package pronunciation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrade(t *testing.T) {
	cases := []struct {
		name                                  string
		reading, transcript, wantRead, wantTx string
		ok                                    bool
	}{
		{"reading match", "みずをください", "", "みずをください", "水をください。", true},
		{"romaji transcript never matches", "", "mizu wo kudasai", "みずをください", "水をください。", false},
		{"reading wins over transcript", "みずをください", "something else", "みずをください", "水をください。", true},
		{"reading mismatch ignores matching transcript", "おちゃをください", "水をください", "みずをください", "水をください。", false},
		{"transcript matches literal text", "", "水をください。", "みずをください", "水をください。", true},
		{"transcript matches kana reading", "", "みずを ください", "みずをください", "水をください。", true},
		{"empty attempt", "", "", "みずをください", "水をください。", false},
		{"punctuation only attempt", "", "。、 ", "", "", false},
		{"reading normalized both sides", " こーひーがすきです。", "", "こーひーが すきです", "コーヒーが好きです。", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, Grade(tc.reading, tc.transcript, tc.wantRead, tc.wantTx))
		})
	}
}
