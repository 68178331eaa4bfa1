package pronunciation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"  みずをください。  ": "みずをください",
		"水をください。":      "水をください",
		"すみません、おくれました！":     "すみませんおくれました",
		"えきは　どこですか？":        "えきはどこですか",
		"Mizu wo Kudasai.":  "mizuwokudasai",
		"Hello, World! Ok?": "helloworldok",
		"コーヒー が 好き です":      "コーヒーが好きです",
		"１，２．３":             "１２３",
		"tab\tand\nnewline": "tabandnewline",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"今日はいい天気です。",
		"  Mizu WO kudasai ! ",
		"もう一度、言ってください？",
		"ＡＢＣ　ｄｅｆ",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
