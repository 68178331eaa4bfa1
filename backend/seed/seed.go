// Package seed loads the starter pronunciation challenges.
package seed

import (
	"context"
	"fmt"

	"kotoba/backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultChallenges = 10

type BaseSentence struct {
	JPText    string
	JPReading string
	ENText    string
}

// BaseSentences are practiced in every starter challenge.
var BaseSentences = []BaseSentence{
	{"私はりんごです。", "わたしはりんごです", "I am an apple."},
	{"今日はいい天気です。", "きょうはいいてんきです", "The weather is nice today."},
	{"水をください。", "みずをください", "Water, please."},
	{"駅はどこですか。", "えきはどこですか", "Where is the station?"},
	{"もう一度言ってください。", "もういちどいってください", "Please say it again."},
	{"明日会いましょう。", "あしたあいましょう", "Let's meet tomorrow."},
	{"すみません、遅れました。", "すみませんおくれました", "Sorry, I'm late."},
	{"コーヒーが好きです。", "こーひーがすきです", "I like coffee."},
	{"日本語を勉強しています。", "にほんごをべんきょうしています", "I am studying Japanese."},
	{"これは何ですか。", "これはなんですか", "What is this?"},
}

// Furiganizer renders ruby markup for a sentence.
type Furiganizer interface {
	Furigana(text string) (string, error)
}

type Stats struct {
	Challenges int
	Sentences  int
}

// Run upserts challenges 1..n titled "Basics N" and gives every challenge
// without sentences the base set. Running it again adds nothing. A nil
// furiganizer leaves furigana empty.
func Run(ctx context.Context, db *gorm.DB, n int, furi Furiganizer, log *zap.SugaredLogger) (Stats, error) {
	var stats Stats
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := 1; i <= n; i++ {
			ch := models.Challenge{OrderIndex: i, Title: fmt.Sprintf("Basics %d", i)}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "order_index"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "updated_at"}),
			}).Create(&ch).Error; err != nil {
				return fmt.Errorf("upsert challenge %d: %w", i, err)
			}
			// the upsert does not report the id of a row it only updated
			ch = models.Challenge{}
			if err := tx.Where("order_index = ?", i).First(&ch).Error; err != nil {
				return fmt.Errorf("reload challenge %d: %w", i, err)
			}
			stats.Challenges++

			var count int64
			if err := tx.Model(&models.Sentence{}).Where("challenge_id = ?", ch.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			sentences := make([]models.Sentence, 0, len(BaseSentences))
			for _, b := range BaseSentences {
				s := models.Sentence{ChallengeID: ch.ID, JPText: b.JPText, JPReading: b.JPReading, ENText: b.ENText}
				if furi != nil {
					html, err := furi.Furigana(b.JPText)
					if err != nil {
						log.Warnw("furigana failed", "text", b.JPText, "error", err)
					} else {
						s.FuriganaHTML = &html
					}
				}
				sentences = append(sentences, s)
			}
			// one at a time so created_at keeps the listed order
			for i := range sentences {
				if err := tx.Create(&sentences[i]).Error; err != nil {
					return fmt.Errorf("insert sentence: %w", err)
				}
			}
			stats.Sentences += len(sentences)
		}
		return nil
	})
	return stats, err
}
