package seed

import (
	"context"
	"errors"
	"testing"

	"kotoba/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type upperFuri struct{ fail bool }

func (f upperFuri) Furigana(text string) (string, error) {
	if f.fail {
		return "", errors.New("no dictionary")
	}
	return "<ruby>" + text + "</ruby>", nil
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func TestRunIsIdempotent(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	stats, err := Run(ctx, db, 3, upperFuri{}, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, Stats{Challenges: 3, Sentences: 30}, stats)

	stats, err = Run(ctx, db, 3, upperFuri{}, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sentences)

	var challenges, sentences int64
	db.Model(&models.Challenge{}).Count(&challenges)
	db.Model(&models.Sentence{}).Count(&sentences)
	assert.EqualValues(t, 3, challenges)
	assert.EqualValues(t, 30, sentences)

	var ch models.Challenge
	require.NoError(t, db.Preload("Sentences", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).Where("order_index = ?", 2).First(&ch).Error)
	assert.Equal(t, "Basics 2", ch.Title)
	require.Len(t, ch.Sentences, len(BaseSentences))
	assert.Equal(t, BaseSentences[0].JPText, ch.Sentences[0].JPText)
	require.NotNil(t, ch.Sentences[0].FuriganaHTML)
	assert.Equal(t, "<ruby>私はりんごです。</ruby>", *ch.Sentences[0].FuriganaHTML)
}

func TestRunWithoutFurigana(t *testing.T) {
	db := openDB(t)

	_, err := Run(context.Background(), db, 1, upperFuri{fail: true}, zap.NewNop().Sugar())
	require.NoError(t, err)

	var s models.Sentence
	require.NoError(t, db.First(&s).Error)
	assert.Nil(t, s.FuriganaHTML)
}
