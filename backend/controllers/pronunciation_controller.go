package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"kotoba/backend/config"
	"kotoba/backend/middleware"
	"kotoba/backend/models"
	"kotoba/backend/pronunciation"
	"kotoba/backend/transcription"
	"kotoba/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxStarRetries bounds the compare-and-swap loop on a progress row.
const maxStarRetries = 5

var errStarConflict = errors.New("progress row kept changing")

// Transcriber is the part of transcription.Pipeline the handlers need.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeHint string) (*transcription.Result, error)
}

type PronunciationController struct {
	DB          *gorm.DB
	Cfg         *config.Config
	Transcriber Transcriber
}

func NewPronunciationController(db *gorm.DB, cfg *config.Config, t Transcriber) *PronunciationController {
	return &PronunciationController{DB: db, Cfg: cfg, Transcriber: t}
}

type ChallengeSummary struct {
	ID            uint   `json:"id"`
	OrderIndex    int    `json:"orderIndex"`
	Title         string `json:"title"`
	Stars         int    `json:"stars"`
	IsLocked      bool   `json:"isLocked"`
	SentenceCount int    `json:"sentenceCount"`
}

type SentenceDTO struct {
	ID           uint    `json:"id"`
	JPText       string  `json:"jpText"`
	JPReading    string  `json:"jpReading"`
	FuriganaHTML *string `json:"furiganaHtml"`
	ENText       string  `json:"enText"`
}

type CompleteRequest struct {
	OrderIndex int `json:"orderIndex" example:"1"`
	Correct    int `json:"correct" example:"8"`
	Total      int `json:"total" example:"10"`
}

type CompleteResponse struct {
	OrderIndex int     `json:"orderIndex"`
	Accuracy   float64 `json:"accuracy"`
	Earned     int     `json:"earned"`
	OldStars   int     `json:"oldStars"`
	NewStars   int     `json:"newStars"`
}

type TranscribeResponse struct {
	*transcription.Result
	SentenceID *uint `json:"sentenceId,omitempty"`
	Correct    *bool `json:"correct,omitempty"`
}

// GetChallenges godoc
// @Summary List pronunciation challenges
// @Description Every challenge in order with the user's stars and lock state
// @Tags pronunciation
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /pronunciation/challenges [get]
func (pc *PronunciationController) GetChallenges(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var rows []struct {
		ID            uint
		OrderIndex    int
		Title         string
		SentenceCount int
	}
	if err := pc.DB.Model(&models.Challenge{}).
		Select("challenges.id, challenges.order_index, challenges.title, COUNT(sentences.id) AS sentence_count").
		Joins("LEFT JOIN sentences ON sentences.challenge_id = challenges.id AND sentences.deleted_at IS NULL").
		Group("challenges.id, challenges.order_index, challenges.title").
		Order("challenges.order_index ASC").
		Scan(&rows).Error; err != nil {
		return utils.InternalError("Could not query challenges", err)
	}

	stars, err := starsByOrder(pc.DB, userID)
	if err != nil {
		return utils.InternalError("Could not query progress", err)
	}

	challenges := make([]ChallengeSummary, 0, len(rows))
	for _, r := range rows {
		challenges = append(challenges, ChallengeSummary{
			ID:            r.ID,
			OrderIndex:    r.OrderIndex,
			Title:         r.Title,
			Stars:         stars[r.OrderIndex],
			IsLocked:      pronunciation.IsLocked(r.OrderIndex, stars),
			SentenceCount: r.SentenceCount,
		})
	}

	return c.JSON(fiber.Map{"challenges": challenges})
}

// GetSession godoc
// @Summary Load a challenge session
// @Tags pronunciation
// @Produce json
// @Param orderIndex query int true "Challenge order index"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /pronunciation/session [get]
func (pc *PronunciationController) GetSession(c *fiber.Ctx) error {
	orderIndex, err := strconv.Atoi(strings.TrimSpace(c.Query("orderIndex")))
	if err != nil || orderIndex <= 0 {
		return utils.ValidationError("Missing/invalid orderIndex")
	}

	var challenge models.Challenge
	err = pc.DB.
		Preload("Sentences", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("order_index = ?", orderIndex).
		First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFoundError("Challenge not found")
	}
	if err != nil {
		return utils.InternalError("Could not query challenge", err)
	}
	if len(challenge.Sentences) == 0 {
		return utils.NotFoundError("No sentences found for this challenge")
	}

	sentences := make([]SentenceDTO, len(challenge.Sentences))
	for i, s := range challenge.Sentences {
		sentences[i] = SentenceDTO{
			ID:           s.ID,
			JPText:       s.JPText,
			JPReading:    s.JPReading,
			FuriganaHTML: s.FuriganaHTML,
			ENText:       s.ENText,
		}
	}

	return c.JSON(fiber.Map{
		"challenge": fiber.Map{
			"id":         challenge.ID,
			"orderIndex": challenge.OrderIndex,
			"title":      challenge.Title,
		},
		"sentences": sentences,
	})
}

// Transcribe godoc
// @Summary Transcribe a spoken attempt
// @Description Converts the recording, runs the provider chain and, when sentenceId is given, grades the attempt
// @Tags pronunciation
// @Accept multipart/form-data
// @Produce json
// @Param audio formData file true "Recorded attempt"
// @Param sentenceId formData int false "Sentence to grade against"
// @Success 200 {object} TranscribeResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /pronunciation/transcribe [post]
func (pc *PronunciationController) Transcribe(c *fiber.Ctx) error {
	fh, err := c.FormFile("audio")
	if err != nil {
		return utils.ValidationError("Missing audio")
	}
	if fh.Size == 0 {
		return utils.ValidationError("Audio is empty")
	}
	if pc.Cfg.MaxAudioBytes > 0 && fh.Size > int64(pc.Cfg.MaxAudioBytes) {
		return utils.ValidationError(fmt.Sprintf("Audio exceeds %d bytes", pc.Cfg.MaxAudioBytes))
	}

	var sentence *models.Sentence
	if raw := strings.TrimSpace(c.FormValue("sentenceId")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return utils.ValidationError("Invalid sentenceId")
		}
		var s models.Sentence
		if err := pc.DB.First(&s, uint(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFoundError("Sentence not found")
			}
			return utils.InternalError("Could not query sentence", err)
		}
		sentence = &s
	}

	f, err := fh.Open()
	if err != nil {
		return utils.InternalError("Could not read upload", err)
	}
	defer f.Close()
	audio, err := io.ReadAll(f)
	if err != nil {
		return utils.InternalError("Could not read upload", err)
	}

	result, err := pc.Transcriber.Transcribe(c.UserContext(), audio, fh.Header.Get(fiber.HeaderContentType))
	if err != nil {
		return transcriptionFailure(err)
	}

	resp := TranscribeResponse{Result: result}
	if sentence != nil {
		ok := pronunciation.Grade(result.Reading, result.Transcript, sentence.JPReading, sentence.JPText)
		resp.SentenceID = &sentence.ID
		resp.Correct = &ok
	}
	return c.JSON(resp)
}

func transcriptionFailure(err error) error {
	if errors.Is(err, transcription.ErrInvalidAudio) {
		return utils.ValidationError(err.Error())
	}

	var convErr *transcription.ConversionError
	if errors.As(err, &convErr) {
		return utils.TranscriptionError("Audio conversion failed").
			WithStage("convert").
			WithDetails(convErr.Err.Error()).
			Wrap(err)
	}

	var exhausted *transcription.ExhaustedError
	if errors.As(err, &exhausted) {
		return utils.TranscriptionError("All transcription providers failed").
			WithStage("transcribe").
			WithDetails(exhausted.Messages()).
			Wrap(err)
	}

	return utils.TranscriptionError("Transcription failed").Wrap(err)
}

// Complete godoc
// @Summary Record a completed session
// @Description Scores the run and raises the user's stars, never lowering them
// @Tags pronunciation
// @Accept json
// @Produce json
// @Param request body CompleteRequest true "Session tally"
// @Success 200 {object} CompleteResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /pronunciation/complete [post]
func (pc *PronunciationController) Complete(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var input CompleteRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.ValidationError("Invalid payload")
	}
	if input.OrderIndex <= 0 || input.Total <= 0 || input.Correct < 0 || input.Correct > input.Total {
		return utils.ValidationError("Invalid payload")
	}

	var challenge models.Challenge
	if err := pc.DB.Select("id").Where("order_index = ?", input.OrderIndex).First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundError("Challenge not found")
		}
		return utils.InternalError("Could not query challenge", err)
	}

	score, err := raiseStars(pc.DB.WithContext(c.UserContext()), userID, challenge.ID, input.Correct, input.Total)
	if err != nil {
		if errors.Is(err, pronunciation.ErrInvalidInput) {
			return utils.ValidationError("Invalid payload")
		}
		return utils.InternalError("Could not save progress", err)
	}

	return c.JSON(CompleteResponse{
		OrderIndex: input.OrderIndex,
		Accuracy:   score.Accuracy,
		Earned:     score.Earned,
		OldStars:   score.OldStars,
		NewStars:   score.NewStars,
	})
}

// raiseStars applies one completion to the (user, challenge) progress row.
// The row is created if missing, then updated only if its stars still hold
// the value the score was computed from; a concurrent writer forces a
// re-read.
func raiseStars(db *gorm.DB, userID, challengeID uint, correct, total int) (pronunciation.Score, error) {
	var score pronunciation.Score
	err := db.Transaction(func(tx *gorm.DB) error {
		row := models.ChallengeProgress{UserID: userID, ChallengeID: challengeID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "challenge_id"}},
			DoNothing: true,
		}).Create(&row).Error; err != nil {
			return err
		}

		for i := 0; i < maxStarRetries; i++ {
			var current models.ChallengeProgress
			if err := tx.Where("user_id = ? AND challenge_id = ?", userID, challengeID).First(&current).Error; err != nil {
				return err
			}

			s, err := pronunciation.ScoreCompletion(correct, total, current.Stars)
			if err != nil {
				return err
			}
			if s.NewStars == current.Stars {
				score = s
				return nil
			}

			res := tx.Model(&models.ChallengeProgress{}).
				Where("id = ? AND stars = ?", current.ID, current.Stars).
				Update("stars", s.NewStars)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				score = s
				return nil
			}
		}
		return errStarConflict
	})
	return score, err
}
