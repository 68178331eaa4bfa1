package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerRendersAppErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/validation", func(c *fiber.Ctx) error {
		return ValidationError("Invalid payload")
	})
	app.Get("/upstream", func(c *fiber.Ctx) error {
		return UpstreamError("WaniKani error", 429, "slow down")
	})
	app.Get("/wrapped", func(c *fiber.Ctx) error {
		return fmt.Errorf("handler: %w", TranscriptionError("Transcription failed").WithStage("transcribe"))
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return errors.New("db exploded")
	})

	cases := []struct {
		path   string
		status int
		error  string
	}{
		{"/validation", fiber.StatusBadRequest, "Invalid payload"},
		{"/upstream", fiber.StatusBadGateway, "WaniKani error"},
		{"/wrapped", fiber.StatusInternalServerError, "Transcription failed"},
		{"/plain", fiber.StatusInternalServerError, "Internal server error"},
		{"/missing", fiber.StatusNotFound, "Cannot GET /missing"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.error, body.Error)
		})
	}
}

func TestErrorHandlerDoesNotLeakWrappedCause(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error {
		return InternalError("Could not query database", errors.New("password=hunter2"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotContains(t, fmt.Sprint(body), "hunter2")
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := InternalError("failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed: boom", err.Error())
}
