package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// WhisperProvider posts WAV audio to a self-hosted whisper.cpp server's
// /inference endpoint.
type WhisperProvider struct {
	serverURL string
	language  string
	timeout   time.Duration
}

func NewWhisperProvider(serverURL, language string, timeout time.Duration) (*WhisperProvider, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	if language == "" {
		language = "ja"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WhisperProvider{serverURL: serverURL, language: language, timeout: timeout}, nil
}

func (w *WhisperProvider) Name() string { return "whisper" }

func (w *WhisperProvider) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("response_format", "json")
	args.Set("language", w.language)

	agent := fiber.Post(w.serverURL)
	agent.Timeout(w.timeout)
	agent.FileData(&fiber.FormFile{Fieldname: "file", Name: "audio.wav", Content: wav})
	agent.MultipartForm(args)
	if err := agent.Parse(); err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("whisper: %w", errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return "", &HTTPStatusError{Provider: w.Name(), Status: code, Body: truncate(body, 500)}
	}

	text, err := parseWhisperResponse(body)
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	return text, nil
}

// parseWhisperResponse accepts the shapes produced by whisper.cpp and the
// faster-whisper wrapper: text, transcription, transcript or result.text.
func parseWhisperResponse(body []byte) (string, error) {
	var resp map[string]interface{}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unexpected JSON: %s", truncate(body, 500))
	}

	candidates := []interface{}{resp["text"], resp["transcription"], resp["transcript"]}
	if result, ok := resp["result"].(map[string]interface{}); ok {
		candidates = append(candidates, result["text"])
	}
	for _, c := range candidates {
		if s, ok := c.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), nil
		}
	}
	return "", fmt.Errorf("no transcript in response: %s", truncate(body, 500))
}
