package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// AzureProvider calls the Azure Speech short-audio REST endpoint.
type AzureProvider struct {
	key      string
	endpoint string
	language string
	timeout  time.Duration
}

type AzureOption func(*AzureProvider)

// WithAzureEndpoint overrides the regional endpoint, mostly for tests.
func WithAzureEndpoint(endpoint string) AzureOption {
	return func(a *AzureProvider) { a.endpoint = endpoint }
}

func WithAzureLanguage(lang string) AzureOption {
	return func(a *AzureProvider) { a.language = lang }
}

func WithAzureTimeout(d time.Duration) AzureOption {
	return func(a *AzureProvider) { a.timeout = d }
}

func NewAzureProvider(key, region string, opts ...AzureOption) (*AzureProvider, error) {
	if key == "" || region == "" {
		return nil, errors.New("azure: missing AZURE_SPEECH_KEY or AZURE_SPEECH_REGION")
	}
	a := &AzureProvider{
		key:      key,
		endpoint: fmt.Sprintf("https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1", region),
		language: "ja-JP",
		timeout:  15 * time.Second,
	}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

func (a *AzureProvider) Name() string { return "azure" }

func (a *AzureProvider) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	agent := fiber.Post(a.endpoint + "?language=" + url.QueryEscape(a.language))
	agent.Set("Ocp-Apim-Subscription-Key", a.key)
	agent.Set(fiber.HeaderContentType, "audio/wav; codecs=audio/pcm; samplerate=16000")
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Body(wav)
	agent.Timeout(a.timeout)
	if err := agent.Parse(); err != nil {
		return "", fmt.Errorf("azure: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("azure: %w", errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return "", &HTTPStatusError{Provider: a.Name(), Status: code, Body: truncate(body, 500)}
	}

	var resp struct {
		RecognitionStatus string `json:"RecognitionStatus"`
		DisplayText       string `json:"DisplayText"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("azure: unexpected JSON: %s", truncate(body, 500))
	}
	text := strings.TrimSpace(resp.DisplayText)
	if text == "" {
		return "", fmt.Errorf("azure: no transcript (status %q)", resp.RecognitionStatus)
	}
	return text, nil
}
