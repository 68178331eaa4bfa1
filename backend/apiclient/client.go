// Package apiclient talks to the kotoba HTTP API. Client satisfies the
// practice package's Loader, Transcriber and Completer.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"kotoba/backend/practice"

	"github.com/gofiber/fiber/v2"
)

// APIError is a non-2xx answer, decoded from the server's error body when
// possible.
type APIError struct {
	Status  int
	Message string
	Stage   string
	Details interface{}
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api: %d %s", e.Status, e.Message)
	if e.Stage != "" {
		msg += " (stage " + e.Stage + ")"
	}
	return msg
}

type Client struct {
	baseURL string
	token   string
	timeout time.Duration
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: 90 * time.Second}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	var resp struct {
		Token string `json:"token"`
	}
	agent := fiber.Post(c.baseURL + "/api/auth/login")
	agent.ContentType(fiber.MIMEApplicationJSON)
	agent.Body(body)
	if err := c.do(ctx, agent, &resp); err != nil {
		return err
	}
	if resp.Token == "" {
		return errors.New("api: login returned no token")
	}
	c.token = resp.Token
	return nil
}

type ChallengeSummary struct {
	ID            uint   `json:"id"`
	OrderIndex    int    `json:"orderIndex"`
	Title         string `json:"title"`
	Stars         int    `json:"stars"`
	IsLocked      bool   `json:"isLocked"`
	SentenceCount int    `json:"sentenceCount"`
}

func (c *Client) Challenges(ctx context.Context) ([]ChallengeSummary, error) {
	var resp struct {
		Challenges []ChallengeSummary `json:"challenges"`
	}
	if err := c.do(ctx, c.authed(fiber.Get(c.baseURL+"/api/pronunciation/challenges")), &resp); err != nil {
		return nil, err
	}
	return resp.Challenges, nil
}

func (c *Client) LoadSession(ctx context.Context, orderIndex int) (practice.Challenge, []practice.Sentence, error) {
	var resp struct {
		Challenge practice.Challenge  `json:"challenge"`
		Sentences []practice.Sentence `json:"sentences"`
	}
	url := c.baseURL + "/api/pronunciation/session?orderIndex=" + strconv.Itoa(orderIndex)
	if err := c.do(ctx, c.authed(fiber.Get(url)), &resp); err != nil {
		return practice.Challenge{}, nil, err
	}
	return resp.Challenge, resp.Sentences, nil
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeHint string) (practice.Attempt, error) {
	agent := c.authed(fiber.Post(c.baseURL + "/api/pronunciation/transcribe"))
	agent.FileData(&fiber.FormFile{Fieldname: "audio", Name: "attempt" + extensionFor(mimeHint), Content: audio})
	agent.MultipartForm(nil)

	var attempt practice.Attempt
	if err := c.do(ctx, agent, &attempt); err != nil {
		return practice.Attempt{}, err
	}
	return attempt, nil
}

func (c *Client) Complete(ctx context.Context, comp practice.Completion) (practice.Outcome, error) {
	body, err := json.Marshal(comp)
	if err != nil {
		return practice.Outcome{}, err
	}
	agent := c.authed(fiber.Post(c.baseURL + "/api/pronunciation/complete"))
	agent.ContentType(fiber.MIMEApplicationJSON)
	agent.Body(body)

	var out practice.Outcome
	if err := c.do(ctx, agent, &out); err != nil {
		return practice.Outcome{}, err
	}
	return out, nil
}

func (c *Client) authed(agent *fiber.Agent) *fiber.Agent {
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	return agent
}

func (c *Client) do(ctx context.Context, agent *fiber.Agent, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return err
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		apiErr := &APIError{Status: code}
		var e struct {
			Error   string      `json:"error"`
			Stage   string      `json:"stage"`
			Details interface{} `json:"details"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			apiErr.Message, apiErr.Stage, apiErr.Details = e.Error, e.Stage, e.Details
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("api: decode: %w", err)
	}
	return nil
}

func extensionFor(mimeHint string) string {
	m := strings.ToLower(mimeHint)
	switch {
	case strings.Contains(m, "webm"):
		return ".webm"
	case strings.Contains(m, "mp4"), strings.Contains(m, "m4a"):
		return ".mp4"
	case strings.Contains(m, "ogg"):
		return ".ogg"
	case strings.Contains(m, "wav"):
		return ".wav"
	}
	return ".bin"
}

// MIMEFromPath guesses a recording's type from its file extension.
func MIMEFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".webm":
		return "audio/webm"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".mp4", ".m4a":
		return "audio/mp4"
	case ".mp3":
		return "audio/mpeg"
	}
	return ""
}
