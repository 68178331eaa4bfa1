// Package wanikani is a small read-only client for the WaniKani v2 API.
package wanikani

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultBaseURL = "https://api.wanikani.com/v2"
	MinLevel       = 1
	MaxLevel       = 60

	// maxPages bounds how many collection pages one call follows.
	maxPages = 20
)

// StatusError is a non-2xx answer from WaniKani.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wanikani %s: status %d", e.Op, e.Status)
}

type User struct {
	Username   string `json:"username"`
	Level      int    `json:"level"`
	ProfileURL string `json:"profile_url"`
}

// KanjiItem is a kanji subject reduced to what a review needs.
type KanjiItem struct {
	SubjectID        int      `json:"subjectId"`
	Level            int      `json:"level"`
	Characters       string   `json:"characters"`
	AcceptedMeanings []string `json:"acceptedMeanings"`
}

type Client struct {
	baseURL string
	token   string
	timeout time.Duration
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, timeout: timeout}
}

// ParseLevels reads a comma-separated level list, dropping anything outside
// 1..60, and returns the distinct levels in ascending order.
func ParseLevels(csv string) []int {
	seen := make(map[int]bool)
	var levels []int
	for _, part := range strings.Split(csv, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < MinLevel || n > MaxLevel || seen[n] {
			continue
		}
		seen[n] = true
		levels = append(levels, n)
	}
	sort.Ints(levels)
	return levels
}

func (c *Client) User(ctx context.Context) (User, error) {
	var resp struct {
		Data User `json:"data"`
	}
	if err := c.get(ctx, "user", c.baseURL+"/user", &resp); err != nil {
		return User{}, err
	}
	return resp.Data, nil
}

// KanjiCount returns total_count of kanji subjects on the given levels.
func (c *Client) KanjiCount(ctx context.Context, levels []int) (int, error) {
	if len(levels) == 0 {
		return 0, nil
	}
	q := url.Values{}
	q.Set("types", "kanji")
	q.Set("levels", joinInts(levels))

	var resp struct {
		TotalCount int `json:"total_count"`
	}
	if err := c.get(ctx, "subjects", c.baseURL+"/subjects?"+q.Encode(), &resp); err != nil {
		return 0, err
	}
	return resp.TotalCount, nil
}

// UnlockedKanji lists the kanji the user has unlocked on the given levels:
// assignments first, then the subjects they point at. Subjects without
// characters or without an accepted meaning are left out.
func (c *Client) UnlockedKanji(ctx context.Context, levels []int) ([]KanjiItem, error) {
	if len(levels) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("subject_types", "kanji")
	q.Set("levels", joinInts(levels))
	q.Set("unlocked", "true")

	var ids []int
	err := c.collect(ctx, "assignments", c.baseURL+"/assignments?"+q.Encode(), func(raw json.RawMessage) error {
		var a struct {
			Data struct {
				SubjectID int `json:"subject_id"`
			} `json:"data"`
		}
		if err := json.Unmarshal(raw, &a); err != nil {
			return err
		}
		if a.Data.SubjectID > 0 {
			ids = append(ids, a.Data.SubjectID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []KanjiItem{}, nil
	}

	q = url.Values{}
	q.Set("types", "kanji")
	q.Set("ids", joinInts(ids))

	items := make([]KanjiItem, 0, len(ids))
	err = c.collect(ctx, "subjects", c.baseURL+"/subjects?"+q.Encode(), func(raw json.RawMessage) error {
		var s struct {
			ID   int `json:"id"`
			Data struct {
				Level      int    `json:"level"`
				Characters string `json:"characters"`
				Meanings   []struct {
					Meaning        string `json:"meaning"`
					AcceptedAnswer bool   `json:"accepted_answer"`
				} `json:"meanings"`
			} `json:"data"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		item := KanjiItem{SubjectID: s.ID, Level: s.Data.Level, Characters: s.Data.Characters}
		for _, m := range s.Data.Meanings {
			if m.AcceptedAnswer {
				item.AcceptedMeanings = append(item.AcceptedMeanings, m.Meaning)
			}
		}
		if item.Characters != "" && len(item.AcceptedMeanings) > 0 {
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// collect walks a paginated collection, handing every element of data to fn.
func (c *Client) collect(ctx context.Context, op, next string, fn func(json.RawMessage) error) error {
	for page := 0; next != "" && page < maxPages; page++ {
		var resp struct {
			Data  []json.RawMessage `json:"data"`
			Pages struct {
				NextURL *string `json:"next_url"`
			} `json:"pages"`
		}
		if err := c.get(ctx, op, next, &resp); err != nil {
			return err
		}
		for _, raw := range resp.Data {
			if err := fn(raw); err != nil {
				return fmt.Errorf("wanikani %s: decode: %w", op, err)
			}
		}
		next = ""
		if resp.Pages.NextURL != nil {
			next = *resp.Pages.NextURL
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, rawURL string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	agent := fiber.Get(rawURL)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Timeout(c.timeout)
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("wanikani %s: %w", op, err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("wanikani %s: %w", op, errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		b := string(body)
		if len(b) > 1000 {
			b = b[:1000]
		}
		return &StatusError{Op: op, Status: code, Body: b}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("wanikani %s: decode: %w", op, err)
	}
	return nil
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
