// Package opentdb fetches multiple-choice questions from an Open Trivia DB
// compatible API and normalizes them into domain questions.
package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"trivia-room-service/internal/domain"
)

const defaultBaseURL = "https://opentdb.com"

// Client is an app.QuestionSource backed by the remote provider. Provider text
// may contain HTML entities; it is passed through untouched so that answer
// comparison happens on the raw provider string.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type apiResponse struct {
	ResponseCode int `json:"response_code"`
	Results      []struct {
		Question         string   `json:"question"`
		CorrectAnswer    string   `json:"correct_answer"`
		IncorrectAnswers []string `json:"incorrect_answers"`
	} `json:"results"`
}

// Fetch requests count multiple-choice questions and shuffles each choice set
// once. Any transport, decoding, or provider-side failure is returned as-is
// for the caller to surface; a short batch is treated as a failure too.
func (c *Client) Fetch(ctx context.Context, count int) ([]domain.Question, error) {
	url := fmt.Sprintf("%s/api.php?amount=%d&type=multiple", c.baseURL, count)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opentdb request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("opentdb status %d", resp.StatusCode)
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("opentdb decode: %w", err)
	}
	if out.ResponseCode != 0 {
		return nil, fmt.Errorf("opentdb response code %d", out.ResponseCode)
	}
	if len(out.Results) < count {
		return nil, fmt.Errorf("opentdb returned %d of %d questions: %w", len(out.Results), count, domain.ErrNotEnoughQuestions)
	}

	questions := make([]domain.Question, 0, count)
	for _, r := range out.Results[:count] {
		choices := append([]string{r.CorrectAnswer}, r.IncorrectAnswers...)
		questions = append(questions, domain.Question{
			Prompt:        r.Question,
			CorrectChoice: r.CorrectAnswer,
			Choices:       domain.ShuffledChoices(choices),
		})
	}
	return questions, nil
}
