// Package insights generates a weekly wellness summary with Gemini.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/genai"

	"github.com/daykeep-dev/daykeep/pkg/daylog"
)

// Summary is the structured weekly summary returned by the model.
type Summary struct {
	Overview     string   `json:"overview"`
	Observations []string `json:"observations"`
	Suggestions  []string `json:"suggestions"`
}

// Client calls the Gemini API to summarize the rolling day-log. The rule
// engine never depends on this; it only exists for the `insights` command.
type Client struct {
	apiKey     string
	model      string
	gcpProject string
	logger     *slog.Logger
}

// NewClient creates an insights client. With an empty apiKey the client falls
// back to Vertex AI with Application Default Credentials, the same way the
// rest of the genai ecosystem does.
func NewClient(apiKey, model, gcpProject string, logger *slog.Logger) *Client {
	if model == "" {
		model = "gemini-2.5-flash-lite"
	}
	return &Client{apiKey: apiKey, model: model, gcpProject: gcpProject, logger: logger}
}

// WeeklySummary summarizes the given entries (the 7-day rolling log).
func (c *Client) WeeklySummary(ctx context.Context, entries []daylog.DayEntry) (*Summary, error) {
	client, err := c.createClient(ctx)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(entries)
	temperature := float32(0.2)
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  1500,
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	var resp *genai.GenerateContentResponse
	err = retry.Do(
		func() error {
			var callErr error
			resp, callErr = client.Models.GenerateContent(ctx, c.model, contents, config)
			return callErr
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying insights call", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("generating weekly summary: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from model %s", c.model)
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("no content in response from model %s", c.model)
	}
	text := candidate.Content.Parts[0].Text
	if text == "" {
		return nil, fmt.Errorf("empty text in response from model %s", c.model)
	}

	var summary Summary
	if err := json.Unmarshal([]byte(text), &summary); err != nil {
		return nil, fmt.Errorf("decoding summary response: %w", err)
	}
	return &summary, nil
}

func (c *Client) createClient(ctx context.Context) (*genai.Client, error) {
	var config *genai.ClientConfig
	if c.apiKey != "" {
		config = &genai.ClientConfig{
			Backend: genai.BackendGeminiAPI,
			APIKey:  c.apiKey,
		}
	} else {
		config = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  c.gcpProject,
			Location: "us-central1",
		}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return client, nil
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"overview": {
				Type:        genai.TypeString,
				Description: "Two to three sentences describing the week's sleep, movement and food logging",
			},
			"observations": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Concrete patterns noticed in the log (3-5 items)",
			},
			"suggestions": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Actionable suggestions for next week (2-4 items)",
			},
		},
		Required: []string{"overview", "observations", "suggestions"},
	}
}

// BuildPrompt renders the entries into the summary prompt. Pure; exported so
// the rendering is testable without an API key.
func BuildPrompt(entries []daylog.DayEntry) string {
	var b strings.Builder
	b.WriteString("You are a wellness assistant. Summarize the following week of ")
	b.WriteString("personal log entries. Be encouraging but factual, and never give medical advice.\n\n")

	if len(entries) == 0 {
		b.WriteString("No entries were logged this week.\n")
		return b.String()
	}

	for _, e := range entries {
		b.WriteString(e.CreatedAt.Format("Mon 2006-01-02 15:04"))
		if s := strings.TrimSpace(e.Sleep); s != "" {
			fmt.Fprintf(&b, " | sleep: %s", s)
		}
		if f := strings.TrimSpace(e.Food); f != "" {
			fmt.Fprintf(&b, " | food: %s", f)
		}
		if w := strings.TrimSpace(e.Workout); w != "" {
			fmt.Fprintf(&b, " | workout: %s", w)
		}
		if e.Steps > 0 {
			fmt.Fprintf(&b, " | steps: %d", e.Steps)
		}
		b.WriteString("\n")
	}
	return b.String()
}
