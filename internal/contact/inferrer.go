// Package contact infers the key decision-maker of a business from its
// website text using Claude.
package contact

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dataforge/internal/model"
	"github.com/sells-group/dataforge/internal/resilience"
	"github.com/sells-group/dataforge/pkg/anthropic"
)

// Defaults for Config fields left at their zero value.
const (
	DefaultModel     = "claude-haiku-4-5-20251001"
	DefaultMaxTokens = 300
)

// Config selects the model used for inference.
type Config struct {
	Model     string
	MaxTokens int64
}

// Inferrer implements contact inference over an Anthropic client.
type Inferrer struct {
	client anthropic.Client
	cfg    Config
}

// NewInferrer creates an Inferrer. A nil client makes every call fail with
// a configuration error.
func NewInferrer(client anthropic.Client, cfg Config) *Inferrer {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Inferrer{client: client, cfg: cfg}
}

// Infer asks the model for the most senior contact named in text. A reply
// that is not valid JSON yields a zero-confidence contact and no error.
func (i *Inferrer) Infer(ctx context.Context, text string, existing map[string]string) (*model.Contact, error) {
	if i.client == nil {
		return nil, resilience.ConfigError(eris.New("contact: anthropic api key not configured"))
	}

	resp, err := i.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     i.cfg.Model,
		MaxTokens: i.cfg.MaxTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: BuildPrompt(text, existing)}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "contact: create message")
	}
	resp.Usage.LogCost(i.cfg.Model, "infer_contact")

	c, err := ParseContact(resp.Text())
	if err != nil {
		zap.L().Debug("contact: unparseable reply", zap.Error(err))
		return &model.Contact{}, nil
	}
	return c, nil
}

// reply is the JSON shape the model is asked to produce.
type reply struct {
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Title      string   `json:"title"`
	Confidence *float64 `json:"confidence"`
}

// ParseContact decodes a model reply, tolerating markdown fences around the
// JSON object. A missing confidence is 0; values are clamped to [0, 1].
func ParseContact(text string) (*model.Contact, error) {
	var r reply
	if err := json.Unmarshal([]byte(cleanJSON(text)), &r); err != nil {
		return nil, eris.Wrap(err, "contact: decode reply")
	}

	c := &model.Contact{
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Title:     strings.TrimSpace(r.Title),
	}
	if r.Confidence != nil {
		c.Confidence = min(max(*r.Confidence, 0), 1)
	}
	return c, nil
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if rest, ok := strings.CutPrefix(text, "```json"); ok {
		text = rest
	} else if rest, ok := strings.CutPrefix(text, "```"); ok {
		text = rest
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
