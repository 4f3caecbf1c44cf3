package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dataforge/internal/resilience"
)

func messageJSON(text string) map[string]any {
	return map[string]any{
		"id":   "msg_test_001",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": "end_turn",
		"usage": map[string]any{
			"input_tokens":  120,
			"output_tokens": 30,
		},
	}
}

func TestSDKClient_CreateMessage(t *testing.T) {
	t.Parallel()

	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageJSON(`{"first_name":"Bob"}`))
	}))
	defer ts.Close()

	client := NewClient("test-key", option.WithBaseURL(ts.URL))
	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 300,
		System:    []SystemBlock{{Text: "Be terse."}},
		Messages:  []Message{{Role: "user", Content: "Who runs this site?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "msg_test_001", resp.ID)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, `{"first_name":"Bob"}`, resp.Text())
	assert.Equal(t, int64(120), resp.Usage.InputTokens)

	assert.Equal(t, "claude-haiku-4-5-20251001", body["model"])
	assert.EqualValues(t, 300, body["max_tokens"])
	assert.NotContains(t, body, "temperature")
}

func TestSDKClient_CreateMessage_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		kind   resilience.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, resilience.KindConfig},
		{"rate limited", http.StatusTooManyRequests, resilience.KindTransport},
		{"overloaded", 529, resilience.KindTransport},
		{"bad request", http.StatusBadRequest, resilience.KindTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"type":  "error",
					"error": map[string]any{"type": "api_error", "message": "nope"},
				})
			}))
			defer ts.Close()

			_, err := NewClient("k", option.WithBaseURL(ts.URL)).CreateMessage(context.Background(), MessageRequest{
				Model:     "claude-haiku-4-5-20251001",
				MaxTokens: 10,
				Messages:  []Message{{Role: "user", Content: "hi"}},
			})
			require.Error(t, err)
			assert.Equal(t, tt.kind, resilience.Classify(err))
			assert.Contains(t, err.Error(), "anthropic: create message")
			assert.Equal(t, 1, calls, "no retries")

			var re *resilience.Error
			require.ErrorAs(t, err, &re)
			if tt.kind == resilience.KindTransport {
				assert.Equal(t, tt.status, re.StatusCode)
			}
		})
	}
}

func TestMessageResponse_Text(t *testing.T) {
	t.Parallel()

	var nilResp *MessageResponse
	assert.Empty(t, nilResp.Text())
	assert.Empty(t, (&MessageResponse{}).Text())

	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "thinking", Text: "hmm"},
		{Type: "text", Text: "answer"},
		{Type: "text", Text: "second"},
	}}
	assert.Equal(t, "answer", resp.Text())
}

func TestFromSDKMessage(t *testing.T) {
	t.Parallel()

	resp := fromSDKMessage(&sdk.Message{
		ID:         "msg_1",
		Model:      "claude-haiku-4-5-20251001",
		StopReason: "max_tokens",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "Hello"},
		},
		Usage: sdk.Usage{InputTokens: 10, OutputTokens: 5},
	})
	assert.Equal(t, &MessageResponse{
		ID:         "msg_1",
		Model:      "claude-haiku-4-5-20251001",
		StopReason: "max_tokens",
		Content:    []ContentBlock{{Type: "text", Text: "Hello"}},
		Usage:      TokenUsage{InputTokens: 10, OutputTokens: 5},
	}, resp)
}

func TestToSDKMessages(t *testing.T) {
	t.Parallel()

	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "q"},
		{Role: "assistant", Content: "a"},
		{Role: "other", Content: "q2"},
	})
	require.Len(t, msgs, 3)
	assert.EqualValues(t, "user", msgs[0].Role)
	assert.EqualValues(t, "assistant", msgs[1].Role)
	assert.EqualValues(t, "user", msgs[2].Role)
	assert.Empty(t, toSDKMessages(nil))
}

func TestToSDKSystemBlocks(t *testing.T) {
	t.Parallel()

	blocks := toSDKSystemBlocks([]SystemBlock{{Text: "one"}, {Text: "two"}})
	require.Len(t, blocks, 2)
	assert.Equal(t, "one", blocks[0].Text)
	assert.Equal(t, "two", blocks[1].Text)
}

func TestEstimateCost(t *testing.T) {
	t.Parallel()

	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 6.00, u.EstimateCost("claude-haiku-4-5-20251001"), 0.0001)
	assert.InDelta(t, 18.00, u.EstimateCost("claude-sonnet-4-5-20250929"), 0.0001)
	assert.Zero(t, u.EstimateCost("unknown-model"))
	assert.Zero(t, TokenUsage{}.EstimateCost("claude-haiku-4-5-20251001"))
	assert.NotPanics(t, func() { u.LogCost("claude-haiku-4-5-20251001", "infer") })
}
