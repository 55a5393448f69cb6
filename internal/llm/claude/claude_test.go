// internal/llm/claude/claude_test.go
package claude

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/newthinker/klineprompt/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "model")
	assert.Error(t, err)
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New("test-key", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, p.model)
}

func TestChat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [
				{"type": "text", "text": "HK.00700 复盘: "},
				{"type": "text", "text": "持有"}
			],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 1200, "output_tokens": 8}
		}`)
	}))
	defer srv.Close()

	p, err := New("test-key", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		SystemPrompt: "你是交易员",
		Messages:     llm.UserMessage("分析 HK.00700"),
	})
	require.NoError(t, err)

	assert.Equal(t, "HK.00700 复盘: 持有", resp.Content)
	assert.Equal(t, llm.Usage{InputTokens: 1200, OutputTokens: 8}, resp.Usage)
	assert.Equal(t, "end_turn", resp.FinishReason)

	assert.Equal(t, DefaultModel, got["model"])
	assert.EqualValues(t, llm.DefaultMaxTokens, got["max_tokens"])
	assert.NotNil(t, got["system"])
}

func TestChat_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	p, err := New("bad-key", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), llm.ChatRequest{Messages: llm.UserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claude API error")
}
