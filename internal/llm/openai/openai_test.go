// internal/llm/openai/openai_test.go
package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/klineprompt/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "model", "")
	assert.Error(t, err)
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New("test-key", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, p.model)
}

func chatServer(t *testing.T, reply string, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		if got != nil {
			require.NoError(t, json.Unmarshal(body, got))
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChat(t *testing.T) {
	var got map[string]any
	srv := chatServer(t, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1709625600,
		"model": "gpt-4o",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "减仓"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 900, "completion_tokens": 2, "total_tokens": 902}
	}`, &got)

	p, err := New("test-key", "", srv.URL+"/v1")
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		SystemPrompt: "你是交易员",
		Messages:     llm.UserMessage("分析 HK.09988"),
		MaxTokens:    512,
	})
	require.NoError(t, err)

	assert.Equal(t, "减仓", resp.Content)
	assert.Equal(t, llm.Usage{InputTokens: 900, OutputTokens: 2}, resp.Usage)
	assert.Equal(t, "stop", resp.FinishReason)

	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
	assert.EqualValues(t, 512, got["max_tokens"])
}

func TestChat_NoChoices(t *testing.T) {
	srv := chatServer(t, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o","choices":[],"usage":{}}`, nil)

	p, err := New("test-key", "", srv.URL+"/v1")
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), llm.ChatRequest{Messages: llm.UserMessage("hi")})
	assert.ErrorContains(t, err, "no choices")
}
