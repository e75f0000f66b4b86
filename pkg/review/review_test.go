package review

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelJSON = `{"verdict":"Reconsider","tone":"combative","rewrite":"I disagree with this take, here is why.","notes":["a","b","c","d"]}`

func TestLLM_OpenAI(t *testing.T) {
	var gotPrompt, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Messages[0].Content

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": modelJSON}}},
		})
	}))
	defer srv.Close()

	r, err := NewLLM("openai", "", "sk-test", srv.URL+"/").Review(context.Background(), "you clowns never learn")
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Contains(t, gotPrompt, "you clowns never learn")
	assert.Equal(t, VerdictReconsider, r.Verdict)
	assert.Equal(t, "combative", r.Tone)
	assert.Len(t, r.Notes, 3)
	assert.Equal(t, "openai", r.Provider)
	assert.Equal(t, "gpt-4o-mini", r.Model)
}

func TestLLM_AnthropicFencedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"text": "```json\n{\"verdict\":\"post\",\"tone\":\"warm\"}\n```"}},
		})
	}))
	defer srv.Close()

	r, err := NewLLM("anthropic", "", "sk-ant", srv.URL).Review(context.Background(), "Thanks for 1k followers!")
	require.NoError(t, err)

	assert.Equal(t, VerdictPost, r.Verdict)
	assert.Equal(t, "warm", r.Tone)
	assert.Empty(t, r.Notes)
	assert.NotNil(t, r.Notes)
	assert.Equal(t, "claude-haiku-4-5", r.Model)
}

func TestLLM_Errors(t *testing.T) {
	_, err := NewLLM("openai", "", "k", "http://unused").Review(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyText)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	_, err = NewLLM("openai", "", "k", srv.URL).Review(context.Background(), "hello")
	assert.ErrorContains(t, err, "openai status 401")
}

func TestParseReview(t *testing.T) {
	r, err := parseReview(`{"verdict":"maybe","tone":"flat"}`)
	require.NoError(t, err)
	assert.Equal(t, VerdictRevise, r.Verdict)

	_, err = parseReview("I think it's fine")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "parse review response"))
}
