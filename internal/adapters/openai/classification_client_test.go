package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/truthline/truthline/internal/core"
	"github.com/truthline/truthline/internal/utils"
)

func newTestClient(t *testing.T, content string) *ClassificationClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "Classify the following content")

		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: content}},
			},
		})
	}))
	t.Cleanup(server.Close)

	return NewClassificationClient(
		"test-key",
		server.URL,
		"test-model",
		1000,
		0.2,
		4096,
		5*time.Second,
		0,
		zap.NewNop(),
		utils.NewTextProcessor(zap.NewNop()),
	)
}

func TestClassify(t *testing.T) {
	client := newTestClient(t, `{"label":"phishing","confidence":0.9,"reasons":["credential request"]}`)

	result, err := client.Classify(context.Background(), "give me your password")
	require.NoError(t, err)
	assert.Equal(t, core.LabelPhishing, result.Label)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Equal(t, []string{"credential request"}, result.Reasons)
}

func TestClassifyProseWrappedResponse(t *testing.T) {
	client := newTestClient(t, "Sure, here you go: {\"label\":\"spam\",\"confidence\":0.8,\"reasons\":[]}")

	result, err := client.Classify(context.Background(), "buy now")
	require.NoError(t, err)
	assert.Equal(t, core.LabelSpam, result.Label)
}

func TestClassifyUnparseableResponse(t *testing.T) {
	client := newTestClient(t, "I cannot classify this.")

	_, err := client.Classify(context.Background(), "text")
	assert.Error(t, err)
}

func TestClassifyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewClassificationClient(
		"test-key", server.URL, "test-model",
		1000, 0.2, 4096, 5*time.Second, 0,
		zap.NewNop(), utils.NewTextProcessor(zap.NewNop()),
	)

	_, err := client.Classify(context.Background(), "text")
	assert.Error(t, err)
}
