package reply_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/switchboard/pkg/reply"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
			(*seen)["path"] = r.URL.Path
			(*seen)["api-version"] = r.URL.Query().Get("api-version")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Olá!"},"finish_reason":"stop"}]}`

func TestOpenAI_Generate(t *testing.T) {
	seen := map[string]any{}
	srv := chatServer(t, http.StatusOK, okBody, &seen)

	gen, err := reply.NewOpenAI(reply.OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "gpt-4o-mini"})
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), "The user says: 'oi'. Respond naturally.")
	require.NoError(t, err)
	assert.Equal(t, "Olá!", out)
	assert.Equal(t, "/v1/chat/completions", seen["path"])
	assert.Equal(t, "gpt-4o-mini", seen["model"])

	msgs := seen["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
}

func TestOpenAI_Azure(t *testing.T) {
	seen := map[string]any{}
	srv := chatServer(t, http.StatusOK, okBody, &seen)

	gen, err := reply.NewOpenAI(reply.OpenAIConfig{
		APIKey:     "k",
		BaseURL:    srv.URL,
		Model:      "support-deployment",
		Azure:      true,
		APIVersion: "2024-02-01",
	})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.True(t, strings.Contains(seen["path"].(string), "/openai/deployments/support-deployment/"), seen["path"])
	assert.Equal(t, "2024-02-01", seen["api-version"])
}

func TestOpenAI_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, reply.ErrTransient},
		{http.StatusBadGateway, reply.ErrTransient},
		{http.StatusUnauthorized, reply.ErrPermanent},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := chatServer(t, tt.status, `{"error":{"message":"nope","type":"error"}}`, nil)
			gen, err := reply.NewOpenAI(reply.OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "m"})
			require.NoError(t, err)

			_, err = gen.Generate(context.Background(), "hi")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewOpenAI_Validation(t *testing.T) {
	_, err := reply.NewOpenAI(reply.OpenAIConfig{Model: "m"})
	assert.Error(t, err)
	_, err = reply.NewOpenAI(reply.OpenAIConfig{APIKey: "k", Model: "m", Azure: true})
	assert.Error(t, err)
}
