package gemini

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

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/test-model:generateContent"), r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "systemInstruction")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"  so chaotic  "}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	c, err := NewClient(context.Background(), "test-key", Config{Model: "test-model", BaseURL: server.URL})
	require.NoError(t, err)

	text, err := c.Complete(context.Background(), "be chaotic", "hello")
	require.NoError(t, err)
	assert.Equal(t, "so chaotic", text)
}

func TestNewClient_NoKey(t *testing.T) {
	c, err := NewClient(context.Background(), "", Config{})
	assert.NoError(t, err)
	assert.Nil(t, c)
}
