package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jdgilhuly/just_prompt/pkg/dispatch"
	"github.com/jdgilhuly/just_prompt/pkg/provider"
	"github.com/jdgilhuly/just_prompt/pkg/registry"
	"github.com/jdgilhuly/just_prompt/providertest"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T, opts ...dispatch.Option) (*Server, providertest.Set) {
	t.Helper()
	reg := registry.Default()
	mocks := providertest.NewSet(reg)
	d, err := dispatch.New(reg, mocks.Adapters(), opts...)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(d, WithLogger(logger)), mocks
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestID_Echoed(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestProviders(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/providers", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Providers []registry.Descriptor `json:"providers"`
	}](t, w)
	require.Len(t, body.Providers, 6)
	assert.Equal(t, "deepseek", body.Providers[4].FullName)
	assert.Equal(t, "d", body.Providers[4].ShortName)
}

func TestModels(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/providers/g/models", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Provider string   `json:"provider"`
		Models   []string `json:"models"`
	}](t, w)
	assert.Equal(t, "g", body.Provider)
	assert.Equal(t, []string{"gemini-model"}, body.Models)
}

func TestModels_UnknownProvider(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/providers/x/models", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	body := decode[errorResponse](t, w)
	assert.Equal(t, "unknown_provider", body.Error.Type)
	assert.Contains(t, body.Error.Message, "openai (o)")
}

func TestPrompt(t *testing.T) {
	s, mocks := newTestServer(t)
	mocks[registry.Anthropic].WithResponse("claude-3-5-haiku", "Paris")

	w := do(t, s, http.MethodPost, "/prompt", PromptRequest{Provider: "a", Model: "claude-3-5-haiku", Text: "Capital of France?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[struct {
		Response string `json:"response"`
	}](t, w)
	assert.Equal(t, "Paris", body.Response)
}

func TestPrompt_PaddedProvider(t *testing.T) {
	s, mocks := newTestServer(t)
	mocks[registry.Groq].WithDefaultResponse("fast")

	w := do(t, s, http.MethodPost, "/prompt", PromptRequest{Provider: " q ", Model: "llama3", Text: "hi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, mocks[registry.Groq].Calls(), 1)
}

func TestPrompt_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		req      PromptRequest
		fail     error
		wantCode int
		wantType string
	}{
		{
			name:     "unknown provider",
			req:      PromptRequest{Provider: "zzz", Model: "m", Text: "hi"},
			wantCode: http.StatusNotFound,
			wantType: "unknown_provider",
		},
		{
			name:     "empty text",
			req:      PromptRequest{Provider: "o", Model: "gpt-4o"},
			wantCode: http.StatusBadRequest,
			wantType: "invalid_request",
		},
		{
			name:     "invalid model",
			req:      PromptRequest{Provider: "o", Model: "gpt-nope", Text: "hi"},
			fail:     &provider.APIError{Provider: "openai", StatusCode: 404, Kind: provider.ErrInvalidModel},
			wantCode: http.StatusUnprocessableEntity,
			wantType: "invalid_model",
		},
		{
			name:     "unavailable",
			req:      PromptRequest{Provider: "o", Model: "gpt-4o", Text: "hi"},
			fail:     &provider.APIError{Provider: "openai", StatusCode: 503, Kind: provider.ErrProviderUnavailable},
			wantCode: http.StatusBadGateway,
			wantType: "provider_unavailable",
		},
		{
			name:     "other",
			req:      PromptRequest{Provider: "o", Model: "gpt-4o", Text: "hi"},
			fail:     errors.New("weird"),
			wantCode: http.StatusBadGateway,
			wantType: "provider_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mocks := newTestServer(t)
			if tt.fail != nil {
				mocks[registry.OpenAI].FailPrompt(tt.fail)
			}
			w := do(t, s, http.MethodPost, "/prompt", tt.req)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantType, decode[errorResponse](t, w).Error.Type)
		})
	}
}

func TestPrompt_BadBody(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodPost, "/prompt", map[string]string{"text": "no provider"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatch(t *testing.T) {
	s, mocks := newTestServer(t)
	mocks[registry.OpenAI].WithDefaultResponse("one")
	mocks[registry.Ollama].WithDefaultResponse("two")

	w := do(t, s, http.MethodPost, "/prompt/batch", BatchRequest{Text: "hi", Models: []string{"o:gpt-4o", "l:gemma3:12b"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[struct {
		Responses []BatchItem `json:"responses"`
	}](t, w)
	assert.Equal(t, []BatchItem{
		{Model: "o:gpt-4o", Response: "one"},
		{Model: "l:gemma3:12b", Response: "two"},
	}, body.Responses)
}

func TestBatch_DefaultModels(t *testing.T) {
	s, mocks := newTestServer(t, dispatch.WithDefaultModels("q:llama3"))
	mocks[registry.Groq].WithDefaultResponse("fast")

	w := do(t, s, http.MethodPost, "/prompt/batch", BatchRequest{Text: "hi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[struct {
		Responses []BatchItem `json:"responses"`
	}](t, w)
	assert.Equal(t, []BatchItem{{Model: "q:llama3", Response: "fast"}}, body.Responses)
}

func TestBatch_BadRef(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodPost, "/prompt/batch", BatchRequest{Text: "hi", Models: []string{"gpt-4o"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type panicDispatcher struct{ Dispatcher }

func (panicDispatcher) ListProviders() []registry.Descriptor { panic("boom") }

func TestRecovery(t *testing.T) {
	s := New(panicDispatcher{}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	w := do(t, s, http.MethodGet, "/providers", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", decode[errorResponse](t, w).Error.Type)
}

func TestRun_Shutdown(t *testing.T) {
	s, _ := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, addr) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
