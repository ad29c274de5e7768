package transcript

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/speech-insights/internal/config"
)

func testConfig(url string) *config.Config {
	return &config.Config{
		TranscriberProvider:        config.ProviderWhisper,
		WhisperURL:                 url,
		WhisperTimeout:             5,
		RetryMaxAttempts:           3,
		RetryInitialBackoff:        1,
		CircuitBreakerMaxFailures:  5,
		CircuitBreakerResetTimeout: 30,
		TranscriberMaxConcurrency:  1,
	}
}

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF-not-really"), 0o644))
	return path
}

func TestWhisperClient_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		body, _ := io.ReadAll(file)
		assert.Equal(t, "talk.wav", header.Filename)
		assert.Equal(t, "RIFF-not-really", string(body))

		json.NewEncoder(w).Encode(map[string]any{
			"text": "hi there ok",
			"segments": []map[string]any{
				{"start": 0.0, "end": 1.0, "text": "hi there", "confidence": 0.95},
				{"start": 1.2, "end": 2.0, "text": "ok"},
			},
		})
	}))
	defer srv.Close()

	client := NewWhisperClient(testConfig(srv.URL))
	res, err := client.Transcribe(context.Background(), writeAudio(t))
	require.NoError(t, err)

	assert.Equal(t, "hi there ok", res.FullText)
	require.Len(t, res.Segments, 2)
	require.NotNil(t, res.Segments[0].Confidence)
	assert.Equal(t, 0.95, *res.Segments[0].Confidence)
	assert.Nil(t, res.Segments[1].Confidence)
	assert.InDelta(t, 0.8, res.Segments[1].Duration(), 1e-9)
}

func TestWhisperClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "model loading", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"text": "", "segments": []any{}})
	}))
	defer srv.Close()

	client := NewWhisperClient(testConfig(srv.URL))
	res, err := client.Transcribe(context.Background(), writeAudio(t))
	require.NoError(t, err)
	assert.Empty(t, res.Segments)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWhisperClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad audio", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewWhisperClient(testConfig(srv.URL))
	_, err := client.Transcribe(context.Background(), writeAudio(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad audio")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWhisperClient_MissingFile(t *testing.T) {
	client := NewWhisperClient(testConfig("http://127.0.0.1:1"))
	_, err := client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "gone.wav"))
	assert.Error(t, err)
}

func TestWhisperClient_Ping(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	client := NewWhisperClient(testConfig(srv.URL + "/"))
	assert.NoError(t, client.Ping(context.Background()))

	healthy = false
	assert.Error(t, client.Ping(context.Background()))
}

func TestDeepgramResponse_ToResult(t *testing.T) {
	var resp deepgramResponse
	raw := `{"results":{"utterances":[
		{"start":0.5,"end":1.5,"confidence":0.82,"transcript":"hello"},
		{"start":2.0,"end":3.0,"confidence":0.4,"transcript":"world"}],
		"channels":[{"alternatives":[{"transcript":"hello world"}]}]}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	res := resp.toResult()
	assert.Equal(t, "hello world", res.FullText)
	require.Len(t, res.Segments, 2)
	assert.Equal(t, 0.4, res.Segments[1].ConfidenceOr(1))
}

func TestDeepgramResponse_FullTextFallback(t *testing.T) {
	var resp deepgramResponse
	raw := `{"results":{"utterances":[{"start":0,"end":1,"confidence":0.9,"transcript":"just this"}]}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	assert.Equal(t, "just this", resp.toResult().FullText)
}

func TestNew_SelectsProvider(t *testing.T) {
	tr, err := New(testConfig("http://localhost:9000"))
	require.NoError(t, err)
	assert.Equal(t, config.ProviderWhisper, tr.Name())

	cfg := testConfig("")
	cfg.TranscriberProvider = "nope"
	_, err = New(cfg)
	assert.Error(t, err)
}
