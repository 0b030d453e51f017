package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat_practice_service/internal/domain"
)

func completionResponse(text string) string {
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Model:      "test-model",
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestGreetSendsGreetingSentinel(t *testing.T) {
	var captured generateContentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(completionResponse("Bonjour!")))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	text, err := client.Greet(context.Background(), PromptContext{Language: "French", Level: "Beginner"})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour!", text)

	require.Len(t, captured.Contents, 1)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, greetingSentinel, captured.Contents[0].Parts[0].Text)
	require.NotNil(t, captured.SystemInstruction)
	assert.Contains(t, captured.SystemInstruction.Parts[0].Text, "French")
}

func TestReplyRetriesOnOverload(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"code":503,"message":"The model is overloaded.","status":"UNAVAILABLE"}}`))
			return
		}
		w.Write([]byte(completionResponse("Ca va bien!")))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	history := []domain.Turn{{Role: domain.TurnRoleAssistant, Text: "Bonjour!"}}

	text, err := client.Reply(context.Background(), PromptContext{}, history, "Ca va?")
	require.NoError(t, err)
	assert.Equal(t, "Ca va bien!", text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestReplyDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"Invalid request.","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Reply(context.Background(), PromptContext{}, nil, "Bonjour.")
	require.Error(t, err)
	assert.False(t, IsOverloaded(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReplyGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Reply(context.Background(), PromptContext{}, nil, "Bonjour.")
	require.Error(t, err)
	assert.True(t, IsOverloaded(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetryBudgetCoversRetryEnvelope(t *testing.T) {
	client, err := NewClient(Config{
		APIKey:     "test-key",
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Timeout:    10 * time.Second,
	})
	require.NoError(t, err)

	// Three attempts of 10s each, plus backoff sleeps of at most 2s
	// (1s + jitter) and 3s (2s + jitter).
	assert.Equal(t, 35*time.Second, client.RetryBudget())
}

func TestWireHistoryDropsLeadingAssistantTurn(t *testing.T) {
	history := []domain.Turn{
		{Role: domain.TurnRoleAssistant, Text: "Bonjour!"},
		{Role: domain.TurnRoleUser, Text: "Salut."},
		{Role: domain.TurnRoleAssistant, Text: "Comment ca va?"},
	}

	contents := wireHistory(history, "Bien, merci.")
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "Salut.", contents[0].Parts[0].Text)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "user", contents[2].Role)
	assert.Equal(t, "Bien, merci.", contents[2].Parts[0].Text)
}

func TestSummarize(t *testing.T) {
	t.Run("ParsesFencedJSON", func(t *testing.T) {
		payload := "```json\n" +
			`{"strengths":["s1","s2","s3"],"improvements":["i1","i2","i3"],"personality_traits":["p1","p2","p3"]}` +
			"\n```"
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(completionResponse(payload)))
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL)
		summary, err := client.Summarize(context.Background(), PromptContext{}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"s1", "s2", "s3"}, summary.Strengths)
		assert.Equal(t, []string{"i1", "i2", "i3"}, summary.Improvements)
		assert.Equal(t, []string{"p1", "p2", "p3"}, summary.PersonalityTraits)
	})

	t.Run("RejectsUnparsableOutput", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(completionResponse("I had a great time chatting!")))
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL)
		_, err := client.Summarize(context.Background(), PromptContext{}, nil)
		assert.ErrorIs(t, err, ErrMalformedOutput)
	})

	t.Run("RejectsWrongCardinality", func(t *testing.T) {
		payload := `{"strengths":["s1"],"improvements":["i1","i2","i3"],"personality_traits":[]}`
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(completionResponse(payload)))
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL)
		_, err := client.Summarize(context.Background(), PromptContext{}, nil)
		assert.ErrorIs(t, err, ErrMalformedOutput)
	})
}

func TestClassifyAPIErrorTreatsOverloadedMessageAsRetriable(t *testing.T) {
	err := classifyAPIError(http.StatusTooManyRequests, []byte(`{"error":{"message":"The model is overloaded, try later."}}`))
	assert.True(t, IsOverloaded(err))

	err = classifyAPIError(http.StatusTooManyRequests, []byte(`{"error":{"message":"Quota exceeded."}}`))
	assert.False(t, IsOverloaded(err))
}
