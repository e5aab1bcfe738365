package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateContent(t *testing.T) {
	var got GenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Use 100 kg urea per hectare."}]}}]}`)
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "test-model", "secret")
	resp, err := client.GenerateContent(context.Background(), &GenerateRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: "fertilizer for rice?"}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Use 100 kg urea per hectare.", ExtractReply(resp))
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "fertilizer for rice?", got.Contents[0].Parts[0].Text)
}

func TestGenerateContentStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"message":"overloaded"}}`)
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "m", "k")
	_, err := client.GenerateContent(context.Background(), &GenerateRequest{})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.NotContains(t, se.Error(), "overloaded")
}

func TestGenerateContentMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "m", "k")
	_, err := client.GenerateContent(context.Background(), &GenerateRequest{})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGenerateContentCircuitOpens(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "m", "k")
	for i := 0; i < 5; i++ {
		_, err := client.GenerateContent(context.Background(), &GenerateRequest{})
		require.Error(t, err)
	}

	_, err := client.GenerateContent(context.Background(), &GenerateRequest{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 5, calls)
}

func TestExtractReplyPriority(t *testing.T) {
	cases := []struct {
		name string
		resp *GenerateResponse
		want string
	}{
		{"nil", nil, DefaultReply},
		{"empty", &GenerateResponse{}, DefaultReply},
		{
			"candidate parts joined",
			&GenerateResponse{Candidates: []Candidate{{Content: Content{Parts: []Part{{Text: "Irrigate "}, {Text: "tomorrow."}}}}}},
			"Irrigate tomorrow.",
		},
		{
			"skips empty candidate",
			&GenerateResponse{Candidates: []Candidate{{}, {Content: Content{Parts: []Part{{Text: "second"}}}}}},
			"second",
		},
		{
			"candidate beats legacy output",
			&GenerateResponse{
				Candidates: []Candidate{{Content: Content{Parts: []Part{{Text: "new"}}}}},
				Output:     []LegacyOutput{{Content: []Part{{Text: "old"}}}},
			},
			"new",
		},
		{
			"legacy output",
			&GenerateResponse{Output: []LegacyOutput{{Content: []Part{{Text: "a"}, {Text: "b"}}}}},
			"ab",
		},
		{"top-level text", &GenerateResponse{Text: "  plain  "}, "plain"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractReply(tc.resp))
		})
	}
}
