package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexioai/nexio-ingest/internal/db"
)

func strptr(s string) *string { return &s }

func testConfig(url string) *db.WebhookConfig {
	return &db.WebhookConfig{
		TenantID:   "tenant-1",
		WebhookURL: strptr(url),
		AuthType:   db.AuthTypeSecret,
		IsActive:   true,
	}
}

func testPayload() *Payload {
	return &Payload{
		ResponseID:  "resp-1",
		TenantID:    "tenant-1",
		FormSlug:    "acme",
		Answers:     db.AnswerMap{"name": db.TextAnswer("Maria")},
		SubmittedAt: time.Now().UTC(),
	}
}

func TestDeliverSuccess(t *testing.T) {
	var received Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(2*time.Second, 200, zap.NewNop())
	err := client.Deliver(context.Background(), testConfig(srv.URL), testPayload())

	require.NoError(t, err)
	assert.Equal(t, "resp-1", received.ResponseID)
	assert.Equal(t, "Maria", received.Answers.Get("name").Text())
}

func TestDeliverEmptyBodyIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(2*time.Second, 200, zap.NewNop())
	assert.NoError(t, client.Deliver(context.Background(), testConfig(srv.URL), testPayload()))
}

func TestDeliverNon2xxWithTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer srv.Close()

	client := NewClient(2*time.Second, 200, zap.NewNop())
	err := client.Deliver(context.Background(), testConfig(srv.URL), testPayload())

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "status", de.Reason)
	assert.Equal(t, http.StatusInternalServerError, de.StatusCode)
	assert.Len(t, de.Body, 200)
}

func TestDeliverTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(100*time.Millisecond, 200, zap.NewNop())

	start := time.Now()
	err := client.Deliver(context.Background(), testConfig(srv.URL), testPayload())
	elapsed := time.Since(start)

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "timeout", de.Reason)
	// The attempt is bounded by the configured deadline, not the
	// remote's response time.
	assert.Less(t, elapsed, time.Second)
}

func TestDeliverConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	client := NewClient(2*time.Second, 200, zap.NewNop())
	err := client.Deliver(context.Background(), testConfig(srv.URL), testPayload())

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "connection", de.Reason)
}

func TestDeliverNotConfigured(t *testing.T) {
	client := NewClient(2*time.Second, 200, zap.NewNop())

	assert.ErrorIs(t, client.Deliver(context.Background(), nil, testPayload()), ErrNotConfigured)
	assert.ErrorIs(t, client.Deliver(context.Background(), &db.WebhookConfig{}, testPayload()), ErrNotConfigured)

	empty := testConfig("")
	assert.ErrorIs(t, client.Deliver(context.Background(), empty, testPayload()), ErrNotConfigured)
}

func TestDeliverAuthHeaders(t *testing.T) {
	cases := []struct {
		name     string
		authType db.AuthType
		secret   string
		header   string
		want     string
	}{
		{"secret header", db.AuthTypeSecret, "s3cret", "x-webhook-secret", "s3cret"},
		{"bearer", db.AuthTypeBearer, "tok-123", "Authorization", "Bearer tok-123"},
		{"basic", db.AuthTypeBasic, "user:pass", "Authorization", "Basic dXNlcjpwYXNz"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get(tc.header)
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			cfg := testConfig(srv.URL)
			cfg.AuthType = tc.authType
			cfg.WebhookSecret = strptr(tc.secret)

			client := NewClient(2*time.Second, 200, zap.NewNop())
			require.NoError(t, client.Deliver(context.Background(), cfg, testPayload()))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDeliverNoSecretNoAuthHeader(t *testing.T) {
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(2*time.Second, 200, zap.NewNop())
	require.NoError(t, client.Deliver(context.Background(), testConfig(srv.URL), testPayload()))

	assert.Empty(t, headers.Get("Authorization"))
	assert.Empty(t, headers.Get("x-webhook-secret"))
}
