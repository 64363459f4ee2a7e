package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, tenantID string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   tenantID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func webhookConfigRows(url string, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"tenant_id", "webhook_url", "webhook_secret", "auth_type",
		"is_active", "last_test_at", "last_test_status", "updated_at",
	}).AddRow("tenant-1", url, nil, "secret", active, nil, nil, time.Now().UTC())
}

func doTestWebhook(router http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook-config/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookTestSuccessStampsResult(t *testing.T) {
	var hits int32
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	router, mock := newTestRouter(t)
	mock.ExpectQuery(`SELECT \* FROM webhook_configs`).
		WithArgs("tenant-1").
		WillReturnRows(webhookConfigRows(target.URL, true))
	mock.ExpectExec(`UPDATE webhook_configs SET last_test_at`).
		WithArgs("tenant-1", sqlmock.AnyArg(), "success").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doTestWebhook(router, signToken(t, "tenant-1"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookTestFailureStampsResult(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer target.Close()

	router, mock := newTestRouter(t)
	mock.ExpectQuery(`SELECT \* FROM webhook_configs`).
		WithArgs("tenant-1").
		WillReturnRows(webhookConfigRows(target.URL, true))
	mock.ExpectExec(`UPDATE webhook_configs SET last_test_at`).
		WithArgs("tenant-1", sqlmock.AnyArg(), "failure").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doTestWebhook(router, signToken(t, "tenant-1"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, w.Body.String(), "status 500")
	assert.Contains(t, w.Body.String(), "boom")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookTestNotConfigured(t *testing.T) {
	router, mock := newTestRouter(t)
	// Never configured at all.
	mock.ExpectQuery(`SELECT \* FROM webhook_configs`).
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"tenant_id", "webhook_url", "webhook_secret", "auth_type",
			"is_active", "last_test_at", "last_test_status", "updated_at",
		}))

	w := doTestWebhook(router, signToken(t, "tenant-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not configured")
}

func TestWebhookTestDisabled(t *testing.T) {
	router, mock := newTestRouter(t)
	mock.ExpectQuery(`SELECT \* FROM webhook_configs`).
		WithArgs("tenant-1").
		WillReturnRows(webhookConfigRows("https://example.com/hook", false))

	w := doTestWebhook(router, signToken(t, "tenant-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "disabled")
}

func TestWebhookTestStampFailureStillReportsOutcome(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer target.Close()

	router, mock := newTestRouter(t)
	mock.ExpectQuery(`SELECT \* FROM webhook_configs`).
		WithArgs("tenant-1").
		WillReturnRows(webhookConfigRows(target.URL, true))
	mock.ExpectExec(`UPDATE webhook_configs SET last_test_at`).
		WillReturnError(assert.AnError)

	w := doTestWebhook(router, signToken(t, "tenant-1"))

	// The delivery outcome still reaches the caller when the stamp
	// cannot be persisted.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
