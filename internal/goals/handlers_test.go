package goals

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liferhythm-backend/internal/auth"
)

var testSecret = []byte("test-secret")

type fakeMailer struct {
	sent []string
	fail bool
}

func (f *fakeMailer) Send(to, subject, body string) (string, error) {
	if f.fail {
		return "", errors.New("relay refused")
	}
	f.sent = append(f.sent, to)
	return "<msg-1@test>", nil
}

func newTestMux(rows *memoryRows, mailer *fakeMailer) *http.ServeMux {
	store := NewStore(rows)
	mw := auth.New(testSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/goals", mw.Wrap(CreateGoalsHandler(store, nil)))
	mux.HandleFunc("GET /api/goals/{user_id}", mw.Wrap(ListGoalsHandler(store)))
	mux.HandleFunc("DELETE /api/goals/{user_id}/{createdAt}", mw.Wrap(DeleteGoalHandler(store, nil)))
	mux.HandleFunc("PATCH /api/goals/{user_id}/{createdAt}", mw.Wrap(UpdateStatusHandler(store, nil)))
	mux.HandleFunc("PATCH /api/goals/{user_id}/{createdAt}/deadline", mw.Wrap(UpdateDeadlineHandler(store, nil)))
	mux.HandleFunc("POST /api/goals/email", mw.Wrap(SendGoalEmailHandler(store, mailer, nil)))
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(testSecret, userID, "tester", time.Hour)
	require.NoError(t, err)
	return tok
}

func TestCreateGoals_Success(t *testing.T) {
	t.Parallel()
	rows := newMemoryRows()
	mux := newTestMux(rows, &fakeMailer{})
	tok := tokenFor(t, "u1")

	rec := doJSON(t, mux, http.MethodPost, "/api/goals", tok, map[string]any{
		"user_id": "u1",
		"goals":   []map[string]any{{"title": "run"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/goals/u1", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		UserID string `json:"user_id"`
		Goals  []Goal `json:"goals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UserID)
	require.Len(t, resp.Goals, 1)
	assert.Equal(t, "run", resp.Goals[0].Title)
}

func TestCreateGoals_InvalidInput(t *testing.T) {
	t.Parallel()
	mux := newTestMux(newMemoryRows(), &fakeMailer{})
	tok := tokenFor(t, "u1")

	rec := doJSON(t, mux, http.MethodPost, "/api/goals", tok, map[string]any{
		"user_id": "u1",
		"goals":   []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGoals_AuthRequired(t *testing.T) {
	t.Parallel()
	mux := newTestMux(newMemoryRows(), &fakeMailer{})

	rec := doJSON(t, mux, http.MethodGet, "/api/goals/u1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// valid token for a different user is not enough
	rec = doJSON(t, mux, http.MethodGet, "/api/goals/u1", tokenFor(t, "someone-else"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListGoals_NotFound(t *testing.T) {
	t.Parallel()
	mux := newTestMux(newMemoryRows(), &fakeMailer{})

	rec := doJSON(t, mux, http.MethodGet, "/api/goals/u1", tokenFor(t, "u1"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatusAndDeleteOverHTTP(t *testing.T) {
	t.Parallel()
	rows := newMemoryRows()
	mux := newTestMux(rows, &fakeMailer{})
	tok := tokenFor(t, "u1")
	seed(t, rows, "u1", []Goal{
		{ID: "a", CreatedAt: "t1", Status: "open"},
		{ID: "b", CreatedAt: "t2", Status: "open"},
	})

	rec := doJSON(t, mux, http.MethodPatch, "/api/goals/u1/t2", tok, map[string]any{
		"status": "done",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var patched struct {
		Goals []Goal `json:"goals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patched))
	require.Len(t, patched.Goals, 2)
	assert.Equal(t, "open", patched.Goals[0].Status)
	assert.Equal(t, "done", patched.Goals[1].Status)

	rec = doJSON(t, mux, http.MethodPatch, "/api/goals/u1/t1/deadline", tok, map[string]any{
		"endDateTask": "2025-01-01",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodDelete, "/api/goals/u1/t1", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var deleted struct {
		Goals []Goal `json:"goals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	require.Len(t, deleted.Goals, 1)
	assert.Equal(t, "t2", deleted.Goals[0].CreatedAt)
}

func TestUpdateStatus_RequiresStatus(t *testing.T) {
	t.Parallel()
	rows := newMemoryRows()
	mux := newTestMux(rows, &fakeMailer{})
	seed(t, rows, "u1", []Goal{{ID: "a", CreatedAt: "t1"}})

	rec := doJSON(t, mux, http.MethodPatch, "/api/goals/u1/t1", tokenFor(t, "u1"), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendGoalEmail_StampsEmailSentAt(t *testing.T) {
	t.Parallel()
	rows := newMemoryRows()
	mailer := &fakeMailer{}
	mux := newTestMux(rows, mailer)
	seed(t, rows, "u1", []Goal{{ID: "a", CreatedAt: "t1", Title: "run"}})

	rec := doJSON(t, mux, http.MethodPost, "/api/goals/email", tokenFor(t, "u1"), map[string]any{
		"user_id":   "u1",
		"createdAt": "t1",
		"to":        "me@example.com",
		"subject":   "reminder",
		"text":      "go run",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"me@example.com"}, mailer.sent)

	var resp struct {
		MessageID string `json:"message_id"`
		Goals     []Goal `json:"goals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "<msg-1@test>", resp.MessageID)
	require.Len(t, resp.Goals, 1)
	assert.NotNil(t, resp.Goals[0].EmailSentAt)
}

func TestSendGoalEmail_DeliveryErrorLeavesGoalsUntouched(t *testing.T) {
	t.Parallel()
	rows := newMemoryRows()
	mailer := &fakeMailer{fail: true}
	mux := newTestMux(rows, mailer)
	seed(t, rows, "u1", []Goal{{ID: "a", CreatedAt: "t1"}})

	rec := doJSON(t, mux, http.MethodPost, "/api/goals/email", tokenFor(t, "u1"), map[string]any{
		"user_id":   "u1",
		"createdAt": "t1",
		"to":        "me@example.com",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	gs, err := NewStore(rows).List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, gs[0].EmailSentAt)
}

func TestSendGoalEmail_UnknownGoal(t *testing.T) {
	t.Parallel()
	rows := newMemoryRows()
	mux := newTestMux(rows, &fakeMailer{})
	seed(t, rows, "u1", []Goal{{ID: "a", CreatedAt: "t1"}})

	rec := doJSON(t, mux, http.MethodPost, "/api/goals/email", tokenFor(t, "u1"), map[string]any{
		"user_id":   "u1",
		"createdAt": "missing",
		"to":        "me@example.com",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
