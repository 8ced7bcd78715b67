package goals

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"liferhythm-backend/internal/analytics"
	"liferhythm-backend/internal/auth"
	"liferhythm-backend/internal/email"
)

func writeStoreErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "invalid data", http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "goals not found for this user", http.StatusNotFound)
	default:
		log.Printf("goals: %v", err)
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func CreateGoalsHandler(store *Store, dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID string      `json:"user_id"`
			Goals  []GoalInput `json:"goals"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if !auth.RequireUser(w, r, body.UserID) {
			return
		}

		count, err := store.Append(r.Context(), body.UserID, body.Goals)
		if err != nil {
			writeStoreErr(w, err)
			return
		}

		// analytics: goals_created
		{
			env := analytics.FromRequest(r)
			env.UserID = body.UserID
			_ = analytics.Log(r.Context(), dbx, env, "goals_created", map[string]any{
				"count": count,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "goals added",
			"count":   count,
		})
	}
}

func ListGoalsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("user_id")
		if !auth.RequireUser(w, r, userID) {
			return
		}

		gs, err := store.List(r.Context(), userID)
		if err != nil {
			writeStoreErr(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user_id": userID,
			"goals":   gs,
		})
	}
}

func UpdateStatusHandler(store *Store, dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("user_id")
		createdAt := r.PathValue("createdAt")
		if !auth.RequireUser(w, r, userID) {
			return
		}

		var body struct {
			Status   string  `json:"status"`
			DateDone *string `json:"dateDone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.Status == "" {
			http.Error(w, "status is required", http.StatusBadRequest)
			return
		}

		gs, err := store.UpdateStatus(r.Context(), userID, createdAt, body.Status, body.DateDone)
		if err != nil {
			writeStoreErr(w, err)
			return
		}

		// analytics: goal_status_updated
		{
			env := analytics.FromRequest(r)
			env.UserID = userID
			_ = analytics.Log(r.Context(), dbx, env, "goal_status_updated", map[string]any{
				"status": body.Status,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "goal status updated",
			"goals":   gs,
		})
	}
}

func UpdateDeadlineHandler(store *Store, dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("user_id")
		createdAt := r.PathValue("createdAt")
		if !auth.RequireUser(w, r, userID) {
			return
		}

		var body struct {
			EndDateTask string `json:"endDateTask"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		gs, err := store.UpdateDeadline(r.Context(), userID, createdAt, body.EndDateTask)
		if err != nil {
			writeStoreErr(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "goal deadline updated",
			"goals":   gs,
		})
	}
}

func DeleteGoalHandler(store *Store, dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("user_id")
		createdAt := r.PathValue("createdAt")
		if !auth.RequireUser(w, r, userID) {
			return
		}

		gs, err := store.Delete(r.Context(), userID, createdAt)
		if err != nil {
			writeStoreErr(w, err)
			return
		}

		// analytics: goal_deleted
		{
			env := analytics.FromRequest(r)
			env.UserID = userID
			_ = analytics.Log(r.Context(), dbx, env, "goal_deleted", nil)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "goal deleted",
			"goals":   gs,
		})
	}
}

// SendGoalEmailHandler mails a reminder for one goal and stamps emailSentAt
// on it. The stamp is written only after the relay accepted the message, so
// a delivery failure never touches the collection.
func SendGoalEmailHandler(store *Store, mailer email.Mailer, dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID    string `json:"user_id"`
			CreatedAt string `json:"createdAt"`
			To        string `json:"to"`
			Subject   string `json:"subject"`
			Text      string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.UserID == "" || body.CreatedAt == "" || body.To == "" {
			http.Error(w, "user_id, createdAt and to are required", http.StatusBadRequest)
			return
		}
		if !auth.RequireUser(w, r, body.UserID) {
			return
		}

		if _, err := store.Get(r.Context(), body.UserID, body.CreatedAt); err != nil {
			writeStoreErr(w, err)
			return
		}

		messageID, err := mailer.Send(body.To, body.Subject, body.Text)
		if err != nil {
			log.Printf("send email: %v", err)
			http.Error(w, "failed to send email", http.StatusInternalServerError)
			return
		}

		gs, matched, err := store.MarkEmailSent(r.Context(), body.UserID, body.CreatedAt, time.Now())
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		if !matched {
			// goal vanished between the send and the stamp
			http.Error(w, "goals not found for this user", http.StatusNotFound)
			return
		}

		// analytics: goal_email_sent
		{
			env := analytics.FromRequest(r)
			env.UserID = body.UserID
			_ = analytics.Log(r.Context(), dbx, env, "goal_email_sent", map[string]any{
				"message_id": messageID,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":    "email sent",
			"message_id": messageID,
			"goals":      gs,
		})
	}
}
