package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"liferhythm-backend/internal/users"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validEmail(email string) bool {
	return emailRe.MatchString(email)
}

func RegisterHandler(store users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Email    string `json:"email"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Username == "" || body.Password == "" {
			http.Error(w, "username & password required", http.StatusBadRequest)
			return
		}
		if body.Email != "" && !validEmail(body.Email) {
			http.Error(w, "invalid email", http.StatusBadRequest)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		u := users.User{
			UserID:   uuid.NewString(),
			Username: body.Username,
			Password: string(hash),
			Email:    body.Email,
		}
		if err := store.Create(r.Context(), u); err != nil {
			if errors.Is(err, users.ErrDuplicate) {
				http.Error(w, "username already exists", http.StatusBadRequest)
				return
			}
			log.Printf("register: %v", err)
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "user created",
			"user_id": u.UserID,
		})
	}
}

func LoginHandler(store users.Store, secret []byte, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Username == "" || body.Password == "" {
			http.Error(w, "username & password required", http.StatusBadRequest)
			return
		}

		u, err := store.GetByUsername(r.Context(), body.Username)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				http.Error(w, "invalid login or password", http.StatusUnauthorized)
				return
			}
			log.Printf("login: %v", err)
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(body.Password)) != nil {
			http.Error(w, "invalid login or password", http.StatusUnauthorized)
			return
		}

		token, err := GenerateToken(secret, u.UserID, u.Username, ttl)
		if err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": token,
		})
	}
}

// VerifyHandler reports whether the bearer token is still good and echoes
// the identity it carries. Runs behind Wrap, so by the time it executes the
// token has already been checked.
func VerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"valid": true,
			"user": map[string]any{
				"user_id":  claims.UserID,
				"username": claims.Username,
			},
		})
	}
}

func UpdateEmailHandler(store users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID string `json:"user_id"`
			Email  string `json:"email"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if body.UserID == "" {
			body.UserID = claims.UserID
		}
		if body.UserID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if body.Email != "" && !validEmail(body.Email) {
			http.Error(w, "invalid email", http.StatusBadRequest)
			return
		}

		if err := store.UpdateEmail(r.Context(), body.UserID, body.Email); err != nil {
			if errors.Is(err, users.ErrNotFound) {
				http.Error(w, "user not found", http.StatusNotFound)
				return
			}
			log.Printf("update email: %v", err)
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "email updated",
		})
	}
}
