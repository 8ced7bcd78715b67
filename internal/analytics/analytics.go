package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
)

// Envelope is what we store with every event.
type Envelope struct {
	UserID     string
	SessionID  string
	Platform   string
	AppVersion string
}

// FromRequest extracts event envelope fields from request.
// Backend-trustable fields only.
func FromRequest(r *http.Request) Envelope {
	platform := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))
	if platform != "ios" && platform != "android" && platform != "web" {
		platform = "unknown"
	}

	return Envelope{
		SessionID:  strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:   platform,
		AppVersion: strings.TrimSpace(r.Header.Get("X-App-Version")),
	}
}

// Log writes one event row. Never fails the request: callers ignore the
// returned error, it exists for tests.
func Log(ctx context.Context, db *sql.DB, env Envelope, event string, props map[string]any) error {
	if db == nil {
		return nil
	}

	raw, err := json.Marshal(props)
	if err != nil {
		raw = []byte("{}")
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO analytics_events (user_id, event, props, session_id, platform, app_version)
		VALUES (NULLIF($1, ''), $2, $3::jsonb, NULLIF($4, ''), $5, NULLIF($6, ''))
	`, env.UserID, event, raw, env.SessionID, env.Platform, env.AppVersion)
	return err
}
