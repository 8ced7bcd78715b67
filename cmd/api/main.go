package main

import (
	"context"
	"log"
	"net/http"

	"github.com/rs/cors"

	"liferhythm-backend/internal/auth"
	"liferhythm-backend/internal/config"
	"liferhythm-backend/internal/db"
	"liferhythm-backend/internal/email"
	"liferhythm-backend/internal/goals"
	"liferhythm-backend/internal/users"
)

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.ConnString())
	if err != nil {
		log.Fatal("❌ Failed to connect DB:", err)
	}
	defer database.Close()

	if err := db.Migrate(context.Background(), database); err != nil {
		log.Fatal("❌ Failed to migrate DB:", err)
	}

	log.Println("✅ Connected to PostgreSQL!")

	secret := []byte(cfg.JWTSecret)
	mw := auth.New(secret)

	userStore := users.NewPostgresStore(database)
	goalStore := goals.NewStore(goals.NewPostgresRows(database))
	mailer := email.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)

	mux := http.NewServeMux()

	// Health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// ----- USERS API -----
	mux.HandleFunc("POST /users", auth.RegisterHandler(userStore))
	mux.HandleFunc("POST /users/login", auth.LoginHandler(userStore, secret, cfg.TokenTTL))
	mux.HandleFunc("GET /users/verify", mw.Wrap(auth.VerifyHandler()))
	mux.HandleFunc("PATCH /users/email", mw.Wrap(auth.UpdateEmailHandler(userStore)))

	// ----- GOALS API -----
	mux.HandleFunc("POST /api/goals", mw.Wrap(goals.CreateGoalsHandler(goalStore, database)))
	mux.HandleFunc("GET /api/goals/{user_id}", mw.Wrap(goals.ListGoalsHandler(goalStore)))
	mux.HandleFunc("DELETE /api/goals/{user_id}/{createdAt}", mw.Wrap(goals.DeleteGoalHandler(goalStore, database)))
	mux.HandleFunc("PATCH /api/goals/{user_id}/{createdAt}", mw.Wrap(goals.UpdateStatusHandler(goalStore, database)))
	mux.HandleFunc("PATCH /api/goals/{user_id}/{createdAt}/deadline", mw.Wrap(goals.UpdateDeadlineHandler(goalStore, database)))
	mux.HandleFunc("POST /api/goals/email", mw.Wrap(goals.SendGoalEmailHandler(goalStore, mailer, database)))

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	handler := c.Handler(mux)

	log.Println("🚀 API server is running on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
