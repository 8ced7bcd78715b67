package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, password, email, date_reg)
		VALUES ($1, $2, $3, NULLIF($4, ''), now())
	`, u.UserID, u.Username, u.Password, u.Email)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, username, password, COALESCE(email, ''), date_reg
		FROM users
		WHERE username = $1
	`, username).Scan(&u.UserID, &u.Username, &u.Password, &u.Email, &u.DateReg)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) UpdateEmail(ctx context.Context, userID, email string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET email = NULLIF($2, '') WHERE user_id = $1
	`, userID, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
