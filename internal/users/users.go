package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDuplicate = errors.New("username already exists")
	ErrNotFound  = errors.New("user not found")
)

type User struct {
	UserID   string
	Username string
	Password string // bcrypt hash
	Email    string
	DateReg  time.Time
}

// Store is the persistence behind registration and login.
type Store interface {
	Create(ctx context.Context, u User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdateEmail(ctx context.Context, userID, email string) error
}
