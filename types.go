package reelauth

import (
	"context"
	"time"
)

// Roles understood by the engine and middleware.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is the engine's view of an account row.
type User struct {
	ID           int64
	Email        string
	Role         string
	PasswordHash string
}

// Principal is the verified identity attached to a validated request.
type Principal struct {
	UserID int64
	Email  string
	Role   string
}

// TokenPair is one issued access/refresh pair.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// UserDirectory is the application's account storage. Lookups return
// (nil, nil) when no such user exists; errors are reserved for backend
// failures.
type UserDirectory interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	DeleteByID(ctx context.Context, id int64) error
}
