package domain

import (
	"errors"
	"time"
)

var ErrInsufficientBalance = errors.New("insufficient token balance")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")

// TokenAccount holds a user's prepaid roast credits. Accounts are created
// lazily on first credit; the balance never goes negative.
type TokenAccount struct {
	Owner     string    `json:"owner" bson:"owner"`
	Balance   int       `json:"balance" bson:"balance"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// User models a registered account. Guests (no user) may only start
// payment-funded jobs.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
