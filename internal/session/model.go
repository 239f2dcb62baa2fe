package session

import (
	"errors"
	"time"
)

var (
	ErrInvalidSession  = errors.New("invalid session token")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleSeller
}

type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"userId"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Confirmation is returned by operations that end a session.
type Confirmation struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}
