package session

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const tokenSeparator = "."

// NewToken builds "<role>.<uuid>". The role part is matched by equality on parse.
func NewToken(role Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidSession, role)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return string(role) + tokenSeparator + id.String(), nil
}

// ParseToken extracts the role without touching the store.
func ParseToken(token string) (Role, error) {
	prefix, rest, ok := strings.Cut(token, tokenSeparator)
	if !ok {
		return "", ErrInvalidSession
	}
	role := Role(prefix)
	if !role.Valid() {
		return "", ErrInvalidSession
	}
	if _, err := uuid.Parse(rest); err != nil {
		return "", ErrInvalidSession
	}
	return role, nil
}
