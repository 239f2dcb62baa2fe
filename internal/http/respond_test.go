package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/account"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/password"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/session"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{session.ErrInvalidSession, http.StatusUnauthorized},
		{session.ErrSessionNotFound, http.StatusUnauthorized},
		{session.ErrSessionExpired, http.StatusUnauthorized},
		{account.ErrInvalidCredentials, http.StatusUnauthorized},
		{account.ErrVerification, http.StatusForbidden},
		{account.ErrDuplicateAccount, http.StatusConflict},
		{account.ErrAccountNotFound, http.StatusNotFound},
		{account.ErrNoSuchAddress, http.StatusNotFound},
		{account.ErrNoOrders, http.StatusNotFound},
		{account.ErrNoRecords, http.StatusNotFound},
		{fmt.Errorf("load: %w", account.ErrAccountNotFound), http.StatusNotFound},
		{fmt.Errorf("hash password: %w", password.ErrTooLong), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
