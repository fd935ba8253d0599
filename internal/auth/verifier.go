package auth

import (
	"context"
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Verifier decides whether password is valid for the user stored under email.
type Verifier interface {
	Verify(ctx context.Context, d *Directory, email, password string) bool
}

// SentinelVerifier accepts one fixed password for every directory user.
// It is a demo stand-in and must not guard real accounts.
type SentinelVerifier struct {
	Password string
}

func (v SentinelVerifier) Verify(_ context.Context, d *Directory, email, password string) bool {
	if _, ok := d.FindByEmail(email); !ok || v.Password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(v.Password), []byte(password)) == 1
}

// HashVerifier checks password against the bcrypt hash kept in the directory.
type HashVerifier struct{}

func (HashVerifier) Verify(_ context.Context, d *Directory, email, password string) bool {
	hash, ok := d.passwordHash(email)
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, bcryptInput(password)) == nil
}
