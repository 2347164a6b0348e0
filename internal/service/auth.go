package service

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// AdminAuth checks the static shared admin secret.
type AdminAuth struct {
	tokenSum [sha256.Size]byte
	hash     []byte
}

// NewAdminAuth builds a checker for token. When hash (a bcrypt hash of the
// secret) is set it takes precedence and token is ignored.
func NewAdminAuth(token, hash string) *AdminAuth {
	a := &AdminAuth{}
	if hash != "" {
		a.hash = []byte(hash)
		return a
	}
	a.tokenSum = sha256.Sum256([]byte(token))
	return a
}

// Check returns ErrForbidden unless token matches. Both inputs are hashed
// to a fixed length first so the comparison time does not depend on the
// length of the guess.
func (a *AdminAuth) Check(token string) error {
	if a.hash != nil {
		if bcrypt.CompareHashAndPassword(a.hash, []byte(token)) != nil {
			return ErrForbidden
		}
		return nil
	}
	sum := sha256.Sum256([]byte(token))
	if subtle.ConstantTimeCompare(sum[:], a.tokenSum[:]) != 1 {
		return ErrForbidden
	}
	return nil
}
