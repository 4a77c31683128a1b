package auth

import (
	"crypto/subtle"
	"errors"
)

// ErrInvalidCredentials is returned for unknown users or wrong passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

// BasicCredentials verifies a single user against a stored password hash.
type BasicCredentials struct {
	user   string
	hash   string
	hasher PasswordHasher
}

// NewBasicCredentials returns nil when no hash is configured.
func NewBasicCredentials(user, hash string, hasher PasswordHasher) *BasicCredentials {
	if hash == "" {
		return nil
	}
	return &BasicCredentials{user: user, hash: hash, hasher: hasher}
}

// Check validates the supplied user and password.
func (c *BasicCredentials) Check(user, password string) error {
	if c == nil {
		return ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.user)) == 1
	if err := c.hasher.Compare(c.hash, password); err != nil || !userOK {
		return ErrInvalidCredentials
	}
	return nil
}
