package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBasicCredentialsCheck(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("s3cret")
	require.NoError(t, err)

	creds := NewBasicCredentials("auditor", hash, hasher)
	require.NotNil(t, creds)

	assert.NoError(t, creds.Check("auditor", "s3cret"))
	assert.ErrorIs(t, creds.Check("auditor", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, creds.Check("someone", "s3cret"), ErrInvalidCredentials)
}

func TestBasicCredentialsDisabled(t *testing.T) {
	creds := NewBasicCredentials("auditor", "", NewBcryptHasher(0))
	assert.Nil(t, creds)
	assert.ErrorIs(t, creds.Check("auditor", "anything"), ErrInvalidCredentials)
}
