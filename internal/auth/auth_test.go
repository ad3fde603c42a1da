package auth

import (
	"AapdaMitra/pkg/errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	s := NewService()
	s.cost = bcrypt.MinCost
	return s
}

func TestSignUp(t *testing.T) {
	s := newTestService()

	u, err := s.SignUp("Asha", "asha@example.com", "secret")
	require.NoError(t, err)
	assert.EqualValues(t, 1, u.ID)

	_, err = s.SignUp("Asha again", "ASHA@example.com ", "other")
	assert.Equal(t, errors.CodeConflict, errors.GetCode(err))

	_, err = s.SignUp("", "x@example.com", "p")
	assert.True(t, errors.IsValidation(err))

	u2, err := s.SignUp("Ravi", "ravi@example.com", "pw")
	require.NoError(t, err)
	assert.EqualValues(t, 2, u2.ID)
}

func TestSignIn(t *testing.T) {
	s := newTestService()
	_, err := s.SignUp("Asha", "asha@example.com", "secret")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		code     int
	}{
		{"missing password", "asha@example.com", "", errors.CodeValidation},
		{"unknown email", "nobody@example.com", "secret", errors.CodeUnauthorized},
		{"wrong password", "asha@example.com", "nope", errors.CodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SignIn(tt.email, tt.password)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}

	u, err := s.SignIn("asha@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Asha", u.Name)
}

func TestLongPassword(t *testing.T) {
	s := newTestService()
	long := strings.Repeat("p", 80)

	_, err := s.SignUp("Asha", "a@x.in", long)
	require.NoError(t, err)

	u, err := s.SignIn("a@x.in", long)
	require.NoError(t, err)
	assert.Equal(t, "Asha", u.Name)

	// same first 72 bytes, different tail
	_, err = s.SignIn("a@x.in", strings.Repeat("p", 72)+"q")
	assert.Equal(t, errors.CodeUnauthorized, errors.GetCode(err))

	_, err = s.SignUp("Asha again", "a@x.in", strings.Repeat("q", 100))
	assert.Equal(t, errors.CodeConflict, errors.GetCode(err))
}
