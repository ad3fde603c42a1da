package auth

import (
	"AapdaMitra/pkg/errors"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const maxBcryptLen = 72

// User is a signed-up account. Accounts live only as long as the process.
type User struct {
	ID           uint
	Name         string
	Email        string
	passwordHash []byte
}

func errExists() error {
	return errors.WithCode(errors.CodeConflict, "User with this email already exists.")
}

// Service is the mock account backend.
type Service struct {
	mu     sync.Mutex
	users  map[string]*User
	nextID uint
	cost   int
}

func NewService() *Service {
	return &Service{users: map[string]*User{}, nextID: 1, cost: bcrypt.DefaultCost}
}

// SignUp registers a new account. Emails are unique.
func (s *Service) SignUp(name, email, password string) (*User, error) {
	if name == "" || email == "" || password == "" {
		return nil, errors.Validation("Please provide name, email, and password.")
	}
	key := normalize(email)
	if s.exists(key) {
		return nil, errExists()
	}
	hash, err := bcrypt.GenerateFromPassword(secret(password), s.cost)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "Please choose a different password.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// another signup may have taken the email while hashing
	if _, ok := s.users[key]; ok {
		return nil, errExists()
	}
	u := &User{ID: s.nextID, Name: name, Email: email, passwordHash: hash}
	s.nextID++
	s.users[key] = u
	return u, nil
}

// SignIn checks the credentials of an existing account.
func (s *Service) SignIn(email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, errors.Validation("Please provide email and password.")
	}
	s.mu.Lock()
	u, ok := s.users[normalize(email)]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, secret(password)) != nil {
		return nil, errors.WithCode(errors.CodeUnauthorized, "Invalid email or password.")
	}
	return u, nil
}

func (s *Service) exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[key]
	return ok
}

// secret is what bcrypt sees. bcrypt rejects input over 72 bytes, so longer
// passwords are digested first.
func secret(password string) []byte {
	if len(password) <= maxBcryptLen {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
