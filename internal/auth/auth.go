// internal/auth/auth.go
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/davencourt/mailliste-backend/internal/apperrors"
	"github.com/davencourt/mailliste-backend/internal/repository"
)

const CookieName = "session"

// sessionTTL bounds how long a login lasts without re-authenticating.
const sessionTTL = 24 * time.Hour

type session struct {
	username string
	expires  time.Time
}

// SessionStore keeps admin sessions in memory. A restart logs everyone
// out, which is acceptable for a single-admin tool.
type SessionStore struct {
	UserRepo repository.UserRepositoryInterface

	mu       sync.Mutex
	sessions map[string]session
}

func NewSessionStore(userRepo repository.UserRepositoryInterface) *SessionStore {
	return &SessionStore{
		UserRepo: userRepo,
		sessions: make(map[string]session),
	}
}

// Login checks the password and mints a session token.
func (s *SessionStore) Login(username, password string) (string, error) {
	u, err := s.UserRepo.GetByUsername(username)
	if err != nil {
		return "", err
	}
	if u == nil {
		// Burn a comparison so unknown users cost the same as bad passwords.
		bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
		return "", apperrors.NewValidation("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", apperrors.NewValidation("invalid credentials")
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	s.sessions[token] = session{username: username, expires: time.Now().Add(sessionTTL)}
	s.mu.Unlock()
	return token, nil
}

func (s *SessionStore) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

func (s *SessionStore) Valid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return false
	}
	if time.Now().After(sess.expires) {
		delete(s.sessions, token)
		return false
	}
	return true
}

// RequireAuth guards the admin API with the session cookie.
func (s *SessionStore) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || !s.Valid(cookie.Value) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HashPassword is used by the seeder when creating the admin user.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}
