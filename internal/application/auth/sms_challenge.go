package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/FichesVente-api/internal/domain"
)

// challenge desafío SMS pendiente de un usuario.
type challenge struct {
	userID    string
	code      string
	expiresAt time.Time
	attempts  int
	blocked   bool
}

// challengeStore desafíos efímeros en memoria del proceso.
type challengeStore struct {
	mu          sync.Mutex
	byID        map[string]*challenge
	ttl         time.Duration
	maxAttempts int
}

func newChallengeStore(ttl time.Duration, maxAttempts int) *challengeStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &challengeStore{byID: make(map[string]*challenge), ttl: ttl, maxAttempts: maxAttempts}
}

// generateCode 6 dígitos con crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("sms: generar código: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *challengeStore) open(userID string, now time.Time) (id, code string, err error) {
	code, err = generateCode()
	if err != nil {
		return "", "", err
	}
	id = uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge(now)
	s.byID[id] = &challenge{userID: userID, code: code, expiresAt: now.Add(s.ttl)}
	return id, code, nil
}

// renew nuevo código, intentos y temporizador a cero.
func (s *challengeStore) renew(id string, now time.Time) (userID, code string, err error) {
	code, err = generateCode()
	if err != nil {
		return "", "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return "", "", domain.ErrNotFound
	}
	c.code = code
	c.attempts = 0
	c.blocked = false
	c.expiresAt = now.Add(s.ttl)
	return c.userID, code, nil
}

// verify consume el desafío si el código coincide.
func (s *challengeStore) verify(id, code string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	if c.blocked {
		return "", domain.ErrTooManyAttempts
	}
	if now.After(c.expiresAt) {
		return "", domain.ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(c.code), []byte(code)) != 1 {
		c.attempts++
		if c.attempts >= s.maxAttempts {
			c.blocked = true
			return "", domain.ErrTooManyAttempts
		}
		return "", domain.ErrCodeInvalid
	}
	delete(s.byID, id)
	return c.userID, nil
}

// purge elimina desafíos vencidos hace más de un TTL.
func (s *challengeStore) purge(now time.Time) {
	for id, c := range s.byID {
		if now.After(c.expiresAt.Add(s.ttl)) {
			delete(s.byID, id)
		}
	}
}
