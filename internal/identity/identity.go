// Package identity keeps the locally-known user profile across restarts.
//
// There is no credential verification: any non-empty email and password pair
// is accepted and nothing is hashed or sent anywhere. This is a stub for the
// local client and must be replaced before exposing the service to anyone
// other than the person running it.
package identity

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"meetroom/backend/internal/config"
	"meetroom/backend/internal/models"
	"meetroom/backend/internal/storage"

	"github.com/pkg/errors"
)

// Profile is the submitted login or registration form.
type Profile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Register bool   `json:"register"`
}

// Validate checks that the required fields are present.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Email) == "" {
		return &models.ValidationError{Field: "email"}
	}
	if p.Password == "" {
		return &models.ValidationError{Field: "password"}
	}
	if p.Register && strings.TrimSpace(p.Name) == "" {
		return &models.ValidationError{Field: "name"}
	}
	return nil
}

type Store struct {
	kv  storage.KV
	key string

	mu      sync.RWMutex
	current *models.User
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv, key: config.IdentityKey}
}

// Login validates the profile, synthesizes a User and persists it.
func (s *Store) Login(ctx context.Context, p Profile) (*models.User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	user := models.NewUser(p.Name, p.Email)
	raw, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, s.key, string(raw)); err != nil {
		return nil, errors.Wrap(err, "persist identity")
	}

	s.mu.Lock()
	s.current = user
	s.mu.Unlock()

	slog.Info("user logged in", "user_id", user.ID, "register", p.Register)
	return user, nil
}

// Logout clears the persisted identity.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return errors.Wrap(err, "clear identity")
	}
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return nil
}

// Restore reads the persisted identity. It returns (nil, nil) when nobody is
// logged in. Unreadable records are logged and treated as absent.
func (s *Store) Restore(ctx context.Context) (*models.User, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, errors.Wrap(err, "load identity")
	}
	if !ok {
		s.setCurrent(nil)
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == "" {
		slog.Warn("discarding unreadable identity record", "err", err)
		s.setCurrent(nil)
		return nil, nil
	}
	s.setCurrent(&user)
	return &user, nil
}

// Current returns the identity loaded by the last Login or Restore.
func (s *Store) Current() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

func (s *Store) setCurrent(u *models.User) {
	s.mu.Lock()
	s.current = u
	s.mu.Unlock()
}
