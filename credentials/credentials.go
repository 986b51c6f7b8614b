// Package credentials persists each tenant's session credentials in a storage backend.
//
// The store never fails its callers: a missing backend turns every operation into a no-op,
// and backend errors are logged and reported as absent values.
package credentials

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/recharge-dashboard/internal/logging"
	"github.com/jrsteele09/recharge-dashboard/internal/utils"
	"github.com/jrsteele09/recharge-dashboard/storage"
	"github.com/jrsteele09/recharge-dashboard/tenants"
	"github.com/rs/zerolog"
)

// Profile is cached display data for the signed-in principal. It is advisory only.
type Profile map[string]any

// Name returns the profile's display name, if any.
func (p Profile) Name() string {
	if p == nil {
		return ""
	}
	name, _ := p["name"].(string)
	return name
}

// Credentials is one tenant's persisted session. Nil fields are absent.
type Credentials struct {
	Token       *string
	PrincipalID *int64
	Profile     Profile
}

// Authenticated is true iff both the token and the principal id are present.
func (c Credentials) Authenticated() bool {
	return c.Token != nil && *c.Token != "" && c.PrincipalID != nil
}

// LoginKey returns the token or "".
func (c Credentials) LoginKey() string {
	return utils.Value(c.Token)
}

// UserID returns the principal id or 0.
func (c Credentials) UserID() int64 {
	return utils.Value(c.PrincipalID)
}

// Store reads and writes tenant credentials.
type Store struct {
	backend storage.Storage
	logger  zerolog.Logger
}

// NewStore wraps backend. A nil backend yields a store where every read is absent and every
// write is dropped.
func NewStore(backend storage.Storage, logger zerolog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logging.Component(logger, "credentials"),
	}
}

// Available reports whether a storage backend is attached.
func (s *Store) Available() bool {
	return s != nil && s.backend != nil
}

// Set persists a session for t. A nil profile removes any cached profile. The id and profile
// are written before the token, and any failure clears the tenant, so storage never pairs a new
// token with a previous session's id. Set reports whether the session was persisted.
func (s *Store) Set(t tenants.Tenant, token string, principalID int64, profile Profile) bool {
	if !s.Available() {
		return false
	}
	ok := s.guard(t, "set", func() error {
		if err := s.backend.SetItem(t.UserIDKey(), utils.FormatID(principalID)); err != nil {
			return err
		}
		if profile == nil {
			if err := s.backend.RemoveItem(t.ProfileKey()); err != nil {
				return err
			}
		} else {
			b, err := json.Marshal(profile)
			if err != nil {
				return fmt.Errorf("encode profile: %w", err)
			}
			if err := s.backend.SetItem(t.ProfileKey(), string(b)); err != nil {
				return err
			}
		}
		return s.backend.SetItem(t.TokenKey(), token)
	})
	if !ok {
		s.Clear(t)
	}
	return ok
}

// Get returns whatever is stored for t. Unreadable fields are absent.
func (s *Store) Get(t tenants.Tenant) Credentials {
	var creds Credentials
	if !s.Available() {
		return creds
	}

	if token, ok := s.read(t, t.TokenKey()); ok {
		creds.Token = utils.NonEmpty(token)
	}
	if raw, ok := s.read(t, t.UserIDKey()); ok {
		if id, valid := utils.ParseID(raw); valid {
			creds.PrincipalID = utils.Ptr(id)
		} else {
			s.logger.Warn().Str("tenant", t.String()).Str("key", t.UserIDKey()).Msg("ignoring non-numeric stored user id")
		}
	}
	if raw, ok := s.read(t, t.ProfileKey()); ok && raw != "" {
		var profile Profile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			s.logger.Warn().Err(err).Str("tenant", t.String()).Msg("ignoring corrupt stored profile")
		} else {
			creds.Profile = profile
		}
	}
	return creds
}

// Clear removes every key of t's session. Clearing an empty session is a no-op.
func (s *Store) Clear(t tenants.Tenant) {
	if !s.Available() {
		return
	}
	for _, key := range t.Keys() {
		s.guard(t, "clear", func() error {
			return s.backend.RemoveItem(key)
		})
	}
}

// IsAuthenticated reports whether t has both a stored token and a stored id.
func (s *Store) IsAuthenticated(t tenants.Tenant) bool {
	return s.Get(t).Authenticated()
}

func (s *Store) read(t tenants.Tenant, key string) (value string, ok bool) {
	s.guard(t, "get", func() error {
		v, found, err := s.backend.GetItem(key)
		if err != nil {
			return err
		}
		value, ok = v, found
		return nil
	})
	return value, ok
}

// guard runs op, logging any error or panic from the backend instead of propagating it. It
// reports whether op succeeded.
func (s *Store) guard(t tenants.Tenant, op string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("tenant", t.String()).Str("op", op).Interface("panic", r).Msg("storage backend panicked")
			ok = false
		}
	}()
	if err := fn(); err != nil {
		s.logger.Error().Err(err).Str("tenant", t.String()).Str("op", op).Msg("storage backend failed")
		return false
	}
	return true
}
