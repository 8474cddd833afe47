// Package session keeps the authenticated user's token and profile snapshot
// in the local store, the terminal counterpart of browser local storage.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sadopc/techflow/internal/logging"
	"github.com/sadopc/techflow/internal/model"
	"github.com/sadopc/techflow/internal/store"
)

// Session satisfies api.TokenStore.
type Session struct {
	store *store.Store
	now   func() time.Time
}

func New(s *store.Store) *Session {
	return &Session{store: s, now: time.Now}
}

// Token returns the stored bearer token, or "" when there is none or it has
// expired. An expired token is removed so the next launch starts at login.
func (s *Session) Token() string {
	tok, ok, err := s.store.GetItem(store.KeyToken)
	if err != nil {
		logging.WithComponent("session").WithError(err).Warn("read token")
		return ""
	}
	if !ok {
		return ""
	}
	if exp, ok := Expiry(tok); ok && !exp.After(s.now()) {
		logging.WithComponent("session").WithField("expired_at", exp).Info("stored token expired")
		if err := s.Clear(); err != nil {
			logging.WithComponent("session").WithError(err).Warn("clear expired session")
		}
		return ""
	}
	return tok
}

func (s *Session) Save(token string, user model.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.store.SetItems(map[string]string{
		store.KeyToken: token,
		store.KeyUser:  string(raw),
	})
}

func (s *Session) Clear() error {
	return s.store.RemoveItems(store.KeyToken, store.KeyUser)
}

// User returns the cached user snapshot written at login.
func (s *Session) User() (model.User, bool) {
	raw, ok, err := s.store.GetItem(store.KeyUser)
	if err != nil || !ok {
		return model.User{}, false
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		// Unreadable snapshot: drop it so whoami --refresh can rewrite it.
		logging.WithComponent("session").WithError(err).Warn("discard cached user")
		if err := s.store.RemoveItem(store.KeyUser); err != nil {
			logging.WithComponent("session").WithError(err).Warn("remove cached user")
		}
		return model.User{}, false
	}
	return u, true
}

// SetUser replaces the snapshot, e.g. after a profile refresh.
func (s *Session) SetUser(u model.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.store.SetItem(store.KeyUser, string(raw))
}

// ExpiresAt reports the stored token's exp claim, when it has one.
func (s *Session) ExpiresAt() (time.Time, bool) {
	tok := s.Token()
	if tok == "" {
		return time.Time{}, false
	}
	return Expiry(tok)
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Expiry reads the exp claim without verifying the signature; the client
// has no key and only uses it to skip requests that would surely fail.
// Opaque (non-JWT) tokens report ok=false and are trusted as-is.
func Expiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenMalformed) {
			logging.WithComponent("session").WithError(err).Debug("parse token")
		}
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
