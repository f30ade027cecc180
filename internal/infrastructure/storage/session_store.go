package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

const rememberMeValue = "true"

// SessionStore keeps the identity record and its token under fixed keys.
type SessionStore struct {
	kv  ports.KeyValueStore
	log zerolog.Logger
}

var _ ports.SessionStore = (*SessionStore)(nil)

func NewSessionStore(kv ports.KeyValueStore, log zerolog.Logger) *SessionStore {
	return &SessionStore{kv: kv, log: log}
}

// Save writes the identity and token. The remember-me flag is only ever set
// here, never cleared; Clear owns its removal.
func (s *SessionStore) Save(ctx context.Context, identity *domain.Identity, token string, rememberMe bool) error {
	if identity == nil || token == "" {
		return errors.New("session store: identity and token must be saved together")
	}

	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("session store: encode user: %w", err)
	}
	if err := s.kv.Set(ctx, ports.KeyToken, token); err != nil {
		return fmt.Errorf("session store: save token: %w", err)
	}
	if err := s.kv.Set(ctx, ports.KeyUser, string(raw)); err != nil {
		return fmt.Errorf("session store: save user: %w", err)
	}
	if rememberMe {
		if err := s.kv.Set(ctx, ports.KeyRememberMe, rememberMeValue); err != nil {
			return fmt.Errorf("session store: save remember-me: %w", err)
		}
	}
	return nil
}

// Load never fails on undecodable content; it reports it through Corrupt.
func (s *SessionStore) Load(ctx context.Context) (domain.StoredSession, error) {
	var out domain.StoredSession

	rawUser, hasUser, err := s.kv.Get(ctx, ports.KeyUser)
	if err != nil {
		return out, fmt.Errorf("session store: load user: %w", err)
	}
	token, hasToken, err := s.kv.Get(ctx, ports.KeyToken)
	if err != nil {
		return out, fmt.Errorf("session store: load token: %w", err)
	}
	remember, _, err := s.kv.Get(ctx, ports.KeyRememberMe)
	if err != nil {
		return out, fmt.Errorf("session store: load remember-me: %w", err)
	}
	out.RememberMe = remember == rememberMeValue

	if hasToken {
		out.Token = token
	}
	if hasUser && rawUser != "" {
		var identity domain.Identity
		if err := json.Unmarshal([]byte(rawUser), &identity); err != nil {
			s.log.Warn().Err(err).Msg("stored user record is not valid JSON, treating as absent")
			out.Corrupt = true
		} else if rawUser != "null" {
			out.Identity = &identity
		}
	}
	return out, nil
}

func (s *SessionStore) Clear(ctx context.Context, preserveRememberMe bool) error {
	keys := []string{ports.KeyUser, ports.KeyToken}
	if !preserveRememberMe {
		keys = append(keys, ports.KeyRememberMe)
	}
	if err := s.kv.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("session store: clear: %w", err)
	}
	return nil
}
