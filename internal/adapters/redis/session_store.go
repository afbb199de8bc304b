// Package redis provides Redis-backed stores for sessions, notices and upload progress.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/recon-console/internal/cryptoutil"
	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/ports"
)

const scanBatch = 100

// SessionStore is a Redis-based session store. Keys expire with the session.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	tokens cryptoutil.Sealer
	now    func() time.Time
}

// NewSessionStore creates a session store using the "session:" prefix.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, "session:")
}

// NewSessionStoreWithPrefix creates a session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

// WithTokenSealer encrypts each session's access token at rest, bound to the
// session id. Without one the token is stored as given.
func (s *SessionStore) WithTokenSealer(sealer cryptoutil.Sealer) *SessionStore {
	s.tokens = sealer
	return s
}

func (s *SessionStore) encode(sess domainauth.Session) ([]byte, error) {
	if s.tokens != nil {
		sealed, err := s.tokens.Seal(sess.AccessToken, sess.ID)
		if err != nil {
			return nil, fmt.Errorf("seal access token: %w", err)
		}
		sess.AccessToken = sealed
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return data, nil
}

func (s *SessionStore) decode(data []byte) (domainauth.Session, error) {
	var sess domainauth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	if s.tokens != nil {
		tok, err := s.tokens.Open(sess.AccessToken, sess.ID)
		if err != nil {
			return domainauth.Session{}, fmt.Errorf("open access token: %w", err)
		}
		sess.AccessToken = tok
	}
	return sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := s.encode(sess)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ErrNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get session: %w", err)
	}

	sess, err := s.decode(data)
	if err != nil {
		// A session that cannot be read back is treated as gone.
		if delErr := s.Delete(ctx, id); delErr != nil {
			return domainauth.Session{}, errors.Join(err, delErr)
		}
		return domainauth.Session{}, ErrNotFound
	}

	// Key TTL and ExpiresAt can drift by clock skew between writers.
	if s.now().After(sess.ExpiresAt) {
		if err := s.Delete(ctx, id); err != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", err)
		}
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// List returns every live session under the prefix. Keys that vanish or fail to
// decode between SCAN and GET are skipped.
func (s *SessionStore) List(ctx context.Context) ([]domainauth.Session, error) {
	keys, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domainauth.Session, 0, len(keys))
	for batch := range slices.Chunk(keys, scanBatch) {
		// Pipelined GETs rather than MGET so cluster mode never sees a cross-slot command.
		cmds, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, k := range batch {
				pipe.Get(ctx, k)
			}
			return nil
		})
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("redis get sessions: %w", err)
		}
		for _, cmd := range cmds {
			raw, err := cmd.(*redis.StringCmd).Bytes()
			if err != nil {
				continue
			}
			sess, err := s.decode(raw)
			if err != nil || s.now().After(sess.ExpiresAt) {
				continue
			}
			out = append(out, sess)
		}
	}
	return out, nil
}

// DeleteAll removes every session under the prefix and reports how many keys were removed.
func (s *SessionStore) DeleteAll(ctx context.Context) (int, error) {
	keys, err := s.scan(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for batch := range slices.Chunk(keys, scanBatch) {
		cmds, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, k := range batch {
				pipe.Del(ctx, k)
			}
			return nil
		})
		if err != nil {
			return removed, fmt.Errorf("redis delete sessions: %w", err)
		}
		for _, cmd := range cmds {
			removed += int(cmd.(*redis.IntCmd).Val())
		}
	}
	return removed, nil
}

func (s *SessionStore) scan(ctx context.Context) ([]string, error) {
	var (
		mu   sync.Mutex
		keys []string
	)
	scanNode := func(ctx context.Context, c redis.UniversalClient) error {
		iter := c.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()
		for iter.Next(ctx) {
			mu.Lock()
			keys = append(keys, iter.Val())
			mu.Unlock()
		}
		return iter.Err()
	}

	var err error
	if cc, ok := s.client.(*redis.ClusterClient); ok {
		err = cc.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			return scanNode(ctx, node)
		})
	} else {
		err = scanNode(ctx, s.client)
	}
	if err != nil {
		return nil, fmt.Errorf("redis scan sessions: %w", err)
	}
	// SCAN may return a key more than once.
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = ports.ErrNotFound
