package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/internmatch-client/internal/application/service"
	"github.com/khoahotran/internmatch-client/internal/domain/session"
)

// Redis keeps the two tokens under fixed keys, mirroring the two entries a
// browser front end keeps in local storage.
const (
	accessTokenKey  = "accessToken"
	refreshTokenKey = "refreshToken"
)

type redisTokenStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisTokenStore(rdb *redis.Client, prefix string) service.TokenStore {
	return &redisTokenStore{rdb: rdb, prefix: prefix}
}

func (s *redisTokenStore) key(name string) string {
	return s.prefix + name
}

func (s *redisTokenStore) Save(ctx context.Context, tokens session.Tokens) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(accessTokenKey), tokens.AccessToken, 0)
		pipe.Set(ctx, s.key(refreshTokenKey), tokens.RefreshToken, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save tokens to redis: %w", err)
	}
	return nil
}

func (s *redisTokenStore) Load(ctx context.Context) (session.Tokens, error) {
	vals, err := s.rdb.MGet(ctx, s.key(accessTokenKey), s.key(refreshTokenKey)).Result()
	if err != nil {
		return session.Tokens{}, fmt.Errorf("load tokens from redis: %w", err)
	}
	var t session.Tokens
	if v, ok := vals[0].(string); ok {
		t.AccessToken = v
	}
	if v, ok := vals[1].(string); ok {
		t.RefreshToken = v
	}
	return t, nil
}

func (s *redisTokenStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key(accessTokenKey), s.key(refreshTokenKey)).Err(); err != nil {
		return fmt.Errorf("clear tokens in redis: %w", err)
	}
	return nil
}

type fileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore keeps the token pair in a JSON file readable only by the
// current user.
func NewFileTokenStore(path string) service.TokenStore {
	return &fileTokenStore{path: path}
}

func (s *fileTokenStore) Save(_ context.Context, tokens session.Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (s *fileTokenStore) Load(_ context.Context) (session.Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return session.Tokens{}, nil
	}
	if err != nil {
		return session.Tokens{}, fmt.Errorf("read tokens: %w", err)
	}
	var t session.Tokens
	if err := json.Unmarshal(raw, &t); err != nil {
		return session.Tokens{}, fmt.Errorf("decode tokens: %w", err)
	}
	return t, nil
}

func (s *fileTokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
