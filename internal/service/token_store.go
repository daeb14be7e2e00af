package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenStore 一次性令牌存储（密码重置）
type TokenStore interface {
	Save(ctx context.Context, token string, userID uint, ttl time.Duration) error
	// Consume 取出并删除令牌，不存在或过期返回 ok=false
	Consume(ctx context.Context, token string) (userID uint, ok bool, err error)
}

const resetTokenPrefix = "satistrain:reset:"

type RedisTokenStore struct {
	Client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{Client: client}
}

func (s *RedisTokenStore) Save(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	return s.Client.Set(ctx, resetTokenPrefix+token, userID, ttl).Err()
}

func (s *RedisTokenStore) Consume(ctx context.Context, token string) (uint, bool, error) {
	id, err := s.Client.GetDel(ctx, resetTokenPrefix+token).Uint64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint(id), true, nil
}

type memoryToken struct {
	userID  uint
	expires time.Time
}

// MemoryTokenStore 未启用 Redis 时使用，只在单实例下有效
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]memoryToken), now: time.Now}
}

func (s *MemoryTokenStore) Save(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, t := range s.tokens {
		if now.After(t.expires) {
			delete(s.tokens, k)
		}
	}
	s.tokens[token] = memoryToken{userID: userID, expires: now.Add(ttl)}
	return nil
}

func (s *MemoryTokenStore) Consume(ctx context.Context, token string) (uint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return 0, false, nil
	}
	delete(s.tokens, token)
	if s.now().After(t.expires) {
		return 0, false, nil
	}
	return t.userID, true, nil
}
