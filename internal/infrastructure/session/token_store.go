// Package session persists admin console bearer tokens across restarts
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// TokenKey is the fixed key prefix under which console tokens are stored
const TokenKey = "finsite_admin_token"

// ErrTokenNotFound is returned when no token is stored for a session
var ErrTokenNotFound = errors.New("session: token not found")

// ErrTokenExpired is returned when a stored token's exp claim is in the past
var ErrTokenExpired = errors.New("session: token expired")

// TokenStore keeps one bearer token per console session
type TokenStore interface {
	// Save stores token for sessionID. A zero ttl keeps it until deleted.
	Save(ctx context.Context, sessionID, token string, ttl time.Duration) error

	// Load returns the stored token or ErrTokenNotFound
	Load(ctx context.Context, sessionID string) (string, error)

	// Delete removes the token. Deleting a missing token is not an error.
	Delete(ctx context.Context, sessionID string) error

	Close() error
}

func tokenKey(sessionID string) string {
	return TokenKey + ":" + sessionID
}

// TokenExpiry reads the exp claim without verifying the signature; the
// Persistence Service is the authority on validity. ok is false when the
// token carries no exp.
func TokenExpiry(token string) (exp time.Time, ok bool, err error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false, fmt.Errorf("session: parse token: %w", err)
	}
	nd, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("session: read exp: %w", err)
	}
	if nd == nil {
		return time.Time{}, false, nil
	}
	return nd.Time, true, nil
}

// TokenIssuer returns the unverified iss claim, or "" when token is not a
// JWT or carries none
func TokenIssuer(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	iss, _ := claims.GetIssuer()
	return iss
}

// CheckToken returns ErrTokenExpired if token has an exp before now.
// Opaque tokens and JWTs without a readable exp pass; the Persistence
// Service rejects them once they are no longer valid.
func CheckToken(token string, now time.Time) error {
	exp, ok, err := TokenExpiry(token)
	if err != nil || !ok {
		return nil
	}
	if !exp.After(now) {
		return ErrTokenExpired
	}
	return nil
}

// RedisTokenStore implements TokenStore using Redis
type RedisTokenStore struct {
	client *redis.Client
}

// RedisConfig holds configuration for the Redis token store
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisTokenStore connects to Redis and verifies the connection
func NewRedisTokenStore(cfg RedisConfig) (*RedisTokenStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for token store: %w", err)
	}
	return &RedisTokenStore{client: client}, nil
}

// NewRedisTokenStoreWithClient wraps an existing client
func NewRedisTokenStoreWithClient(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Save(ctx context.Context, sessionID, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, tokenKey(sessionID), token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Load(ctx context.Context, sessionID string) (string, error) {
	token, err := s.client.Get(ctx, tokenKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session token: %w", err)
	}
	return token, nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, tokenKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection
func (s *RedisTokenStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ TokenStore = (*RedisTokenStore)(nil)

type memoryEntry struct {
	token     string
	expiresAt time.Time // zero means no expiry
}

// InMemoryTokenStore keeps tokens in process memory.
// WARNING: tokens are lost on restart and not shared between instances.
type InMemoryTokenStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewInMemoryTokenStore creates an empty in-memory store
func NewInMemoryTokenStore() *InMemoryTokenStore {
	return &InMemoryTokenStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *InMemoryTokenStore) Save(_ context.Context, sessionID, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{token: token}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[tokenKey(sessionID)] = e
	return nil
}

func (s *InMemoryTokenStore) Load(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tokenKey(sessionID)
	e, ok := s.entries[key]
	if !ok {
		return "", ErrTokenNotFound
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return "", ErrTokenNotFound
	}
	return e.token, nil
}

func (s *InMemoryTokenStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, tokenKey(sessionID))
	return nil
}

func (s *InMemoryTokenStore) Close() error {
	return nil
}

var _ TokenStore = (*InMemoryTokenStore)(nil)
