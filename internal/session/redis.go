package session

import (
	"context"
	"fmt"
	"time"

	"weather_agent_poc/internal/core"
	"weather_agent_poc/pkg"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultSessionTTL keeps demo sessions around for an hour
	DefaultSessionTTL = 60 * time.Minute

	sessionPrefix = "session:"
)

// RedisStore is a Redis-backed Store with the same merge semantics as
// MemoryStore. Sessions are stored as one JSON document per composite key.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis using the configured URL and verifies the
// connection with a ping.
func NewRedisStore(ctx context.Context, cfg pkg.RedisConfig) (*RedisStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis URL is required (set REDIS_URL)")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := DefaultSessionTTL
	if cfg.TTLSeconds > 0 {
		ttl = time.Duration(cfg.TTLSeconds) * time.Second
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) key(compositeKey string) string {
	return sessionPrefix + compositeKey
}

// Create registers a new session. SetNX enforces composite key uniqueness.
func (r *RedisStore) Create(ctx context.Context, appName, userID, sessionID string, initialState map[string]any) (*core.Session, error) {
	if appName == "" || userID == "" || sessionID == "" {
		return nil, fmt.Errorf("app name, user ID and session ID are all required")
	}

	state := make(map[string]any, len(initialState))
	for k, v := range initialState {
		state[k] = v
	}

	now := time.Now().Unix()
	session := &core.Session{
		AppName:   appName,
		UserID:    userID,
		ID:        sessionID,
		State:     state,
		Events:    []*schema.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := sonic.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.key(session.Key()), data, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("session %s: %w", session.Key(), core.ErrSessionExists)
	}

	return session, nil
}

// Get retrieves a session by its composite key.
func (r *RedisStore) Get(ctx context.Context, appName, userID, sessionID string) (*core.Session, error) {
	key := core.SessionKey(appName, userID, sessionID)
	data, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("session %s: %w", key, core.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session core.Session
	if err := sonic.UnmarshalString(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	// Refresh TTL on read
	r.client.Expire(ctx, r.key(key), r.ttl)

	return &session, nil
}

// ApplyStateWrite merges delta into the stored session document.
func (r *RedisStore) ApplyStateWrite(ctx context.Context, session *core.Session, delta map[string]any) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if len(delta) == 0 {
		return nil
	}

	stored, err := r.Get(ctx, session.AppName, session.UserID, session.ID)
	if err != nil {
		return err
	}

	for k, v := range delta {
		stored.State[k] = v
	}
	stored.UpdatedAt = time.Now().Unix()

	if err := r.save(ctx, stored); err != nil {
		return err
	}

	// Keep the caller's view in sync with the committed document.
	session.State = stored.State
	session.UpdatedAt = stored.UpdatedAt

	return nil
}

// AppendEvents appends conversation events to the stored session document.
func (r *RedisStore) AppendEvents(ctx context.Context, session *core.Session, events ...*schema.Message) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if len(events) == 0 {
		return nil
	}

	stored, err := r.Get(ctx, session.AppName, session.UserID, session.ID)
	if err != nil {
		return err
	}

	stored.Events = append(stored.Events, events...)
	stored.UpdatedAt = time.Now().Unix()

	if err := r.save(ctx, stored); err != nil {
		return err
	}

	session.Events = stored.Events
	session.UpdatedAt = stored.UpdatedAt

	return nil
}

func (r *RedisStore) save(ctx context.Context, session *core.Session) error {
	data, err := sonic.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.key(session.Key()), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Ping tests the Redis connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
