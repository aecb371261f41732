package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/fakhrymubarak/weather-odds-web/internal/config"
	"github.com/fakhrymubarak/weather-odds-web/internal/model"
	"github.com/fakhrymubarak/weather-odds-web/internal/redis"
)

var ErrNoResult = errors.New("no odds result for session")

const (
	generationKey = "generation"
	lastResultKey = "last_result"
)

// commitScript stores ARGV[2] under KEYS[2] only while KEYS[1] still holds generation ARGV[1].
var commitScript = redisv9.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

// SessionRepository is the per-session key-value store: the server-side stand-in for
// browser local storage, plus the last committed odds result.
type SessionRepository interface {
	GetItem(ctx context.Context, sid, key string) (string, bool, error)
	SetItem(ctx context.Context, sid, key, value string) error
	NextGeneration(ctx context.Context, sid string) (int64, error)
	CommitResult(ctx context.Context, sid string, gen int64, result model.StoredResult) (bool, error)
	LastResult(ctx context.Context, sid string) (*model.StoredResult, error)
	Ping(ctx context.Context) error
}

type sessionRepository struct {
	redisClient *redisv9.Client
	ttl         time.Duration
}

// NewSessionRepository creates a Redis-backed session store, using the shared client by default
func NewSessionRepository(client ...*redisv9.Client) SessionRepository {
	c := redis.GetClient()
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	}
	return &sessionRepository{
		redisClient: c,
		ttl:         config.GetSessionTTL(),
	}
}

func sessionKey(sid, name string) string {
	return "session:" + sid + ":" + name
}

// GetItem returns the stored value and whether the key exists.
func (r *sessionRepository) GetItem(ctx context.Context, sid, key string) (string, bool, error) {
	val, err := r.redisClient.Get(ctx, sessionKey(sid, "item:"+key)).Result()
	if errors.Is(err, redisv9.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *sessionRepository) SetItem(ctx context.Context, sid, key, value string) error {
	if err := r.redisClient.Set(ctx, sessionKey(sid, "item:"+key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// NextGeneration starts a new submission for the session and returns its number.
func (r *sessionRepository) NextGeneration(ctx context.Context, sid string) (int64, error) {
	key := sessionKey(sid, generationKey)
	var incr *redisv9.IntCmd
	_, err := r.redisClient.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("next generation: %w", err)
	}
	return incr.Val(), nil
}

// CommitResult stores result as the session's last result if gen is still current.
// It reports false when a newer submission has started since gen was taken.
func (r *sessionRepository) CommitResult(ctx context.Context, sid string, gen int64, result model.StoredResult) (bool, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return false, fmt.Errorf("encode result: %w", err)
	}
	keys := []string{sessionKey(sid, generationKey), sessionKey(sid, lastResultKey)}
	n, err := commitScript.Run(ctx, r.redisClient, keys,
		strconv.FormatInt(gen, 10), string(b), r.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("commit result: %w", err)
	}
	return n == 1, nil
}

func (r *sessionRepository) LastResult(ctx context.Context, sid string) (*model.StoredResult, error) {
	val, err := r.redisClient.Get(ctx, sessionKey(sid, lastResultKey)).Result()
	if errors.Is(err, redisv9.Nil) {
		return nil, ErrNoResult
	}
	if err != nil {
		return nil, fmt.Errorf("get last result: %w", err)
	}
	var result model.StoredResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, fmt.Errorf("decode last result: %w", err)
	}
	return &result, nil
}

func (r *sessionRepository) Ping(ctx context.Context) error {
	return r.redisClient.Ping(ctx).Err()
}

// SessionStorage is the local-storage view of a single session.
type SessionStorage struct {
	repo SessionRepository
	sid  string
}

func NewSessionStorage(repo SessionRepository, sid string) *SessionStorage {
	return &SessionStorage{repo: repo, sid: sid}
}

func (s *SessionStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	return s.repo.GetItem(ctx, s.sid, key)
}

func (s *SessionStorage) SetItem(ctx context.Context, key, value string) error {
	return s.repo.SetItem(ctx, s.sid, key, value)
}
