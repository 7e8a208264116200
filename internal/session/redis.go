package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const keyPrefix = "pulse:session:"

// Client is the subset of redis.Client used by RedisStore.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps state as JSON under pulse:session:<school id>, so
// several API replicas can share it.
type RedisStore struct {
	rdb Client
	ttl time.Duration
}

// NewRedisStore returns a RedisStore over rdb. A ttl of zero keeps keys
// without expiry.
func NewRedisStore(rdb Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Dial connects to addr and pings it.
func Dial(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, eris.Wrapf(err, "session: ping redis %s", addr)
	}
	return rdb, nil
}

var _ Store = (*RedisStore)(nil)

func (r *RedisStore) Get(ctx context.Context, schoolID string) (*State, error) {
	raw, err := r.rdb.Get(ctx, keyPrefix+schoolID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, eris.Wrapf(err, "session: get %s", schoolID)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, eris.Wrapf(err, "session: decode %s", schoolID)
	}
	return &st, nil
}

func (r *RedisStore) Put(ctx context.Context, st *State) error {
	if st == nil || st.SchoolID == "" {
		return eris.New("session: state needs a school id")
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return eris.Wrapf(err, "session: encode %s", st.SchoolID)
	}
	return eris.Wrapf(r.rdb.Set(ctx, keyPrefix+st.SchoolID, raw, r.ttl).Err(), "session: put %s", st.SchoolID)
}

func (r *RedisStore) Delete(ctx context.Context, schoolID string) error {
	return eris.Wrapf(r.rdb.Del(ctx, keyPrefix+schoolID).Err(), "session: delete %s", schoolID)
}
