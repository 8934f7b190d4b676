package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	// RedisKeyPrefix prefixes the string key holding each collection.
	RedisKeyPrefix = "urlcollector:urls:"
	// RedisCompaniesKey is the set of company keys with a collection.
	RedisCompaniesKey = "urlcollector:companies"
)

// RedisStore keeps each collection as one JSON string. Merges are
// serialized per key within this process only.
type RedisStore struct {
	client redis.Cmdable
	locks  *KeyedMutex
	log    infralogger.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore returns a store backed by client.
func NewRedisStore(client redis.Cmdable, log infralogger.Logger) *RedisStore {
	if log == nil {
		log = infralogger.NewNop()
	}
	return &RedisStore{
		client: client,
		locks:  NewKeyedMutex(),
		log:    log,
	}
}

func redisKey(companyKey string) string {
	return RedisKeyPrefix + companyKey
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, company string) ([]domain.URLRecord, error) {
	return s.load(ctx, domain.CompanyKey(company))
}

func (s *RedisStore) load(ctx context.Context, key string) ([]domain.URLRecord, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.URLRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", domain.ErrStorageUnavailable, redisKey(key), err)
	}
	return decodeCollection(data, s.log.With(infralogger.String("redis_key", redisKey(key)))), nil
}

// Merge implements Store.
func (s *RedisStore) Merge(ctx context.Context, company string, records []domain.URLRecord) ([]domain.URLRecord, error) {
	key := domain.CompanyKey(company)
	unlock := s.locks.Lock(key)
	defer unlock()

	existing, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	merged, added := mergeRecords(existing, records)
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: encode collection: %w", domain.ErrStorageUnavailable, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKey(key), data, 0)
		pipe.SAdd(ctx, RedisCompaniesKey, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", domain.ErrStorageUnavailable, redisKey(key), err)
	}

	s.log.Debug("collection merged",
		infralogger.String("company_key", key),
		infralogger.Int("added", added),
		infralogger.Int("total", len(merged)))
	return merged, nil
}

// Companies implements Store.
func (s *RedisStore) Companies(ctx context.Context) ([]string, error) {
	keys, err := s.client.SMembers(ctx, RedisCompaniesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list companies: %w", domain.ErrStorageUnavailable, err)
	}
	sort.Strings(keys)
	return keys, nil
}
