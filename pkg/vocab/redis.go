package vocab

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/value"
)

// RedisSource reads vocabularies from Redis. Labels live in the hash
// "curator:vocab:<id>" (uri -> label), the value shape in the string key
// "curator:vocab:<id>:type".
type RedisSource struct {
	client *redis.Client
	prefix string
}

// NewRedisSource connects to the Redis server at redisURL.
func NewRedisSource(redisURL string) (*RedisSource, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisSourceWithClient(client), nil
}

// NewRedisSourceWithClient creates a source from an existing client.
func NewRedisSourceWithClient(client *redis.Client) *RedisSource {
	return &RedisSource{client: client, prefix: "curator:vocab:"}
}

func (s *RedisSource) key(vocabID string) string {
	return s.prefix + vocabID
}

// URILabels implements Source.
func (s *RedisSource) URILabels(ctx context.Context, vocabID string) (map[string]string, error) {
	labels, err := s.client.HGetAll(ctx, s.key(vocabID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read vocabulary labels: %w", err)
	}
	if len(labels) == 0 {
		return nil, errors.NewNotFoundError("vocabulary", vocabID)
	}
	return labels, nil
}

// Shape implements ShapeSource.
func (s *RedisSource) Shape(ctx context.Context, vocabID string) (value.Shape, error) {
	raw, err := s.client.Get(ctx, s.key(vocabID)+":type").Result()
	if err == redis.Nil {
		return value.ShapeUnknown, nil
	}
	if err != nil {
		return value.ShapeUnknown, fmt.Errorf("read vocabulary type: %w", err)
	}
	return value.ParseShape(raw), nil
}

// Save replaces a vocabulary.
func (s *RedisSource) Save(ctx context.Context, vocabID string, shape value.Shape, labels map[string]string) error {
	key := s.key(vocabID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(labels) > 0 {
			fields := make(map[string]any, len(labels))
			for uri, label := range labels {
				fields[uri] = label
			}
			pipe.HSet(ctx, key, fields)
		}
		pipe.Set(ctx, key+":type", shape.String(), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save vocabulary: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisSource) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisSource) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
