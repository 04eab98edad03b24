package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"community_hub/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	CommunityKeyPrefix  = "community:"
	DefaultCommunityTTL = 5 * time.Minute

	generationTTL = 24 * time.Hour
)

// errGenerationMoved aborts a snapshot write that raced with an invalidation.
var errGenerationMoved = errors.New("community generation moved")

// CommunityCache stores community JSON snapshots. Redis failures are logged
// and treated as misses so the database stays authoritative.
//
// Every invalidation bumps a per-community generation counter. A snapshot is
// only written when the generation read before the database load is still
// current, so a slow reader cannot put back data a writer just replaced.
type CommunityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCommunityCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *CommunityCache {
	if ttl <= 0 {
		ttl = DefaultCommunityTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommunityCache{client: client, ttl: ttl, logger: logger}
}

func communityKey(id string) string {
	return CommunityKeyPrefix + id
}

func generationKey(id string) string {
	return CommunityKeyPrefix + id + ":gen"
}

// Get returns the cached snapshot. On a miss it also returns the current
// generation to hand back to Set; a negative generation means Set must skip.
func (c *CommunityCache) Get(ctx context.Context, id string) (*model.Community, int64, bool) {
	pipe := c.client.Pipeline()
	snapshot := pipe.Get(ctx, communityKey(id))
	generation := pipe.Get(ctx, generationKey(id))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "community cache read failed", slog.String("community_id", id), slog.Any("err", err))
		return nil, -1, false
	}

	gen, err := generation.Int64()
	if errors.Is(err, redis.Nil) {
		gen = 0
	} else if err != nil {
		c.logger.WarnContext(ctx, "community cache generation unreadable", slog.String("community_id", id), slog.Any("err", err))
		gen = -1
	}

	data, err := snapshot.Bytes()
	if err != nil {
		return nil, gen, false
	}
	var community model.Community
	if err := json.Unmarshal(data, &community); err != nil {
		c.logger.WarnContext(ctx, "community cache decode failed", slog.String("community_id", id), slog.Any("err", err))
		return nil, gen, false
	}
	return &community, gen, true
}

// Set stores the snapshot if the generation still equals gen.
func (c *CommunityCache) Set(ctx context.Context, community *model.Community, gen int64) {
	if gen < 0 {
		return
	}
	data, err := json.Marshal(community)
	if err != nil {
		c.logger.WarnContext(ctx, "community cache encode failed", slog.String("community_id", community.ID), slog.Any("err", err))
		return
	}

	genKey := generationKey(community.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != gen {
			return errGenerationMoved
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, communityKey(community.ID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil:
	case errors.Is(err, errGenerationMoved), errors.Is(err, redis.TxFailedErr):
		c.logger.DebugContext(ctx, "community cache write skipped", slog.String("community_id", community.ID))
	default:
		c.logger.WarnContext(ctx, "community cache write failed", slog.String("community_id", community.ID), slog.Any("err", err))
	}
}

// Invalidate drops the snapshot and moves the generation on.
func (c *CommunityCache) Invalidate(ctx context.Context, id string) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(id))
		pipe.Expire(ctx, generationKey(id), generationTTL)
		pipe.Del(ctx, communityKey(id))
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "community cache delete failed", slog.String("community_id", id), slog.Any("err", err))
	}
}
