package profile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abraxas-365/shortlist/pkg/logx"
	"github.com/Abraxas-365/shortlist/ranking"
	"github.com/redis/go-redis/v9"
)

// CachedAnalyzer decorates a ProfileAnalyzer with a Redis cache so repeated
// lookups of the same identifier stay inside the external rate budget. Cache
// failures degrade to a direct call; the cache is never load-bearing.
type CachedAnalyzer struct {
	inner ranking.ProfileAnalyzer
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedAnalyzer wraps inner with a cache of the given TTL.
func NewCachedAnalyzer(inner ranking.ProfileAnalyzer, client *redis.Client, ttl time.Duration) *CachedAnalyzer {
	return &CachedAnalyzer{inner: inner, redis: client, ttl: ttl}
}

func cacheKey(externalID, jobRequirements string) string {
	sum := sha256.Sum256([]byte(jobRequirements))
	return "profile:analysis:" + externalID + ":" + hex.EncodeToString(sum[:8])
}

// AnalyzeProfile serves from cache when possible, otherwise delegates and
// stores the result.
func (c *CachedAnalyzer) AnalyzeProfile(ctx context.Context, externalID string, jobRequirements string) (*ranking.ProfileAnalysis, error) {
	key := cacheKey(externalID, jobRequirements)

	if data, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var analysis ranking.ProfileAnalysis
		if err := json.Unmarshal(data, &analysis); err == nil {
			return &analysis, nil
		}
		logx.Warnf("Dropping unreadable cached profile analysis for %s", externalID)
	} else if !errors.Is(err, redis.Nil) {
		logx.Warnf("Profile cache read failed for %s: %v", externalID, err)
	}

	analysis, err := c.inner.AnalyzeProfile(ctx, externalID, jobRequirements)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(analysis); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			logx.Warnf("Profile cache write failed for %s: %v", externalID, err)
		}
	}
	return analysis, nil
}
