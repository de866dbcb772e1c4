package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
)

// refSeparator joins table and column in frequency hash fields. It cannot
// appear in an identifier.
const refSeparator = "\x1f"

type redisCorrectionRepository struct {
	client redis.Cmdable
	prefix string
}

// NewRedisCorrectionRepository keeps the correction log in a Redis list and
// per-key target counts in hashes. Both are written in one MULTI/EXEC so the
// log and the counts never disagree.
func NewRedisCorrectionRepository(client redis.Cmdable, keyPrefix string) CorrectionRepository {
	if keyPrefix == "" {
		keyPrefix = "crosswalk"
	}
	return &redisCorrectionRepository{client: client, prefix: keyPrefix}
}

var _ CorrectionRepository = (*redisCorrectionRepository)(nil)

func (r *redisCorrectionRepository) logKey() string {
	return r.prefix + ":corrections:log"
}

func (r *redisCorrectionRepository) freqKey(normalized string) string {
	return r.prefix + ":corrections:freq:" + normalized
}

func (r *redisCorrectionRepository) Append(ctx context.Context, c *models.Correction) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode correction: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, r.logKey(), data)
		if c.CountsTowardCatalog() {
			pipe.HIncrBy(ctx, r.freqKey(c.NormalizedSourceName), c.TargetTable+refSeparator+c.TargetColumn, 1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append correction: %w", err)
	}
	return nil
}

func (r *redisCorrectionRepository) FrequencyByKey(ctx context.Context, key string) (map[models.FieldRef]int, error) {
	raw, err := r.client.HGetAll(ctx, r.freqKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read correction counts: %w", err)
	}

	freq := make(map[models.FieldRef]int, len(raw))
	for field, v := range raw {
		table, column, ok := strings.Cut(field, refSeparator)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("correction count for %s: %w", field, err)
		}
		freq[models.FieldRef{Table: table, Column: column}] = n
	}
	return freq, nil
}

func (r *redisCorrectionRepository) List(ctx context.Context) ([]models.Correction, error) {
	raw, err := r.client.LRange(ctx, r.logKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections: %w", err)
	}

	out := make([]models.Correction, 0, len(raw))
	for i, item := range raw {
		var c models.Correction
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			return nil, fmt.Errorf("decode correction %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *redisCorrectionRepository) Count(ctx context.Context) (int, error) {
	n, err := r.client.LLen(ctx, r.logKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count corrections: %w", err)
	}
	return int(n), nil
}
