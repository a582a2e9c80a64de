package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ticket-inventory/internal/status"
	"ticket-inventory/models"
)

// Lua scripts keep check-and-update atomic on the Redis side. Result codes:
// 1 ok, -1 missing key, -2 inactive, -3 sold out, -4 capacity below sold.
const (
	reserveScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
if redis.call('HGET', KEYS[1], 'active') ~= '1' then
	return -2
end
local total = tonumber(redis.call('HGET', KEYS[1], 'total'))
local sold = tonumber(redis.call('HGET', KEYS[1], 'sold'))
local qty = tonumber(ARGV[1])
if sold + qty > total then
	return -3
end
redis.call('HINCRBY', KEYS[1], 'sold', qty)
return 1
`

	releaseScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
local sold = tonumber(redis.call('HGET', KEYS[1], 'sold'))
local qty = tonumber(ARGV[1])
if qty > sold then
	qty = sold
end
redis.call('HINCRBY', KEYS[1], 'sold', -qty)
return 1
`

	syncScript = `
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('HSET', KEYS[1], 'total', ARGV[1], 'active', ARGV[3])
else
	redis.call('HSET', KEYS[1], 'total', ARGV[1], 'sold', ARGV[2], 'active', ARGV[3])
end
return 1
`

	adjustCapacityScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
local sold = tonumber(redis.call('HGET', KEYS[1], 'sold'))
local newTotal = tonumber(ARGV[1])
if newTotal < sold then
	return -4
end
redis.call('HSET', KEYS[1], 'total', newTotal)
return 1
`
)

// RedisLedger keeps live counts in a per-category Redis hash. Intended for
// deployments where several processes serve purchases against the same
// inventory; the store remains the durable mirror (see Flusher).
type RedisLedger struct {
	Redis *redis.Client
}

func NewRedisLedger(redisClient *redis.Client) *RedisLedger {
	return &RedisLedger{Redis: redisClient}
}

func categoryKey(categoryID string) string {
	return fmt.Sprintf("inventory:%s", categoryID)
}

func codeToErr(code int) error {
	switch code {
	case 1:
		return nil
	case -1:
		return status.ErrCategoryNotFound
	case -2:
		return status.ErrCategoryInactive
	case -3:
		return status.ErrSoldOut
	case -4:
		return status.ErrCapacityBelowSold
	default:
		return fmt.Errorf("inventory: unexpected script result %d", code)
	}
}

// Seed writes a category's counts into Redis, overwriting any stale state.
func (l *RedisLedger) Seed(ctx context.Context, categoryID string, total, sold int, active bool) error {
	activeFlag := "0"
	if active {
		activeFlag = "1"
	}

	return l.Redis.HSet(ctx, categoryKey(categoryID),
		"total", total,
		"sold", sold,
		"active", activeFlag,
	).Err()
}

// Sync updates a category's definition (total, active) while preserving the
// live sold count, which only reserve and release may move. The sold
// argument seeds the hash when the category is not in Redis yet.
func (l *RedisLedger) Sync(ctx context.Context, categoryID string, total, sold int, active bool) error {
	activeFlag := "0"
	if active {
		activeFlag = "1"
	}

	return l.Redis.Eval(ctx, syncScript, []string{categoryKey(categoryID)}, total, sold, activeFlag).Err()
}

// Remove drops a category from the ledger after its record is deleted.
func (l *RedisLedger) Remove(ctx context.Context, categoryID string) error {
	return l.Redis.Del(ctx, categoryKey(categoryID)).Err()
}

func (l *RedisLedger) TryReserve(ctx context.Context, categoryID string, qty int) (models.Reservation, error) {
	code, err := l.Redis.Eval(ctx, reserveScript, []string{categoryKey(categoryID)}, qty).Int()
	if err != nil {
		return models.Reservation{}, fmt.Errorf("inventory: reserve script: %w", err)
	}
	if err := codeToErr(code); err != nil {
		return models.Reservation{}, err
	}

	return models.Reservation{
		CategoryID: categoryID,
		Quantity:   qty,
		ReservedAt: time.Now(),
	}, nil
}

func (l *RedisLedger) Release(ctx context.Context, categoryID string, qty int) error {
	code, err := l.Redis.Eval(ctx, releaseScript, []string{categoryKey(categoryID)}, qty).Int()
	if err != nil {
		return fmt.Errorf("inventory: release script: %w", err)
	}
	return codeToErr(code)
}

func (l *RedisLedger) AdjustCapacity(ctx context.Context, categoryID string, newTotal int) error {
	code, err := l.Redis.Eval(ctx, adjustCapacityScript, []string{categoryKey(categoryID)}, newTotal).Int()
	if err != nil {
		return fmt.Errorf("inventory: adjust capacity script: %w", err)
	}
	return codeToErr(code)
}

func (l *RedisLedger) SetActive(ctx context.Context, categoryID string, active bool) error {
	key := categoryKey(categoryID)

	exists, err := l.Redis.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return status.ErrCategoryNotFound
	}

	activeFlag := "0"
	if active {
		activeFlag = "1"
	}
	return l.Redis.HSet(ctx, key, "active", activeFlag).Err()
}

func (l *RedisLedger) Snapshot(ctx context.Context, categoryID string) (Snapshot, error) {
	fields, err := l.Redis.HGetAll(ctx, categoryKey(categoryID)).Result()
	if err != nil {
		return Snapshot{}, err
	}
	if len(fields) == 0 {
		return Snapshot{}, status.ErrCategoryNotFound
	}

	return parseSnapshot(categoryID, fields)
}

// Snapshots returns the live state of every seeded category, used by the
// admin dashboard and the flusher.
func (l *RedisLedger) Snapshots(ctx context.Context) ([]Snapshot, error) {
	keys, err := l.Redis.Keys(ctx, "inventory:*").Result()
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(keys))
	for _, key := range keys {
		categoryID := key[len("inventory:"):]

		fields, err := l.Redis.HGetAll(ctx, key).Result()
		if err != nil || len(fields) == 0 {
			continue
		}

		snapshot, err := parseSnapshot(categoryID, fields)
		if err != nil {
			continue
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}

func parseSnapshot(categoryID string, fields map[string]string) (Snapshot, error) {
	var total, sold int
	if _, err := fmt.Sscanf(fields["total"], "%d", &total); err != nil {
		return Snapshot{}, fmt.Errorf("inventory: bad total for %s: %w", categoryID, err)
	}
	if _, err := fmt.Sscanf(fields["sold"], "%d", &sold); err != nil {
		return Snapshot{}, fmt.Errorf("inventory: bad sold for %s: %w", categoryID, err)
	}

	return Snapshot{
		CategoryID:   categoryID,
		TotalTickets: total,
		TicketsSold:  sold,
		Active:       fields["active"] == "1",
	}, nil
}
