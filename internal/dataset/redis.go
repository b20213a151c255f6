package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "kpi:dataset"
	// BumpChannel carries "<tenant>:<version>" whenever a tenant's snapshots change.
	BumpChannel = "kpi.dataset.bump"
)

// RedisStore keeps the latest snapshot of every tenant module in Redis, with a per-tenant
// version that moves on each write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore instantiates the store. A zero ttl keeps snapshots until replaced.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func versionKey(tenant string) string {
	return strings.Join([]string{keyPrefix, tenant, "version"}, ":")
}

func snapshotKey(tenant, module string) string {
	return strings.Join([]string{keyPrefix, tenant, module}, ":")
}

// Version returns the tenant's snapshot version, initialising it when missing.
func (s *RedisStore) Version(ctx context.Context, tenant string) (int64, error) {
	key := versionKey(tenant)
	ver, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		if err := s.client.SetNX(ctx, key, 1, 0).Err(); err != nil {
			return 0, fmt.Errorf("dataset: init version: %w", err)
		}
		return s.client.Get(ctx, key).Int64()
	}
	if err != nil {
		return 0, fmt.Errorf("dataset: version: %w", err)
	}
	if ver <= 0 {
		ver = 1
		if err := s.client.Set(ctx, key, ver, 0).Err(); err != nil {
			return 0, fmt.Errorf("dataset: reset version: %w", err)
		}
	}
	return ver, nil
}

// Put stores payload as the tenant's snapshot for module and bumps the tenant version.
func (s *RedisStore) Put(ctx context.Context, tenant, module string, payload json.RawMessage) (Snapshot, error) {
	if err := ValidateModule(module); err != nil {
		return Snapshot{}, err
	}
	var probe Bundle
	if err := probe.Set(module, payload); err != nil {
		return Snapshot{}, err
	}
	if _, err := s.Version(ctx, tenant); err != nil {
		return Snapshot{}, err
	}
	ver, err := s.client.Incr(ctx, versionKey(tenant)).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("dataset: bump: %w", err)
	}
	snap := Snapshot{
		ID:       uuid.NewString(),
		Tenant:   tenant,
		Module:   module,
		Version:  ver,
		StoredAt: s.now().UTC(),
		Payload:  payload,
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("dataset: encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(tenant, module), raw, s.ttl).Err(); err != nil {
		return Snapshot{}, fmt.Errorf("dataset: store snapshot: %w", err)
	}
	if err := s.publish(ctx, tenant, ver); err != nil {
		return snap, err
	}
	return snap, nil
}

// Load returns the stored snapshot of module, or ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, tenant, module string) (Snapshot, error) {
	if err := ValidateModule(module); err != nil {
		return Snapshot{}, err
	}
	raw, err := s.client.Get(ctx, snapshotKey(tenant, module)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, fmt.Errorf("%w: %s/%s", ErrNotFound, tenant, module)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("dataset: load: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("dataset: decode snapshot: %w", err)
	}
	return snap, nil
}

// LoadBundle reads the snapshots of the given modules in one round trip. Modules without a
// snapshot are left empty in the bundle.
func (s *RedisStore) LoadBundle(ctx context.Context, tenant string, modules []string) (*Bundle, error) {
	bundle := &Bundle{}
	if len(modules) == 0 {
		return bundle, nil
	}
	keys := make([]string, len(modules))
	for i, m := range modules {
		if err := ValidateModule(m); err != nil {
			return nil, err
		}
		keys[i] = snapshotKey(tenant, m)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("dataset: load bundle: %w", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			return nil, fmt.Errorf("dataset: decode snapshot %s: %w", modules[i], err)
		}
		if err := bundle.Set(modules[i], snap.Payload); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

// Delete removes the snapshot of module and bumps the tenant version.
func (s *RedisStore) Delete(ctx context.Context, tenant, module string) error {
	if err := ValidateModule(module); err != nil {
		return err
	}
	n, err := s.client.Del(ctx, snapshotKey(tenant, module)).Result()
	if err != nil {
		return fmt.Errorf("dataset: delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, tenant, module)
	}
	return s.Bump(ctx, tenant)
}

// Bump increments the tenant version and announces it on BumpChannel.
func (s *RedisStore) Bump(ctx context.Context, tenant string) error {
	if _, err := s.Version(ctx, tenant); err != nil {
		return err
	}
	ver, err := s.client.Incr(ctx, versionKey(tenant)).Result()
	if err != nil {
		return fmt.Errorf("dataset: bump: %w", err)
	}
	return s.publish(ctx, tenant, ver)
}

func (s *RedisStore) publish(ctx context.Context, tenant string, ver int64) error {
	msg := tenant + ":" + strconv.FormatInt(ver, 10)
	if err := s.client.Publish(ctx, BumpChannel, msg).Err(); err != nil {
		return fmt.Errorf("dataset: publish bump: %w", err)
	}
	return nil
}

// ListenForInvalidation subscribes to BumpChannel and calls fn for every announced version
// until ctx is done. Malformed messages are skipped.
func (s *RedisStore) ListenForInvalidation(ctx context.Context, fn func(tenant string, version int64)) error {
	if fn == nil {
		return errors.New("dataset: invalidation callback required")
	}
	pubsub := s.client.Subscribe(ctx, BumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("dataset: subscribe: %w", err)
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				tenant, ver, ok := parseBump(msg.Payload)
				if !ok {
					continue
				}
				fn(tenant, ver)
			}
		}
	}()
	return nil
}

func parseBump(payload string) (string, int64, bool) {
	idx := strings.LastIndex(payload, ":")
	if idx <= 0 {
		return "", 0, false
	}
	ver, err := strconv.ParseInt(payload[idx+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return payload[:idx], ver, true
}
